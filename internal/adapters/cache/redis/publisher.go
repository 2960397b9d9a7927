// Package redis publishes committed wallet balances to Redis so read-heavy
// surfaces (checkout screens, kiosks) can show them without touching Postgres.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/SscSPs/ucoin_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/ucoin_ledger/internal/core/ports/services"
	"github.com/SscSPs/ucoin_ledger/internal/platform/logging"
	"github.com/go-redis/redis/v8"
)

// Snapshot is the JSON document stored per wallet.
type Snapshot struct {
	EventID   int64     `json:"eventId"`
	UserID    string    `json:"userId"`
	Balance   string    `json:"balance"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SnapshotKey is the Redis key of a wallet's snapshot.
func SnapshotKey(eventID int64, userID string) string {
	return fmt.Sprintf("ucoin:balance:%d:%s", eventID, userID)
}

// BalancePublisher writes snapshots with a TTL. Redis is advisory: the ledger
// stays the source of truth and publish failures are only logged.
type BalancePublisher struct {
	client *redis.Client
	ttl    time.Duration
}

var _ portssvc.BalanceNotifier = (*BalancePublisher)(nil)

func NewBalancePublisher(client *redis.Client, ttl time.Duration) *BalancePublisher {
	return &BalancePublisher{client: client, ttl: ttl}
}

// BalanceChanged stores the committed balance.
func (p *BalancePublisher) BalanceChanged(ctx context.Context, balance domain.WalletBalance) {
	logger := logging.FromContext(ctx)
	payload, err := json.Marshal(Snapshot{
		EventID:   balance.EventID,
		UserID:    balance.UserID,
		Balance:   domain.Money(balance.Balance).StringFixed(2),
		UpdatedAt: balance.UpdatedAt.UTC(),
	})
	if err != nil {
		logger.Error("failed to encode balance snapshot", "error", err, "user_id", balance.UserID)
		return
	}

	key := SnapshotKey(balance.EventID, balance.UserID)
	if err := p.client.Set(ctx, key, string(payload), p.ttl).Err(); err != nil {
		logger.Warn("failed to publish balance snapshot", "error", err, "key", key)
		return
	}
	logger.Debug("balance snapshot published", "key", key)
}

// NewClient connects to Redis and verifies the connection.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}
	return rdb, nil
}
