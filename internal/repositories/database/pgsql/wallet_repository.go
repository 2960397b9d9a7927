package pgsql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/SscSPs/ucoin_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/ucoin_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/ucoin_ledger/internal/models"
	"github.com/SscSPs/ucoin_ledger/internal/utils/mapping"
)

type PgxWalletRepository struct {
	tx *sql.Tx
}

var _ portsrepo.WalletBalanceRepository = (*PgxWalletRepository)(nil)

const selectWallet = `
	SELECT event_id, user_id, balance, updated_at
	FROM wallet_balance_cache
	WHERE event_id = $1 AND user_id = $2`

func (r *PgxWalletRepository) ensureRow(ctx context.Context, eventID int64, userID string) error {
	query := `
		INSERT INTO wallet_balance_cache (event_id, user_id, balance)
		VALUES ($1, $2, 0)
		ON CONFLICT (event_id, user_id) DO NOTHING;
	`
	if _, err := r.tx.ExecContext(ctx, query, eventID, userID); err != nil {
		return fmt.Errorf("failed to create wallet balance for user %s in event %d: %w", userID, eventID, err)
	}
	return nil
}

func (r *PgxWalletRepository) getOrCreate(ctx context.Context, eventID int64, userID string, lock bool) (*domain.WalletBalance, error) {
	if err := r.ensureRow(ctx, eventID, userID); err != nil {
		return nil, err
	}

	query := selectWallet
	if lock {
		query += ` FOR UPDATE`
	}
	var m models.WalletBalance
	if err := r.tx.QueryRowContext(ctx, query, eventID, userID).Scan(&m.EventID, &m.UserID, &m.Balance, &m.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to read wallet balance for user %s in event %d: %w", userID, eventID, err)
	}
	wb := mapping.ToDomainWalletBalance(m)
	return &wb, nil
}

func (r *PgxWalletRepository) GetOrCreate(ctx context.Context, eventID int64, userID string) (*domain.WalletBalance, error) {
	return r.getOrCreate(ctx, eventID, userID, false)
}

func (r *PgxWalletRepository) GetOrCreateForUpdate(ctx context.Context, eventID int64, userID string) (*domain.WalletBalance, error) {
	return r.getOrCreate(ctx, eventID, userID, true)
}

// SaveBalance upserts the cached balance.
func (r *PgxWalletRepository) SaveBalance(ctx context.Context, balance domain.WalletBalance) error {
	query := `
		INSERT INTO wallet_balance_cache (event_id, user_id, balance, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (event_id, user_id) DO UPDATE
		SET balance = EXCLUDED.balance, updated_at = EXCLUDED.updated_at;
	`
	if _, err := r.tx.ExecContext(ctx, query, balance.EventID, balance.UserID, domain.Money(balance.Balance)); err != nil {
		return fmt.Errorf("failed to save wallet balance for user %s in event %d: %w", balance.UserID, balance.EventID, err)
	}
	return nil
}

// ListPositiveBalances returns the wallets of an event holding money, ordered by user.
func (r *PgxWalletRepository) ListPositiveBalances(ctx context.Context, eventID int64) ([]domain.WalletBalance, error) {
	query := `
		SELECT event_id, user_id, balance, updated_at
		FROM wallet_balance_cache
		WHERE event_id = $1 AND balance > 0
		ORDER BY user_id;
	`
	rows, err := r.tx.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query positive balances for event %d: %w", eventID, err)
	}
	defer rows.Close()

	var balances []domain.WalletBalance
	for rows.Next() {
		var m models.WalletBalance
		if err := rows.Scan(&m.EventID, &m.UserID, &m.Balance, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan wallet balance row: %w", err)
		}
		balances = append(balances, mapping.ToDomainWalletBalance(m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wallet balance rows: %w", err)
	}
	return balances, nil
}
