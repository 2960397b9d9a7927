package repositories

import (
	"context"

	"github.com/SscSPs/ucoin_ledger/internal/core/domain"
)

// WalletBalanceRepository persists the per-(event, user) balance cache.
type WalletBalanceRepository interface {
	// GetOrCreate returns the cache row, creating a zero row when absent. No lock is taken.
	GetOrCreate(ctx context.Context, eventID int64, userID string) (*domain.WalletBalance, error)

	// GetOrCreateForUpdate is GetOrCreate plus an exclusive row lock held until the unit of work ends.
	GetOrCreateForUpdate(ctx context.Context, eventID int64, userID string) (*domain.WalletBalance, error)

	// SaveBalance overwrites the cached balance of the row.
	SaveBalance(ctx context.Context, balance domain.WalletBalance) error

	// ListPositiveBalances returns every row of the event with a balance above zero.
	ListPositiveBalances(ctx context.Context, eventID int64) ([]domain.WalletBalance, error)
}
