package repositories

import (
	"context"

	"github.com/SscSPs/ucoin_ledger/internal/core/domain"
)

// AccountReader defines read operations for ledger accounts
type AccountReader interface {
	// FindAccountByCode retrieves the account identified by (eventID, code).
	// Returns apperrors.ErrNotFound when it does not exist.
	FindAccountByCode(ctx context.Context, eventID int64, code string) (*domain.Account, error)

	// ListWalletAccounts retrieves every user wallet account of an event.
	ListWalletAccounts(ctx context.Context, eventID int64) ([]domain.Account, error)
}

// AccountWriter defines write operations for ledger accounts
type AccountWriter interface {
	// EnsureAccount returns the account with the same (EventID, Code), creating it
	// from the given value when absent. An existing account is never modified.
	EnsureAccount(ctx context.Context, account domain.Account) (*domain.Account, error)

	// DeactivateAccount marks an account as inactive. Accounts are never deleted.
	DeactivateAccount(ctx context.Context, accountID int64) error
}

// AccountRepository combines all account-related repository interfaces
type AccountRepository interface {
	AccountReader
	AccountWriter
}
