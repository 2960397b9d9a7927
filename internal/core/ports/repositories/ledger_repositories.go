package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/ucoin_ledger/internal/core/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryCursor marks the last statement line of a page. Lines are ordered by
// (CreatedAt, EntryID) descending.
type EntryCursor struct {
	CreatedAt time.Time
	EntryID   int64
}

// LedgerReader defines read operations for ledger transactions and entries
type LedgerReader interface {
	// FindTransactionByKey retrieves a transaction (without entries) by its idempotency key.
	// Returns apperrors.ErrNotFound when no transaction holds the key.
	FindTransactionByKey(ctx context.Context, key string) (*domain.LedgerTransaction, error)

	// FindEntriesByTransactionID retrieves all entries of a transaction ordered by id.
	FindEntriesByTransactionID(ctx context.Context, transactionID uuid.UUID) ([]domain.Entry, error)

	// SumAccountEntries returns the sum of all entries against an account.
	SumAccountEntries(ctx context.Context, accountID int64) (decimal.Decimal, error)

	// ListAccountEntries retrieves up to limit statement lines for an account,
	// newest first, strictly after the cursor when one is given.
	ListAccountEntries(ctx context.Context, accountID int64, limit int, after *EntryCursor) ([]domain.StatementLine, error)
}

// LedgerWriter defines write operations for ledger transactions and entries
type LedgerWriter interface {
	// InsertTransaction persists the transaction header unless its idempotency key is
	// already taken, in which case nothing is written and created is false.
	InsertTransaction(ctx context.Context, tx *domain.LedgerTransaction) (created bool, err error)

	// InsertEntries persists entries and fills in their ids.
	InsertEntries(ctx context.Context, entries []domain.Entry) error
}

// LedgerRepository combines all ledger-related repository interfaces
type LedgerRepository interface {
	LedgerReader
	LedgerWriter
}
