package services

import (
	"context"

	"github.com/SscSPs/ucoin_ledger/internal/core/domain"
	"github.com/SscSPs/ucoin_ledger/internal/core/ports/repositories"
)

// LedgerReaderSvc defines read operations for ledger data
type LedgerReaderSvc interface {
	// GetTransactionByKey retrieves a posted transaction and its entries by idempotency key.
	GetTransactionByKey(ctx context.Context, key string) (*domain.LedgerTransaction, error)

	// ListWalletStatement retrieves a page of entries against a user's wallet account.
	ListWalletStatement(ctx context.Context, eventID int64, userID string, limit int, nextToken string) (*domain.WalletStatement, error)
}

// LedgerWriterSvc defines write operations for ledger data
type LedgerWriterSvc interface {
	// EnsureAccount gets or creates the account identified by (eventID, code).
	EnsureAccount(ctx context.Context, eventID int64, code, name string, accountType domain.AccountType, owner domain.AccountOwner) (*domain.Account, error)

	// PostTransaction posts a balanced transaction, or returns the stored one when
	// the idempotency key was already used.
	PostTransaction(ctx context.Context, req domain.PostTransactionRequest) (*domain.LedgerTransaction, error)

	// DeactivateAccount marks the account identified by (eventID, code) as inactive.
	DeactivateAccount(ctx context.Context, eventID int64, code string) error
}

// LedgerTxSvc runs ledger writes inside a unit of work owned by the caller.
type LedgerTxSvc interface {
	EnsureAccountTx(ctx context.Context, repos repositories.TxRepositories, eventID int64, code, name string, accountType domain.AccountType, owner domain.AccountOwner) (*domain.Account, error)
	// PostTransactionTx reports replayed=true when the key already existed.
	PostTransactionTx(ctx context.Context, repos repositories.TxRepositories, req domain.PostTransactionRequest) (tx *domain.LedgerTransaction, replayed bool, err error)
}

// LedgerSvcFacade combines all ledger-related service interfaces
type LedgerSvcFacade interface {
	LedgerReaderSvc
	LedgerWriterSvc
	LedgerTxSvc
}
