package services

import (
	"context"

	"github.com/SscSPs/ucoin_ledger/internal/core/domain"
	"github.com/SscSPs/ucoin_ledger/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
)

// WalletBalanceSvc maintains the cached wallet balances.
type WalletBalanceSvc interface {
	GetBalance(ctx context.Context, eventID int64, userID string) (*domain.WalletBalance, error)
	ApplyDelta(ctx context.Context, eventID int64, userID string, delta decimal.Decimal) (*domain.WalletBalance, error)
	SetBalance(ctx context.Context, eventID int64, userID string, value decimal.Decimal) (*domain.WalletBalance, error)

	// ReconcileFromLedger rebuilds the cache row from the ledger and reports the drift.
	ReconcileFromLedger(ctx context.Context, eventID int64, userID string) (*domain.ReconcileResult, error)

	// SyncLegacyBalance copies a balance kept by an older representation into the
	// cache. Calling it again with the same value changes nothing.
	SyncLegacyBalance(ctx context.Context, eventID int64, userID string, legacy decimal.Decimal) (*domain.ReconcileResult, error)

	ListPositiveBalances(ctx context.Context, eventID int64) ([]domain.WalletBalance, error)
}

// WalletBalanceTxSvc exposes the same operations bound to a caller-owned unit of work.
type WalletBalanceTxSvc interface {
	GetBalanceTx(ctx context.Context, repos repositories.TxRepositories, eventID int64, userID string) (*domain.WalletBalance, error)
	// GetBalanceLockedTx locks the row until the caller's unit of work ends.
	GetBalanceLockedTx(ctx context.Context, repos repositories.TxRepositories, eventID int64, userID string) (*domain.WalletBalance, error)
	ApplyDeltaTx(ctx context.Context, repos repositories.TxRepositories, eventID int64, userID string, delta decimal.Decimal) (*domain.WalletBalance, error)
	SetBalanceTx(ctx context.Context, repos repositories.TxRepositories, eventID int64, userID string, value decimal.Decimal) (*domain.WalletBalance, error)
	ReconcileFromLedgerTx(ctx context.Context, repos repositories.TxRepositories, eventID int64, userID string) (*domain.ReconcileResult, error)
}

// WalletBalanceSvcFacade combines the wallet balance service interfaces
type WalletBalanceSvcFacade interface {
	WalletBalanceSvc
	WalletBalanceTxSvc
}
