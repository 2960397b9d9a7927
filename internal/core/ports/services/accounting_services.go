package services

import (
	"context"

	"github.com/SscSPs/ucoin_ledger/internal/core/domain"
)

// AccountingSvc translates business events into balanced ledger postings and
// keeps the wallet cache in step. Each call is one atomic unit of work.
type AccountingSvc interface {
	RecordOnlineTopup(ctx context.Context, req domain.OnlineTopupRequest) (*domain.TopupRecord, error)
	GrantCashTopup(ctx context.Context, req domain.CashTopupRequest) (*domain.TopupRecord, *domain.StaffCreditGrant, error)

	// RecordPurchase rejects with *apperrors.InsufficientFundsError before any write.
	RecordPurchase(ctx context.Context, req domain.PurchaseRequest) (*domain.WalletBalance, error)

	// RecordPurchaseMirror posts a purchase without a funds check (legacy backfill).
	RecordPurchaseMirror(ctx context.Context, req domain.PurchaseRequest) (*domain.WalletBalance, error)

	ExpireRemainingBalance(ctx context.Context, event domain.Event, userID string, createdBy *string) (*domain.WalletBalance, error)
	GetBalance(ctx context.Context, event domain.Event, userID string) (*domain.WalletBalance, error)
	ReconcileBalanceFromLedger(ctx context.Context, event domain.Event, userID string) (*domain.ReconcileResult, error)
	// ReconcileEvent rebuilds the cache of every wallet account of the event.
	ReconcileEvent(ctx context.Context, event domain.Event) ([]domain.ReconcileResult, error)

	// CloseOutEvent expires every positive wallet and marks the event closed.
	CloseOutEvent(ctx context.Context, event domain.Event, createdBy *string) (*domain.CloseOutSummary, error)
}
