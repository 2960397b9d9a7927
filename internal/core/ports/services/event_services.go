package services

import (
	"context"

	"github.com/SscSPs/ucoin_ledger/internal/core/domain"
	"github.com/SscSPs/ucoin_ledger/internal/core/ports/repositories"
)

// EventGate answers whether an event still accepts ledger writes.
type EventGate interface {
	// AssertEventWritable returns *apperrors.EventClosedError for a closed event.
	AssertEventWritable(ctx context.Context, event domain.Event) error
	IsEventWritable(ctx context.Context, event domain.Event) (bool, error)

	// ActiveEvent prefers an active event whose window contains now, else the
	// most recently started active one. Returns apperrors.ErrNotFound if none.
	ActiveEvent(ctx context.Context) (*domain.Event, error)
	FindEventByCode(ctx context.Context, code string) (*domain.Event, error)

	// AssertEventWritableTx reads the event's current status under a shared row
	// lock so a concurrent close-out waits for the caller's unit of work.
	AssertEventWritableTx(ctx context.Context, repos repositories.TxRepositories, event domain.Event) error
}

// BalanceNotifier is told about wallet balances after their unit of work committed.
// Failures are the notifier's own concern and never undo the posting.
type BalanceNotifier interface {
	BalanceChanged(ctx context.Context, balance domain.WalletBalance)
}

// NopNotifier discards every notification.
type NopNotifier struct{}

func (NopNotifier) BalanceChanged(context.Context, domain.WalletBalance) {}
