package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SscSPs/ucoin_ledger/internal/apperrors"
	"github.com/SscSPs/ucoin_ledger/internal/core/domain"
	"github.com/SscSPs/ucoin_ledger/internal/core/services"
	"github.com/SscSPs/ucoin_ledger/internal/platform/clock"
	"github.com/SscSPs/ucoin_ledger/internal/repositories/memory"
)

func TestWalletBalanceService_GetBalanceCreatesZeroRow(t *testing.T) {
	store := memory.NewStore(clock.Fixed(testNow))
	ev := store.AddEvent(activeEvent("fair"))
	svc := services.NewWalletBalanceService(store)

	wb, err := svc.GetBalance(context.Background(), ev.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, "0.00", domain.FormatMoney(wb.Balance))
	assert.Equal(t, "u1", wb.UserID)

	_, err = svc.GetBalance(context.Background(), ev.ID, " ")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestWalletBalanceService_ApplyDeltaAndSet(t *testing.T) {
	store := memory.NewStore(clock.Fixed(testNow))
	ev := store.AddEvent(activeEvent("fair"))
	svc := services.NewWalletBalanceService(store)
	ctx := context.Background()

	_, err := svc.ApplyDelta(ctx, ev.ID, "u1", dec("10.005"))
	require.NoError(t, err)
	wb, err := svc.ApplyDelta(ctx, ev.ID, "u1", dec("-2.5"))
	require.NoError(t, err)
	assert.Equal(t, "7.50", domain.FormatMoney(wb.Balance))

	wb, err = svc.SetBalance(ctx, ev.ID, "u1", dec("3.333"))
	require.NoError(t, err)
	assert.Equal(t, "3.33", domain.FormatMoney(wb.Balance))

	positives, err := svc.ListPositiveBalances(ctx, ev.ID)
	require.NoError(t, err)
	require.Len(t, positives, 1)
	assert.Equal(t, "u1", positives[0].UserID)
}

func TestWalletBalanceService_ReconcileFromLedger(t *testing.T) {
	store := memory.NewStore(clock.Fixed(testNow))
	ev := store.AddEvent(activeEvent("fair"))
	c := services.NewContainer(store, services.WithClock(clock.Fixed(testNow)))
	ctx := context.Background()

	_, err := c.Accounting.RecordOnlineTopup(ctx, domain.OnlineTopupRequest{Event: ev, UserID: "u1", Amount: dec("100")})
	require.NoError(t, err)

	// Corrupt the cache behind the ledger's back.
	_, err = c.Wallets.SetBalance(ctx, ev.ID, "u1", dec("70"))
	require.NoError(t, err)

	res, err := c.Wallets.ReconcileFromLedger(ctx, ev.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, "70.00", domain.FormatMoney(res.Previous))
	assert.Equal(t, "100.00", domain.FormatMoney(res.Reconciled))
	assert.Equal(t, "30.00", domain.FormatMoney(res.Drift()))

	wb, err := c.Wallets.GetBalance(ctx, ev.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, "100.00", domain.FormatMoney(wb.Balance))

	// A user with no wallet account reconciles to zero.
	res, err = c.Wallets.ReconcileFromLedger(ctx, ev.ID, "ghost")
	require.NoError(t, err)
	assert.True(t, res.Reconciled.IsZero())
}

func TestWalletBalanceService_SyncLegacyBalanceIsIdempotent(t *testing.T) {
	store := memory.NewStore(clock.Fixed(testNow))
	ev := store.AddEvent(activeEvent("fair"))
	svc := services.NewWalletBalanceService(store)
	ctx := context.Background()

	res, err := svc.SyncLegacyBalance(ctx, ev.ID, "u1", dec("42.1"))
	require.NoError(t, err)
	assert.Equal(t, "0.00", domain.FormatMoney(res.Previous))
	assert.Equal(t, "42.10", domain.FormatMoney(res.Reconciled))

	res, err = svc.SyncLegacyBalance(ctx, ev.ID, "u1", dec("42.10"))
	require.NoError(t, err)
	assert.True(t, res.Drift().IsZero())

	wb, err := svc.GetBalance(ctx, ev.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, "42.10", domain.FormatMoney(wb.Balance))
}
