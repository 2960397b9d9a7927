package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/ucoin_ledger/internal/apperrors"
	"github.com/SscSPs/ucoin_ledger/internal/core/domain"
	"github.com/SscSPs/ucoin_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ucoin_ledger/internal/core/ports/services"
	"github.com/SscSPs/ucoin_ledger/internal/core/services"
	"github.com/SscSPs/ucoin_ledger/internal/platform/clock"
	"github.com/SscSPs/ucoin_ledger/internal/repositories/memory"
	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)

// flakyUnitOfWork fails the first n units with a transient error.
type flakyUnitOfWork struct {
	repositories.UnitOfWork
	failures int
	calls    int
}

func (f *flakyUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, repos repositories.TxRepositories) error) error {
	f.calls++
	if f.calls <= f.failures {
		return apperrors.MarkTransient(errors.New("lock timeout"))
	}
	return f.UnitOfWork.Do(ctx, fn)
}

type fixture struct {
	svc   *portssvc.ServiceContainer
	uow   *flakyUnitOfWork
	out   *bytes.Buffer
	cmds  *commands
	event domain.Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore(clock.Fixed(testNow))
	uow := &flakyUnitOfWork{UnitOfWork: store}
	svc := services.NewContainer(uow, services.WithClock(clock.Fixed(testNow)))
	out := &bytes.Buffer{}

	cmds := newCommands(svc, out, "ops-1")
	cmds.backoff = func() backoff.BackOff { return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 3) }

	ev := store.AddEvent(domain.Event{
		Code:     "fair-2026",
		Name:     "Spring fair",
		Status:   domain.CampaignActive,
		StartsAt: testNow.Add(-time.Hour),
		EndsAt:   testNow.Add(time.Hour),
	})

	_, err := svc.Accounting.RecordOnlineTopup(context.Background(), domain.OnlineTopupRequest{
		Event:           ev,
		UserID:          "u-1",
		Amount:          decimal.RequireFromString("12.50"),
		SourceReference: "pp-1",
	})
	require.NoError(t, err)

	return &fixture{svc: svc, uow: uow, out: out, cmds: cmds, event: ev}
}

func TestBalanceCommand(t *testing.T) {
	f := newFixture(t)

	err := f.cmds.dispatch(context.Background(), "balance", []string{"fair-2026", "u-1"})

	require.NoError(t, err)
	assert.Equal(t, "event=fair-2026 user=u-1 balance=12.50\n", f.out.String())
}

func TestBalanceCommand_RetriesTransientErrors(t *testing.T) {
	f := newFixture(t)
	f.uow.calls = 0
	f.uow.failures = 2

	err := f.cmds.dispatch(context.Background(), "balance", []string{"fair-2026", "u-1"})

	require.NoError(t, err)
	assert.Equal(t, 4, f.uow.calls)
	assert.Contains(t, f.out.String(), "balance=12.50")
}

func TestBalanceCommand_GivesUpAfterMaxRetries(t *testing.T) {
	f := newFixture(t)
	f.uow.calls = 0
	f.uow.failures = 10

	err := f.cmds.dispatch(context.Background(), "balance", []string{"fair-2026", "u-1"})

	assert.True(t, apperrors.IsRetryable(err))
	assert.Equal(t, 4, f.uow.calls)
}

func TestReconcileCommand(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.cmds.dispatch(context.Background(), "reconcile", []string{"fair-2026"}))
	require.NoError(t, f.cmds.dispatch(context.Background(), "reconcile", []string{"fair-2026", "u-1"}))

	assert.Equal(t,
		"user=u-1 previous=12.50 reconciled=12.50 drift=0.00\n"+
			"user=u-1 previous=12.50 reconciled=12.50 drift=0.00\n",
		f.out.String())
}

func TestCloseEventCommand(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.cmds.dispatch(context.Background(), "close-event", []string{"fair-2026"}))
	require.NoError(t, f.cmds.dispatch(context.Background(), "close-event", []string{"fair-2026"}))

	assert.Equal(t,
		"event=fair-2026 wallets_expired=1 total_expired=12.50 already_closed=false\n"+
			"event=fair-2026 wallets_expired=0 total_expired=0.00 already_closed=true\n",
		f.out.String())

	expiry, err := f.svc.Ledger.GetTransactionByKey(context.Background(), domain.ExpiryKey(f.event.ID, "u-1", testNow))
	require.NoError(t, err)
	assert.Equal(t, domain.TxExpiry, expiry.TxType)
	require.NotNil(t, expiry.CreatedBy)
	assert.Equal(t, "ops-1", *expiry.CreatedBy)
}

func TestDispatch_UsageErrors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		cmd  string
		args []string
	}{
		{name: "unknown command", cmd: "refund", args: nil},
		{name: "close-event without code", cmd: "close-event", args: nil},
		{name: "balance without user", cmd: "balance", args: []string{"fair-2026"}},
		{name: "reconcile with extra args", cmd: "reconcile", args: []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.cmds.dispatch(context.Background(), tt.cmd, tt.args)
			assert.ErrorIs(t, err, errUsage)
		})
	}
}

func TestDispatch_UnknownEvent(t *testing.T) {
	f := newFixture(t)

	err := f.cmds.dispatch(context.Background(), "balance", []string{"nope", "u-1"})

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
