package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/SscSPs/ucoin_ledger/internal/apperrors"
	"github.com/SscSPs/ucoin_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/ucoin_ledger/internal/core/ports/services"
	"github.com/SscSPs/ucoin_ledger/internal/platform/logging"
	"github.com/cenkalti/backoff/v4"
)

var errUsage = errors.New("invalid usage")

type commands struct {
	svc      *portssvc.ServiceContainer
	out      io.Writer
	operator *string
	backoff  func() backoff.BackOff
}

func newCommands(svc *portssvc.ServiceContainer, out io.Writer, operator string) *commands {
	c := &commands{svc: svc, out: out, backoff: defaultBackoff}
	if operator != "" {
		c.operator = &operator
	}
	return c
}

func defaultBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxElapsedTime = 15 * time.Second
	return backoff.WithMaxRetries(b, 5)
}

// withRetry repeats op while it fails with a transient storage error.
func withRetry[T any](ctx context.Context, b backoff.BackOff, op func() (T, error)) (T, error) {
	attempt := 0
	return backoff.RetryWithData(func() (T, error) {
		attempt++
		v, err := op()
		if err == nil {
			return v, nil
		}
		if !apperrors.IsRetryable(err) {
			return v, backoff.Permanent(err)
		}
		logging.FromContext(ctx).Warn("Transient storage error, retrying",
			slog.Int("attempt", attempt), slog.String("error", err.Error()))
		return v, err
	}, backoff.WithContext(b, ctx))
}

func (c *commands) dispatch(ctx context.Context, name string, args []string) error {
	switch name {
	case "close-event":
		if len(args) != 1 {
			return fmt.Errorf("%w: close-event <event-code>", errUsage)
		}
		return c.closeEvent(ctx, args[0])
	case "reconcile":
		if len(args) < 1 || len(args) > 2 {
			return fmt.Errorf("%w: reconcile <event-code> [user-id]", errUsage)
		}
		user := ""
		if len(args) == 2 {
			user = args[1]
		}
		return c.reconcile(ctx, args[0], user)
	case "balance":
		if len(args) != 2 {
			return fmt.Errorf("%w: balance <event-code> <user-id>", errUsage)
		}
		return c.balance(ctx, args[0], args[1])
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, name)
	}
}

func (c *commands) event(ctx context.Context, code string) (*domain.Event, error) {
	ev, err := withRetry(ctx, c.backoff(), func() (*domain.Event, error) {
		return c.svc.Events.FindEventByCode(ctx, code)
	})
	if err != nil {
		return nil, fmt.Errorf("event %s: %w", code, err)
	}
	return ev, nil
}

func (c *commands) closeEvent(ctx context.Context, code string) error {
	ev, err := c.event(ctx, code)
	if err != nil {
		return err
	}
	summary, err := withRetry(ctx, c.backoff(), func() (*domain.CloseOutSummary, error) {
		return c.svc.Accounting.CloseOutEvent(ctx, *ev, c.operator)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "event=%s wallets_expired=%d total_expired=%s already_closed=%t\n",
		ev.Code, summary.WalletsExpired, domain.FormatMoney(summary.TotalExpired), summary.AlreadyClosed)
	return nil
}

func (c *commands) reconcile(ctx context.Context, code, userID string) error {
	ev, err := c.event(ctx, code)
	if err != nil {
		return err
	}

	var results []domain.ReconcileResult
	if userID == "" {
		results, err = withRetry(ctx, c.backoff(), func() ([]domain.ReconcileResult, error) {
			return c.svc.Accounting.ReconcileEvent(ctx, *ev)
		})
	} else {
		var one *domain.ReconcileResult
		one, err = withRetry(ctx, c.backoff(), func() (*domain.ReconcileResult, error) {
			return c.svc.Accounting.ReconcileBalanceFromLedger(ctx, *ev, userID)
		})
		if one != nil {
			results = []domain.ReconcileResult{*one}
		}
	}
	if err != nil {
		return err
	}

	for _, r := range results {
		fmt.Fprintf(c.out, "user=%s previous=%s reconciled=%s drift=%s\n",
			r.UserID, domain.FormatMoney(r.Previous), domain.FormatMoney(r.Reconciled), domain.FormatMoney(r.Drift()))
	}
	return nil
}

func (c *commands) balance(ctx context.Context, code, userID string) error {
	ev, err := c.event(ctx, code)
	if err != nil {
		return err
	}
	wb, err := withRetry(ctx, c.backoff(), func() (*domain.WalletBalance, error) {
		return c.svc.Accounting.GetBalance(ctx, *ev, userID)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "event=%s user=%s balance=%s\n", ev.Code, wb.UserID, domain.FormatMoney(wb.Balance))
	return nil
}
