package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/ucoin_ledger/internal/apperrors"
	"github.com/SscSPs/ucoin_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/ucoin_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ucoin_ledger/internal/core/ports/services"
	"github.com/SscSPs/ucoin_ledger/internal/platform/clock"
)

// eventGate reads event status from storage on every call; it never trusts the
// copy of the event held by the caller.
type eventGate struct {
	BaseService
	uow   portsrepo.UnitOfWork
	clock clock.Clock
}

// NewEventGate creates a new EventGate.
func NewEventGate(uow portsrepo.UnitOfWork, opts ...Option) portssvc.EventGate {
	o := newOptions(opts)
	return &eventGate{
		BaseService: newBaseService(o),
		uow:         uow,
		clock:       o.Clock,
	}
}

func (g *eventGate) AssertEventWritable(ctx context.Context, event domain.Event) error {
	return g.uow.Do(ctx, func(ctx context.Context, repos portsrepo.TxRepositories) error {
		return g.AssertEventWritableTx(ctx, repos, event)
	})
}

func (g *eventGate) AssertEventWritableTx(ctx context.Context, repos portsrepo.TxRepositories, event domain.Event) error {
	if event.ID <= 0 {
		return apperrors.NewValidationError("event is required")
	}
	current, err := repos.Events().LockEventForShare(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("load event %d: %w", event.ID, err)
	}
	if current.IsClosed() {
		return &apperrors.EventClosedError{EventID: current.ID, Status: string(current.Status)}
	}
	return nil
}

func (g *eventGate) IsEventWritable(ctx context.Context, event domain.Event) (bool, error) {
	err := g.AssertEventWritable(ctx, event)
	if errors.Is(err, apperrors.ErrEventClosed) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (g *eventGate) ActiveEvent(ctx context.Context) (*domain.Event, error) {
	events, err := inUnit(ctx, g.uow, func(ctx context.Context, repos portsrepo.TxRepositories) ([]domain.Event, error) {
		return repos.Events().ListActiveEvents(ctx)
	})
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, apperrors.NewNotFoundError("no active event")
	}

	now := g.clock.Now()
	for i := range events {
		if events[i].IsActiveAt(now) {
			return &events[i], nil
		}
	}
	return &events[0], nil
}

func (g *eventGate) FindEventByCode(ctx context.Context, code string) (*domain.Event, error) {
	return inUnit(ctx, g.uow, func(ctx context.Context, repos portsrepo.TxRepositories) (*domain.Event, error) {
		return repos.Events().FindEventByCode(ctx, code)
	})
}
