package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/ucoin_ledger/internal/core/domain"
)

// EventReader defines read operations for events
type EventReader interface {
	// FindEventByID retrieves an event. Returns apperrors.ErrNotFound when missing.
	FindEventByID(ctx context.Context, eventID int64) (*domain.Event, error)

	// FindEventByCode retrieves an event by its unique code.
	FindEventByCode(ctx context.Context, code string) (*domain.Event, error)

	// ListActiveEvents retrieves active events, most recently started first.
	ListActiveEvents(ctx context.Context) ([]domain.Event, error)
}

// EventLocker reads the current event row under a lock held until the unit of work ends.
type EventLocker interface {
	// LockEventForShare blocks a concurrent close-out while a posting is in flight.
	LockEventForShare(ctx context.Context, eventID int64) (*domain.Event, error)

	// LockEventForUpdate excludes every concurrent posting; used by close-out.
	LockEventForUpdate(ctx context.Context, eventID int64) (*domain.Event, error)
}

// EventRepository combines all event-related repository interfaces
type EventRepository interface {
	EventReader
	EventLocker

	// MarkEventClosed flips the event status to closed and pulls EndsAt back to
	// at when the event was scheduled to run longer, never before StartsAt.
	MarkEventClosed(ctx context.Context, eventID int64, at time.Time) error
}
