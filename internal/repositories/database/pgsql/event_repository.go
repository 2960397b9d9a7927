package pgsql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/SscSPs/ucoin_ledger/internal/apperrors"
	"github.com/SscSPs/ucoin_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/ucoin_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/ucoin_ledger/internal/models"
	"github.com/SscSPs/ucoin_ledger/internal/utils/mapping"
)

type PgxEventRepository struct {
	tx *sql.Tx
}

var _ portsrepo.EventRepository = (*PgxEventRepository)(nil)

const eventColumns = `id, code, name, status, starts_at, ends_at, created_at`

func scanEvent(row rowScanner) (models.Event, error) {
	var m models.Event
	err := row.Scan(&m.ID, &m.Code, &m.Name, &m.Status, &m.StartsAt, &m.EndsAt, &m.CreatedAt)
	return m, err
}

func (r *PgxEventRepository) findOne(ctx context.Context, query string, what string, arg any) (*domain.Event, error) {
	m, err := scanEvent(r.tx.QueryRowContext(ctx, query, arg))
	if err != nil {
		return nil, notFound(err, "event %s %v", what, arg)
	}
	ev := mapping.ToDomainEvent(m)
	return &ev, nil
}

func (r *PgxEventRepository) FindEventByID(ctx context.Context, eventID int64) (*domain.Event, error) {
	return r.findOne(ctx, `SELECT `+eventColumns+` FROM event_campaigns WHERE id = $1;`, "id", eventID)
}

func (r *PgxEventRepository) FindEventByCode(ctx context.Context, code string) (*domain.Event, error) {
	return r.findOne(ctx, `SELECT `+eventColumns+` FROM event_campaigns WHERE code = $1;`, "code", code)
}

func (r *PgxEventRepository) LockEventForShare(ctx context.Context, eventID int64) (*domain.Event, error) {
	return r.findOne(ctx, `SELECT `+eventColumns+` FROM event_campaigns WHERE id = $1 FOR SHARE;`, "id", eventID)
}

func (r *PgxEventRepository) LockEventForUpdate(ctx context.Context, eventID int64) (*domain.Event, error) {
	return r.findOne(ctx, `SELECT `+eventColumns+` FROM event_campaigns WHERE id = $1 FOR UPDATE;`, "id", eventID)
}

// ListActiveEvents returns active events, most recently started first.
func (r *PgxEventRepository) ListActiveEvents(ctx context.Context) ([]domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM event_campaigns
		WHERE status = 'active'
		ORDER BY starts_at DESC, id DESC;
	`
	rows, err := r.tx.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query active events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		m, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		events = append(events, mapping.ToDomainEvent(m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event rows: %w", err)
	}
	return events, nil
}

func (r *PgxEventRepository) MarkEventClosed(ctx context.Context, eventID int64, at time.Time) error {
	query := `
		UPDATE event_campaigns
		SET status = 'closed', ends_at = GREATEST(starts_at, LEAST(ends_at, $2))
		WHERE id = $1;`
	res, err := r.tx.ExecContext(ctx, query, eventID, at.UTC())
	if err != nil {
		return fmt.Errorf("failed to close event %d: %w", eventID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("event id %d", eventID))
	}
	return nil
}
