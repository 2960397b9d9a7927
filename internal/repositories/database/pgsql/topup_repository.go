package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/SscSPs/ucoin_ledger/internal/apperrors"
	"github.com/SscSPs/ucoin_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/ucoin_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/ucoin_ledger/internal/models"
	"github.com/SscSPs/ucoin_ledger/internal/utils/mapping"
)

type PgxTopupRepository struct {
	tx *sql.Tx
}

var _ portsrepo.TopupRepository = (*PgxTopupRepository)(nil)

const insertTopup = `
	INSERT INTO topup_records (event_id, user_id, channel, amount, status, provider, provider_ref, source_reference, staff_user_id)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

func topupArgs(m models.TopupRecord) []any {
	return []any{
		m.EventID,
		m.UserID,
		m.Channel,
		m.Amount,
		m.Status,
		m.Provider,
		m.ProviderRef,
		m.SourceReference,
		m.StaffUserID,
	}
}

// GetOrCreateBySourceReference relies on the partial unique index over
// (event_id, source_reference) for non-empty references.
func (r *PgxTopupRepository) GetOrCreateBySourceReference(ctx context.Context, record domain.TopupRecord) (*domain.TopupRecord, bool, error) {
	if record.SourceReference == "" {
		return nil, false, apperrors.NewValidationError("source reference is required")
	}
	m := mapping.ToModelTopup(record)

	query := insertTopup + `
		ON CONFLICT (event_id, source_reference) WHERE source_reference <> '' DO NOTHING
		RETURNING id, created_at;
	`
	err := r.tx.QueryRowContext(ctx, query, topupArgs(m)...).Scan(&m.ID, &m.CreatedAt)
	if err == nil {
		created := mapping.ToDomainTopup(m)
		return &created, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to insert topup %s: %w", record.SourceReference, err)
	}

	existing, err := r.findBySourceReference(ctx, record.EventID, record.SourceReference)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *PgxTopupRepository) findBySourceReference(ctx context.Context, eventID int64, ref string) (*domain.TopupRecord, error) {
	query := `
		SELECT id, event_id, user_id, channel, amount, status, provider, provider_ref, source_reference, staff_user_id, created_at
		FROM topup_records
		WHERE event_id = $1 AND source_reference = $2;
	`
	var m models.TopupRecord
	err := r.tx.QueryRowContext(ctx, query, eventID, ref).Scan(
		&m.ID,
		&m.EventID,
		&m.UserID,
		&m.Channel,
		&m.Amount,
		&m.Status,
		&m.Provider,
		&m.ProviderRef,
		&m.SourceReference,
		&m.StaffUserID,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err, "topup %s in event %d", ref, eventID)
	}
	rec := mapping.ToDomainTopup(m)
	return &rec, nil
}

func (r *PgxTopupRepository) InsertTopup(ctx context.Context, record *domain.TopupRecord) error {
	m := mapping.ToModelTopup(*record)
	query := insertTopup + ` RETURNING id, created_at;`
	if err := r.tx.QueryRowContext(ctx, query, topupArgs(m)...).Scan(&record.ID, &record.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert topup for user %s: %w", record.UserID, err)
	}
	return nil
}

func (r *PgxTopupRepository) InsertStaffGrant(ctx context.Context, grant *domain.StaffCreditGrant) error {
	m := mapping.ToModelStaffGrant(*grant)
	query := `
		INSERT INTO staff_credit_grants (event_id, client_user_id, staff_user_id, amount, reason)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at;
	`
	err := r.tx.QueryRowContext(ctx, query, m.EventID, m.ClientUserID, m.StaffUserID, m.Amount, m.Reason).
		Scan(&grant.ID, &grant.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert staff grant for user %s: %w", grant.ClientUserID, err)
	}
	return nil
}
