package repositories

import (
	"context"

	"github.com/SscSPs/ucoin_ledger/internal/core/domain"
)

// TopupRepository persists top-up records and staff credit grants.
type TopupRepository interface {
	// GetOrCreateBySourceReference returns the record stored under
	// (record.EventID, record.SourceReference), inserting record when there is none.
	// created reports whether the returned record is the one just inserted.
	GetOrCreateBySourceReference(ctx context.Context, record domain.TopupRecord) (*domain.TopupRecord, bool, error)

	// InsertTopup always persists a new record and fills in its id and creation time.
	InsertTopup(ctx context.Context, record *domain.TopupRecord) error

	// InsertStaffGrant persists a new grant and fills in its id and creation time.
	InsertStaffGrant(ctx context.Context, grant *domain.StaffCreditGrant) error
}
