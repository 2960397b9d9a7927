package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// TopupRecord is a row of topup_records.
type TopupRecord struct {
	ID              int64           `db:"id"`
	EventID         int64           `db:"event_id"`
	UserID          string          `db:"user_id"`
	Channel         string          `db:"channel"`
	Amount          decimal.Decimal `db:"amount"`
	Status          string          `db:"status"`
	Provider        string          `db:"provider"`
	ProviderRef     string          `db:"provider_ref"`
	SourceReference string          `db:"source_reference"`
	StaffUserID     sql.NullString  `db:"staff_user_id"` // Nullable
	CreatedAt       time.Time       `db:"created_at"`
}

// StaffCreditGrant is a row of staff_credit_grants.
type StaffCreditGrant struct {
	ID           int64           `db:"id"`
	EventID      int64           `db:"event_id"`
	ClientUserID string          `db:"client_user_id"`
	StaffUserID  string          `db:"staff_user_id"`
	Amount       decimal.Decimal `db:"amount"`
	Reason       string          `db:"reason"`
	CreatedAt    time.Time       `db:"created_at"`
}
