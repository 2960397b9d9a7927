package models

import "database/sql"

// Account is a row of ledger_accounts.
type Account struct {
	ID           int64          `db:"id"`
	EventID      int64          `db:"event_id"`
	Code         string         `db:"code"`
	Name         string         `db:"name"`
	AccountType  string         `db:"account_type"`
	OwnerUserID  sql.NullString `db:"owner_user_id"`  // Nullable
	OwnerStallID sql.NullInt64  `db:"owner_stall_id"` // Nullable
	IsActive     bool           `db:"is_active"`
}
