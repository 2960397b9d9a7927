package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction is a row of ledger_transactions.
type Transaction struct {
	ID             uuid.UUID      `db:"id"`
	EventID        int64          `db:"event_id"`
	TxType         string         `db:"tx_type"`
	Status         string         `db:"status"`
	IdempotencyKey string         `db:"idempotency_key"`
	ReferenceModel string         `db:"reference_model"`
	ReferenceID    string         `db:"reference_id"`
	CreatedBy      sql.NullString `db:"created_by"` // Nullable
	CreatedAt      time.Time      `db:"created_at"`
}

// Entry is a row of ledger_entries.
type Entry struct {
	ID            int64           `db:"id"`
	TransactionID uuid.UUID       `db:"transaction_id"`
	AccountID     int64           `db:"account_id"`
	Amount        decimal.Decimal `db:"amount"`
	Description   string          `db:"description"`
}

// StatementRow is an entry joined with the transaction it belongs to.
type StatementRow struct {
	Entry
	TxType         string    `db:"tx_type"`
	IdempotencyKey string    `db:"idempotency_key"`
	CreatedAt      time.Time `db:"created_at"`
}
