package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WalletBalance is the denormalized per-(event, user) balance. It must always
// equal the sum of ledger entries against the user's wallet account for the event.
type WalletBalance struct {
	EventID   int64           `json:"eventId"`
	UserID    string          `json:"userId"`
	Balance   decimal.Decimal `json:"balance"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// ReconcileResult reports the cache value before and after a ledger rebuild.
type ReconcileResult struct {
	EventID    int64           `json:"eventId"`
	UserID     string          `json:"userId"`
	Previous   decimal.Decimal `json:"previous"`
	Reconciled decimal.Decimal `json:"reconciled"`
}

// Drift is the amount the cache was off by (reconciled minus previous).
func (r ReconcileResult) Drift() decimal.Decimal {
	return Money(r.Reconciled.Sub(r.Previous))
}

// StatementLine is one entry against a wallet account, joined with its transaction.
type StatementLine struct {
	EntryID        int64           `json:"entryId"`
	TransactionID  uuid.UUID       `json:"transactionId"`
	TxType         TxType          `json:"txType"`
	IdempotencyKey string          `json:"idempotencyKey"`
	Amount         decimal.Decimal `json:"amount"`
	Description    string          `json:"description"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// WalletStatement is one page of statement lines. NextToken is empty on the last page.
type WalletStatement struct {
	Lines     []StatementLine `json:"lines"`
	NextToken string          `json:"nextToken,omitempty"`
}
