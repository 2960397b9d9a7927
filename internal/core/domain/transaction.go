package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TxType classifies the business event behind a ledger transaction.
type TxType string

const (
	TxTopupOnline TxType = "topup_online"
	TxTopupCash   TxType = "topup_cash"
	TxPurchase    TxType = "purchase"
	TxRefund      TxType = "refund"
	TxAdjustment  TxType = "adjustment"
	TxExpiry      TxType = "expiry"
)

// Valid reports whether t is a known transaction type.
func (t TxType) Valid() bool {
	switch t {
	case TxTopupOnline, TxTopupCash, TxPurchase, TxRefund, TxAdjustment, TxExpiry:
		return true
	}
	return false
}

// TxStatus is posted for every transaction written today; void is reserved for reversals.
type TxStatus string

const (
	TxPosted TxStatus = "posted"
	TxVoid   TxStatus = "void"
)

// MaxIdempotencyKeyLength bounds the caller-supplied key. Every derived key must fit,
// including PurchaseKey with a 20-digit event id and two 64-character references.
const MaxIdempotencyKeyLength = 160

// LedgerTransaction is one logically atomic, balanced business event.
type LedgerTransaction struct {
	ID             uuid.UUID `json:"id"`
	EventID        int64     `json:"eventId"`
	TxType         TxType    `json:"txType"`
	Status         TxStatus  `json:"status"`
	IdempotencyKey string    `json:"idempotencyKey"`
	Reference      Reference `json:"reference"`
	CreatedBy      *string   `json:"createdBy,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	Entries        []Entry   `json:"entries,omitempty"`
}

// Entry is one signed, non-zero movement against one account. Entries are immutable.
type Entry struct {
	ID            int64           `json:"id"`
	TransactionID uuid.UUID       `json:"transactionId"`
	AccountID     int64           `json:"accountId"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
}

// EntryLine is the caller's description of an entry before it is posted.
type EntryLine struct {
	AccountID   int64           `validate:"required,gt=0"`
	Amount      decimal.Decimal `validate:"-"`
	Description string          `validate:"max=255"`
}

// PostTransactionRequest is the input of the ledger store's post operation.
type PostTransactionRequest struct {
	EventID        int64  `validate:"required,gt=0"`
	TxType         TxType `validate:"required"`
	IdempotencyKey string `validate:"required,max=160"`
	CreatedBy      *string
	Reference      Reference
	Entries        []EntryLine `validate:"required,min=1,dive"`
}
