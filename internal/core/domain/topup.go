package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TopupChannel string

const (
	TopupOnline    TopupChannel = "online"
	TopupCashStaff TopupChannel = "cash_staff"
)

type TopupStatus string

const (
	TopupSuccess TopupStatus = "success"
	TopupPending TopupStatus = "pending"
	TopupFailed  TopupStatus = "failed"
)

// Provider defaults.
const (
	DefaultOnlineProvider = "PayPal"
	CashProvider          = "cash"
	CashProviderRef       = "staff"
)

// TopupRecord is the business record of one wallet credit. (EventID,
// SourceReference) is unique whenever SourceReference is non-empty.
type TopupRecord struct {
	ID              int64           `json:"id"`
	EventID         int64           `json:"eventId"`
	UserID          string          `json:"userId"`
	Channel         TopupChannel    `json:"channel"`
	Amount          decimal.Decimal `json:"amount"`
	Status          TopupStatus     `json:"status"`
	Provider        string          `json:"provider"`
	ProviderRef     string          `json:"providerRef"`
	SourceReference string          `json:"sourceReference,omitempty"`
	StaffUserID     *string         `json:"staffUserId,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// StaffCreditGrant records a staff member crediting a client's wallet against cash.
type StaffCreditGrant struct {
	ID           int64           `json:"id"`
	EventID      int64           `json:"eventId"`
	ClientUserID string          `json:"clientUserId"`
	StaffUserID  string          `json:"staffUserId"`
	Amount       decimal.Decimal `json:"amount"`
	Reason       string          `json:"reason"`
	CreatedAt    time.Time       `json:"createdAt"`
}
