package domain

import "github.com/shopspring/decimal"

// OnlineTopupRequest credits a wallet after a payment provider confirmed the charge.
type OnlineTopupRequest struct {
	Event           Event           `validate:"-"`
	UserID          string          `validate:"required,max=64"`
	Amount          decimal.Decimal `validate:"-"`
	Provider        string          `validate:"max=32"`
	ProviderRef     string          `validate:"max=128"`
	SourceReference string          `validate:"max=128"`
	CreatedBy       *string         `validate:"omitempty"`
}

// CashTopupRequest credits a client's wallet against cash handed to staff.
type CashTopupRequest struct {
	Event        Event           `validate:"-"`
	ClientUserID string          `validate:"required,max=64"`
	StaffUserID  string          `validate:"required,max=64"`
	Amount       decimal.Decimal `validate:"-"`
	Reason       string          `validate:"max=255"`
}

// PurchaseRequest debits a wallet for a completed order.
type PurchaseRequest struct {
	Event          Event           `validate:"-"`
	UserID         string          `validate:"required,max=64"`
	Amount         decimal.Decimal `validate:"-"`
	ReferenceModel string          `validate:"required,max=64"`
	ReferenceID    string          `validate:"required,max=64"`
	CreatedBy      *string         `validate:"omitempty"`
}

// CloseOutSummary describes what an event close-out did.
type CloseOutSummary struct {
	EventID        int64           `json:"eventId"`
	WalletsExpired int             `json:"walletsExpired"`
	TotalExpired   decimal.Decimal `json:"totalExpired"`
	AlreadyClosed  bool            `json:"alreadyClosed"`
}
