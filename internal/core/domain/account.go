package domain

import "fmt"

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "asset"
	Liability AccountType = "liability"
	Revenue   AccountType = "revenue"
	Expense   AccountType = "expense"
	Equity    AccountType = "equity"
)

// Valid reports whether t is one of the five accounting types.
func (t AccountType) Valid() bool {
	switch t {
	case Asset, Liability, Revenue, Expense, Equity:
		return true
	}
	return false
}

// Platform account codes, ensured lazily per event.
const (
	PlatformCashCode    = "PLATFORM_CASH"
	PlatformRevenueCode = "PLATFORM_REVENUE"
	PlatformExpiryCode  = "PLATFORM_EXPIRY"
)

// Account is a ledger participant scoped to one event. (EventID, Code) is unique.
// Accounts are never deleted, only deactivated.
type Account struct {
	ID           int64       `json:"id"`
	EventID      int64       `json:"eventId"`
	Code         string      `json:"code"`
	Name         string      `json:"name"`
	AccountType  AccountType `json:"accountType"`
	OwnerUserID  *string     `json:"ownerUserId,omitempty"`
	OwnerStallID *int64      `json:"ownerStallId,omitempty"`
	IsActive     bool        `json:"isActive"`
}

// AccountOwner optionally ties an account to a user or a stall.
type AccountOwner struct {
	UserID  *string
	StallID *int64
}

// WalletAccountCode is the deterministic code of a user's wallet liability account.
func WalletAccountCode(userID string) string {
	return fmt.Sprintf("WALLET_USER_%s", userID)
}
