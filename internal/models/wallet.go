package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WalletBalance is a row of wallet_balance_cache.
type WalletBalance struct {
	EventID   int64           `db:"event_id"`
	UserID    string          `db:"user_id"`
	Balance   decimal.Decimal `db:"balance"`
	UpdatedAt time.Time       `db:"updated_at"`
}
