package domain

import (
	"fmt"
	"time"
)

// Idempotency keys are deterministic per logical business event so retries,
// at-least-once redelivery and backfill re-runs collide on the same key.

func TopupOnlineKey(eventID, topupID int64) string {
	return fmt.Sprintf("topup_online:%d:%d", eventID, topupID)
}

func TopupCashKey(eventID, topupID int64) string {
	return fmt.Sprintf("topup_cash:%d:%d", eventID, topupID)
}

func PurchaseKey(eventID int64, referenceModel, referenceID string) string {
	return fmt.Sprintf("purchase:%d:%s:%s", eventID, referenceModel, referenceID)
}

// ExpiryKey allows at most one expiration per user per calendar day (UTC).
func ExpiryKey(eventID int64, userID string, day time.Time) string {
	return fmt.Sprintf("expiry:%d:%s:%s", eventID, userID, day.UTC().Format(time.DateOnly))
}
