package domain

import "time"

// CampaignStatus is the lifecycle state of an event. Only closed events reject
// ledger writes.
type CampaignStatus string

const (
	CampaignDraft  CampaignStatus = "draft"
	CampaignActive CampaignStatus = "active"
	CampaignClosed CampaignStatus = "closed"
)

// Event is the campaign handle every ledger operation is partitioned by.
// Its lifecycle is owned elsewhere; the ledger only reads Status and flips it
// to closed during close-out.
type Event struct {
	ID        int64          `json:"id"`
	Code      string         `json:"code"`
	Name      string         `json:"name"`
	Status    CampaignStatus `json:"status"`
	StartsAt  time.Time      `json:"startsAt"`
	EndsAt    time.Time      `json:"endsAt"`
	CreatedAt time.Time      `json:"createdAt"`
}

// IsClosed reports whether the event is read-only.
func (e Event) IsClosed() bool {
	return e.Status == CampaignClosed
}

// IsActiveAt reports whether the event is active and t falls inside its window.
func (e Event) IsActiveAt(t time.Time) bool {
	return e.Status == CampaignActive && !t.Before(e.StartsAt) && !t.After(e.EndsAt)
}
