package domain

// Reference points a ledger transaction back at the business record that caused it.
type Reference struct {
	Model string `json:"model" validate:"max=64"`
	ID    string `json:"id" validate:"max=64"`
}

// Reference models used by the accounting flows.
const (
	ReferenceTopupRecord   = "topup_record"
	ReferenceEventCampaign = "event_campaign"
)
