package mapping

import (
	"github.com/SscSPs/ucoin_ledger/internal/core/domain"
	"github.com/SscSPs/ucoin_ledger/internal/models"
)

// ToModelTopup converts a domain TopupRecord to a model TopupRecord
func ToModelTopup(d domain.TopupRecord) models.TopupRecord {
	return models.TopupRecord{
		ID:              d.ID,
		EventID:         d.EventID,
		UserID:          d.UserID,
		Channel:         string(d.Channel),
		Amount:          d.Amount,
		Status:          string(d.Status),
		Provider:        d.Provider,
		ProviderRef:     d.ProviderRef,
		SourceReference: d.SourceReference,
		StaffUserID:     ToNullString(d.StaffUserID),
		CreatedAt:       d.CreatedAt,
	}
}

// ToDomainTopup converts a model TopupRecord to a domain TopupRecord
func ToDomainTopup(m models.TopupRecord) domain.TopupRecord {
	return domain.TopupRecord{
		ID:              m.ID,
		EventID:         m.EventID,
		UserID:          m.UserID,
		Channel:         domain.TopupChannel(m.Channel),
		Amount:          m.Amount,
		Status:          domain.TopupStatus(m.Status),
		Provider:        m.Provider,
		ProviderRef:     m.ProviderRef,
		SourceReference: m.SourceReference,
		StaffUserID:     FromNullString(m.StaffUserID),
		CreatedAt:       m.CreatedAt,
	}
}

func ToModelStaffGrant(d domain.StaffCreditGrant) models.StaffCreditGrant {
	return models.StaffCreditGrant{
		ID:           d.ID,
		EventID:      d.EventID,
		ClientUserID: d.ClientUserID,
		StaffUserID:  d.StaffUserID,
		Amount:       d.Amount,
		Reason:       d.Reason,
		CreatedAt:    d.CreatedAt,
	}
}
