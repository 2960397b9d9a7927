package mapping

import (
	"github.com/SscSPs/ucoin_ledger/internal/core/domain"
	"github.com/SscSPs/ucoin_ledger/internal/models"
)

func ToDomainEvent(m models.Event) domain.Event {
	return domain.Event{
		ID:        m.ID,
		Code:      m.Code,
		Name:      m.Name,
		Status:    domain.CampaignStatus(m.Status),
		StartsAt:  m.StartsAt,
		EndsAt:    m.EndsAt,
		CreatedAt: m.CreatedAt,
	}
}

func ToDomainWalletBalance(m models.WalletBalance) domain.WalletBalance {
	return domain.WalletBalance{
		EventID:   m.EventID,
		UserID:    m.UserID,
		Balance:   m.Balance,
		UpdatedAt: m.UpdatedAt,
	}
}
