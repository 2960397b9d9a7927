package mapping

import (
	"github.com/SscSPs/ucoin_ledger/internal/core/domain"
	"github.com/SscSPs/ucoin_ledger/internal/models"
)

// ToModelAccount converts a domain Account to a model Account
func ToModelAccount(d domain.Account) models.Account {
	return models.Account{
		ID:           d.ID,
		EventID:      d.EventID,
		Code:         d.Code,
		Name:         d.Name,
		AccountType:  string(d.AccountType),
		OwnerUserID:  ToNullString(d.OwnerUserID),
		OwnerStallID: ToNullInt64(d.OwnerStallID),
		IsActive:     d.IsActive,
	}
}

// ToDomainAccount converts a model Account to a domain Account
func ToDomainAccount(m models.Account) domain.Account {
	return domain.Account{
		ID:           m.ID,
		EventID:      m.EventID,
		Code:         m.Code,
		Name:         m.Name,
		AccountType:  domain.AccountType(m.AccountType),
		OwnerUserID:  FromNullString(m.OwnerUserID),
		OwnerStallID: FromNullInt64(m.OwnerStallID),
		IsActive:     m.IsActive,
	}
}

// ToDomainAccounts converts a slice of model Accounts
func ToDomainAccounts(ms []models.Account) []domain.Account {
	out := make([]domain.Account, len(ms))
	for i, m := range ms {
		out[i] = ToDomainAccount(m)
	}
	return out
}
