package mapping

import (
	"github.com/SscSPs/ucoin_ledger/internal/core/domain"
	"github.com/SscSPs/ucoin_ledger/internal/models"
)

// ToModelTransaction converts a domain LedgerTransaction to a model Transaction.
// Entries are stored separately.
func ToModelTransaction(d domain.LedgerTransaction) models.Transaction {
	return models.Transaction{
		ID:             d.ID,
		EventID:        d.EventID,
		TxType:         string(d.TxType),
		Status:         string(d.Status),
		IdempotencyKey: d.IdempotencyKey,
		ReferenceModel: d.Reference.Model,
		ReferenceID:    d.Reference.ID,
		CreatedBy:      ToNullString(d.CreatedBy),
		CreatedAt:      d.CreatedAt,
	}
}

// ToDomainTransaction converts a model Transaction to a domain LedgerTransaction without entries.
func ToDomainTransaction(m models.Transaction) domain.LedgerTransaction {
	return domain.LedgerTransaction{
		ID:             m.ID,
		EventID:        m.EventID,
		TxType:         domain.TxType(m.TxType),
		Status:         domain.TxStatus(m.Status),
		IdempotencyKey: m.IdempotencyKey,
		Reference:      domain.Reference{Model: m.ReferenceModel, ID: m.ReferenceID},
		CreatedBy:      FromNullString(m.CreatedBy),
		CreatedAt:      m.CreatedAt,
	}
}

func ToModelEntry(d domain.Entry) models.Entry {
	return models.Entry{
		ID:            d.ID,
		TransactionID: d.TransactionID,
		AccountID:     d.AccountID,
		Amount:        d.Amount,
		Description:   d.Description,
	}
}

func ToDomainEntry(m models.Entry) domain.Entry {
	return domain.Entry{
		ID:            m.ID,
		TransactionID: m.TransactionID,
		AccountID:     m.AccountID,
		Amount:        m.Amount,
		Description:   m.Description,
	}
}

// ToDomainStatementLine converts a joined statement row.
func ToDomainStatementLine(m models.StatementRow) domain.StatementLine {
	return domain.StatementLine{
		EntryID:        m.ID,
		TransactionID:  m.TransactionID,
		TxType:         domain.TxType(m.TxType),
		IdempotencyKey: m.IdempotencyKey,
		Amount:         m.Amount,
		Description:    m.Description,
		CreatedAt:      m.CreatedAt,
	}
}
