package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/SscSPs/ucoin_ledger/internal/apperrors"
	"github.com/SscSPs/ucoin_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/ucoin_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/ucoin_ledger/internal/models"
	"github.com/SscSPs/ucoin_ledger/internal/utils/mapping"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

type PgxLedgerRepository struct {
	tx    *sql.Tx
	touch func(uuid.UUID)
}

var _ portsrepo.LedgerRepository = (*PgxLedgerRepository)(nil)

// InsertTransaction writes the transaction header. A taken idempotency key
// writes nothing and reports created=false.
func (r *PgxLedgerRepository) InsertTransaction(ctx context.Context, tx *domain.LedgerTransaction) (bool, error) {
	m := mapping.ToModelTransaction(*tx)

	createdAt := sql.NullTime{Time: m.CreatedAt, Valid: !m.CreatedAt.IsZero()}
	query := `
		INSERT INTO ledger_transactions (id, event_id, tx_type, status, idempotency_key, reference_model, reference_id, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, COALESCE($9, NOW()))
		ON CONFLICT (idempotency_key) DO NOTHING
		RETURNING created_at;
	`
	err := r.tx.QueryRowContext(ctx, query,
		m.ID,
		m.EventID,
		m.TxType,
		m.Status,
		m.IdempotencyKey,
		m.ReferenceModel,
		m.ReferenceID,
		m.CreatedBy,
		createdAt,
	).Scan(&tx.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation {
			// A retry will find the committed row and replay it.
			return false, apperrors.MarkTransient(fmt.Errorf("%w: idempotency key %s: %w", apperrors.ErrDuplicate, m.IdempotencyKey, err))
		}
		return false, fmt.Errorf("failed to insert ledger transaction %s: %w", m.IdempotencyKey, err)
	}

	r.touch(m.ID)
	return true, nil
}

// InsertEntries writes entries one by one and fills in their ids.
func (r *PgxLedgerRepository) InsertEntries(ctx context.Context, entries []domain.Entry) error {
	query := `
		INSERT INTO ledger_entries (transaction_id, account_id, amount, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id;
	`
	for i := range entries {
		m := mapping.ToModelEntry(entries[i])
		if err := r.tx.QueryRowContext(ctx, query, m.TransactionID, m.AccountID, m.Amount, m.Description).Scan(&entries[i].ID); err != nil {
			return fmt.Errorf("failed to insert entry for transaction %s: %w", m.TransactionID, err)
		}
		r.touch(m.TransactionID)
	}
	return nil
}

// FindTransactionByKey retrieves a transaction header by idempotency key.
func (r *PgxLedgerRepository) FindTransactionByKey(ctx context.Context, key string) (*domain.LedgerTransaction, error) {
	query := `
		SELECT id, event_id, tx_type, status, idempotency_key, reference_model, reference_id, created_by, created_at
		FROM ledger_transactions
		WHERE idempotency_key = $1;
	`
	var m models.Transaction
	err := r.tx.QueryRowContext(ctx, query, key).Scan(
		&m.ID,
		&m.EventID,
		&m.TxType,
		&m.Status,
		&m.IdempotencyKey,
		&m.ReferenceModel,
		&m.ReferenceID,
		&m.CreatedBy,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err, "ledger transaction with key %s", key)
	}
	tx := mapping.ToDomainTransaction(m)
	return &tx, nil
}

// FindEntriesByTransactionID retrieves the entries of a transaction in insertion order.
func (r *PgxLedgerRepository) FindEntriesByTransactionID(ctx context.Context, transactionID uuid.UUID) ([]domain.Entry, error) {
	query := `
		SELECT id, transaction_id, account_id, amount, description
		FROM ledger_entries
		WHERE transaction_id = $1
		ORDER BY id;
	`
	rows, err := r.tx.QueryContext(ctx, query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries of transaction %s: %w", transactionID, err)
	}
	defer rows.Close()

	var entries []domain.Entry
	for rows.Next() {
		var m models.Entry
		if err := rows.Scan(&m.ID, &m.TransactionID, &m.AccountID, &m.Amount, &m.Description); err != nil {
			return nil, fmt.Errorf("failed to scan entry row: %w", err)
		}
		entries = append(entries, mapping.ToDomainEntry(m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entry rows: %w", err)
	}
	return entries, nil
}

// SumAccountEntries returns the ledger balance of an account.
func (r *PgxLedgerRepository) SumAccountEntries(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM ledger_entries WHERE account_id = $1;`

	var sum decimal.Decimal
	if err := r.tx.QueryRowContext(ctx, query, accountID).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum entries of account %d: %w", accountID, err)
	}
	return domain.Money(sum), nil
}

// ListAccountEntries pages through an account's entries newest first.
func (r *PgxLedgerRepository) ListAccountEntries(ctx context.Context, accountID int64, limit int, after *portsrepo.EntryCursor) ([]domain.StatementLine, error) {
	base := `
		SELECT e.id, e.transaction_id, e.account_id, e.amount, e.description, t.tx_type, t.idempotency_key, t.created_at
		FROM ledger_entries e
		JOIN ledger_transactions t ON t.id = e.transaction_id
		WHERE e.account_id = $1`

	var (
		rows *sql.Rows
		err  error
	)
	if after == nil {
		query := base + `
		ORDER BY t.created_at DESC, e.id DESC
		LIMIT $2;`
		rows, err = r.tx.QueryContext(ctx, query, accountID, limit)
	} else {
		query := base + ` AND (t.created_at, e.id) < ($2, $3)
		ORDER BY t.created_at DESC, e.id DESC
		LIMIT $4;`
		rows, err = r.tx.QueryContext(ctx, query, accountID, after.CreatedAt, after.EntryID, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query statement of account %d: %w", accountID, err)
	}
	defer rows.Close()

	var lines []domain.StatementLine
	for rows.Next() {
		var m models.StatementRow
		if err := rows.Scan(
			&m.ID,
			&m.TransactionID,
			&m.AccountID,
			&m.Amount,
			&m.Description,
			&m.TxType,
			&m.IdempotencyKey,
			&m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan statement row: %w", err)
		}
		lines = append(lines, mapping.ToDomainStatementLine(m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating statement rows: %w", err)
	}
	return lines, nil
}
