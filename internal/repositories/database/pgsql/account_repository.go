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
)

type PgxAccountRepository struct {
	tx *sql.Tx
}

// Ensure PgxAccountRepository implements portsrepo.AccountRepository
var _ portsrepo.AccountRepository = (*PgxAccountRepository)(nil)

const accountColumns = `id, event_id, code, name, account_type, owner_user_id, owner_stall_id, is_active`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (models.Account, error) {
	var m models.Account
	err := row.Scan(
		&m.ID,
		&m.EventID,
		&m.Code,
		&m.Name,
		&m.AccountType,
		&m.OwnerUserID,
		&m.OwnerStallID,
		&m.IsActive,
	)
	return m, err
}

// EnsureAccount inserts the account unless (event_id, code) exists, then returns the stored row.
func (r *PgxAccountRepository) EnsureAccount(ctx context.Context, account domain.Account) (*domain.Account, error) {
	m := mapping.ToModelAccount(account)

	query := `
		INSERT INTO ledger_accounts (event_id, code, name, account_type, owner_user_id, owner_stall_id, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		ON CONFLICT (event_id, code) DO NOTHING
		RETURNING ` + accountColumns + `;
	`
	stored, err := scanAccount(r.tx.QueryRowContext(ctx, query,
		m.EventID,
		m.Code,
		m.Name,
		m.AccountType,
		m.OwnerUserID,
		m.OwnerStallID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return r.FindAccountByCode(ctx, account.EventID, account.Code)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to ensure account %s for event %d: %w", m.Code, m.EventID, err)
	}

	acc := mapping.ToDomainAccount(stored)
	return &acc, nil
}

// FindAccountByCode retrieves an account by its event-scoped code.
func (r *PgxAccountRepository) FindAccountByCode(ctx context.Context, eventID int64, code string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM ledger_accounts WHERE event_id = $1 AND code = $2;`

	m, err := scanAccount(r.tx.QueryRowContext(ctx, query, eventID, code))
	if err != nil {
		return nil, notFound(err, "account %s in event %d", code, eventID)
	}
	acc := mapping.ToDomainAccount(m)
	return &acc, nil
}

// ListWalletAccounts retrieves the user-owned liability accounts of an event.
func (r *PgxAccountRepository) ListWalletAccounts(ctx context.Context, eventID int64) ([]domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM ledger_accounts
		WHERE event_id = $1 AND account_type = 'liability' AND owner_user_id IS NOT NULL
		ORDER BY id;
	`
	rows, err := r.tx.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query wallet accounts for event %d: %w", eventID, err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		m, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		accounts = append(accounts, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account rows: %w", err)
	}
	return mapping.ToDomainAccounts(accounts), nil
}

// DeactivateAccount flags an account inactive.
func (r *PgxAccountRepository) DeactivateAccount(ctx context.Context, accountID int64) error {
	query := `UPDATE ledger_accounts SET is_active = FALSE WHERE id = $1;`

	res, err := r.tx.ExecContext(ctx, query, accountID)
	if err != nil {
		return fmt.Errorf("failed to deactivate account %d: %w", accountID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("account %d", accountID))
	}
	return nil
}
