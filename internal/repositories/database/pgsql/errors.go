package pgsql

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/SscSPs/ucoin_ledger/internal/apperrors"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// Postgres error codes the store reacts to.
const (
	codeUniqueViolation      = "23505"
	codeCheckViolation       = "23514"
	codeLockNotAvailable     = "55P03"
	codeDeadlockDetected     = "40P01"
	codeSerializationFailure = "40001"

	balancedConstraint = "ledger_entries_balanced"
)

// classifyError maps driver failures onto the apperrors vocabulary. Errors that
// already carry a domain meaning pass through unchanged.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, apperrors.ErrTransient) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeCheckViolation:
			if pgErr.ConstraintName == balancedConstraint {
				return unbalancedFromTrigger(pgErr)
			}
		case codeLockNotAvailable, codeDeadlockDetected, codeSerializationFailure:
			return apperrors.MarkTransient(err)
		case codeUniqueViolation:
			if !errors.Is(err, apperrors.ErrDuplicate) {
				return fmt.Errorf("%w: %w", apperrors.ErrDuplicate, err)
			}
		}
		return err
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || pgconn.SafeToRetry(err) {
		return apperrors.MarkTransient(err)
	}
	return err
}

// unbalancedFromTrigger rebuilds the typed error from the deferred balance
// trigger, which reports the transaction id in DETAIL and the delta in HINT.
func unbalancedFromTrigger(pgErr *pgconn.PgError) error {
	delta, err := decimal.NewFromString(pgErr.Hint)
	if err != nil {
		delta = decimal.Zero
	}
	return &apperrors.UnbalancedTransactionError{TransactionID: pgErr.Detail, Delta: delta}
}

func notFound(err error, format string, args ...any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NewNotFoundError(fmt.Sprintf(format, args...))
	}
	return fmt.Errorf("failed to find "+format+": %w", append(args, err)...)
}
