package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/SscSPs/ucoin_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/ucoin_ledger/internal/platform/logging"
	"github.com/SscSPs/ucoin_ledger/internal/utils/accounting"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UnitOfWork runs callbacks inside one database transaction.
type UnitOfWork struct {
	db          *sql.DB
	lockTimeout time.Duration
}

var _ repositories.UnitOfWork = (*UnitOfWork)(nil)

// Do begins a transaction, bounds lock waits with SET LOCAL lock_timeout, runs
// fn, checks every ledger transaction fn wrote for balance and commits.
func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, repos repositories.TxRepositories) error) (err error) {
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return classifyError(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			logging.FromContext(ctx).Error("failed to rollback transaction", "error", rbErr)
		}
	}()

	if u.lockTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", u.lockTimeout.Milliseconds())
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return classifyError(fmt.Errorf("failed to set lock timeout: %w", err))
		}
	}

	repos := newTxRepositories(tx)
	if err = fn(ctx, repos); err != nil {
		return classifyError(err)
	}
	if err = repos.verifyBalanced(ctx); err != nil {
		return classifyError(err)
	}
	if err = tx.Commit(); err != nil {
		return classifyError(fmt.Errorf("failed to commit transaction: %w", err))
	}
	return nil
}

// verifyBalanced sums the entries of every transaction touched in this unit.
// The deferred trigger repeats the check at COMMIT.
func (r *txRepositories) verifyBalanced(ctx context.Context) error {
	ids := make([]uuid.UUID, 0, len(r.touched))
	for id := range r.touched {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	query := `SELECT COALESCE(SUM(amount), 0) FROM ledger_entries WHERE transaction_id = $1`
	for _, id := range ids {
		var sum decimal.Decimal
		if err := r.tx.QueryRowContext(ctx, query, id).Scan(&sum); err != nil {
			return fmt.Errorf("failed to sum entries of transaction %s: %w", id, err)
		}
		if err := accounting.CheckBalanced(id.String(), sum); err != nil {
			return err
		}
	}
	return nil
}
