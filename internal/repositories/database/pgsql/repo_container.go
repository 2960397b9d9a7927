package pgsql

import (
	"database/sql"
	"time"

	"github.com/SscSPs/ucoin_ledger/internal/core/ports/repositories"
	"github.com/google/uuid"
)

// NewUnitOfWork returns the Postgres-backed unit of work. A zero lockTimeout
// leaves the server default in place.
func NewUnitOfWork(db *sql.DB, lockTimeout time.Duration) *UnitOfWork {
	return &UnitOfWork{db: db, lockTimeout: lockTimeout}
}

// txRepositories binds every repository to one *sql.Tx and remembers which
// ledger transactions were written so they can be checked before commit.
type txRepositories struct {
	tx       *sql.Tx
	touched  map[uuid.UUID]struct{}
	accounts *PgxAccountRepository
	ledger   *PgxLedgerRepository
	wallets  *PgxWalletRepository
	topups   *PgxTopupRepository
	events   *PgxEventRepository
}

func newTxRepositories(tx *sql.Tx) *txRepositories {
	r := &txRepositories{tx: tx, touched: map[uuid.UUID]struct{}{}}
	r.accounts = &PgxAccountRepository{tx: tx}
	r.ledger = &PgxLedgerRepository{tx: tx, touch: r.touch}
	r.wallets = &PgxWalletRepository{tx: tx}
	r.topups = &PgxTopupRepository{tx: tx}
	r.events = &PgxEventRepository{tx: tx}
	return r
}

func (r *txRepositories) touch(id uuid.UUID) { r.touched[id] = struct{}{} }

func (r *txRepositories) Accounts() repositories.AccountRepository      { return r.accounts }
func (r *txRepositories) Ledger() repositories.LedgerRepository         { return r.ledger }
func (r *txRepositories) Wallets() repositories.WalletBalanceRepository { return r.wallets }
func (r *txRepositories) Topups() repositories.TopupRepository          { return r.topups }
func (r *txRepositories) Events() repositories.EventRepository          { return r.events }
