// Package memory is an in-process implementation of the storage ports with the
// same atomicity, locking and balance-check semantics as the Postgres store.
// It backs the service tests and dry runs.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/SscSPs/ucoin_ledger/internal/core/domain"
	"github.com/SscSPs/ucoin_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/ucoin_ledger/internal/platform/clock"
	"github.com/SscSPs/ucoin_ledger/internal/utils/accounting"
	"github.com/google/uuid"
)

type scopedKey struct {
	eventID int64
	name    string
}

type walletKey struct {
	eventID int64
	userID  string
}

type state struct {
	nextAccountID int64
	nextEntryID   int64
	nextTopupID   int64
	nextGrantID   int64
	nextEventID   int64

	events        map[int64]domain.Event
	accounts      map[int64]domain.Account
	accountByCode map[scopedKey]int64
	txs           map[uuid.UUID]domain.LedgerTransaction
	txByKey       map[string]uuid.UUID
	entries       []domain.Entry
	wallets       map[walletKey]domain.WalletBalance
	topups        map[int64]domain.TopupRecord
	topupByRef    map[scopedKey]int64
	grants        []domain.StaffCreditGrant
}

func newState() *state {
	return &state{
		events:        map[int64]domain.Event{},
		accounts:      map[int64]domain.Account{},
		accountByCode: map[scopedKey]int64{},
		txs:           map[uuid.UUID]domain.LedgerTransaction{},
		txByKey:       map[string]uuid.UUID{},
		wallets:       map[walletKey]domain.WalletBalance{},
		topups:        map[int64]domain.TopupRecord{},
		topupByRef:    map[scopedKey]int64{},
	}
}

func (s *state) clone() *state {
	c := *s
	c.events = cloneMap(s.events)
	c.accounts = cloneMap(s.accounts)
	c.accountByCode = cloneMap(s.accountByCode)
	c.txs = cloneMap(s.txs)
	c.txByKey = cloneMap(s.txByKey)
	c.entries = append([]domain.Entry(nil), s.entries...)
	c.wallets = cloneMap(s.wallets)
	c.topups = cloneMap(s.topups)
	c.topupByRef = cloneMap(s.topupByRef)
	c.grants = append([]domain.StaffCreditGrant(nil), s.grants...)
	return &c
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Store serializes units of work with one store-wide mutex. Each unit works on
// a private copy of the state which replaces the shared state only on commit.
type Store struct {
	mu    sync.Mutex
	st    *state
	clock clock.Clock
}

var _ repositories.UnitOfWork = (*Store)(nil)

// NewStore creates an empty store. A nil clock uses clock.RealClock.
func NewStore(c clock.Clock) *Store {
	if c == nil {
		c = clock.RealClock{}
	}
	return &Store{st: newState(), clock: c}
}

// Do runs fn with exclusive access to the store. Calling Do again from inside
// fn deadlocks.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, repos repositories.TxRepositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	u := &unit{st: s.st.clone(), now: s.clock.Now(), touched: map[uuid.UUID]struct{}{}}
	if err := fn(ctx, u); err != nil {
		return err
	}
	if err := u.verifyBalanced(); err != nil {
		return err
	}
	s.st = u.st
	return nil
}

// AddEvent stores an event, assigning an id when it has none.
func (s *Store) AddEvent(ev domain.Event) domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.st.clone()
	if ev.ID == 0 {
		st.nextEventID++
		ev.ID = st.nextEventID
	} else if ev.ID > st.nextEventID {
		st.nextEventID = ev.ID
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = s.clock.Now()
	}
	st.events[ev.ID] = ev
	s.st = st
	return ev
}

// Snapshot counts of committed rows, used by tests to prove nothing leaked from
// a rolled-back unit of work.
type Snapshot struct {
	Transactions int
	Entries      int
	Topups       int
	Grants       int
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Transactions: len(s.st.txs),
		Entries:      len(s.st.entries),
		Topups:       len(s.st.topups),
		Grants:       len(s.st.grants),
	}
}

type unit struct {
	st      *state
	now     time.Time
	touched map[uuid.UUID]struct{}
}

func (u *unit) Accounts() repositories.AccountRepository      { return accountRepo{u} }
func (u *unit) Ledger() repositories.LedgerRepository         { return ledgerRepo{u} }
func (u *unit) Wallets() repositories.WalletBalanceRepository { return walletRepo{u} }
func (u *unit) Topups() repositories.TopupRepository          { return topupRepo{u} }
func (u *unit) Events() repositories.EventRepository          { return eventRepo{u} }

func (u *unit) verifyBalanced() error {
	ids := make([]uuid.UUID, 0, len(u.touched))
	for id := range u.touched {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	for _, id := range ids {
		var entries []domain.Entry
		for _, e := range u.st.entries {
			if e.TransactionID == id {
				entries = append(entries, e)
			}
		}
		if err := accounting.CheckBalanced(id.String(), accounting.SumEntries(entries)); err != nil {
			return err
		}
	}
	return nil
}
