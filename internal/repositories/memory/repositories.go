package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/SscSPs/ucoin_ledger/internal/apperrors"
	"github.com/SscSPs/ucoin_ledger/internal/core/domain"
	"github.com/SscSPs/ucoin_ledger/internal/core/ports/repositories"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type accountRepo struct{ u *unit }

var _ repositories.AccountRepository = accountRepo{}

func (r accountRepo) FindAccountByCode(_ context.Context, eventID int64, code string) (*domain.Account, error) {
	id, ok := r.u.st.accountByCode[scopedKey{eventID, code}]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("account %s in event %d", code, eventID))
	}
	acc := r.u.st.accounts[id]
	return &acc, nil
}

func (r accountRepo) ListWalletAccounts(_ context.Context, eventID int64) ([]domain.Account, error) {
	var out []domain.Account
	for _, acc := range r.u.st.accounts {
		if acc.EventID == eventID && acc.AccountType == domain.Liability && acc.OwnerUserID != nil {
			out = append(out, acc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r accountRepo) EnsureAccount(ctx context.Context, account domain.Account) (*domain.Account, error) {
	if existing, err := r.FindAccountByCode(ctx, account.EventID, account.Code); err == nil {
		return existing, nil
	}
	r.u.st.nextAccountID++
	account.ID = r.u.st.nextAccountID
	account.IsActive = true
	r.u.st.accounts[account.ID] = account
	r.u.st.accountByCode[scopedKey{account.EventID, account.Code}] = account.ID
	return &account, nil
}

func (r accountRepo) DeactivateAccount(_ context.Context, accountID int64) error {
	acc, ok := r.u.st.accounts[accountID]
	if !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("account %d", accountID))
	}
	acc.IsActive = false
	r.u.st.accounts[accountID] = acc
	return nil
}

type ledgerRepo struct{ u *unit }

var _ repositories.LedgerRepository = ledgerRepo{}

func (r ledgerRepo) FindTransactionByKey(_ context.Context, key string) (*domain.LedgerTransaction, error) {
	id, ok := r.u.st.txByKey[key]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("ledger transaction with key %s", key))
	}
	tx := r.u.st.txs[id]
	return &tx, nil
}

func (r ledgerRepo) FindEntriesByTransactionID(_ context.Context, transactionID uuid.UUID) ([]domain.Entry, error) {
	var out []domain.Entry
	for _, e := range r.u.st.entries {
		if e.TransactionID == transactionID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r ledgerRepo) SumAccountEntries(_ context.Context, accountID int64) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, e := range r.u.st.entries {
		if e.AccountID == accountID {
			sum = sum.Add(e.Amount)
		}
	}
	return domain.Money(sum), nil
}

func (r ledgerRepo) ListAccountEntries(_ context.Context, accountID int64, limit int, after *repositories.EntryCursor) ([]domain.StatementLine, error) {
	var lines []domain.StatementLine
	for _, e := range r.u.st.entries {
		if e.AccountID != accountID {
			continue
		}
		tx := r.u.st.txs[e.TransactionID]
		lines = append(lines, domain.StatementLine{
			EntryID:        e.ID,
			TransactionID:  e.TransactionID,
			TxType:         tx.TxType,
			IdempotencyKey: tx.IdempotencyKey,
			Amount:         e.Amount,
			Description:    e.Description,
			CreatedAt:      tx.CreatedAt,
		})
	}
	sort.Slice(lines, func(i, j int) bool {
		if !lines[i].CreatedAt.Equal(lines[j].CreatedAt) {
			return lines[i].CreatedAt.After(lines[j].CreatedAt)
		}
		return lines[i].EntryID > lines[j].EntryID
	})

	out := make([]domain.StatementLine, 0, limit)
	for _, l := range lines {
		if after != nil && !pastCursor(l, after) {
			continue
		}
		out = append(out, l)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// pastCursor reports whether l comes after c in newest-first order.
func pastCursor(l domain.StatementLine, c *repositories.EntryCursor) bool {
	if l.CreatedAt.Equal(c.CreatedAt) {
		return l.EntryID < c.EntryID
	}
	return l.CreatedAt.Before(c.CreatedAt)
}

func (r ledgerRepo) InsertTransaction(_ context.Context, tx *domain.LedgerTransaction) (bool, error) {
	if _, exists := r.u.st.txByKey[tx.IdempotencyKey]; exists {
		return false, nil
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = r.u.now
	}
	stored := *tx
	stored.Entries = nil
	r.u.st.txs[tx.ID] = stored
	r.u.st.txByKey[tx.IdempotencyKey] = tx.ID
	r.u.touched[tx.ID] = struct{}{}
	return true, nil
}

func (r ledgerRepo) InsertEntries(_ context.Context, entries []domain.Entry) error {
	for i := range entries {
		if _, ok := r.u.st.txs[entries[i].TransactionID]; !ok {
			return fmt.Errorf("%w: entry references unknown transaction %s", apperrors.ErrInternal, entries[i].TransactionID)
		}
		if _, ok := r.u.st.accounts[entries[i].AccountID]; !ok {
			return fmt.Errorf("%w: entry references unknown account %d", apperrors.ErrInternal, entries[i].AccountID)
		}
		r.u.st.nextEntryID++
		entries[i].ID = r.u.st.nextEntryID
		r.u.st.entries = append(r.u.st.entries, entries[i])
		r.u.touched[entries[i].TransactionID] = struct{}{}
	}
	return nil
}

type walletRepo struct{ u *unit }

var _ repositories.WalletBalanceRepository = walletRepo{}

func (r walletRepo) GetOrCreate(_ context.Context, eventID int64, userID string) (*domain.WalletBalance, error) {
	key := walletKey{eventID, userID}
	wb, ok := r.u.st.wallets[key]
	if !ok {
		wb = domain.WalletBalance{EventID: eventID, UserID: userID, Balance: domain.Money(decimal.Zero), UpdatedAt: r.u.now}
		r.u.st.wallets[key] = wb
	}
	return &wb, nil
}

// GetOrCreateForUpdate needs no extra locking: the unit already holds the store mutex.
func (r walletRepo) GetOrCreateForUpdate(ctx context.Context, eventID int64, userID string) (*domain.WalletBalance, error) {
	return r.GetOrCreate(ctx, eventID, userID)
}

func (r walletRepo) SaveBalance(_ context.Context, balance domain.WalletBalance) error {
	balance.Balance = domain.Money(balance.Balance)
	balance.UpdatedAt = r.u.now
	r.u.st.wallets[walletKey{balance.EventID, balance.UserID}] = balance
	return nil
}

func (r walletRepo) ListPositiveBalances(_ context.Context, eventID int64) ([]domain.WalletBalance, error) {
	var out []domain.WalletBalance
	for _, wb := range r.u.st.wallets {
		if wb.EventID == eventID && wb.Balance.IsPositive() {
			out = append(out, wb)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

type topupRepo struct{ u *unit }

var _ repositories.TopupRepository = topupRepo{}

func (r topupRepo) GetOrCreateBySourceReference(ctx context.Context, record domain.TopupRecord) (*domain.TopupRecord, bool, error) {
	if record.SourceReference == "" {
		return nil, false, apperrors.NewValidationError("source reference is required")
	}
	if id, ok := r.u.st.topupByRef[scopedKey{record.EventID, record.SourceReference}]; ok {
		existing := r.u.st.topups[id]
		return &existing, false, nil
	}
	if err := r.InsertTopup(ctx, &record); err != nil {
		return nil, false, err
	}
	return &record, true, nil
}

func (r topupRepo) InsertTopup(_ context.Context, record *domain.TopupRecord) error {
	if record.SourceReference != "" {
		if _, ok := r.u.st.topupByRef[scopedKey{record.EventID, record.SourceReference}]; ok {
			return fmt.Errorf("%w: topup source reference %s", apperrors.ErrDuplicate, record.SourceReference)
		}
	}
	r.u.st.nextTopupID++
	record.ID = r.u.st.nextTopupID
	record.CreatedAt = r.u.now
	r.u.st.topups[record.ID] = *record
	if record.SourceReference != "" {
		r.u.st.topupByRef[scopedKey{record.EventID, record.SourceReference}] = record.ID
	}
	return nil
}

func (r topupRepo) InsertStaffGrant(_ context.Context, grant *domain.StaffCreditGrant) error {
	r.u.st.nextGrantID++
	grant.ID = r.u.st.nextGrantID
	grant.CreatedAt = r.u.now
	r.u.st.grants = append(r.u.st.grants, *grant)
	return nil
}

type eventRepo struct{ u *unit }

var _ repositories.EventRepository = eventRepo{}

func (r eventRepo) FindEventByID(_ context.Context, eventID int64) (*domain.Event, error) {
	ev, ok := r.u.st.events[eventID]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("event %d", eventID))
	}
	return &ev, nil
}

func (r eventRepo) FindEventByCode(_ context.Context, code string) (*domain.Event, error) {
	for _, ev := range r.u.st.events {
		if ev.Code == code {
			return &ev, nil
		}
	}
	return nil, apperrors.NewNotFoundError(fmt.Sprintf("event %s", code))
}

func (r eventRepo) ListActiveEvents(_ context.Context) ([]domain.Event, error) {
	var out []domain.Event
	for _, ev := range r.u.st.events {
		if ev.Status == domain.CampaignActive {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartsAt.Equal(out[j].StartsAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].StartsAt.After(out[j].StartsAt)
	})
	return out, nil
}

func (r eventRepo) LockEventForShare(ctx context.Context, eventID int64) (*domain.Event, error) {
	return r.FindEventByID(ctx, eventID)
}

func (r eventRepo) LockEventForUpdate(ctx context.Context, eventID int64) (*domain.Event, error) {
	return r.FindEventByID(ctx, eventID)
}

func (r eventRepo) MarkEventClosed(_ context.Context, eventID int64, at time.Time) error {
	ev, ok := r.u.st.events[eventID]
	if !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("event %d", eventID))
	}
	ev.Status = domain.CampaignClosed
	if at.Before(ev.EndsAt) {
		ev.EndsAt = at
		if ev.EndsAt.Before(ev.StartsAt) {
			ev.EndsAt = ev.StartsAt
		}
	}
	r.u.st.events[eventID] = ev
	return nil
}
