package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/SscSPs/ucoin_ledger/internal/apperrors"
	"github.com/SscSPs/ucoin_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/ucoin_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ucoin_ledger/internal/core/ports/services"
	"github.com/SscSPs/ucoin_ledger/internal/platform/clock"
	"github.com/SscSPs/ucoin_ledger/internal/utils/accounting"
)

// accountingService turns top-ups, purchases and expirations into balanced
// postings and keeps the wallet cache in step, one unit of work per call.
type accountingService struct {
	BaseService
	uow      portsrepo.UnitOfWork
	ledger   portssvc.LedgerTxSvc
	wallets  portssvc.WalletBalanceTxSvc
	events   portssvc.EventGate
	clock    clock.Clock
	notifier portssvc.BalanceNotifier
}

// NewAccountingService creates a new AccountingService.
func NewAccountingService(uow portsrepo.UnitOfWork, ledger portssvc.LedgerTxSvc, wallets portssvc.WalletBalanceTxSvc, events portssvc.EventGate, opts ...Option) portssvc.AccountingSvc {
	o := newOptions(opts)
	return &accountingService{
		BaseService: newBaseService(o),
		uow:         uow,
		ledger:      ledger,
		wallets:     wallets,
		events:      events,
		clock:       o.Clock,
		notifier:    o.Notifier,
	}
}

type platformAccounts struct {
	cash    *domain.Account
	revenue *domain.Account
	expiry  *domain.Account
}

func (s *accountingService) ensurePlatformAccounts(ctx context.Context, repos portsrepo.TxRepositories, eventID int64) (*platformAccounts, error) {
	cash, err := s.ledger.EnsureAccountTx(ctx, repos, eventID, domain.PlatformCashCode, "Platform cash", domain.Asset, domain.AccountOwner{})
	if err != nil {
		return nil, err
	}
	revenue, err := s.ledger.EnsureAccountTx(ctx, repos, eventID, domain.PlatformRevenueCode, "Platform revenue", domain.Revenue, domain.AccountOwner{})
	if err != nil {
		return nil, err
	}
	expiry, err := s.ledger.EnsureAccountTx(ctx, repos, eventID, domain.PlatformExpiryCode, "Expired balance revenue", domain.Revenue, domain.AccountOwner{})
	if err != nil {
		return nil, err
	}
	return &platformAccounts{cash: cash, revenue: revenue, expiry: expiry}, nil
}

func (s *accountingService) ensureWalletAccount(ctx context.Context, repos portsrepo.TxRepositories, eventID int64, userID string) (*domain.Account, error) {
	owner := userID
	return s.ledger.EnsureAccountTx(ctx, repos, eventID, domain.WalletAccountCode(userID), "Wallet of "+userID, domain.Liability, domain.AccountOwner{UserID: &owner})
}

// notify runs after commit; the notifier owns its own failures.
func (s *accountingService) notify(ctx context.Context, balances ...*domain.WalletBalance) {
	for _, wb := range balances {
		if wb != nil {
			s.notifier.BalanceChanged(ctx, *wb)
		}
	}
}

func (s *accountingService) RecordOnlineTopup(ctx context.Context, req domain.OnlineTopupRequest) (*domain.TopupRecord, error) {
	logAttrs := []any{slog.Int64("event_id", req.Event.ID), slog.String("user_id", req.UserID)}
	if err := s.validateStruct(req); err != nil {
		s.logFailure(ctx, err, "Rejected online top-up", logAttrs...)
		return nil, err
	}
	amount, err := accounting.PositiveAmount(req.Amount)
	if err != nil {
		s.logFailure(ctx, err, "Rejected online top-up", logAttrs...)
		return nil, err
	}
	provider := req.Provider
	if provider == "" {
		provider = domain.DefaultOnlineProvider
	}

	var (
		record   *domain.TopupRecord
		balance  *domain.WalletBalance
		replayed bool
	)
	err = s.uow.Do(ctx, func(ctx context.Context, repos portsrepo.TxRepositories) error {
		if err := s.events.AssertEventWritableTx(ctx, repos, req.Event); err != nil {
			return err
		}
		// Event, then wallet, then ledger rows: the order every posting path locks in.
		if _, err := s.wallets.GetBalanceLockedTx(ctx, repos, req.Event.ID, req.UserID); err != nil {
			return err
		}

		candidate := domain.TopupRecord{
			EventID:         req.Event.ID,
			UserID:          req.UserID,
			Channel:         domain.TopupOnline,
			Amount:          amount,
			Status:          domain.TopupSuccess,
			Provider:        provider,
			ProviderRef:     req.ProviderRef,
			SourceReference: req.SourceReference,
		}
		if req.SourceReference != "" {
			stored, created, err := repos.Topups().GetOrCreateBySourceReference(ctx, candidate)
			if err != nil {
				return fmt.Errorf("get or create topup record: %w", err)
			}
			record = stored
			if !created {
				replayed = true
				return nil
			}
		} else {
			if err := repos.Topups().InsertTopup(ctx, &candidate); err != nil {
				return fmt.Errorf("insert topup record: %w", err)
			}
			record = &candidate
		}

		platform, err := s.ensurePlatformAccounts(ctx, repos, req.Event.ID)
		if err != nil {
			return err
		}
		wallet, err := s.ensureWalletAccount(ctx, repos, req.Event.ID, req.UserID)
		if err != nil {
			return err
		}
		createdBy := req.CreatedBy
		if createdBy == nil {
			createdBy = &req.UserID
		}
		if _, _, err := s.ledger.PostTransactionTx(ctx, repos, domain.PostTransactionRequest{
			EventID:        req.Event.ID,
			TxType:         domain.TxTopupOnline,
			IdempotencyKey: domain.TopupOnlineKey(req.Event.ID, record.ID),
			CreatedBy:      createdBy,
			Reference:      domain.Reference{Model: domain.ReferenceTopupRecord, ID: strconv.FormatInt(record.ID, 10)},
			Entries: []domain.EntryLine{
				{AccountID: wallet.ID, Amount: amount, Description: "Wallet credit from online top-up"},
				{AccountID: platform.cash.ID, Amount: amount.Neg(), Description: "Cash received for online top-up"},
			},
		}); err != nil {
			return err
		}

		balance, err = s.wallets.ApplyDeltaTx(ctx, repos, req.Event.ID, req.UserID, amount)
		return err
	})
	if err != nil {
		s.logFailure(ctx, err, "Failed to record online top-up", logAttrs...)
		return nil, err
	}

	s.metrics.ObservePosting(string(domain.TxTopupOnline), replayed)
	if replayed {
		s.LogDebug(ctx, "Online top-up already recorded", append(logAttrs, slog.String("source_reference", req.SourceReference))...)
		return record, nil
	}
	s.notify(ctx, balance)
	s.LogInfo(ctx, "Online top-up recorded", append(logAttrs,
		slog.Int64("topup_id", record.ID),
		slog.String("amount", domain.FormatMoney(amount)))...)
	return record, nil
}

func (s *accountingService) GrantCashTopup(ctx context.Context, req domain.CashTopupRequest) (*domain.TopupRecord, *domain.StaffCreditGrant, error) {
	logAttrs := []any{slog.Int64("event_id", req.Event.ID), slog.String("user_id", req.ClientUserID), slog.String("staff_user_id", req.StaffUserID)}
	if err := s.validateStruct(req); err != nil {
		s.logFailure(ctx, err, "Rejected cash top-up", logAttrs...)
		return nil, nil, err
	}
	amount, err := accounting.PositiveAmount(req.Amount)
	if err != nil {
		s.logFailure(ctx, err, "Rejected cash top-up", logAttrs...)
		return nil, nil, err
	}

	var (
		record  *domain.TopupRecord
		grant   *domain.StaffCreditGrant
		balance *domain.WalletBalance
	)
	err = s.uow.Do(ctx, func(ctx context.Context, repos portsrepo.TxRepositories) error {
		if err := s.events.AssertEventWritableTx(ctx, repos, req.Event); err != nil {
			return err
		}
		if _, err := s.wallets.GetBalanceLockedTx(ctx, repos, req.Event.ID, req.ClientUserID); err != nil {
			return err
		}

		staff := req.StaffUserID
		record = &domain.TopupRecord{
			EventID:     req.Event.ID,
			UserID:      req.ClientUserID,
			Channel:     domain.TopupCashStaff,
			Amount:      amount,
			Status:      domain.TopupSuccess,
			Provider:    domain.CashProvider,
			ProviderRef: domain.CashProviderRef,
			StaffUserID: &staff,
		}
		if err := repos.Topups().InsertTopup(ctx, record); err != nil {
			return fmt.Errorf("insert topup record: %w", err)
		}
		grant = &domain.StaffCreditGrant{
			EventID:      req.Event.ID,
			ClientUserID: req.ClientUserID,
			StaffUserID:  req.StaffUserID,
			Amount:       amount,
			Reason:       req.Reason,
		}
		if err := repos.Topups().InsertStaffGrant(ctx, grant); err != nil {
			return fmt.Errorf("insert staff credit grant: %w", err)
		}

		platform, err := s.ensurePlatformAccounts(ctx, repos, req.Event.ID)
		if err != nil {
			return err
		}
		wallet, err := s.ensureWalletAccount(ctx, repos, req.Event.ID, req.ClientUserID)
		if err != nil {
			return err
		}
		if _, _, err := s.ledger.PostTransactionTx(ctx, repos, domain.PostTransactionRequest{
			EventID:        req.Event.ID,
			TxType:         domain.TxTopupCash,
			IdempotencyKey: domain.TopupCashKey(req.Event.ID, record.ID),
			CreatedBy:      &staff,
			Reference:      domain.Reference{Model: domain.ReferenceTopupRecord, ID: strconv.FormatInt(record.ID, 10)},
			Entries: []domain.EntryLine{
				{AccountID: wallet.ID, Amount: amount, Description: "Wallet credit from cash top-up"},
				{AccountID: platform.cash.ID, Amount: amount.Neg(), Description: "Cash received by staff"},
			},
		}); err != nil {
			return err
		}

		balance, err = s.wallets.ApplyDeltaTx(ctx, repos, req.Event.ID, req.ClientUserID, amount)
		return err
	})
	if err != nil {
		s.logFailure(ctx, err, "Failed to grant cash top-up", logAttrs...)
		return nil, nil, err
	}

	s.metrics.ObservePosting(string(domain.TxTopupCash), false)
	s.notify(ctx, balance)
	s.LogInfo(ctx, "Cash top-up granted", append(logAttrs,
		slog.Int64("topup_id", record.ID),
		slog.String("amount", domain.FormatMoney(amount)))...)
	return record, grant, nil
}

func (s *accountingService) RecordPurchase(ctx context.Context, req domain.PurchaseRequest) (*domain.WalletBalance, error) {
	return s.recordPurchase(ctx, req, true)
}

func (s *accountingService) RecordPurchaseMirror(ctx context.Context, req domain.PurchaseRequest) (*domain.WalletBalance, error) {
	return s.recordPurchase(ctx, req, false)
}

func (s *accountingService) recordPurchase(ctx context.Context, req domain.PurchaseRequest, checkFunds bool) (*domain.WalletBalance, error) {
	logAttrs := []any{
		slog.Int64("event_id", req.Event.ID),
		slog.String("user_id", req.UserID),
		slog.String("reference", req.ReferenceModel+":"+req.ReferenceID),
		slog.Bool("mirror", !checkFunds),
	}
	if err := s.validateStruct(req); err != nil {
		s.logFailure(ctx, err, "Rejected purchase", logAttrs...)
		return nil, err
	}
	amount, err := accounting.PositiveAmount(req.Amount)
	if err != nil {
		s.logFailure(ctx, err, "Rejected purchase", logAttrs...)
		return nil, err
	}
	key := domain.PurchaseKey(req.Event.ID, req.ReferenceModel, req.ReferenceID)

	var (
		balance  *domain.WalletBalance
		replayed bool
	)
	err = s.uow.Do(ctx, func(ctx context.Context, repos portsrepo.TxRepositories) error {
		if err := s.events.AssertEventWritableTx(ctx, repos, req.Event); err != nil {
			return err
		}
		// The wallet lock is taken before anything else is read so concurrent
		// purchases for the same wallet serialize here.
		wb, err := s.wallets.GetBalanceLockedTx(ctx, repos, req.Event.ID, req.UserID)
		if err != nil {
			return err
		}

		if checkFunds && wb.Balance.LessThan(amount) {
			exists, err := s.keyExists(ctx, repos, key)
			if err != nil {
				return err
			}
			if !exists {
				return &apperrors.InsufficientFundsError{Balance: wb.Balance, Required: amount}
			}
		}

		balance, replayed, err = s.purchaseTx(ctx, repos, req, amount, key, wb)
		return err
	})
	if err != nil {
		s.logFailure(ctx, err, "Failed to record purchase", logAttrs...)
		return nil, err
	}

	s.metrics.ObservePosting(string(domain.TxPurchase), replayed)
	if replayed {
		s.LogDebug(ctx, "Purchase already recorded", append(logAttrs, slog.String("idempotency_key", key))...)
		return balance, nil
	}
	s.notify(ctx, balance)
	s.LogInfo(ctx, "Purchase recorded", append(logAttrs,
		slog.String("amount", domain.FormatMoney(amount)),
		slog.String("balance", domain.FormatMoney(balance.Balance)))...)
	return balance, nil
}

func (s *accountingService) keyExists(ctx context.Context, repos portsrepo.TxRepositories, key string) (bool, error) {
	_, err := repos.Ledger().FindTransactionByKey(ctx, key)
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, err
}

// purchaseTx posts the purchase against a wallet row the caller already locked.
// The cache is debited only when the posting was not a replay.
func (s *accountingService) purchaseTx(ctx context.Context, repos portsrepo.TxRepositories, req domain.PurchaseRequest, amount decimal.Decimal, key string, wb *domain.WalletBalance) (*domain.WalletBalance, bool, error) {
	platform, err := s.ensurePlatformAccounts(ctx, repos, req.Event.ID)
	if err != nil {
		return nil, false, err
	}
	wallet, err := s.ensureWalletAccount(ctx, repos, req.Event.ID, req.UserID)
	if err != nil {
		return nil, false, err
	}
	createdBy := req.CreatedBy
	if createdBy == nil {
		createdBy = &req.UserID
	}

	_, replayed, err := s.ledger.PostTransactionTx(ctx, repos, domain.PostTransactionRequest{
		EventID:        req.Event.ID,
		TxType:         domain.TxPurchase,
		IdempotencyKey: key,
		CreatedBy:      createdBy,
		Reference:      domain.Reference{Model: req.ReferenceModel, ID: req.ReferenceID},
		Entries: []domain.EntryLine{
			{AccountID: wallet.ID, Amount: amount.Neg(), Description: "Wallet debit for purchase"},
			{AccountID: platform.revenue.ID, Amount: amount, Description: "Purchase revenue"},
		},
	})
	if err != nil {
		return nil, false, err
	}
	if replayed {
		return wb, true, nil
	}

	wb.Balance = domain.Money(wb.Balance.Sub(amount))
	if err := repos.Wallets().SaveBalance(ctx, *wb); err != nil {
		return nil, false, fmt.Errorf("save wallet balance: %w", err)
	}
	return wb, false, nil
}

func (s *accountingService) ExpireRemainingBalance(ctx context.Context, event domain.Event, userID string, createdBy *string) (*domain.WalletBalance, error) {
	logAttrs := []any{slog.Int64("event_id", event.ID), slog.String("user_id", userID)}

	var (
		balance *domain.WalletBalance
		expired decimal.Decimal
	)
	err := s.uow.Do(ctx, func(ctx context.Context, repos portsrepo.TxRepositories) error {
		if err := s.events.AssertEventWritableTx(ctx, repos, event); err != nil {
			return err
		}
		var err error
		balance, expired, err = s.expireTx(ctx, repos, event.ID, userID, createdBy)
		return err
	})
	if err != nil {
		s.logFailure(ctx, err, "Failed to expire wallet balance", logAttrs...)
		return nil, err
	}

	if expired.IsPositive() {
		s.metrics.ObservePosting(string(domain.TxExpiry), false)
		s.notify(ctx, balance)
		s.LogInfo(ctx, "Wallet balance expired", append(logAttrs, slog.String("amount", domain.FormatMoney(expired)))...)
	}
	return balance, nil
}

// expireTx moves the whole locked wallet balance to the expiry account and
// returns the amount moved. A non-positive balance is left untouched.
func (s *accountingService) expireTx(ctx context.Context, repos portsrepo.TxRepositories, eventID int64, userID string, createdBy *string) (*domain.WalletBalance, decimal.Decimal, error) {
	wb, err := s.wallets.GetBalanceLockedTx(ctx, repos, eventID, userID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	amount := domain.Money(wb.Balance)
	if !amount.IsPositive() {
		return wb, decimal.Zero, nil
	}

	platform, err := s.ensurePlatformAccounts(ctx, repos, eventID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	wallet, err := s.ensureWalletAccount(ctx, repos, eventID, userID)
	if err != nil {
		return nil, decimal.Zero, err
	}

	key := domain.ExpiryKey(eventID, userID, s.clock.Now())
	_, replayed, err := s.ledger.PostTransactionTx(ctx, repos, domain.PostTransactionRequest{
		EventID:        eventID,
		TxType:         domain.TxExpiry,
		IdempotencyKey: key,
		CreatedBy:      createdBy,
		Reference:      domain.Reference{Model: domain.ReferenceEventCampaign, ID: strconv.FormatInt(eventID, 10)},
		Entries: []domain.EntryLine{
			{AccountID: wallet.ID, Amount: amount.Neg(), Description: "Balance expired at event close"},
			{AccountID: platform.expiry.ID, Amount: amount, Description: "Expired balance revenue"},
		},
	})
	if err != nil {
		return nil, decimal.Zero, err
	}
	if replayed {
		// Already expired today; money credited since then stays in the wallet.
		s.LogDebug(ctx, "Expiry already posted today", slog.String("idempotency_key", key))
		return wb, decimal.Zero, nil
	}

	wb.Balance = domain.Money(decimal.Zero)
	if err := repos.Wallets().SaveBalance(ctx, *wb); err != nil {
		return nil, decimal.Zero, fmt.Errorf("save wallet balance: %w", err)
	}
	return wb, amount, nil
}

func (s *accountingService) GetBalance(ctx context.Context, event domain.Event, userID string) (*domain.WalletBalance, error) {
	return inUnit(ctx, s.uow, func(ctx context.Context, repos portsrepo.TxRepositories) (*domain.WalletBalance, error) {
		return s.wallets.GetBalanceTx(ctx, repos, event.ID, userID)
	})
}

func (s *accountingService) ReconcileBalanceFromLedger(ctx context.Context, event domain.Event, userID string) (*domain.ReconcileResult, error) {
	result, err := inUnit(ctx, s.uow, func(ctx context.Context, repos portsrepo.TxRepositories) (*domain.ReconcileResult, error) {
		return s.wallets.ReconcileFromLedgerTx(ctx, repos, event.ID, userID)
	})
	if err != nil {
		s.logFailure(ctx, err, "Failed to reconcile wallet balance", slog.Int64("event_id", event.ID), slog.String("user_id", userID))
		return nil, err
	}
	s.metrics.ObserveReconcile(!result.Drift().IsZero())
	return result, nil
}

func (s *accountingService) ReconcileEvent(ctx context.Context, event domain.Event) ([]domain.ReconcileResult, error) {
	if event.ID <= 0 {
		return nil, apperrors.NewValidationError("event is required")
	}

	var results []domain.ReconcileResult
	err := s.uow.Do(ctx, func(ctx context.Context, repos portsrepo.TxRepositories) error {
		results = nil
		accounts, err := repos.Accounts().ListWalletAccounts(ctx, event.ID)
		if err != nil {
			return fmt.Errorf("list wallet accounts of event %d: %w", event.ID, err)
		}
		for _, acc := range accounts {
			if acc.OwnerUserID == nil {
				continue
			}
			result, err := s.wallets.ReconcileFromLedgerTx(ctx, repos, event.ID, *acc.OwnerUserID)
			if err != nil {
				return err
			}
			results = append(results, *result)
		}
		return nil
	})
	if err != nil {
		s.logFailure(ctx, err, "Failed to reconcile event wallets", slog.Int64("event_id", event.ID))
		return nil, err
	}

	drifted := 0
	for _, r := range results {
		d := !r.Drift().IsZero()
		s.metrics.ObserveReconcile(d)
		if d {
			drifted++
		}
	}
	s.LogInfo(ctx, "Reconciled event wallets",
		slog.Int64("event_id", event.ID), slog.Int("wallets", len(results)), slog.Int("drifted", drifted))
	return results, nil
}

func (s *accountingService) CloseOutEvent(ctx context.Context, event domain.Event, createdBy *string) (*domain.CloseOutSummary, error) {
	logAttrs := []any{slog.Int64("event_id", event.ID)}
	if event.ID <= 0 {
		return nil, apperrors.NewValidationError("event is required")
	}

	summary := &domain.CloseOutSummary{EventID: event.ID, TotalExpired: domain.Money(decimal.Zero)}
	var changed []*domain.WalletBalance
	err := s.uow.Do(ctx, func(ctx context.Context, repos portsrepo.TxRepositories) error {
		// Exclusive lock: in-flight postings hold a share lock on the event row.
		current, err := repos.Events().LockEventForUpdate(ctx, event.ID)
		if err != nil {
			return fmt.Errorf("lock event %d: %w", event.ID, err)
		}
		if current.IsClosed() {
			summary.AlreadyClosed = true
			return nil
		}

		positives, err := repos.Wallets().ListPositiveBalances(ctx, event.ID)
		if err != nil {
			return fmt.Errorf("list positive balances: %w", err)
		}
		for _, p := range positives {
			wb, expired, err := s.expireTx(ctx, repos, event.ID, p.UserID, createdBy)
			if err != nil {
				return fmt.Errorf("expire wallet of %s: %w", p.UserID, err)
			}
			if expired.IsPositive() {
				summary.WalletsExpired++
				summary.TotalExpired = summary.TotalExpired.Add(expired)
				changed = append(changed, wb)
			}
		}

		return repos.Events().MarkEventClosed(ctx, event.ID, s.clock.Now())
	})
	if err != nil {
		s.logFailure(ctx, err, "Failed to close out event", logAttrs...)
		return nil, err
	}

	if summary.AlreadyClosed {
		s.LogInfo(ctx, "Event already closed", logAttrs...)
		return summary, nil
	}
	s.metrics.ObserveCloseOut(summary.WalletsExpired)
	s.notify(ctx, changed...)
	s.LogInfo(ctx, "Event closed", append(logAttrs,
		slog.Int("wallets_expired", summary.WalletsExpired),
		slog.String("total_expired", domain.FormatMoney(summary.TotalExpired)))...)
	return summary, nil
}
