package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/SscSPs/ucoin_ledger/internal/apperrors"
	"github.com/SscSPs/ucoin_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/ucoin_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ucoin_ledger/internal/core/ports/services"
)

// walletBalanceService maintains the per-(event, user) balance cache.
type walletBalanceService struct {
	BaseService
	uow portsrepo.UnitOfWork
}

// NewWalletBalanceService creates a new WalletBalanceService.
func NewWalletBalanceService(uow portsrepo.UnitOfWork, opts ...Option) portssvc.WalletBalanceSvcFacade {
	return &walletBalanceService{
		BaseService: newBaseService(newOptions(opts)),
		uow:         uow,
	}
}

func walletScope(eventID int64, userID string) error {
	if eventID <= 0 {
		return apperrors.NewValidationError("event is required")
	}
	if strings.TrimSpace(userID) == "" {
		return apperrors.NewValidationError("user is required")
	}
	return nil
}

// inUnit runs fn in its own unit of work and returns its result.
func inUnit[T any](ctx context.Context, uow portsrepo.UnitOfWork, fn func(ctx context.Context, repos portsrepo.TxRepositories) (T, error)) (T, error) {
	var out T
	err := uow.Do(ctx, func(ctx context.Context, repos portsrepo.TxRepositories) error {
		var err error
		out, err = fn(ctx, repos)
		return err
	})
	return out, err
}

func (s *walletBalanceService) GetBalance(ctx context.Context, eventID int64, userID string) (*domain.WalletBalance, error) {
	return inUnit(ctx, s.uow, func(ctx context.Context, repos portsrepo.TxRepositories) (*domain.WalletBalance, error) {
		return s.GetBalanceTx(ctx, repos, eventID, userID)
	})
}

func (s *walletBalanceService) GetBalanceTx(ctx context.Context, repos portsrepo.TxRepositories, eventID int64, userID string) (*domain.WalletBalance, error) {
	if err := walletScope(eventID, userID); err != nil {
		return nil, err
	}
	wb, err := repos.Wallets().GetOrCreate(ctx, eventID, userID)
	if err != nil {
		return nil, fmt.Errorf("get wallet balance: %w", err)
	}
	return wb, nil
}

func (s *walletBalanceService) GetBalanceLockedTx(ctx context.Context, repos portsrepo.TxRepositories, eventID int64, userID string) (*domain.WalletBalance, error) {
	if err := walletScope(eventID, userID); err != nil {
		return nil, err
	}
	wb, err := repos.Wallets().GetOrCreateForUpdate(ctx, eventID, userID)
	if err != nil {
		return nil, fmt.Errorf("lock wallet balance: %w", err)
	}
	return wb, nil
}

func (s *walletBalanceService) ApplyDelta(ctx context.Context, eventID int64, userID string, delta decimal.Decimal) (*domain.WalletBalance, error) {
	return inUnit(ctx, s.uow, func(ctx context.Context, repos portsrepo.TxRepositories) (*domain.WalletBalance, error) {
		return s.ApplyDeltaTx(ctx, repos, eventID, userID, delta)
	})
}

func (s *walletBalanceService) ApplyDeltaTx(ctx context.Context, repos portsrepo.TxRepositories, eventID int64, userID string, delta decimal.Decimal) (*domain.WalletBalance, error) {
	wb, err := s.GetBalanceLockedTx(ctx, repos, eventID, userID)
	if err != nil {
		return nil, err
	}
	wb.Balance = domain.Money(wb.Balance.Add(domain.Money(delta)))
	if err := repos.Wallets().SaveBalance(ctx, *wb); err != nil {
		return nil, fmt.Errorf("save wallet balance: %w", err)
	}
	return wb, nil
}

func (s *walletBalanceService) SetBalance(ctx context.Context, eventID int64, userID string, value decimal.Decimal) (*domain.WalletBalance, error) {
	return inUnit(ctx, s.uow, func(ctx context.Context, repos portsrepo.TxRepositories) (*domain.WalletBalance, error) {
		return s.SetBalanceTx(ctx, repos, eventID, userID, value)
	})
}

func (s *walletBalanceService) SetBalanceTx(ctx context.Context, repos portsrepo.TxRepositories, eventID int64, userID string, value decimal.Decimal) (*domain.WalletBalance, error) {
	wb, err := s.GetBalanceTx(ctx, repos, eventID, userID)
	if err != nil {
		return nil, err
	}
	wb.Balance = domain.Money(value)
	if err := repos.Wallets().SaveBalance(ctx, *wb); err != nil {
		return nil, fmt.Errorf("save wallet balance: %w", err)
	}
	return wb, nil
}

func (s *walletBalanceService) ReconcileFromLedger(ctx context.Context, eventID int64, userID string) (*domain.ReconcileResult, error) {
	result, err := inUnit(ctx, s.uow, func(ctx context.Context, repos portsrepo.TxRepositories) (*domain.ReconcileResult, error) {
		return s.ReconcileFromLedgerTx(ctx, repos, eventID, userID)
	})
	if err != nil {
		s.logFailure(ctx, err, "Failed to reconcile wallet balance", slog.Int64("event_id", eventID), slog.String("user_id", userID))
		return nil, err
	}

	drift := result.Drift()
	s.metrics.ObserveReconcile(!drift.IsZero())
	if !drift.IsZero() {
		s.GetLogger(ctx).Warn("Wallet balance cache drifted from ledger",
			slog.Int64("event_id", eventID),
			slog.String("user_id", userID),
			slog.String("previous", domain.FormatMoney(result.Previous)),
			slog.String("reconciled", domain.FormatMoney(result.Reconciled)))
	}
	return result, nil
}

// ReconcileFromLedgerTx takes the same row lock as postings so it cannot
// interleave with one.
func (s *walletBalanceService) ReconcileFromLedgerTx(ctx context.Context, repos portsrepo.TxRepositories, eventID int64, userID string) (*domain.ReconcileResult, error) {
	wb, err := s.GetBalanceLockedTx(ctx, repos, eventID, userID)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	account, err := repos.Accounts().FindAccountByCode(ctx, eventID, domain.WalletAccountCode(userID))
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		// No wallet account means no entries.
	case err != nil:
		return nil, err
	default:
		total, err = repos.Ledger().SumAccountEntries(ctx, account.ID)
		if err != nil {
			return nil, fmt.Errorf("sum wallet entries: %w", err)
		}
	}

	result := &domain.ReconcileResult{
		EventID:    eventID,
		UserID:     userID,
		Previous:   domain.Money(wb.Balance),
		Reconciled: domain.Money(total),
	}
	wb.Balance = result.Reconciled
	if err := repos.Wallets().SaveBalance(ctx, *wb); err != nil {
		return nil, fmt.Errorf("save wallet balance: %w", err)
	}
	return result, nil
}

func (s *walletBalanceService) SyncLegacyBalance(ctx context.Context, eventID int64, userID string, legacy decimal.Decimal) (*domain.ReconcileResult, error) {
	result, err := inUnit(ctx, s.uow, func(ctx context.Context, repos portsrepo.TxRepositories) (*domain.ReconcileResult, error) {
		wb, err := s.GetBalanceLockedTx(ctx, repos, eventID, userID)
		if err != nil {
			return nil, err
		}
		result := &domain.ReconcileResult{
			EventID:    eventID,
			UserID:     userID,
			Previous:   domain.Money(wb.Balance),
			Reconciled: domain.Money(legacy),
		}
		if result.Previous.Equal(result.Reconciled) {
			return result, nil
		}
		wb.Balance = result.Reconciled
		if err := repos.Wallets().SaveBalance(ctx, *wb); err != nil {
			return nil, fmt.Errorf("save wallet balance: %w", err)
		}
		return result, nil
	})
	if err != nil {
		s.logFailure(ctx, err, "Failed to sync legacy balance", slog.Int64("event_id", eventID), slog.String("user_id", userID))
		return nil, err
	}
	s.LogInfo(ctx, "Legacy balance synced",
		slog.Int64("event_id", eventID),
		slog.String("user_id", userID),
		slog.String("balance", domain.FormatMoney(result.Reconciled)))
	return result, nil
}

func (s *walletBalanceService) ListPositiveBalances(ctx context.Context, eventID int64) ([]domain.WalletBalance, error) {
	return inUnit(ctx, s.uow, func(ctx context.Context, repos portsrepo.TxRepositories) ([]domain.WalletBalance, error) {
		return repos.Wallets().ListPositiveBalances(ctx, eventID)
	})
}
