package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/SscSPs/ucoin_ledger/internal/apperrors"
	"github.com/SscSPs/ucoin_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/ucoin_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ucoin_ledger/internal/core/ports/services"
	"github.com/SscSPs/ucoin_ledger/internal/utils/accounting"
	"github.com/SscSPs/ucoin_ledger/internal/utils/pagination"
)

// ledgerService owns accounts, ledger transactions and entries.
type ledgerService struct {
	BaseService
	uow portsrepo.UnitOfWork
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(uow portsrepo.UnitOfWork, opts ...Option) portssvc.LedgerSvcFacade {
	return &ledgerService{
		BaseService: newBaseService(newOptions(opts)),
		uow:         uow,
	}
}

func (s *ledgerService) EnsureAccount(ctx context.Context, eventID int64, code, name string, accountType domain.AccountType, owner domain.AccountOwner) (*domain.Account, error) {
	var account *domain.Account
	err := s.uow.Do(ctx, func(ctx context.Context, repos portsrepo.TxRepositories) error {
		var err error
		account, err = s.EnsureAccountTx(ctx, repos, eventID, code, name, accountType, owner)
		return err
	})
	if err != nil {
		s.logFailure(ctx, err, "Failed to ensure account", slog.Int64("event_id", eventID), slog.String("code", code))
		return nil, err
	}
	return account, nil
}

func (s *ledgerService) EnsureAccountTx(ctx context.Context, repos portsrepo.TxRepositories, eventID int64, code, name string, accountType domain.AccountType, owner domain.AccountOwner) (*domain.Account, error) {
	if eventID <= 0 {
		return nil, apperrors.NewValidationError("event is required")
	}
	if strings.TrimSpace(code) == "" {
		return nil, apperrors.NewValidationError("account code is required")
	}
	if !accountType.Valid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown account type %q", accountType))
	}

	account, err := repos.Accounts().EnsureAccount(ctx, domain.Account{
		EventID:      eventID,
		Code:         code,
		Name:         name,
		AccountType:  accountType,
		OwnerUserID:  owner.UserID,
		OwnerStallID: owner.StallID,
		IsActive:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("ensure account %s: %w", code, err)
	}
	return account, nil
}

func (s *ledgerService) PostTransaction(ctx context.Context, req domain.PostTransactionRequest) (*domain.LedgerTransaction, error) {
	var (
		posted   *domain.LedgerTransaction
		replayed bool
	)
	err := s.uow.Do(ctx, func(ctx context.Context, repos portsrepo.TxRepositories) error {
		var err error
		posted, replayed, err = s.PostTransactionTx(ctx, repos, req)
		return err
	})
	if err != nil {
		s.logFailure(ctx, err, "Failed to post ledger transaction",
			slog.Int64("event_id", req.EventID),
			slog.String("idempotency_key", req.IdempotencyKey))
		return nil, err
	}

	s.metrics.ObservePosting(string(posted.TxType), replayed)
	if replayed {
		s.LogDebug(ctx, "Ledger transaction replayed", slog.String("idempotency_key", req.IdempotencyKey))
	} else {
		s.LogInfo(ctx, "Ledger transaction posted",
			slog.String("transaction_id", posted.ID.String()),
			slog.String("tx_type", string(posted.TxType)),
			slog.Int("entries", len(posted.Entries)))
	}
	return posted, nil
}

// PostTransactionTx writes the transaction inside the caller's unit of work.
// A known key returns the stored transaction before the lines are validated.
// The zero-sum check happens when that unit of work commits.
func (s *ledgerService) PostTransactionTx(ctx context.Context, repos portsrepo.TxRepositories, req domain.PostTransactionRequest) (*domain.LedgerTransaction, bool, error) {
	if err := validateIdempotencyKey(req.IdempotencyKey); err != nil {
		return nil, false, err
	}
	existing, err := s.loadByKey(ctx, repos, req.IdempotencyKey)
	if err == nil {
		return existing, true, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, false, err
	}

	if err := s.validateStruct(req); err != nil {
		return nil, false, err
	}
	if !req.TxType.Valid() {
		return nil, false, apperrors.NewValidationError(fmt.Sprintf("unknown transaction type %q", req.TxType))
	}
	lines, err := accounting.NormalizeLines(req.Entries)
	if err != nil {
		return nil, false, err
	}

	tx := &domain.LedgerTransaction{
		ID:             uuid.New(),
		EventID:        req.EventID,
		TxType:         req.TxType,
		Status:         domain.TxPosted,
		IdempotencyKey: req.IdempotencyKey,
		Reference:      req.Reference,
		CreatedBy:      req.CreatedBy,
	}
	created, err := repos.Ledger().InsertTransaction(ctx, tx)
	if err != nil {
		return nil, false, fmt.Errorf("insert ledger transaction: %w", err)
	}
	if !created {
		// A concurrent poster committed the same key first.
		existing, err := s.loadByKey(ctx, repos, req.IdempotencyKey)
		if err != nil {
			return nil, false, fmt.Errorf("reload ledger transaction %s: %w", req.IdempotencyKey, err)
		}
		return existing, true, nil
	}

	entries := make([]domain.Entry, len(lines))
	for i, line := range lines {
		entries[i] = domain.Entry{
			TransactionID: tx.ID,
			AccountID:     line.AccountID,
			Amount:        line.Amount,
			Description:   line.Description,
		}
	}
	if err := repos.Ledger().InsertEntries(ctx, entries); err != nil {
		return nil, false, fmt.Errorf("insert ledger entries: %w", err)
	}
	tx.Entries = entries
	return tx, false, nil
}

func validateIdempotencyKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return apperrors.NewValidationError("idempotency key is required")
	}
	if len(key) > domain.MaxIdempotencyKeyLength {
		return apperrors.NewValidationError(fmt.Sprintf("idempotency key exceeds %d characters", domain.MaxIdempotencyKeyLength))
	}
	return nil
}

func (s *ledgerService) loadByKey(ctx context.Context, repos portsrepo.TxRepositories, key string) (*domain.LedgerTransaction, error) {
	tx, err := repos.Ledger().FindTransactionByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	entries, err := repos.Ledger().FindEntriesByTransactionID(ctx, tx.ID)
	if err != nil {
		return nil, fmt.Errorf("load entries of %s: %w", tx.ID, err)
	}
	tx.Entries = entries
	return tx, nil
}

func (s *ledgerService) GetTransactionByKey(ctx context.Context, key string) (*domain.LedgerTransaction, error) {
	var tx *domain.LedgerTransaction
	err := s.uow.Do(ctx, func(ctx context.Context, repos portsrepo.TxRepositories) error {
		var err error
		tx, err = s.loadByKey(ctx, repos, key)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

func (s *ledgerService) ListWalletStatement(ctx context.Context, eventID int64, userID string, limit int, nextToken string) (*domain.WalletStatement, error) {
	limit = pagination.ClampLimit(limit)

	var cursor *portsrepo.EntryCursor
	if nextToken != "" {
		createdAt, entryID, err := pagination.DecodeToken(nextToken)
		if err != nil {
			return nil, apperrors.NewValidationError(err.Error())
		}
		cursor = &portsrepo.EntryCursor{CreatedAt: createdAt, EntryID: entryID}
	}

	statement := &domain.WalletStatement{Lines: []domain.StatementLine{}}
	err := s.uow.Do(ctx, func(ctx context.Context, repos portsrepo.TxRepositories) error {
		account, err := repos.Accounts().FindAccountByCode(ctx, eventID, domain.WalletAccountCode(userID))
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		// One extra row tells us whether another page exists.
		lines, err := repos.Ledger().ListAccountEntries(ctx, account.ID, limit+1, cursor)
		if err != nil {
			return err
		}
		if len(lines) > limit {
			lines = lines[:limit]
			last := lines[len(lines)-1]
			statement.NextToken = pagination.EncodeToken(last.CreatedAt, last.EntryID)
		}
		statement.Lines = lines
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to list wallet statement", slog.Int64("event_id", eventID), slog.String("user_id", userID))
		return nil, err
	}
	return statement, nil
}

func (s *ledgerService) DeactivateAccount(ctx context.Context, eventID int64, code string) error {
	err := s.uow.Do(ctx, func(ctx context.Context, repos portsrepo.TxRepositories) error {
		account, err := repos.Accounts().FindAccountByCode(ctx, eventID, code)
		if err != nil {
			return err
		}
		return repos.Accounts().DeactivateAccount(ctx, account.ID)
	})
	if err != nil {
		s.logFailure(ctx, err, "Failed to deactivate account", slog.Int64("event_id", eventID), slog.String("code", code))
		return err
	}
	s.LogInfo(ctx, "Account deactivated", slog.Int64("event_id", eventID), slog.String("code", code))
	return nil
}
