package repositories

import (
	"context"
)

// TxRepositories exposes every repository bound to one open unit of work.
// Values obtained from it must not be used after the unit of work returns.
type TxRepositories interface {
	Accounts() AccountRepository
	Ledger() LedgerRepository
	Wallets() WalletBalanceRepository
	Topups() TopupRepository
	Events() EventRepository
}

// UnitOfWork runs fn inside a single atomic unit of work.
//
// Before committing, every ledger transaction written by fn is checked to sum
// to zero; an imbalance rolls everything back and is returned as an
// *apperrors.UnbalancedTransactionError. Any error returned by fn also rolls
// back. Row locks taken by fn are held until Do returns. Implementations do not
// support nesting: code already inside fn must use the TxRepositories it was given.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, repos TxRepositories) error) error
}
