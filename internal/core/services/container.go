package services

import (
	portsrepo "github.com/SscSPs/ucoin_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ucoin_ledger/internal/core/ports/services"
)

// NewContainer wires every service on top of one unit of work.
func NewContainer(uow portsrepo.UnitOfWork, opts ...Option) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.Events = NewEventGate(uow, opts...)
	container.Ledger = NewLedgerService(uow, opts...)
	container.Wallets = NewWalletBalanceService(uow, opts...)
	container.Accounting = NewAccountingService(uow, container.Ledger, container.Wallets, container.Events, opts...)

	return container
}

// Helper to check interface implementations at compile time
var (
	_ portssvc.LedgerSvcFacade        = (*ledgerService)(nil)
	_ portssvc.WalletBalanceSvcFacade = (*walletBalanceService)(nil)
	_ portssvc.AccountingSvc          = (*accountingService)(nil)
	_ portssvc.EventGate              = (*eventGate)(nil)
)
