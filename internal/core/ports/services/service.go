package services

// ServiceContainer holds instances of all the application services.
// It is the entry point used by the operator CLI.
type ServiceContainer struct {
	Ledger     LedgerSvcFacade
	Wallets    WalletBalanceSvcFacade
	Accounting AccountingSvc
	Events     EventGate
}
