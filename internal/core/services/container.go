package services

import (
	portsrepo "github.com/mitra-labs/ledgercore/internal/core/ports/repositories"
	portssvc "github.com/mitra-labs/ledgercore/internal/core/ports/services"
	"github.com/mitra-labs/ledgercore/internal/embedding"
)

// NewContainer creates the service container with properly initialized
// dependencies. Construction order follows the dependency chain: ledger
// first, then accounts and journal, then the reconciliation stack on top.
func NewContainer(repos *portsrepo.RepositoryProvider, embedder embedding.Provider, policy MatchPolicy) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.Ledger = NewLedgerService(repos.LedgerRepo)
	container.Account = NewAccountService(repos.AccountRepo, container.Ledger)
	container.Journal = NewJournalService(repos.JournalRepo, container.Account, container.Ledger)
	container.Ingestion = NewIngestionService(repos.RawTxnRepo, container.Ledger)
	container.Rule = NewRuleService(repos.RuleRepo, container.Account, container.Ledger)
	container.Transfer = NewTransferService(repos.MatchRepo, repos.RawTxnRepo, container.Account, container.Journal, embedder, policy)
	container.Reconciliation = NewReconciliationService(repos.RawTxnRepo, repos.MatchRepo, container.Journal, container.Rule, container.Transfer, container.Ledger, embedder, policy)

	return container
}

// Compile-time interface checks for the service implementations.
var (
	_ portssvc.LedgerSvcFacade         = (*ledgerService)(nil)
	_ portssvc.AccountSvcFacade        = (*accountService)(nil)
	_ portssvc.JournalSvcFacade        = (*journalService)(nil)
	_ portssvc.IngestionSvcFacade      = (*ingestionService)(nil)
	_ portssvc.RuleSvcFacade           = (*ruleService)(nil)
	_ portssvc.ReconciliationSvcFacade = (*reconciliationService)(nil)
	_ portssvc.TransferSvcFacade       = (*transferService)(nil)
)
