package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/mitra-labs/ledgercore/internal/core/ports/repositories"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	ledgerRepo := newPgxLedgerRepository(dbPool)
	accountRepo := newPgxAccountRepository(dbPool)
	journalRepo := newPgxJournalRepository(dbPool, accountRepo)
	rawTxnRepo := newPgxRawTransactionRepository(dbPool)
	matchRepo := newPgxMatchRepository(dbPool)
	ruleRepo := newPgxRuleRepository(dbPool)

	return portsrepo.RepositoryProvider{
		LedgerRepo:  ledgerRepo,
		AccountRepo: accountRepo,
		JournalRepo: journalRepo,
		RawTxnRepo:  rawTxnRepo,
		MatchRepo:   matchRepo,
		RuleRepo:    ruleRepo,
	}
}
