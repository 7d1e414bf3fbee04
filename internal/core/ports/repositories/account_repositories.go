package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/mitra-labs/ledgercore/internal/core/domain"
	"github.com/shopspring/decimal"
)

// AccountReader defines read operations for account data
type AccountReader interface {
	// FindAccountByID retrieves a specific account by its unique identifier.
	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// FindAccountsByIDs retrieves multiple accounts by their IDs.
	FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error)

	// FindAccountByInstitutionRef resolves the account linked to an external
	// institution account number, if any.
	FindAccountByInstitutionRef(ctx context.Context, ledgerID string, institutionRef string) (*domain.Account, error)

	// FindSystemAccount retrieves the ledger's system account with the given
	// name, or ErrNotFound.
	FindSystemAccount(ctx context.Context, ledgerID string, name string) (*domain.Account, error)

	// ListAccounts retrieves accounts for a ledger. System accounts are
	// excluded unless includeSystem is set.
	ListAccounts(ctx context.Context, ledgerID string, includeSystem bool) ([]domain.Account, error)
}

// AccountWriter defines write operations for account data
type AccountWriter interface {
	// SaveAccount persists a new account.
	SaveAccount(ctx context.Context, account domain.Account) error

	// DeactivateAccount marks an account as inactive.
	DeactivateAccount(ctx context.Context, accountID string, actorID string, now time.Time) error
}

// AccountTransactionSupport defines operations that support entry postings.
type AccountTransactionSupport interface {
	// FindAccountsByIDsForUpdate selects accounts and locks them for update
	// within a transaction. Lock acquisition uses a short timeout and returns
	// a retryable error rather than waiting indefinitely.
	FindAccountsByIDsForUpdate(ctx context.Context, tx pgx.Tx, accountIDs []string) (map[string]domain.Account, error)

	// UpdateAccountBalancesInTx applies signed balance deltas to multiple
	// accounts within a given transaction.
	UpdateAccountBalancesInTx(ctx context.Context, tx pgx.Tx, balanceChanges map[string]decimal.Decimal, actorID string, now time.Time) error
}

// AccountRepositoryFacade combines all account-related repository interfaces
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
	AccountTransactionSupport
}

// AccountRepositoryWithTx extends AccountRepositoryFacade with transaction capabilities
type AccountRepositoryWithTx interface {
	AccountRepositoryFacade
	TransactionManager
}
