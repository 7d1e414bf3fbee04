package services

import (
	"context"

	"github.com/mitra-labs/ledgercore/internal/core/domain"
	"github.com/mitra-labs/ledgercore/internal/dto"
)

// AccountReaderSvc defines read operations for account data
type AccountReaderSvc interface {
	// GetAccountByID retrieves a specific account by its unique identifier.
	GetAccountByID(ctx context.Context, ledgerID string, accountID string) (*domain.Account, error)

	// GetAccountsByIDs retrieves multiple accounts by their IDs.
	GetAccountsByIDs(ctx context.Context, ledgerID string, accountIDs []string) (map[string]domain.Account, error)

	// ListAccounts retrieves accounts for a ledger; system accounts are
	// hidden unless includeSystem is set.
	ListAccounts(ctx context.Context, ledgerID string, includeSystem bool) ([]domain.Account, error)

	// ResolveByInstitutionRef resolves the account linked to an institution
	// account number, or nil if none is.
	ResolveByInstitutionRef(ctx context.Context, ledgerID string, institutionRef string) (*domain.Account, error)
}

// AccountWriterSvc defines write operations for account data
type AccountWriterSvc interface {
	// CreateAccount persists a new account.
	CreateAccount(ctx context.Context, ledgerID string, req dto.CreateAccountRequest, actorID string) (*domain.Account, error)

	// DeactivateAccount marks an account as inactive.
	DeactivateAccount(ctx context.Context, ledgerID string, accountID string, actorID string) error

	// GetOrCreateProcessingAccount returns the ledger's transfer clearing
	// account, creating it lazily and idempotently on first use.
	GetOrCreateProcessingAccount(ctx context.Context, ledgerID string, actorID string) (*domain.Account, error)
}

// AccountSvcFacade combines all account-related service interfaces
type AccountSvcFacade interface {
	AccountReaderSvc
	AccountWriterSvc
}
