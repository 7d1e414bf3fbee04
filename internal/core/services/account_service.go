package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mitra-labs/ledgercore/internal/apperrors"
	"github.com/mitra-labs/ledgercore/internal/core/domain"
	portsrepo "github.com/mitra-labs/ledgercore/internal/core/ports/repositories"
	portssvc "github.com/mitra-labs/ledgercore/internal/core/ports/services"
	"github.com/mitra-labs/ledgercore/internal/dto"
	"github.com/mitra-labs/ledgercore/internal/middleware"
)

// processingAccountName is the reserved name of the per-ledger transfer
// clearing account. It is created lazily and hidden from normal listings.
const processingAccountName = "Transfer Clearing"

// accountService provides account management on top of the account repository.
type accountService struct {
	accountRepo portsrepo.AccountRepositoryFacade
	ledgerSvc   portssvc.LedgerSvcFacade
}

// NewAccountService creates a new AccountService.
func NewAccountService(accountRepo portsrepo.AccountRepositoryFacade, ledgerSvc portssvc.LedgerSvcFacade) portssvc.AccountSvcFacade {
	return &accountService{
		accountRepo: accountRepo,
		ledgerSvc:   ledgerSvc,
	}
}

var _ portssvc.AccountSvcFacade = (*accountService)(nil)

// CreateAccount persists a new account in the given ledger.
func (s *accountService) CreateAccount(ctx context.Context, ledgerID string, req dto.CreateAccountRequest, actorID string) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if _, err := requireLedger(ctx, s.ledgerSvc, ledgerID); err != nil {
		return nil, err
	}
	if !req.AccountType.Valid() {
		return nil, fmt.Errorf("%w: unknown account type %s", apperrors.ErrValidation, req.AccountType)
	}
	if strings.EqualFold(req.Name, processingAccountName) {
		return nil, fmt.Errorf("%w: account name %q is reserved", apperrors.ErrValidation, processingAccountName)
	}

	now := time.Now()
	account := domain.Account{
		AccountID:      uuid.NewString(),
		LedgerID:       ledgerID,
		Name:           req.Name,
		AccountType:    req.AccountType,
		CurrencyCode:   strings.ToUpper(req.CurrencyCode),
		InstitutionRef: req.InstitutionRef,
		Description:    req.Description,
		IsActive:       true,
		Balance:        decimal.Zero,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorID,
		},
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		logger.Error("failed to save account", "error", err, "ledger_id", ledgerID)
		return nil, err
	}

	logger.Info("account created", "account_id", account.AccountID, "type", account.AccountType)
	return &account, nil
}

// GetAccountByID retrieves an account and verifies it belongs to the ledger.
func (s *accountService) GetAccountByID(ctx context.Context, ledgerID string, accountID string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.LedgerID != ledgerID {
		return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountID)
	}
	return account, nil
}

// GetAccountsByIDs retrieves multiple accounts, all of which must belong to
// the ledger.
func (s *accountService) GetAccountsByIDs(ctx context.Context, ledgerID string, accountIDs []string) (map[string]domain.Account, error) {
	accounts, err := s.accountRepo.FindAccountsByIDs(ctx, accountIDs)
	if err != nil {
		return nil, err
	}
	for _, id := range accountIDs {
		acc, ok := accounts[id]
		if !ok || acc.LedgerID != ledgerID {
			return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, id)
		}
	}
	return accounts, nil
}

// ListAccounts retrieves accounts for a ledger.
func (s *accountService) ListAccounts(ctx context.Context, ledgerID string, includeSystem bool) ([]domain.Account, error) {
	if _, err := requireLedger(ctx, s.ledgerSvc, ledgerID); err != nil {
		return nil, err
	}
	return s.accountRepo.ListAccounts(ctx, ledgerID, includeSystem)
}

// ResolveByInstitutionRef resolves the account linked to an institution
// account number. A missing link returns nil rather than an error: the
// transfer detector treats it as "not ours".
func (s *accountService) ResolveByInstitutionRef(ctx context.Context, ledgerID string, institutionRef string) (*domain.Account, error) {
	if institutionRef == "" {
		return nil, nil
	}
	account, err := s.accountRepo.FindAccountByInstitutionRef(ctx, ledgerID, institutionRef)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return account, nil
}

// DeactivateAccount marks an account as inactive.
func (s *accountService) DeactivateAccount(ctx context.Context, ledgerID string, accountID string, actorID string) error {
	account, err := s.GetAccountByID(ctx, ledgerID, accountID)
	if err != nil {
		return err
	}
	if account.IsSystem {
		return fmt.Errorf("%w: system accounts cannot be deactivated", apperrors.ErrValidation)
	}
	return s.accountRepo.DeactivateAccount(ctx, accountID, actorID, time.Now())
}

// GetOrCreateProcessingAccount returns the ledger's transfer clearing account,
// creating it on first use. Creation is idempotent: a concurrent create loses
// the unique-name race and falls back to reading the winner's row.
func (s *accountService) GetOrCreateProcessingAccount(ctx context.Context, ledgerID string, actorID string) (*domain.Account, error) {
	account, err := s.accountRepo.FindSystemAccount(ctx, ledgerID, processingAccountName)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	ledger, err := requireLedger(ctx, s.ledgerSvc, ledgerID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	created := domain.Account{
		AccountID:    uuid.NewString(),
		LedgerID:     ledgerID,
		Name:         processingAccountName,
		AccountType:  domain.Asset,
		CurrencyCode: ledger.BaseCurrencyCode,
		Description:  "Suspense account for internal transfers in flight",
		IsActive:     true,
		IsSystem:     true,
		Balance:      decimal.Zero,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorID,
		},
	}

	if err := s.accountRepo.SaveAccount(ctx, created); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return s.accountRepo.FindSystemAccount(ctx, ledgerID, processingAccountName)
		}
		return nil, err
	}

	middleware.GetLoggerFromCtx(ctx).Info("processing account created", "ledger_id", ledgerID, "account_id", created.AccountID)
	return &created, nil
}
