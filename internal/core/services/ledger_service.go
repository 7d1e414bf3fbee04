package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mitra-labs/ledgercore/internal/core/domain"
	portsrepo "github.com/mitra-labs/ledgercore/internal/core/ports/repositories"
	portssvc "github.com/mitra-labs/ledgercore/internal/core/ports/services"
	"github.com/mitra-labs/ledgercore/internal/dto"
	"github.com/mitra-labs/ledgercore/internal/middleware"
)

// ledgerService manages ledgers, the tenancy root of everything else.
type ledgerService struct {
	ledgerRepo portsrepo.LedgerRepositoryFacade
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(ledgerRepo portsrepo.LedgerRepositoryFacade) portssvc.LedgerSvcFacade {
	return &ledgerService{ledgerRepo: ledgerRepo}
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// CreateLedger persists a new ledger.
func (s *ledgerService) CreateLedger(ctx context.Context, req dto.CreateLedgerRequest, actorID string) (*domain.Ledger, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	now := time.Now()
	ledger := domain.Ledger{
		LedgerID:         uuid.NewString(),
		Name:             req.Name,
		BaseCurrencyCode: strings.ToUpper(req.BaseCurrencyCode),
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorID,
		},
	}

	if err := s.ledgerRepo.SaveLedger(ctx, ledger); err != nil {
		logger.Error("failed to save ledger", "error", err)
		return nil, fmt.Errorf("failed to create ledger: %w", err)
	}

	logger.Info("ledger created", "ledger_id", ledger.LedgerID, "name", ledger.Name)
	return &ledger, nil
}

// GetLedgerByID retrieves a specific ledger.
func (s *ledgerService) GetLedgerByID(ctx context.Context, ledgerID string) (*domain.Ledger, error) {
	ledger, err := s.ledgerRepo.FindLedgerByID(ctx, ledgerID)
	if err != nil {
		return nil, err
	}
	return ledger, nil
}

// ListLedgers retrieves all ledgers.
func (s *ledgerService) ListLedgers(ctx context.Context) ([]domain.Ledger, error) {
	return s.ledgerRepo.ListLedgers(ctx)
}

// requireLedger is shared by the other services to verify tenancy before
// touching any child resource.
func requireLedger(ctx context.Context, ledgerSvc portssvc.LedgerSvcFacade, ledgerID string) (*domain.Ledger, error) {
	return ledgerSvc.GetLedgerByID(ctx, ledgerID)
}
