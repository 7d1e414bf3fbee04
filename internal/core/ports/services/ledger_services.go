package services

import (
	"context"

	"github.com/mitra-labs/ledgercore/internal/core/domain"
	"github.com/mitra-labs/ledgercore/internal/dto"
)

// LedgerSvcFacade manages ledgers (one set of books per tenant).
type LedgerSvcFacade interface {
	// CreateLedger persists a new ledger.
	CreateLedger(ctx context.Context, req dto.CreateLedgerRequest, actorID string) (*domain.Ledger, error)

	// GetLedgerByID retrieves a specific ledger.
	GetLedgerByID(ctx context.Context, ledgerID string) (*domain.Ledger, error)

	// ListLedgers retrieves all ledgers.
	ListLedgers(ctx context.Context) ([]domain.Ledger, error)
}
