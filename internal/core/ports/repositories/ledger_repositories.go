package repositories

import (
	"context"

	"github.com/mitra-labs/ledgercore/internal/core/domain"
)

// LedgerRepositoryFacade provides access to ledger (tenant) records.
type LedgerRepositoryFacade interface {
	// SaveLedger persists a new ledger.
	SaveLedger(ctx context.Context, ledger domain.Ledger) error

	// FindLedgerByID retrieves a specific ledger by its unique identifier.
	FindLedgerByID(ctx context.Context, ledgerID string) (*domain.Ledger, error)

	// ListLedgers retrieves all ledgers.
	ListLedgers(ctx context.Context) ([]domain.Ledger, error)
}
