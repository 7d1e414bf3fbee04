package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mitra-labs/ledgercore/internal/apperrors"
	"github.com/mitra-labs/ledgercore/internal/core/domain"
	portsrepo "github.com/mitra-labs/ledgercore/internal/core/ports/repositories"
)

type PgxLedgerRepository struct {
	pool *pgxpool.Pool
}

// newPgxLedgerRepository creates a new repository for ledger data.
func newPgxLedgerRepository(pool *pgxpool.Pool) *PgxLedgerRepository {
	return &PgxLedgerRepository{pool: pool}
}

var _ portsrepo.LedgerRepositoryFacade = (*PgxLedgerRepository)(nil)

// SaveLedger persists a new ledger.
func (r *PgxLedgerRepository) SaveLedger(ctx context.Context, ledger domain.Ledger) error {
	query := `
		INSERT INTO ledgers (ledger_id, name, base_currency_code, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err := r.pool.Exec(ctx, query,
		ledger.LedgerID,
		ledger.Name,
		ledger.BaseCurrencyCode,
		ledger.CreatedAt,
		ledger.CreatedBy,
		ledger.LastUpdatedAt,
		ledger.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("%w: ledger %s already exists", apperrors.ErrDuplicate, ledger.LedgerID)
		}
		return fmt.Errorf("failed to save ledger %s: %w", ledger.LedgerID, err)
	}
	return nil
}

// FindLedgerByID retrieves a ledger by its ID.
func (r *PgxLedgerRepository) FindLedgerByID(ctx context.Context, ledgerID string) (*domain.Ledger, error) {
	query := `
		SELECT ledger_id, name, base_currency_code, created_at, created_by, last_updated_at, last_updated_by
		FROM ledgers
		WHERE ledger_id = $1;
	`
	var ledger domain.Ledger
	err := r.pool.QueryRow(ctx, query, ledgerID).Scan(
		&ledger.LedgerID,
		&ledger.Name,
		&ledger.BaseCurrencyCode,
		&ledger.CreatedAt,
		&ledger.CreatedBy,
		&ledger.LastUpdatedAt,
		&ledger.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: ledger %s", apperrors.ErrNotFound, ledgerID)
		}
		return nil, fmt.Errorf("failed to find ledger %s: %w", ledgerID, err)
	}
	return &ledger, nil
}

// ListLedgers retrieves all ledgers, newest first.
func (r *PgxLedgerRepository) ListLedgers(ctx context.Context) ([]domain.Ledger, error) {
	query := `
		SELECT ledger_id, name, base_currency_code, created_at, created_by, last_updated_at, last_updated_by
		FROM ledgers
		ORDER BY created_at DESC, ledger_id DESC;
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledgers: %w", err)
	}
	defer rows.Close()

	var ledgers []domain.Ledger
	for rows.Next() {
		var ledger domain.Ledger
		if err := rows.Scan(
			&ledger.LedgerID,
			&ledger.Name,
			&ledger.BaseCurrencyCode,
			&ledger.CreatedAt,
			&ledger.CreatedBy,
			&ledger.LastUpdatedAt,
			&ledger.LastUpdatedBy,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ledger: %w", err)
		}
		ledgers = append(ledgers, ledger)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating ledgers: %w", err)
	}
	return ledgers, nil
}
