package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/mitra-labs/ledgercore/internal/apperrors"
	"github.com/mitra-labs/ledgercore/internal/core/domain"
	portsrepo "github.com/mitra-labs/ledgercore/internal/core/ports/repositories"
)

// pgUniqueViolation and pgLockNotAvailable are the postgres error codes the
// repositories translate into domain errors.
const (
	pgUniqueViolation   = "23505"
	pgLockNotAvailable  = "55P03"
	accountLockTimeout  = "500ms"
	accountSelectFields = `account_id, ledger_id, name, account_type, currency_code, institution_ref, description, is_active, is_system, created_at, created_by, last_updated_at, last_updated_by, balance`
)

type PgxAccountRepository struct {
	pool *pgxpool.Pool
}

// newPgxAccountRepository creates a new repository for account data.
func newPgxAccountRepository(pool *pgxpool.Pool) *PgxAccountRepository {
	return &PgxAccountRepository{pool: pool}
}

// Ensure PgxAccountRepository implements portsrepo.AccountRepositoryFacade
var _ portsrepo.AccountRepositoryFacade = (*PgxAccountRepository)(nil)

func scanAccount(row pgx.Row) (domain.Account, error) {
	var acc domain.Account
	var institutionRef sql.NullString
	err := row.Scan(
		&acc.AccountID,
		&acc.LedgerID,
		&acc.Name,
		&acc.AccountType,
		&acc.CurrencyCode,
		&institutionRef,
		&acc.Description,
		&acc.IsActive,
		&acc.IsSystem,
		&acc.CreatedAt,
		&acc.CreatedBy,
		&acc.LastUpdatedAt,
		&acc.LastUpdatedBy,
		&acc.Balance,
	)
	if err != nil {
		return domain.Account{}, err
	}
	acc.InstitutionRef = institutionRef.String
	return acc, nil
}

// SaveAccount inserts a new account.
func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	query := `
		INSERT INTO accounts (account_id, ledger_id, name, account_type, currency_code, institution_ref, description, is_active, is_system, created_at, created_by, last_updated_at, last_updated_by, balance)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
	`
	var institutionRef sql.NullString
	if account.InstitutionRef != "" {
		institutionRef = sql.NullString{String: account.InstitutionRef, Valid: true}
	}

	_, err := r.pool.Exec(ctx, query,
		account.AccountID,
		account.LedgerID,
		account.Name,
		account.AccountType,
		account.CurrencyCode,
		institutionRef,
		account.Description,
		account.IsActive,
		account.IsSystem,
		account.CreatedAt,
		account.CreatedBy,
		account.LastUpdatedAt,
		account.LastUpdatedBy,
		account.Balance,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("%w: account %s already exists", apperrors.ErrDuplicate, account.Name)
		}
		return fmt.Errorf("failed to save account %s: %w", account.AccountID, err)
	}
	return nil
}

// FindAccountByID retrieves an account by its ID.
func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	query := `SELECT ` + accountSelectFields + ` FROM accounts WHERE account_id = $1;`
	acc, err := scanAccount(r.pool.QueryRow(ctx, query, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountID)
		}
		return nil, fmt.Errorf("failed to find account %s: %w", accountID, err)
	}
	return &acc, nil
}

// FindAccountsByIDs retrieves multiple accounts by their IDs.
func (r *PgxAccountRepository) FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	if len(accountIDs) == 0 {
		return map[string]domain.Account{}, nil
	}
	query := `SELECT ` + accountSelectFields + ` FROM accounts WHERE account_id = ANY($1);`
	rows, err := r.pool.Query(ctx, query, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	accounts := make(map[string]domain.Account, len(accountIDs))
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts[acc.AccountID] = acc
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating accounts: %w", err)
	}
	return accounts, nil
}

// FindAccountByInstitutionRef resolves the account linked to an external
// institution account number.
func (r *PgxAccountRepository) FindAccountByInstitutionRef(ctx context.Context, ledgerID string, institutionRef string) (*domain.Account, error) {
	query := `SELECT ` + accountSelectFields + ` FROM accounts WHERE ledger_id = $1 AND institution_ref = $2 AND is_active = TRUE;`
	acc, err := scanAccount(r.pool.QueryRow(ctx, query, ledgerID, institutionRef))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: no account linked to institution ref %s", apperrors.ErrNotFound, institutionRef)
		}
		return nil, fmt.Errorf("failed to resolve institution ref %s: %w", institutionRef, err)
	}
	return &acc, nil
}

// FindSystemAccount retrieves the ledger's system account with the given name.
func (r *PgxAccountRepository) FindSystemAccount(ctx context.Context, ledgerID string, name string) (*domain.Account, error) {
	query := `SELECT ` + accountSelectFields + ` FROM accounts WHERE ledger_id = $1 AND name = $2 AND is_system = TRUE;`
	acc, err := scanAccount(r.pool.QueryRow(ctx, query, ledgerID, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: system account %s", apperrors.ErrNotFound, name)
		}
		return nil, fmt.Errorf("failed to find system account %s: %w", name, err)
	}
	return &acc, nil
}

// ListAccounts retrieves accounts for a ledger, newest first.
func (r *PgxAccountRepository) ListAccounts(ctx context.Context, ledgerID string, includeSystem bool) ([]domain.Account, error) {
	query := `SELECT ` + accountSelectFields + ` FROM accounts WHERE ledger_id = $1`
	if !includeSystem {
		query += ` AND is_system = FALSE`
	}
	query += ` ORDER BY created_at DESC, account_id DESC;`

	rows, err := r.pool.Query(ctx, query, ledgerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts for ledger %s: %w", ledgerID, err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating accounts: %w", err)
	}
	return accounts, nil
}

// DeactivateAccount marks an account as inactive.
func (r *PgxAccountRepository) DeactivateAccount(ctx context.Context, accountID string, actorID string, now time.Time) error {
	query := `
		UPDATE accounts
		SET is_active = FALSE, last_updated_at = $2, last_updated_by = $3
		WHERE account_id = $1;
	`
	tag, err := r.pool.Exec(ctx, query, accountID, now, actorID)
	if err != nil {
		return fmt.Errorf("failed to deactivate account %s: %w", accountID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountID)
	}
	return nil
}

// FindAccountsByIDsForUpdate selects accounts and locks them for update within
// a transaction. A short lock_timeout bounds the wait; hitting it surfaces as
// the retryable apperrors.ErrLockTimeout instead of blocking the posting path.
func (r *PgxAccountRepository) FindAccountsByIDsForUpdate(ctx context.Context, tx pgx.Tx, accountIDs []string) (map[string]domain.Account, error) {
	if len(accountIDs) == 0 {
		return map[string]domain.Account{}, nil
	}

	if _, err := tx.Exec(ctx, `SET LOCAL lock_timeout = '`+accountLockTimeout+`';`); err != nil {
		return nil, fmt.Errorf("failed to set lock timeout: %w", err)
	}

	query := `SELECT ` + accountSelectFields + ` FROM accounts WHERE account_id = ANY($1) ORDER BY account_id FOR UPDATE;`
	rows, err := tx.Query(ctx, query, accountIDs)
	if err != nil {
		return nil, lockErr(err)
	}
	defer rows.Close()

	accounts := make(map[string]domain.Account, len(accountIDs))
	for rows.Next() {
		acc, scanErr := scanAccount(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan locked account: %w", scanErr)
		}
		accounts[acc.AccountID] = acc
	}
	if err := rows.Err(); err != nil {
		return nil, lockErr(err)
	}

	for _, id := range accountIDs {
		if _, ok := accounts[id]; !ok {
			return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, id)
		}
	}
	return accounts, nil
}

func lockErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgLockNotAvailable {
		return apperrors.ErrLockTimeout
	}
	return fmt.Errorf("failed to lock accounts: %w", err)
}

// UpdateAccountBalancesInTx applies signed balance deltas to multiple accounts
// within a given transaction. Callers must hold the row locks already.
func (r *PgxAccountRepository) UpdateAccountBalancesInTx(ctx context.Context, tx pgx.Tx, balanceChanges map[string]decimal.Decimal, actorID string, now time.Time) error {
	query := `
		UPDATE accounts
		SET balance = balance + $2, last_updated_at = $3, last_updated_by = $4
		WHERE account_id = $1;
	`
	batch := &pgx.Batch{}
	for accountID, delta := range balanceChanges {
		batch.Queue(query, accountID, delta, now, actorID)
	}
	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for range balanceChanges {
		tag, err := results.Exec()
		if err != nil {
			return fmt.Errorf("failed to update account balance: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: account vanished during balance update", apperrors.ErrNotFound)
		}
	}
	return nil
}
