package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mitra-labs/ledgercore/internal/apperrors"
	"github.com/mitra-labs/ledgercore/internal/core/domain"
	portsrepo "github.com/mitra-labs/ledgercore/internal/core/ports/repositories"
	"github.com/mitra-labs/ledgercore/internal/utils/pagination"
)

const rawTxnSelectFields = `raw_txn_id, ledger_id, document_id, txn_date, amount, direction, description, currency_code, institution_ref, fingerprint, raw_confidence, active_match_id, match_version, created_at, created_by, last_updated_at, last_updated_by`

type PgxRawTransactionRepository struct {
	BaseRepository
}

// newPgxRawTransactionRepository creates a new repository for the append-only
// raw transaction layer.
func newPgxRawTransactionRepository(pool *pgxpool.Pool) *PgxRawTransactionRepository {
	return &PgxRawTransactionRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.RawTransactionRepositoryFacade = (*PgxRawTransactionRepository)(nil)

func scanRawTxn(row pgx.Row) (domain.RawTransaction, error) {
	var t domain.RawTransaction
	var activeMatchID sql.NullString
	err := row.Scan(
		&t.RawTxnID,
		&t.LedgerID,
		&t.DocumentID,
		&t.TxnDate,
		&t.Amount,
		&t.Direction,
		&t.Description,
		&t.CurrencyCode,
		&t.InstitutionRef,
		&t.Fingerprint,
		&t.RawConfidence,
		&activeMatchID,
		&t.MatchVersion,
		&t.CreatedAt,
		&t.CreatedBy,
		&t.LastUpdatedAt,
		&t.LastUpdatedBy,
	)
	if err != nil {
		return domain.RawTransaction{}, err
	}
	if activeMatchID.Valid {
		t.ActiveMatchID = &activeMatchID.String
	}
	return t, nil
}

// AppendBatch atomically persists the document envelope and all its
// transactions. The unique constraint on (institution, file_fingerprint)
// rejects a statement file that was already ingested; nothing of a rejected
// batch is persisted.
func (r *PgxRawTransactionRepository) AppendBatch(ctx context.Context, doc domain.StatementDocument, txns []domain.RawTransaction) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	docQuery := `
		INSERT INTO statement_documents (document_id, ledger_id, institution, institution_ref, currency_code, period_start, period_end, opening_balance, closing_balance, file_fingerprint, txn_count, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`
	_, err = tx.Exec(ctx, docQuery,
		doc.DocumentID,
		doc.LedgerID,
		doc.Institution,
		doc.InstitutionRef,
		doc.CurrencyCode,
		doc.PeriodStart,
		doc.PeriodEnd,
		doc.OpeningBalance,
		doc.ClosingBalance,
		doc.FileFingerprint,
		doc.TxnCount,
		doc.CreatedAt,
		doc.CreatedBy,
		doc.LastUpdatedAt,
		doc.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("%w: %s fingerprint %s", apperrors.ErrDuplicateDocument, doc.Institution, doc.FileFingerprint)
		}
		return fmt.Errorf("failed to insert statement document %s: %w", doc.DocumentID, err)
	}

	txnQuery := `
		INSERT INTO raw_transactions (raw_txn_id, ledger_id, document_id, txn_date, amount, direction, description, currency_code, institution_ref, fingerprint, raw_confidence, active_match_id, match_version, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17);
	`
	batch := &pgx.Batch{}
	for _, t := range txns {
		batch.Queue(txnQuery,
			t.RawTxnID,
			t.LedgerID,
			t.DocumentID,
			t.TxnDate,
			t.Amount,
			t.Direction,
			t.Description,
			t.CurrencyCode,
			t.InstitutionRef,
			t.Fingerprint,
			t.RawConfidence,
			t.ActiveMatchID,
			t.MatchVersion,
			t.CreatedAt,
			t.CreatedBy,
			t.LastUpdatedAt,
			t.LastUpdatedBy,
		)
	}
	results := tx.SendBatch(ctx, batch)
	for range txns {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("failed to insert raw transaction: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to insert raw transactions: %w", err)
	}

	return r.Commit(ctx, tx)
}

// FindRawTxnByID retrieves a raw transaction by its ID.
func (r *PgxRawTransactionRepository) FindRawTxnByID(ctx context.Context, rawTxnID string) (*domain.RawTransaction, error) {
	query := `SELECT ` + rawTxnSelectFields + ` FROM raw_transactions WHERE raw_txn_id = $1;`
	t, err := scanRawTxn(r.Pool.QueryRow(ctx, query, rawTxnID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: raw transaction %s", apperrors.ErrNotFound, rawTxnID)
		}
		return nil, fmt.Errorf("failed to find raw transaction %s: %w", rawTxnID, err)
	}
	return &t, nil
}

// FindRawTxnsByIDs retrieves multiple raw transactions by their IDs.
func (r *PgxRawTransactionRepository) FindRawTxnsByIDs(ctx context.Context, rawTxnIDs []string) (map[string]domain.RawTransaction, error) {
	if len(rawTxnIDs) == 0 {
		return map[string]domain.RawTransaction{}, nil
	}
	query := `SELECT ` + rawTxnSelectFields + ` FROM raw_transactions WHERE raw_txn_id = ANY($1);`
	rows, err := r.Pool.Query(ctx, query, rawTxnIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query raw transactions: %w", err)
	}
	defer rows.Close()

	txns := make(map[string]domain.RawTransaction, len(rawTxnIDs))
	for rows.Next() {
		t, scanErr := scanRawTxn(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan raw transaction: %w", scanErr)
		}
		txns[t.RawTxnID] = t
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating raw transactions: %w", err)
	}
	return txns, nil
}

// ListUnreconciledSince retrieves raw transactions dated at or after since
// whose active match, if any, is not resolved. Rejected and superseded
// matches leave the transaction eligible for another run; AUTO and CONFIRMED
// matches settle it.
func (r *PgxRawTransactionRepository) ListUnreconciledSince(ctx context.Context, ledgerID string, since time.Time) ([]domain.RawTransaction, error) {
	query := `
		SELECT ` + rawTxnSelectFields + `
		FROM raw_transactions t
		WHERE t.ledger_id = $1
		  AND t.txn_date >= $2
		  AND NOT EXISTS (
			SELECT 1 FROM reconciliation_matches m
			WHERE m.match_id = t.active_match_id AND m.status IN ('AUTO', 'CONFIRMED')
		  )
		ORDER BY t.txn_date ASC, t.raw_txn_id ASC;
	`
	rows, err := r.Pool.Query(ctx, query, ledgerID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list unreconciled transactions for ledger %s: %w", ledgerID, err)
	}
	defer rows.Close()

	var txns []domain.RawTransaction
	for rows.Next() {
		t, scanErr := scanRawTxn(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan raw transaction: %w", scanErr)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating raw transactions: %w", err)
	}
	return txns, nil
}

// ListRawTxns retrieves a page of raw transactions for a ledger, newest first.
func (r *PgxRawTransactionRepository) ListRawTxns(ctx context.Context, ledgerID string, limit int, nextToken *string) ([]domain.RawTransaction, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	query := `SELECT ` + rawTxnSelectFields + ` FROM raw_transactions WHERE ledger_id = $1`
	args := []interface{}{ledgerID}

	if nextToken != nil && *nextToken != "" {
		lastDate, lastCreatedAt, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, fmt.Errorf("%w: invalid nextToken", apperrors.ErrValidation)
		}
		args = append(args, lastDate, lastCreatedAt)
		query += ` AND (txn_date, created_at) < ($` + strconv.Itoa(len(args)-1) + `, $` + strconv.Itoa(len(args)) + `)`
	}

	args = append(args, fetchLimit)
	query += ` ORDER BY txn_date DESC, created_at DESC LIMIT $` + strconv.Itoa(len(args)) + `;`

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list raw transactions for ledger %s: %w", ledgerID, err)
	}
	defer rows.Close()

	txns := make([]domain.RawTransaction, 0, fetchLimit)
	for rows.Next() {
		t, scanErr := scanRawTxn(rows)
		if scanErr != nil {
			return nil, nil, fmt.Errorf("failed to scan raw transaction: %w", scanErr)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed iterating raw transactions: %w", err)
	}

	var newNextToken *string
	if len(txns) == fetchLimit {
		last := txns[limit-1]
		token := pagination.EncodeToken(last.TxnDate, last.CreatedAt)
		newNextToken = &token
		txns = txns[:limit]
	}
	return txns, newNextToken, nil
}
