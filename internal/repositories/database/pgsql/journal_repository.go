package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/mitra-labs/ledgercore/internal/apperrors"
	"github.com/mitra-labs/ledgercore/internal/core/domain"
	portsrepo "github.com/mitra-labs/ledgercore/internal/core/ports/repositories"
	"github.com/mitra-labs/ledgercore/internal/utils/accounting"
	"github.com/mitra-labs/ledgercore/internal/utils/pagination"
)

const entrySelectFields = `entry_id, ledger_id, entry_date, memo, currency_code, status, source, original_entry_id, reversing_entry_id, amount, created_at, created_by, last_updated_at, last_updated_by`

type PgxJournalRepository struct {
	BaseRepository
	accountRepo *PgxAccountRepository
}

// newPgxJournalRepository creates a new repository for journal entry data.
// The account repository is injected for in-transaction locking and balance
// maintenance during postings.
func newPgxJournalRepository(pool *pgxpool.Pool, accountRepo *PgxAccountRepository) *PgxJournalRepository {
	return &PgxJournalRepository{
		BaseRepository: BaseRepository{Pool: pool},
		accountRepo:    accountRepo,
	}
}

// Ensure PgxJournalRepository implements portsrepo.JournalRepositoryWithTx
var _ portsrepo.JournalRepositoryWithTx = (*PgxJournalRepository)(nil)

func scanEntry(row pgx.Row) (domain.JournalEntry, error) {
	var e domain.JournalEntry
	var originalID, reversingID sql.NullString
	err := row.Scan(
		&e.EntryID,
		&e.LedgerID,
		&e.EntryDate,
		&e.Memo,
		&e.CurrencyCode,
		&e.Status,
		&e.Source,
		&originalID,
		&reversingID,
		&e.Amount,
		&e.CreatedAt,
		&e.CreatedBy,
		&e.LastUpdatedAt,
		&e.LastUpdatedBy,
	)
	if err != nil {
		return domain.JournalEntry{}, err
	}
	if originalID.Valid {
		e.OriginalEntryID = &originalID.String
	}
	if reversingID.Valid {
		e.ReversingEntryID = &reversingID.String
	}
	return e, nil
}

func insertEntryTx(ctx context.Context, tx pgx.Tx, entry domain.JournalEntry) error {
	query := `
		INSERT INTO journal_entries (entry_id, ledger_id, entry_date, memo, currency_code, status, source, original_entry_id, reversing_entry_id, amount, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
	`
	_, err := tx.Exec(ctx, query,
		entry.EntryID,
		entry.LedgerID,
		entry.EntryDate,
		entry.Memo,
		entry.CurrencyCode,
		entry.Status,
		entry.Source,
		entry.OriginalEntryID,
		entry.ReversingEntryID,
		entry.Amount,
		entry.CreatedAt,
		entry.CreatedBy,
		entry.LastUpdatedAt,
		entry.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert entry %s: %w", entry.EntryID, err)
	}
	return nil
}

func insertLinesTx(ctx context.Context, tx pgx.Tx, lines []domain.JournalLine) error {
	query := `
		INSERT INTO journal_lines (line_id, entry_id, account_id, amount, direction, currency_code, fx_rate, line_date, notes, running_balance, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
	`
	batch := &pgx.Batch{}
	for _, line := range lines {
		batch.Queue(query,
			line.LineID,
			line.EntryID,
			line.AccountID,
			line.Amount,
			line.Direction,
			line.CurrencyCode,
			line.FXRate,
			line.LineDate,
			line.Notes,
			line.RunningBalance,
			line.CreatedAt,
			line.CreatedBy,
			line.LastUpdatedAt,
			line.LastUpdatedBy,
		)
	}
	results := tx.SendBatch(ctx, batch)
	defer results.Close()
	for range lines {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert entry line: %w", err)
		}
	}
	return nil
}

// applyRunningBalances locks the affected accounts, applies the balance deltas
// and stamps each line with the account balance after that line. Lines are
// processed in LineID order so the running balance chain is deterministic.
func (r *PgxJournalRepository) applyRunningBalances(ctx context.Context, tx pgx.Tx, lines []domain.JournalLine, balanceChanges map[string]decimal.Decimal, actorID string, now time.Time) ([]domain.JournalLine, error) {
	accountIDs := make([]string, 0, len(balanceChanges))
	for accID := range balanceChanges {
		accountIDs = append(accountIDs, accID)
	}

	lockedAccounts, err := r.accountRepo.FindAccountsByIDsForUpdate(ctx, tx, accountIDs)
	if err != nil {
		return nil, err
	}

	if err := r.accountRepo.UpdateAccountBalancesInTx(ctx, tx, balanceChanges, actorID, now); err != nil {
		return nil, err
	}

	running := make(map[string]decimal.Decimal, len(lockedAccounts))
	for accID, acc := range lockedAccounts {
		running[accID] = acc.Balance
	}

	sort.Slice(lines, func(i, j int) bool {
		return lines[i].LineID < lines[j].LineID
	})

	for i, line := range lines {
		acc, ok := lockedAccounts[line.AccountID]
		if !ok {
			return nil, fmt.Errorf("%w: account %s missing from lock set", apperrors.ErrInternal, line.AccountID)
		}
		signed, err := accounting.CalculateSignedAmount(line, acc.AccountType)
		if err != nil {
			return nil, err
		}
		next := running[line.AccountID].Add(signed)
		lines[i].RunningBalance = next
		running[line.AccountID] = next
	}
	return lines, nil
}

// SaveDraftEntry persists a DRAFT entry and its lines. No account is locked
// and no balance moves until the entry is posted.
func (r *PgxJournalRepository) SaveDraftEntry(ctx context.Context, entry domain.JournalEntry, lines []domain.JournalLine) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if err := insertEntryTx(ctx, tx, entry); err != nil {
		return err
	}
	if err := insertLinesTx(ctx, tx, lines); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// PostEntry atomically flips a DRAFT entry to POSTED, locks the affected
// accounts, applies the balance deltas and backfills the lines' running
// balances. The status flip is guarded so a posted entry can never post twice.
func (r *PgxJournalRepository) PostEntry(ctx context.Context, entryID string, balanceChanges map[string]decimal.Decimal, actorID string, now time.Time) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	flip := `
		UPDATE journal_entries
		SET status = $2, last_updated_at = $3, last_updated_by = $4
		WHERE entry_id = $1 AND status = $5;
	`
	tag, err := tx.Exec(ctx, flip, entryID, domain.Posted, now, actorID, domain.Draft)
	if err != nil {
		return fmt.Errorf("failed to post entry %s: %w", entryID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: entry %s is not a draft", apperrors.ErrConflict, entryID)
	}

	lines, err := r.findLinesByEntryIDTx(ctx, tx, entryID)
	if err != nil {
		return err
	}

	lines, err = r.applyRunningBalances(ctx, tx, lines, balanceChanges, actorID, now)
	if err != nil {
		return err
	}

	update := `UPDATE journal_lines SET running_balance = $2, last_updated_at = $3, last_updated_by = $4 WHERE line_id = $1;`
	batch := &pgx.Batch{}
	for _, line := range lines {
		batch.Queue(update, line.LineID, line.RunningBalance, now, actorID)
	}
	results := tx.SendBatch(ctx, batch)
	for range lines {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("failed to stamp running balance: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to stamp running balances: %w", err)
	}

	return r.Commit(ctx, tx)
}

// SavePostedEntry persists an entry directly in POSTED status with its lines
// and balance changes in one transaction. Used for reversals and
// system-generated postings.
func (r *PgxJournalRepository) SavePostedEntry(ctx context.Context, entry domain.JournalEntry, lines []domain.JournalLine, balanceChanges map[string]decimal.Decimal) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if err := r.savePostedEntryTx(ctx, tx, entry, lines, balanceChanges); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

func (r *PgxJournalRepository) savePostedEntryTx(ctx context.Context, tx pgx.Tx, entry domain.JournalEntry, lines []domain.JournalLine, balanceChanges map[string]decimal.Decimal) error {
	if err := insertEntryTx(ctx, tx, entry); err != nil {
		return err
	}
	lines, err := r.applyRunningBalances(ctx, tx, lines, balanceChanges, entry.CreatedBy, entry.CreatedAt)
	if err != nil {
		return err
	}
	return insertLinesTx(ctx, tx, lines)
}

// SaveReversalEntry posts the reversal and voids the original atomically. The
// void is guarded on reversing_entry_id still being NULL, which makes a
// concurrent second void fail with ErrAlreadyVoided instead of double
// reversing.
func (r *PgxJournalRepository) SaveReversalEntry(ctx context.Context, originalEntryID string, reversal domain.JournalEntry, lines []domain.JournalLine, balanceChanges map[string]decimal.Decimal) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	void := `
		UPDATE journal_entries
		SET status = $2, reversing_entry_id = $3, last_updated_at = $4, last_updated_by = $5
		WHERE entry_id = $1 AND reversing_entry_id IS NULL AND status IN ($6, $7);
	`
	tag, err := tx.Exec(ctx, void, originalEntryID, domain.Void, reversal.EntryID, reversal.CreatedAt, reversal.CreatedBy, domain.Posted, domain.Reconciled)
	if err != nil {
		return fmt.Errorf("failed to void entry %s: %w", originalEntryID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: entry %s", apperrors.ErrAlreadyVoided, originalEntryID)
	}

	if err := r.savePostedEntryTx(ctx, tx, reversal, lines, balanceChanges); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// UpdateEntryStatusAndLinks updates the status of an entry. Link arguments are
// applied only when non-nil.
func (r *PgxJournalRepository) UpdateEntryStatusAndLinks(ctx context.Context, entryID string, status domain.EntryStatus, reversingEntryID *string, originalEntryID *string, actorID string, now time.Time) error {
	query := `
		UPDATE journal_entries
		SET status = $2,
		    reversing_entry_id = COALESCE($3, reversing_entry_id),
		    original_entry_id = COALESCE($4, original_entry_id),
		    last_updated_at = $5,
		    last_updated_by = $6
		WHERE entry_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query, entryID, status, reversingEntryID, originalEntryID, now, actorID)
	if err != nil {
		return fmt.Errorf("failed to update entry %s status: %w", entryID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: entry %s", apperrors.ErrNotFound, entryID)
	}
	return nil
}

// FindEntryByID retrieves an entry without its lines.
func (r *PgxJournalRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	query := `SELECT ` + entrySelectFields + ` FROM journal_entries WHERE entry_id = $1;`
	entry, err := scanEntry(r.Pool.QueryRow(ctx, query, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: entry %s", apperrors.ErrNotFound, entryID)
		}
		return nil, fmt.Errorf("failed to find entry %s: %w", entryID, err)
	}
	return &entry, nil
}

// ListEntries retrieves a page of entries for a ledger using token-based
// pagination ordered by entry date then creation time, newest first.
func (r *PgxJournalRepository) ListEntries(ctx context.Context, ledgerID string, statuses []domain.EntryStatus, limit int, nextToken *string) ([]domain.JournalEntry, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	query := `SELECT ` + entrySelectFields + ` FROM journal_entries WHERE ledger_id = $1`
	args := []interface{}{ledgerID}

	if len(statuses) > 0 {
		args = append(args, statuses)
		query += ` AND status = ANY($` + strconv.Itoa(len(args)) + `)`
	}

	if nextToken != nil && *nextToken != "" {
		lastDate, lastCreatedAt, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, fmt.Errorf("%w: invalid nextToken", apperrors.ErrValidation)
		}
		args = append(args, lastDate, lastCreatedAt)
		query += ` AND (entry_date, created_at) < ($` + strconv.Itoa(len(args)-1) + `, $` + strconv.Itoa(len(args)) + `)`
	}

	args = append(args, fetchLimit)
	query += ` ORDER BY entry_date DESC, created_at DESC LIMIT $` + strconv.Itoa(len(args)) + `;`

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list entries for ledger %s: %w", ledgerID, err)
	}
	defer rows.Close()

	entries := make([]domain.JournalEntry, 0, fetchLimit)
	for rows.Next() {
		entry, scanErr := scanEntry(rows)
		if scanErr != nil {
			return nil, nil, fmt.Errorf("failed to scan entry: %w", scanErr)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed iterating entries: %w", err)
	}

	var newNextToken *string
	if len(entries) == fetchLimit {
		last := entries[limit-1]
		token := pagination.EncodeToken(last.EntryDate, last.CreatedAt)
		newNextToken = &token
		entries = entries[:limit]
	}
	return entries, newNextToken, nil
}

// ListOpenEntries retrieves POSTED entries dated inside [from, to]. These are
// the reconciliation candidates; RECONCILED and VOID entries are never
// candidates again.
func (r *PgxJournalRepository) ListOpenEntries(ctx context.Context, ledgerID string, from, to time.Time) ([]domain.JournalEntry, error) {
	query := `
		SELECT ` + entrySelectFields + `
		FROM journal_entries
		WHERE ledger_id = $1 AND status = $2 AND entry_date BETWEEN $3 AND $4
		ORDER BY entry_date ASC, entry_id ASC;
	`
	rows, err := r.Pool.Query(ctx, query, ledgerID, domain.Posted, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list open entries for ledger %s: %w", ledgerID, err)
	}
	defer rows.Close()

	var entries []domain.JournalEntry
	for rows.Next() {
		entry, scanErr := scanEntry(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", scanErr)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating open entries: %w", err)
	}
	return entries, nil
}

func (r *PgxJournalRepository) findLinesByEntryIDTx(ctx context.Context, q interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}, entryID string) ([]domain.JournalLine, error) {
	query := `
		SELECT line_id, entry_id, account_id, amount, direction, currency_code, fx_rate, line_date, notes, running_balance, created_at, created_by, last_updated_at, last_updated_by
		FROM journal_lines
		WHERE entry_id = $1
		ORDER BY line_id ASC;
	`
	rows, err := q.Query(ctx, query, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lines for entry %s: %w", entryID, err)
	}
	defer rows.Close()

	var lines []domain.JournalLine
	for rows.Next() {
		var line domain.JournalLine
		if err := rows.Scan(
			&line.LineID,
			&line.EntryID,
			&line.AccountID,
			&line.Amount,
			&line.Direction,
			&line.CurrencyCode,
			&line.FXRate,
			&line.LineDate,
			&line.Notes,
			&line.RunningBalance,
			&line.CreatedAt,
			&line.CreatedBy,
			&line.LastUpdatedAt,
			&line.LastUpdatedBy,
		); err != nil {
			return nil, fmt.Errorf("failed to scan line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating lines: %w", err)
	}
	return lines, nil
}

// FindLinesByEntryID retrieves all lines of a single entry.
func (r *PgxJournalRepository) FindLinesByEntryID(ctx context.Context, entryID string) ([]domain.JournalLine, error) {
	return r.findLinesByEntryIDTx(ctx, r.Pool, entryID)
}

// SumPostedLines replays only POSTED and RECONCILED lines up to asOf and
// returns the account balance in base currency, stated in the account's
// normal sign.
func (r *PgxJournalRepository) SumPostedLines(ctx context.Context, accountID string, asOf time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(
			CASE WHEN l.direction = 'DEBIT' THEN l.amount * l.fx_rate ELSE -(l.amount * l.fx_rate) END
		), 0), a.account_type
		FROM accounts a
		LEFT JOIN journal_lines l
			ON l.account_id = a.account_id
			AND l.line_date <= $2
			AND EXISTS (
				SELECT 1 FROM journal_entries e
				WHERE e.entry_id = l.entry_id AND e.status IN ('POSTED', 'RECONCILED')
			)
		WHERE a.account_id = $1
		GROUP BY a.account_type;
	`
	var debitMinusCredit decimal.Decimal
	var accountType domain.AccountType
	err := r.Pool.QueryRow(ctx, query, accountID, asOf).Scan(&debitMinusCredit, &accountType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountID)
		}
		return decimal.Zero, fmt.Errorf("failed to sum lines for account %s: %w", accountID, err)
	}
	if accountType.DebitNormal() {
		return debitMinusCredit, nil
	}
	return debitMinusCredit.Neg(), nil
}
