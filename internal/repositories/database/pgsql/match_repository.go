package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mitra-labs/ledgercore/internal/apperrors"
	"github.com/mitra-labs/ledgercore/internal/core/domain"
	portsrepo "github.com/mitra-labs/ledgercore/internal/core/ports/repositories"
)

const matchSelectFields = `match_id, ledger_id, raw_txn_ids, version, entry_id, rule_id, kind, status, score, factor_amount, factor_date, factor_description, factor_rule, factor_history, created_at, created_by, last_updated_at, last_updated_by`

type PgxMatchRepository struct {
	BaseRepository
}

// newPgxMatchRepository creates a new repository for reconciliation match
// versions.
func newPgxMatchRepository(pool *pgxpool.Pool) *PgxMatchRepository {
	return &PgxMatchRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.MatchRepositoryFacade = (*PgxMatchRepository)(nil)

func scanMatch(row pgx.Row) (domain.ReconciliationMatch, error) {
	var m domain.ReconciliationMatch
	var entryID, ruleID sql.NullString
	err := row.Scan(
		&m.MatchID,
		&m.LedgerID,
		&m.RawTxnIDs,
		&m.Version,
		&entryID,
		&ruleID,
		&m.Kind,
		&m.Status,
		&m.Score,
		&m.Breakdown.Amount,
		&m.Breakdown.Date,
		&m.Breakdown.Description,
		&m.Breakdown.Rule,
		&m.Breakdown.History,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return domain.ReconciliationMatch{}, err
	}
	if entryID.Valid {
		m.EntryID = &entryID.String
	}
	if ruleID.Valid {
		m.RuleID = &ruleID.String
	}
	return m, nil
}

// SaveMatch inserts a new match version and repoints every covered raw
// transaction at it, superseding each one's previous active match. The
// repoint is a compare-and-swap on the raw transaction's match_version:
// any observed-version mismatch aborts the whole transaction with
// ErrStaleMatchVersion and nothing is applied.
func (r *PgxMatchRepository) SaveMatch(ctx context.Context, match domain.ReconciliationMatch, expectedVersions map[string]int64) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	insert := `
		INSERT INTO reconciliation_matches (match_id, ledger_id, raw_txn_ids, version, entry_id, rule_id, kind, status, score, factor_amount, factor_date, factor_description, factor_rule, factor_history, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18);
	`
	_, err = tx.Exec(ctx, insert,
		match.MatchID,
		match.LedgerID,
		match.RawTxnIDs,
		match.Version,
		match.EntryID,
		match.RuleID,
		match.Kind,
		match.Status,
		match.Score,
		match.Breakdown.Amount,
		match.Breakdown.Date,
		match.Breakdown.Description,
		match.Breakdown.Rule,
		match.Breakdown.History,
		match.CreatedAt,
		match.CreatedBy,
		match.LastUpdatedAt,
		match.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert match %s: %w", match.MatchID, err)
	}

	// Raw transactions are locked in a fixed order so two concurrent runs
	// covering the same pair cannot deadlock.
	rawTxnIDs := make([]string, 0, len(expectedVersions))
	for id := range expectedVersions {
		rawTxnIDs = append(rawTxnIDs, id)
	}
	sort.Strings(rawTxnIDs)

	for _, rawTxnID := range rawTxnIDs {
		var prevMatchID sql.NullString
		var currentVersion int64
		err := tx.QueryRow(ctx,
			`SELECT active_match_id, match_version FROM raw_transactions WHERE raw_txn_id = $1 FOR UPDATE;`,
			rawTxnID,
		).Scan(&prevMatchID, &currentVersion)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: raw transaction %s", apperrors.ErrNotFound, rawTxnID)
			}
			return fmt.Errorf("failed to lock raw transaction %s: %w", rawTxnID, err)
		}

		if currentVersion != expectedVersions[rawTxnID] {
			return fmt.Errorf("%w: raw transaction %s is at version %d, expected %d",
				apperrors.ErrStaleMatchVersion, rawTxnID, currentVersion, expectedVersions[rawTxnID])
		}

		_, err = tx.Exec(ctx,
			`UPDATE raw_transactions SET active_match_id = $2, match_version = match_version + 1, last_updated_at = $3, last_updated_by = $4 WHERE raw_txn_id = $1;`,
			rawTxnID, match.MatchID, match.CreatedAt, match.CreatedBy,
		)
		if err != nil {
			return fmt.Errorf("failed to repoint raw transaction %s: %w", rawTxnID, err)
		}

		if prevMatchID.Valid && prevMatchID.String != match.MatchID {
			_, err = tx.Exec(ctx,
				`UPDATE reconciliation_matches SET status = $2, last_updated_at = $3, last_updated_by = $4 WHERE match_id = $1 AND status IN ($5, $6);`,
				prevMatchID.String, domain.MatchSuperseded, match.CreatedAt, match.CreatedBy, domain.MatchAuto, domain.MatchPendingReview,
			)
			if err != nil {
				return fmt.Errorf("failed to supersede match %s: %w", prevMatchID.String, err)
			}
		}
	}

	return r.Commit(ctx, tx)
}

// UpdateMatchStatus transitions a match between review states. A non-nil
// entryID records the journal entry produced while confirming.
func (r *PgxMatchRepository) UpdateMatchStatus(ctx context.Context, matchID string, status domain.MatchStatus, entryID *string, actorID string, now time.Time) error {
	query := `
		UPDATE reconciliation_matches
		SET status = $2, entry_id = COALESCE($3, entry_id), last_updated_at = $4, last_updated_by = $5
		WHERE match_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query, matchID, status, entryID, now, actorID)
	if err != nil {
		return fmt.Errorf("failed to update match %s status: %w", matchID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: match %s", apperrors.ErrNotFound, matchID)
	}
	return nil
}

// FindMatchByID retrieves a specific match version.
func (r *PgxMatchRepository) FindMatchByID(ctx context.Context, matchID string) (*domain.ReconciliationMatch, error) {
	query := `SELECT ` + matchSelectFields + ` FROM reconciliation_matches WHERE match_id = $1;`
	m, err := scanMatch(r.Pool.QueryRow(ctx, query, matchID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: match %s", apperrors.ErrNotFound, matchID)
		}
		return nil, fmt.Errorf("failed to find match %s: %w", matchID, err)
	}
	return &m, nil
}

// ListMatchesByStatus retrieves a ledger's matches in any of the given
// statuses, newest first.
func (r *PgxMatchRepository) ListMatchesByStatus(ctx context.Context, ledgerID string, statuses []domain.MatchStatus) ([]domain.ReconciliationMatch, error) {
	query := `
		SELECT ` + matchSelectFields + `
		FROM reconciliation_matches
		WHERE ledger_id = $1 AND status = ANY($2)
		ORDER BY created_at DESC, match_id DESC;
	`
	rows, err := r.Pool.Query(ctx, query, ledgerID, statuses)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for ledger %s: %w", ledgerID, err)
	}
	defer rows.Close()
	return collectMatches(rows)
}

// ListMatchVersions retrieves the full match history of a raw transaction,
// oldest version first. History is never deleted.
func (r *PgxMatchRepository) ListMatchVersions(ctx context.Context, rawTxnID string) ([]domain.ReconciliationMatch, error) {
	query := `
		SELECT ` + matchSelectFields + `
		FROM reconciliation_matches
		WHERE $1 = ANY(raw_txn_ids)
		ORDER BY version ASC, created_at ASC;
	`
	rows, err := r.Pool.Query(ctx, query, rawTxnID)
	if err != nil {
		return nil, fmt.Errorf("failed to list match versions for raw transaction %s: %w", rawTxnID, err)
	}
	defer rows.Close()
	return collectMatches(rows)
}

// ListOpenTransferLegs retrieves transfer leg matches that are still each raw
// transaction's active match: legs detected but not yet paired.
func (r *PgxMatchRepository) ListOpenTransferLegs(ctx context.Context, ledgerID string) ([]domain.ReconciliationMatch, error) {
	query := `
		SELECT ` + matchSelectFields + `
		FROM reconciliation_matches m
		WHERE m.ledger_id = $1
		  AND m.kind = $2
		  AND m.status IN ($3, $4)
		  AND EXISTS (SELECT 1 FROM raw_transactions t WHERE t.active_match_id = m.match_id)
		ORDER BY m.created_at ASC, m.match_id ASC;
	`
	rows, err := r.Pool.Query(ctx, query, ledgerID, domain.CandidateTransferLeg, domain.MatchAuto, domain.MatchPendingReview)
	if err != nil {
		return nil, fmt.Errorf("failed to list open transfer legs for ledger %s: %w", ledgerID, err)
	}
	defer rows.Close()
	return collectMatches(rows)
}

func collectMatches(rows pgx.Rows) ([]domain.ReconciliationMatch, error) {
	var matches []domain.ReconciliationMatch
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating matches: %w", err)
	}
	return matches, nil
}
