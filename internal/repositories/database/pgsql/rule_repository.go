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

const ruleSelectFields = `rule_id, ledger_id, name, amount_min, amount_max, description_pattern, pattern_drift, direction, account_hint, effective_from, effective_to, debit_account_id, credit_account_id, is_active, created_at, created_by, last_updated_at, last_updated_by`

type PgxRuleRepository struct {
	pool *pgxpool.Pool
}

// newPgxRuleRepository creates a new repository for reconciliation rules.
func newPgxRuleRepository(pool *pgxpool.Pool) *PgxRuleRepository {
	return &PgxRuleRepository{pool: pool}
}

var _ portsrepo.RuleRepositoryFacade = (*PgxRuleRepository)(nil)

func scanRule(row pgx.Row) (domain.ReconciliationRule, error) {
	var rule domain.ReconciliationRule
	var amountMin, amountMax decimal.NullDecimal
	var direction, pattern, accountHint sql.NullString
	var drift sql.NullFloat64
	var effectiveTo sql.NullTime
	err := row.Scan(
		&rule.RuleID,
		&rule.LedgerID,
		&rule.Name,
		&amountMin,
		&amountMax,
		&pattern,
		&drift,
		&direction,
		&accountHint,
		&rule.EffectiveFrom,
		&effectiveTo,
		&rule.DebitAccountID,
		&rule.CreditAccountID,
		&rule.IsActive,
		&rule.CreatedAt,
		&rule.CreatedBy,
		&rule.LastUpdatedAt,
		&rule.LastUpdatedBy,
	)
	if err != nil {
		return domain.ReconciliationRule{}, err
	}
	if amountMin.Valid {
		rule.Predicate.AmountMin = &amountMin.Decimal
	}
	if amountMax.Valid {
		rule.Predicate.AmountMax = &amountMax.Decimal
	}
	rule.Predicate.DescriptionPattern = pattern.String
	rule.Predicate.PatternDrift = drift.Float64
	if direction.Valid {
		d := domain.FlowDirection(direction.String)
		rule.Predicate.Direction = &d
	}
	rule.Predicate.AccountHint = accountHint.String
	if effectiveTo.Valid {
		t := effectiveTo.Time
		rule.EffectiveTo = &t
	}
	return rule, nil
}

func rulePredicateArgs(rule domain.ReconciliationRule) []interface{} {
	var amountMin, amountMax decimal.NullDecimal
	if rule.Predicate.AmountMin != nil {
		amountMin = decimal.NullDecimal{Decimal: *rule.Predicate.AmountMin, Valid: true}
	}
	if rule.Predicate.AmountMax != nil {
		amountMax = decimal.NullDecimal{Decimal: *rule.Predicate.AmountMax, Valid: true}
	}
	var direction sql.NullString
	if rule.Predicate.Direction != nil {
		direction = sql.NullString{String: string(*rule.Predicate.Direction), Valid: true}
	}
	return []interface{}{amountMin, amountMax, rule.Predicate.DescriptionPattern, rule.Predicate.PatternDrift, direction, rule.Predicate.AccountHint}
}

// SaveRule persists a new rule.
func (r *PgxRuleRepository) SaveRule(ctx context.Context, rule domain.ReconciliationRule) error {
	query := `
		INSERT INTO reconciliation_rules (rule_id, ledger_id, name, amount_min, amount_max, description_pattern, pattern_drift, direction, account_hint, effective_from, effective_to, debit_account_id, credit_account_id, is_active, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18);
	`
	args := []interface{}{rule.RuleID, rule.LedgerID, rule.Name}
	args = append(args, rulePredicateArgs(rule)...)
	args = append(args, rule.EffectiveFrom, rule.EffectiveTo, rule.DebitAccountID, rule.CreditAccountID, rule.IsActive,
		rule.CreatedAt, rule.CreatedBy, rule.LastUpdatedAt, rule.LastUpdatedBy)

	_, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("%w: rule %s already exists", apperrors.ErrDuplicate, rule.RuleID)
		}
		return fmt.Errorf("failed to save rule %s: %w", rule.RuleID, err)
	}
	return nil
}

// UpdateRule updates a rule's predicate, window, template and active flag.
func (r *PgxRuleRepository) UpdateRule(ctx context.Context, rule domain.ReconciliationRule) error {
	query := `
		UPDATE reconciliation_rules
		SET name = $2, amount_min = $3, amount_max = $4, description_pattern = $5, pattern_drift = $6, direction = $7, account_hint = $8,
		    effective_from = $9, effective_to = $10, debit_account_id = $11, credit_account_id = $12, is_active = $13,
		    last_updated_at = $14, last_updated_by = $15
		WHERE rule_id = $1;
	`
	args := []interface{}{rule.RuleID, rule.Name}
	args = append(args, rulePredicateArgs(rule)...)
	args = append(args, rule.EffectiveFrom, rule.EffectiveTo, rule.DebitAccountID, rule.CreditAccountID, rule.IsActive,
		rule.LastUpdatedAt, rule.LastUpdatedBy)

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update rule %s: %w", rule.RuleID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: rule %s", apperrors.ErrNotFound, rule.RuleID)
	}
	return nil
}

// FindRuleByID retrieves a rule by its ID.
func (r *PgxRuleRepository) FindRuleByID(ctx context.Context, ruleID string) (*domain.ReconciliationRule, error) {
	query := `SELECT ` + ruleSelectFields + ` FROM reconciliation_rules WHERE rule_id = $1;`
	rule, err := scanRule(r.pool.QueryRow(ctx, query, ruleID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: rule %s", apperrors.ErrNotFound, ruleID)
		}
		return nil, fmt.Errorf("failed to find rule %s: %w", ruleID, err)
	}
	return &rule, nil
}

// ListRules retrieves all rules for a ledger, newest first.
func (r *PgxRuleRepository) ListRules(ctx context.Context, ledgerID string) ([]domain.ReconciliationRule, error) {
	query := `SELECT ` + ruleSelectFields + ` FROM reconciliation_rules WHERE ledger_id = $1 ORDER BY created_at DESC, rule_id DESC;`
	rows, err := r.pool.Query(ctx, query, ledgerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules for ledger %s: %w", ledgerID, err)
	}
	defer rows.Close()
	return collectRules(rows)
}

// ListEffectiveRules retrieves active rules whose effective window covers the
// given date.
func (r *PgxRuleRepository) ListEffectiveRules(ctx context.Context, ledgerID string, date time.Time) ([]domain.ReconciliationRule, error) {
	query := `
		SELECT ` + ruleSelectFields + `
		FROM reconciliation_rules
		WHERE ledger_id = $1
		  AND is_active = TRUE
		  AND effective_from <= $2
		  AND (effective_to IS NULL OR effective_to >= $2)
		ORDER BY created_at ASC, rule_id ASC;
	`
	rows, err := r.pool.Query(ctx, query, ledgerID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list effective rules for ledger %s: %w", ledgerID, err)
	}
	defer rows.Close()
	return collectRules(rows)
}

func collectRules(rows pgx.Rows) ([]domain.ReconciliationRule, error) {
	var rules []domain.ReconciliationRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating rules: %w", err)
	}
	return rules, nil
}
