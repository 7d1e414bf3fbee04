package repositories

import (
	"context"
	"time"

	"github.com/mitra-labs/ledgercore/internal/core/domain"
)

// RuleRepositoryFacade provides access to reconciliation rules.
type RuleRepositoryFacade interface {
	// SaveRule persists a new rule.
	SaveRule(ctx context.Context, rule domain.ReconciliationRule) error

	// UpdateRule updates a rule's predicate, window, template or active flag.
	UpdateRule(ctx context.Context, rule domain.ReconciliationRule) error

	// FindRuleByID retrieves a specific rule by its unique identifier.
	FindRuleByID(ctx context.Context, ruleID string) (*domain.ReconciliationRule, error)

	// ListRules retrieves all rules for a ledger.
	ListRules(ctx context.Context, ledgerID string) ([]domain.ReconciliationRule, error)

	// ListEffectiveRules retrieves active rules whose effective window covers
	// the given date.
	ListEffectiveRules(ctx context.Context, ledgerID string, date time.Time) ([]domain.ReconciliationRule, error)
}
