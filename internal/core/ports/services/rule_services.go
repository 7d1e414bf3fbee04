package services

import (
	"context"
	"time"

	"github.com/mitra-labs/ledgercore/internal/core/domain"
	"github.com/mitra-labs/ledgercore/internal/dto"
)

// RuleSvcFacade manages user-defined reconciliation rules.
type RuleSvcFacade interface {
	// CreateRule persists a new rule after validating its posting template.
	CreateRule(ctx context.Context, ledgerID string, req dto.CreateRuleRequest, actorID string) (*domain.ReconciliationRule, error)

	// UpdateRule applies partial updates to a rule.
	UpdateRule(ctx context.Context, ledgerID string, ruleID string, req dto.UpdateRuleRequest, actorID string) (*domain.ReconciliationRule, error)

	// GetRuleByID retrieves a specific rule.
	GetRuleByID(ctx context.Context, ledgerID string, ruleID string) (*domain.ReconciliationRule, error)

	// ListRules retrieves all rules for a ledger.
	ListRules(ctx context.Context, ledgerID string) ([]domain.ReconciliationRule, error)

	// EffectiveRules retrieves rules whose window covers the given date.
	EffectiveRules(ctx context.Context, ledgerID string, date time.Time) ([]domain.ReconciliationRule, error)
}
