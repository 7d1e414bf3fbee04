package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mitra-labs/ledgercore/internal/apperrors"
	"github.com/mitra-labs/ledgercore/internal/core/domain"
	portsrepo "github.com/mitra-labs/ledgercore/internal/core/ports/repositories"
	portssvc "github.com/mitra-labs/ledgercore/internal/core/ports/services"
	"github.com/mitra-labs/ledgercore/internal/dto"
	"github.com/mitra-labs/ledgercore/internal/middleware"
)

// ruleService manages user-defined reconciliation rules. Predicates are a
// closed set of conditions evaluated by a fixed dispatcher; no user code
// ever runs.
type ruleService struct {
	ruleRepo   portsrepo.RuleRepositoryFacade
	accountSvc portssvc.AccountSvcFacade
	ledgerSvc  portssvc.LedgerSvcFacade
}

// NewRuleService creates a new RuleService.
func NewRuleService(ruleRepo portsrepo.RuleRepositoryFacade, accountSvc portssvc.AccountSvcFacade, ledgerSvc portssvc.LedgerSvcFacade) portssvc.RuleSvcFacade {
	return &ruleService{
		ruleRepo:   ruleRepo,
		accountSvc: accountSvc,
		ledgerSvc:  ledgerSvc,
	}
}

var _ portssvc.RuleSvcFacade = (*ruleService)(nil)

func validateRuleShape(rule domain.ReconciliationRule) error {
	p := rule.Predicate
	if p.AmountMin != nil && p.AmountMax != nil && p.AmountMax.LessThan(*p.AmountMin) {
		return fmt.Errorf("%w: amountMax below amountMin", apperrors.ErrValidation)
	}
	if p.PatternDrift < 0 || p.PatternDrift > 100 {
		return fmt.Errorf("%w: patternDrift must be between 0 and 100", apperrors.ErrValidation)
	}
	if p.Direction != nil && *p.Direction != domain.Inflow && *p.Direction != domain.Outflow {
		return fmt.Errorf("%w: unknown direction %s", apperrors.ErrValidation, *p.Direction)
	}
	if rule.EffectiveTo != nil && rule.EffectiveTo.Before(rule.EffectiveFrom) {
		return fmt.Errorf("%w: effective window ends before it starts", apperrors.ErrValidation)
	}
	if rule.DebitAccountID == rule.CreditAccountID {
		return fmt.Errorf("%w: posting template must name two different accounts", apperrors.ErrValidation)
	}
	return nil
}

// CreateRule persists a new rule after validating its predicate shape and
// posting template accounts.
func (s *ruleService) CreateRule(ctx context.Context, ledgerID string, req dto.CreateRuleRequest, actorID string) (*domain.ReconciliationRule, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if _, err := requireLedger(ctx, s.ledgerSvc, ledgerID); err != nil {
		return nil, err
	}

	now := time.Now()
	rule := domain.ReconciliationRule{
		RuleID:   uuid.NewString(),
		LedgerID: ledgerID,
		Name:     req.Name,
		Predicate: domain.RulePredicate{
			AmountMin:          req.AmountMin,
			AmountMax:          req.AmountMax,
			DescriptionPattern: req.DescriptionPattern,
			PatternDrift:       req.PatternDrift,
			Direction:          req.Direction,
			AccountHint:        req.AccountHint,
		},
		EffectiveFrom:   req.EffectiveFrom,
		EffectiveTo:     req.EffectiveTo,
		DebitAccountID:  req.DebitAccountID,
		CreditAccountID: req.CreditAccountID,
		IsActive:        true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorID,
		},
	}

	if err := validateRuleShape(rule); err != nil {
		return nil, err
	}
	// Both template accounts must exist in this ledger before the rule can
	// propose postings against them.
	if _, err := s.accountSvc.GetAccountsByIDs(ctx, ledgerID, []string{rule.DebitAccountID, rule.CreditAccountID}); err != nil {
		return nil, err
	}

	if err := s.ruleRepo.SaveRule(ctx, rule); err != nil {
		logger.Error("failed to save rule", "error", err, "ledger_id", ledgerID)
		return nil, err
	}

	logger.Info("rule created", "rule_id", rule.RuleID, "name", rule.Name)
	return &rule, nil
}

// UpdateRule applies partial updates to a rule.
func (s *ruleService) UpdateRule(ctx context.Context, ledgerID string, ruleID string, req dto.UpdateRuleRequest, actorID string) (*domain.ReconciliationRule, error) {
	rule, err := s.GetRuleByID(ctx, ledgerID, ruleID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		rule.Name = *req.Name
	}
	if req.AmountMin != nil {
		rule.Predicate.AmountMin = req.AmountMin
	}
	if req.AmountMax != nil {
		rule.Predicate.AmountMax = req.AmountMax
	}
	if req.DescriptionPattern != nil {
		rule.Predicate.DescriptionPattern = *req.DescriptionPattern
	}
	if req.PatternDrift != nil {
		rule.Predicate.PatternDrift = *req.PatternDrift
	}
	if req.Direction != nil {
		rule.Predicate.Direction = req.Direction
	}
	if req.EffectiveFrom != nil {
		rule.EffectiveFrom = *req.EffectiveFrom
	}
	if req.EffectiveTo != nil {
		rule.EffectiveTo = req.EffectiveTo
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}
	rule.LastUpdatedAt = time.Now()
	rule.LastUpdatedBy = actorID

	if err := validateRuleShape(*rule); err != nil {
		return nil, err
	}
	if err := s.ruleRepo.UpdateRule(ctx, *rule); err != nil {
		return nil, err
	}
	return rule, nil
}

// GetRuleByID retrieves a specific rule.
func (s *ruleService) GetRuleByID(ctx context.Context, ledgerID string, ruleID string) (*domain.ReconciliationRule, error) {
	rule, err := s.ruleRepo.FindRuleByID(ctx, ruleID)
	if err != nil {
		return nil, err
	}
	if rule.LedgerID != ledgerID {
		return nil, fmt.Errorf("%w: rule %s", apperrors.ErrNotFound, ruleID)
	}
	return rule, nil
}

// ListRules retrieves all rules for a ledger.
func (s *ruleService) ListRules(ctx context.Context, ledgerID string) ([]domain.ReconciliationRule, error) {
	if _, err := requireLedger(ctx, s.ledgerSvc, ledgerID); err != nil {
		return nil, err
	}
	return s.ruleRepo.ListRules(ctx, ledgerID)
}

// EffectiveRules retrieves rules whose window covers the given date.
func (s *ruleService) EffectiveRules(ctx context.Context, ledgerID string, date time.Time) ([]domain.ReconciliationRule, error) {
	return s.ruleRepo.ListEffectiveRules(ctx, ledgerID, date)
}
