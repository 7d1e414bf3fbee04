package dto

import (
	"time"

	"github.com/mitra-labs/ledgercore/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateRuleRequest defines the payload for creating a reconciliation rule.
type CreateRuleRequest struct {
	Name               string                `json:"name" binding:"required"`
	AmountMin          *decimal.Decimal      `json:"amountMin,omitempty"`
	AmountMax          *decimal.Decimal      `json:"amountMax,omitempty"`
	DescriptionPattern string                `json:"descriptionPattern"`
	PatternDrift       float64               `json:"patternDrift"`
	Direction          *domain.FlowDirection `json:"direction,omitempty"`
	AccountHint        string                `json:"accountHint"`
	EffectiveFrom      time.Time             `json:"effectiveFrom" binding:"required"`
	EffectiveTo        *time.Time            `json:"effectiveTo,omitempty"`
	DebitAccountID     string                `json:"debitAccountID" binding:"required"`
	CreditAccountID    string                `json:"creditAccountID" binding:"required"`
}

// UpdateRuleRequest defines the payload for updating a rule. Nil fields are
// left unchanged.
type UpdateRuleRequest struct {
	Name               *string               `json:"name,omitempty"`
	AmountMin          *decimal.Decimal      `json:"amountMin,omitempty"`
	AmountMax          *decimal.Decimal      `json:"amountMax,omitempty"`
	DescriptionPattern *string               `json:"descriptionPattern,omitempty"`
	PatternDrift       *float64              `json:"patternDrift,omitempty"`
	Direction          *domain.FlowDirection `json:"direction,omitempty"`
	EffectiveFrom      *time.Time            `json:"effectiveFrom,omitempty"`
	EffectiveTo        *time.Time            `json:"effectiveTo,omitempty"`
	IsActive           *bool                 `json:"isActive,omitempty"`
}

// RuleResponse defines the data returned for a rule.
type RuleResponse struct {
	RuleID          string               `json:"ruleID"`
	LedgerID        string               `json:"ledgerID"`
	Name            string               `json:"name"`
	Predicate       domain.RulePredicate `json:"predicate"`
	EffectiveFrom   time.Time            `json:"effectiveFrom"`
	EffectiveTo     *time.Time           `json:"effectiveTo,omitempty"`
	DebitAccountID  string               `json:"debitAccountID"`
	CreditAccountID string               `json:"creditAccountID"`
	IsActive        bool                 `json:"isActive"`
	CreatedAt       time.Time            `json:"createdAt"`
}

// ToRuleResponse converts a domain.ReconciliationRule to RuleResponse.
func ToRuleResponse(r *domain.ReconciliationRule) RuleResponse {
	return RuleResponse{
		RuleID:          r.RuleID,
		LedgerID:        r.LedgerID,
		Name:            r.Name,
		Predicate:       r.Predicate,
		EffectiveFrom:   r.EffectiveFrom,
		EffectiveTo:     r.EffectiveTo,
		DebitAccountID:  r.DebitAccountID,
		CreditAccountID: r.CreditAccountID,
		IsActive:        r.IsActive,
		CreatedAt:       r.CreatedAt,
	}
}

// ToRuleResponses converts a slice of domain.ReconciliationRule.
func ToRuleResponses(rules []domain.ReconciliationRule) []RuleResponse {
	responses := make([]RuleResponse, len(rules))
	for i := range rules {
		responses[i] = ToRuleResponse(&rules[i])
	}
	return responses
}
