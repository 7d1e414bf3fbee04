package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// RulePredicate is the closed set of matching conditions a rule may carry.
// Unset fields do not constrain; set fields must all hold. This is evaluated
// by a fixed dispatcher, never free-form code.
type RulePredicate struct {
	AmountMin *decimal.Decimal `json:"amountMin,omitempty"`
	AmountMax *decimal.Decimal `json:"amountMax,omitempty"`
	// DescriptionPattern matches case-insensitively by containment, or by
	// Levenshtein distance within PatternDrift percent of the longer string.
	DescriptionPattern string         `json:"descriptionPattern,omitempty"`
	PatternDrift       float64        `json:"patternDrift,omitempty"`
	Direction          *FlowDirection `json:"direction,omitempty"`
	// AccountHint matches against the raw transaction's institution reference.
	AccountHint string `json:"accountHint,omitempty"`
}

// Matches reports whether the raw transaction satisfies every set condition.
func (p RulePredicate) Matches(raw RawTransaction) bool {
	if p.AmountMin != nil && raw.Amount.LessThan(*p.AmountMin) {
		return false
	}
	if p.AmountMax != nil && raw.Amount.GreaterThan(*p.AmountMax) {
		return false
	}
	if p.Direction != nil && raw.Direction != *p.Direction {
		return false
	}
	if p.AccountHint != "" && !strings.EqualFold(p.AccountHint, raw.InstitutionRef) {
		return false
	}
	if p.DescriptionPattern != "" && !partialMatch(raw.Description, p.DescriptionPattern, p.PatternDrift) {
		return false
	}
	return true
}

// partialMatch reports whether two strings match by containment or by
// Levenshtein distance within allowableDrift percent of the longer string.
func partialMatch(str1, str2 string, allowableDrift float64) bool {
	str1 = strings.ToLower(str1)
	str2 = strings.ToLower(str2)

	if strings.Contains(str1, str2) || strings.Contains(str2, str1) {
		return true
	}

	distance := levenshtein.DistanceForStrings([]rune(str1), []rune(str2), levenshtein.DefaultOptions)
	maxLength := float64(max(len(str1), len(str2)))
	maxAllowedDistance := int(maxLength * (allowableDrift / 100))
	return distance <= maxAllowedDistance
}

// ReconciliationRule is a user-defined, time-bounded classification rule. Only
// rules whose effective window covers the transaction date are eligible during
// matching. The posting template names the debit/credit account pair used when
// the rule proposes an entry.
type ReconciliationRule struct {
	RuleID        string        `json:"ruleID"`
	LedgerID      string        `json:"ledgerID"`
	Name          string        `json:"name"`
	Predicate     RulePredicate `json:"predicate"`
	EffectiveFrom time.Time     `json:"effectiveFrom"`
	// EffectiveTo nil means the rule is still active.
	EffectiveTo     *time.Time `json:"effectiveTo,omitempty"`
	DebitAccountID  string     `json:"debitAccountID"`
	CreditAccountID string     `json:"creditAccountID"`
	IsActive        bool       `json:"isActive"`
	AuditFields
}

// EffectiveOn reports whether the rule's window covers the given date.
func (r ReconciliationRule) EffectiveOn(date time.Time) bool {
	if !r.IsActive {
		return false
	}
	if date.Before(r.EffectiveFrom) {
		return false
	}
	if r.EffectiveTo != nil && date.After(*r.EffectiveTo) {
		return false
	}
	return true
}
