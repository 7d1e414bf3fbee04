package domain_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/mitra-labs/ledgercore/internal/core/domain"
)

func raw(amount float64, direction domain.FlowDirection, description, institutionRef string) domain.RawTransaction {
	return domain.RawTransaction{
		Amount:         decimal.NewFromFloat(amount),
		Direction:      direction,
		Description:    description,
		InstitutionRef: institutionRef,
	}
}

func TestRulePredicateAmountWindow(t *testing.T) {
	min := decimal.NewFromInt(50)
	max := decimal.NewFromInt(150)
	p := domain.RulePredicate{AmountMin: &min, AmountMax: &max}

	assert.True(t, p.Matches(raw(100, domain.Outflow, "", "")))
	assert.True(t, p.Matches(raw(50, domain.Outflow, "", "")))
	assert.True(t, p.Matches(raw(150, domain.Outflow, "", "")))
	assert.False(t, p.Matches(raw(49.99, domain.Outflow, "", "")))
	assert.False(t, p.Matches(raw(150.01, domain.Outflow, "", "")))
}

func TestRulePredicateDirection(t *testing.T) {
	out := domain.Outflow
	p := domain.RulePredicate{Direction: &out}

	assert.True(t, p.Matches(raw(10, domain.Outflow, "", "")))
	assert.False(t, p.Matches(raw(10, domain.Inflow, "", "")))
}

func TestRulePredicateAccountHint(t *testing.T) {
	p := domain.RulePredicate{AccountHint: "NL91ABNA0417164300"}

	assert.True(t, p.Matches(raw(10, domain.Outflow, "", "nl91abna0417164300")))
	assert.False(t, p.Matches(raw(10, domain.Outflow, "", "NL91ABNA0000000000")))
}

func TestRulePredicateDescriptionContainment(t *testing.T) {
	p := domain.RulePredicate{DescriptionPattern: "netflix"}

	assert.True(t, p.Matches(raw(10, domain.Outflow, "NETFLIX.COM monthly", "")))
	assert.False(t, p.Matches(raw(10, domain.Outflow, "grocery store", "")))
}

func TestRulePredicateDescriptionDrift(t *testing.T) {
	// One substitution in a 14-character pattern is within 10% drift.
	p := domain.RulePredicate{DescriptionPattern: "acme utilities", PatternDrift: 10}

	assert.True(t, p.Matches(raw(10, domain.Outflow, "acme utilitias", "")))
	assert.False(t, p.Matches(raw(10, domain.Outflow, "axme utilitias", "")))
}

func TestRulePredicateEmptyMatchesEverything(t *testing.T) {
	p := domain.RulePredicate{}
	assert.True(t, p.Matches(raw(1, domain.Inflow, "anything", "ref")))
}

func TestRuleEffectiveOn(t *testing.T) {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	rule := domain.ReconciliationRule{IsActive: true, EffectiveFrom: from, EffectiveTo: &to}

	assert.True(t, rule.EffectiveOn(from))
	assert.True(t, rule.EffectiveOn(to))
	assert.True(t, rule.EffectiveOn(time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)))
	assert.False(t, rule.EffectiveOn(from.AddDate(0, 0, -1)))
	assert.False(t, rule.EffectiveOn(to.AddDate(0, 0, 1)))
}

func TestRuleEffectiveOnOpenEnded(t *testing.T) {
	rule := domain.ReconciliationRule{
		IsActive:      true,
		EffectiveFrom: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	assert.True(t, rule.EffectiveOn(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestRuleEffectiveOnInactive(t *testing.T) {
	rule := domain.ReconciliationRule{
		EffectiveFrom: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	assert.False(t, rule.EffectiveOn(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)))
}
