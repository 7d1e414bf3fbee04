package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/mitra-labs/ledgercore/internal/core/domain"
)

func TestDirectionOpposite(t *testing.T) {
	assert.Equal(t, domain.Credit, domain.Debit.Opposite())
	assert.Equal(t, domain.Debit, domain.Credit.Opposite())
}

func TestBaseAmount(t *testing.T) {
	l := domain.JournalLine{
		Amount: decimal.NewFromInt(100),
		FXRate: decimal.NewFromFloat(1.25),
	}
	assert.True(t, l.BaseAmount().Equal(decimal.NewFromInt(125)))

	// Zero FX rate means the rate was never set; treat the line as base.
	l.FXRate = decimal.Zero
	assert.True(t, l.BaseAmount().Equal(decimal.NewFromInt(100)))
}

func TestAccountTypeDebitNormal(t *testing.T) {
	assert.True(t, domain.Asset.DebitNormal())
	assert.True(t, domain.Expense.DebitNormal())
	assert.False(t, domain.Liability.DebitNormal())
	assert.False(t, domain.Equity.DebitNormal())
	assert.False(t, domain.Income.DebitNormal())
}

func TestRawTransactionSignedAmount(t *testing.T) {
	in := domain.RawTransaction{Amount: decimal.NewFromInt(75), Direction: domain.Inflow}
	out := domain.RawTransaction{Amount: decimal.NewFromInt(75), Direction: domain.Outflow}

	assert.True(t, in.SignedAmount().Equal(decimal.NewFromInt(75)))
	assert.True(t, out.SignedAmount().Equal(decimal.NewFromInt(-75)))
}

func TestMatchStatusResolved(t *testing.T) {
	assert.True(t, domain.MatchAuto.Resolved())
	assert.True(t, domain.MatchConfirmed.Resolved())
	assert.False(t, domain.MatchPendingReview.Resolved())
	assert.False(t, domain.MatchRejected.Resolved())
	assert.False(t, domain.MatchSuperseded.Resolved())
}
