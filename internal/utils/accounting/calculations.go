package accounting

import (
	"fmt"

	"github.com/mitra-labs/ledgercore/internal/apperrors"
	"github.com/mitra-labs/ledgercore/internal/core/domain"
	"github.com/shopspring/decimal"
)

// BalanceTolerance is the maximum allowed difference between an entry's debit
// and credit totals in base currency.
var BalanceTolerance = decimal.NewFromFloat(0.01)

// CalculateSignedAmount applies the correct sign to a line amount based on
// account type and direction. This is used in both services and repositories
// to ensure consistent accounting logic.
//
// DEBIT to ASSET/EXPENSE -> Positive (+)
// CREDIT to ASSET/EXPENSE -> Negative (-)
// DEBIT to LIABILITY/EQUITY/INCOME -> Negative (-)
// CREDIT to LIABILITY/EQUITY/INCOME -> Positive (+)
func CalculateSignedAmount(line domain.JournalLine, accountType domain.AccountType) (decimal.Decimal, error) {
	signedAmount := line.Amount
	isDebit := line.Direction == domain.Debit

	switch accountType {
	case domain.Asset, domain.Expense:
		if !isDebit {
			signedAmount = signedAmount.Neg()
		}
	case domain.Liability, domain.Equity, domain.Income:
		if isDebit {
			signedAmount = signedAmount.Neg()
		}
	default:
		return decimal.Zero, fmt.Errorf("unknown account type '%s' encountered for account ID %s", accountType, line.AccountID)
	}
	return signedAmount, nil
}

// ValidateEntryBalance checks that an entry's lines form a balanced
// double-entry posting: at least two lines, strictly positive amounts, and
// debit and credit totals (converted to base currency using each line's own
// FX rate) agreeing within the tolerance.
func ValidateEntryBalance(lines []domain.JournalLine) error {
	if len(lines) < 2 {
		return apperrors.ErrTooFewLines
	}

	debitsSum := decimal.Zero
	creditsSum := decimal.Zero

	for _, line := range lines {
		if line.Amount.LessThanOrEqual(decimal.Zero) {
			return fmt.Errorf("%w: line for account %s", apperrors.ErrInvalidAmount, line.AccountID)
		}

		if line.Direction == domain.Debit {
			debitsSum = debitsSum.Add(line.BaseAmount())
		} else {
			creditsSum = creditsSum.Add(line.BaseAmount())
		}
	}

	if debitsSum.Sub(creditsSum).Abs().GreaterThan(BalanceTolerance) {
		return fmt.Errorf("%w: debits sum is %s and credits sum is %s",
			apperrors.ErrUnbalancedEntry, debitsSum.String(), creditsSum.String())
	}

	return nil
}
