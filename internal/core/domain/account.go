package domain

import (
	"github.com/shopspring/decimal"
)

// AccountType defines the fundamental accounting classification of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Income    AccountType = "INCOME"
	Expense   AccountType = "EXPENSE"
)

// DebitNormal reports whether the account type carries a debit-normal balance.
// ASSET/EXPENSE are debit-normal; LIABILITY/EQUITY/INCOME are credit-normal.
func (t AccountType) DebitNormal() bool {
	return t == Asset || t == Expense
}

// Valid reports whether t is one of the five classifications.
func (t AccountType) Valid() bool {
	switch t {
	case Asset, Liability, Equity, Income, Expense:
		return true
	}
	return false
}

// Account represents a financial account within the ledger.
type Account struct {
	AccountID    string      `json:"accountID"`
	LedgerID     string      `json:"ledgerID"`
	Name         string      `json:"name"`
	AccountType  AccountType `json:"accountType"`
	CurrencyCode string      `json:"currencyCode"`
	// InstitutionRef links the account to an external institution account
	// number; the transfer detector uses it to resolve statement legs.
	InstitutionRef string `json:"institutionRef,omitempty"`
	Description    string `json:"description"`
	IsActive       bool   `json:"isActive"`
	// IsSystem hides engine-internal accounts (like the transfer clearing
	// account) from user-facing listings.
	IsSystem bool `json:"isSystem"`
	AuditFields
	Balance decimal.Decimal `json:"balance"` // Maintained balance over posted/reconciled lines
}
