package dto

import (
	"time"

	"github.com/mitra-labs/ledgercore/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest defines the payload for creating an account.
type CreateAccountRequest struct {
	Name           string             `json:"name" binding:"required"`
	AccountType    domain.AccountType `json:"accountType" binding:"required,oneof=ASSET LIABILITY EQUITY INCOME EXPENSE"`
	CurrencyCode   string             `json:"currencyCode" binding:"required,currency"`
	InstitutionRef string             `json:"institutionRef"`
	Description    string             `json:"description"`
}

// AccountResponse defines the data returned for an account.
type AccountResponse struct {
	AccountID      string             `json:"accountID"`
	LedgerID       string             `json:"ledgerID"`
	Name           string             `json:"name"`
	AccountType    domain.AccountType `json:"accountType"`
	CurrencyCode   string             `json:"currencyCode"`
	InstitutionRef string             `json:"institutionRef,omitempty"`
	Description    string             `json:"description"`
	IsActive       bool               `json:"isActive"`
	IsSystem       bool               `json:"isSystem"`
	Balance        decimal.Decimal    `json:"balance"`
	CreatedAt      time.Time          `json:"createdAt"`
}

// ToAccountResponse converts a domain.Account to AccountResponse.
func ToAccountResponse(a *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:      a.AccountID,
		LedgerID:       a.LedgerID,
		Name:           a.Name,
		AccountType:    a.AccountType,
		CurrencyCode:   a.CurrencyCode,
		InstitutionRef: a.InstitutionRef,
		Description:    a.Description,
		IsActive:       a.IsActive,
		IsSystem:       a.IsSystem,
		Balance:        a.Balance,
		CreatedAt:      a.CreatedAt,
	}
}

// ToAccountResponses converts a slice of domain.Account.
func ToAccountResponses(accounts []domain.Account) []AccountResponse {
	responses := make([]AccountResponse, len(accounts))
	for i := range accounts {
		responses[i] = ToAccountResponse(&accounts[i])
	}
	return responses
}

// BalanceResponse reports an account balance as of a date.
type BalanceResponse struct {
	AccountID string          `json:"accountID"`
	AsOf      time.Time       `json:"asOf"`
	Balance   decimal.Decimal `json:"balance"`
}
