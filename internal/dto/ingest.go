package dto

import (
	"time"

	"github.com/mitra-labs/ledgercore/internal/core/domain"
	"github.com/shopspring/decimal"
)

// StatementTxn is one candidate transaction produced by the extraction
// collaborator.
type StatementTxn struct {
	TxnDate       time.Time            `json:"txnDate" binding:"required"`
	Amount        decimal.Decimal      `json:"amount" binding:"required"`
	Direction     domain.FlowDirection `json:"direction" binding:"required,oneof=INFLOW OUTFLOW"`
	Description   string               `json:"description" binding:"required"`
	CurrencyCode  string               `json:"currencyCode"`
	Reference     string               `json:"reference"`
	RawConfidence float64              `json:"rawConfidence"`
}

// IngestStatementRequest is the document envelope plus its transactions.
// The whole batch is validated against the declared balances and accepted or
// rejected wholesale: a failing document never leaves partial transactions.
type IngestStatementRequest struct {
	Institution     string          `json:"institution" binding:"required"`
	InstitutionRef  string          `json:"institutionRef"`
	CurrencyCode    string          `json:"currencyCode" binding:"required,currency"`
	PeriodStart     time.Time       `json:"periodStart" binding:"required"`
	PeriodEnd       time.Time       `json:"periodEnd" binding:"required"`
	OpeningBalance  decimal.Decimal `json:"openingBalance"`
	ClosingBalance  decimal.Decimal `json:"closingBalance"`
	FileFingerprint string          `json:"fileFingerprint" binding:"required"`
	Transactions    []StatementTxn  `json:"transactions" binding:"required,min=1,dive"`
}

// IngestStatementResponse reports the accepted document.
type IngestStatementResponse struct {
	DocumentID string `json:"documentID"`
	TxnCount   int    `json:"txnCount"`
}

// RawTxnResponse defines the data returned for a raw transaction.
type RawTxnResponse struct {
	RawTxnID      string               `json:"rawTxnID"`
	DocumentID    string               `json:"documentID"`
	TxnDate       time.Time            `json:"txnDate"`
	Amount        decimal.Decimal      `json:"amount"`
	Direction     domain.FlowDirection `json:"direction"`
	Description   string               `json:"description"`
	CurrencyCode  string               `json:"currencyCode"`
	RawConfidence float64              `json:"rawConfidence"`
	ActiveMatchID *string              `json:"activeMatchID,omitempty"`
	MatchVersion  int64                `json:"matchVersion"`
}

// ToRawTxnResponse converts a domain.RawTransaction to RawTxnResponse.
func ToRawTxnResponse(t *domain.RawTransaction) RawTxnResponse {
	return RawTxnResponse{
		RawTxnID:      t.RawTxnID,
		DocumentID:    t.DocumentID,
		TxnDate:       t.TxnDate,
		Amount:        t.Amount,
		Direction:     t.Direction,
		Description:   t.Description,
		CurrencyCode:  t.CurrencyCode,
		RawConfidence: t.RawConfidence,
		ActiveMatchID: t.ActiveMatchID,
		MatchVersion:  t.MatchVersion,
	}
}
