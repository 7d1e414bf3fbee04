package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FlowDirection is the direction of money movement seen on a statement.
type FlowDirection string

const (
	Inflow  FlowDirection = "INFLOW"
	Outflow FlowDirection = "OUTFLOW"
)

// RawTransaction is an immutable transaction fact extracted from a bank
// statement. It is never edited or deleted once appended; corrections are
// expressed only as new ReconciliationMatch versions pointing elsewhere.
type RawTransaction struct {
	RawTxnID     string          `json:"rawTxnID"`
	LedgerID     string          `json:"ledgerID"`
	DocumentID   string          `json:"documentID"`
	TxnDate      time.Time       `json:"txnDate"`
	Amount       decimal.Decimal `json:"amount"` // Positive; Direction carries the sign
	Direction    FlowDirection   `json:"direction"`
	Description  string          `json:"description"`
	CurrencyCode string          `json:"currencyCode"`
	// InstitutionRef identifies the bank account the statement belongs to.
	InstitutionRef string `json:"institutionRef"`
	// Fingerprint is a content hash over date|amount|direction|description,
	// used with the document fingerprint for duplicate-upload detection.
	Fingerprint string `json:"fingerprint"`
	// RawConfidence is inherited from the extraction collaborator.
	RawConfidence float64 `json:"rawConfidence"`
	// ActiveMatchID and MatchVersion implement the active-version pointer:
	// at most one match is active per raw transaction, and superseding it is
	// a compare-and-swap on MatchVersion.
	ActiveMatchID *string `json:"activeMatchID,omitempty"`
	MatchVersion  int64   `json:"matchVersion"`
	AuditFields
}

// SignedAmount returns the amount with the statement sign applied: inflows
// positive, outflows negative.
func (t RawTransaction) SignedAmount() decimal.Decimal {
	if t.Direction == Outflow {
		return t.Amount.Neg()
	}
	return t.Amount
}

// StatementDocument is the document-level envelope delivered by the extraction
// collaborator alongside a batch of raw transactions.
type StatementDocument struct {
	DocumentID      string          `json:"documentID"`
	LedgerID        string          `json:"ledgerID"`
	Institution     string          `json:"institution"`
	InstitutionRef  string          `json:"institutionRef"`
	CurrencyCode    string          `json:"currencyCode"`
	PeriodStart     time.Time       `json:"periodStart"`
	PeriodEnd       time.Time       `json:"periodEnd"`
	OpeningBalance  decimal.Decimal `json:"openingBalance"`
	ClosingBalance  decimal.Decimal `json:"closingBalance"`
	FileFingerprint string          `json:"fileFingerprint"`
	TxnCount        int             `json:"txnCount"`
	AuditFields
}
