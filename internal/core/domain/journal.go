package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryStatus indicates the state of a journal entry.
type EntryStatus string

const (
	Draft      EntryStatus = "DRAFT"
	Posted     EntryStatus = "POSTED"
	Reconciled EntryStatus = "RECONCILED"
	Void       EntryStatus = "VOID"
)

// EntrySource marks what produced a journal entry.
type EntrySource string

const (
	SourceManual    EntrySource = "MANUAL"
	SourceStatement EntrySource = "STATEMENT"
	SourceSystem    EntrySource = "SYSTEM"
)

// JournalEntry represents a single balanced financial event composed of
// multiple lines. Entries are created as DRAFT, flip to POSTED after balance
// validation and are immutable from then on; corrections go through VoidEntry,
// which links a sign-flipped reversal entry and keeps both forever.
type JournalEntry struct {
	EntryID      string      `json:"entryID"`
	LedgerID     string      `json:"ledgerID"`
	EntryDate    time.Time   `json:"entryDate"`
	Memo         string      `json:"memo"`
	CurrencyCode string      `json:"currencyCode"`
	Status       EntryStatus `json:"status"`
	Source       EntrySource `json:"source"`
	// Reversal linkage: the void reversal points back at the original, the
	// original points forward at its reversal.
	OriginalEntryID  *string `json:"originalEntryID,omitempty"`
	ReversingEntryID *string `json:"reversingEntryID,omitempty"`
	AuditFields
	Amount decimal.Decimal `json:"amount"` // Total debit side in base currency
	Lines  []JournalLine   `json:"lines,omitempty"`
}

// Direction indicates whether a journal line is a Debit or a Credit.
type Direction string

const (
	Debit  Direction = "DEBIT"
	Credit Direction = "CREDIT"
)

// Opposite returns the other direction.
func (d Direction) Opposite() Direction {
	if d == Debit {
		return Credit
	}
	return Debit
}

// JournalLine represents a single line item within a JournalEntry, affecting
// one account. Amounts are strictly positive; the direction carries the sign.
type JournalLine struct {
	LineID       string          `json:"lineID"`
	EntryID      string          `json:"entryID"`
	AccountID    string          `json:"accountID"`
	Amount       decimal.Decimal `json:"amount"`
	Direction    Direction       `json:"direction"`
	CurrencyCode string          `json:"currencyCode"`
	// FXRate converts the line amount into the ledger base currency. It is
	// fixed at the line's own transaction date, never the reporting date.
	FXRate   decimal.Decimal `json:"fxRate"`
	LineDate time.Time       `json:"lineDate"`
	Notes    string          `json:"notes"`
	AuditFields
	RunningBalance decimal.Decimal `json:"runningBalance"` // Account balance after this line
}

// BaseAmount returns the line amount converted into the ledger base currency.
func (l JournalLine) BaseAmount() decimal.Decimal {
	if l.FXRate.IsZero() {
		return l.Amount
	}
	return l.Amount.Mul(l.FXRate)
}
