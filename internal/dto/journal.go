package dto

import (
	"time"

	"github.com/mitra-labs/ledgercore/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateLineRequest is one line of a new entry. Amount must be positive; the
// direction carries the sign. FXRate defaults to 1 for base-currency lines.
type CreateLineRequest struct {
	AccountID string           `json:"accountID" binding:"required"`
	Amount    decimal.Decimal  `json:"amount" binding:"required"`
	Direction domain.Direction `json:"direction" binding:"required,oneof=DEBIT CREDIT"`
	FXRate    *decimal.Decimal `json:"fxRate,omitempty"`
	LineDate  *time.Time       `json:"lineDate,omitempty"`
	Notes     string           `json:"notes"`
}

// CreateEntryRequest defines the payload for creating a draft journal entry.
type CreateEntryRequest struct {
	Date         time.Time           `json:"date" binding:"required"`
	Memo         string              `json:"memo" binding:"required"`
	CurrencyCode string              `json:"currencyCode" binding:"required,currency"`
	Lines        []CreateLineRequest `json:"lines" binding:"required,min=2,dive"`
}

// VoidEntryRequest defines the payload for voiding a posted entry.
type VoidEntryRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// LineResponse defines the data returned for a journal line.
type LineResponse struct {
	LineID    string           `json:"lineID"`
	AccountID string           `json:"accountID"`
	Amount    decimal.Decimal  `json:"amount"`
	Direction domain.Direction `json:"direction"`
	FXRate    decimal.Decimal  `json:"fxRate"`
	LineDate  time.Time        `json:"lineDate"`
	Notes     string           `json:"notes,omitempty"`
}

// EntryResponse defines the data returned for a journal entry.
type EntryResponse struct {
	EntryID          string             `json:"entryID"`
	LedgerID         string             `json:"ledgerID"`
	Date             time.Time          `json:"date"`
	Memo             string             `json:"memo"`
	CurrencyCode     string             `json:"currencyCode"`
	Status           domain.EntryStatus `json:"status"`
	Source           domain.EntrySource `json:"source"`
	OriginalEntryID  *string            `json:"originalEntryID,omitempty"`
	ReversingEntryID *string            `json:"reversingEntryID,omitempty"`
	Amount           decimal.Decimal    `json:"amount"`
	Lines            []LineResponse     `json:"lines,omitempty"`
	CreatedAt        time.Time          `json:"createdAt"`
	CreatedBy        string             `json:"createdBy"`
}

// ToLineResponse converts a domain.JournalLine to LineResponse.
func ToLineResponse(l *domain.JournalLine) LineResponse {
	return LineResponse{
		LineID:    l.LineID,
		AccountID: l.AccountID,
		Amount:    l.Amount,
		Direction: l.Direction,
		FXRate:    l.FXRate,
		LineDate:  l.LineDate,
		Notes:     l.Notes,
	}
}

// ToEntryResponse converts a domain.JournalEntry to EntryResponse.
func ToEntryResponse(e *domain.JournalEntry) EntryResponse {
	resp := EntryResponse{
		EntryID:          e.EntryID,
		LedgerID:         e.LedgerID,
		Date:             e.EntryDate,
		Memo:             e.Memo,
		CurrencyCode:     e.CurrencyCode,
		Status:           e.Status,
		Source:           e.Source,
		OriginalEntryID:  e.OriginalEntryID,
		ReversingEntryID: e.ReversingEntryID,
		Amount:           e.Amount,
		CreatedAt:        e.CreatedAt,
		CreatedBy:        e.CreatedBy,
	}
	for i := range e.Lines {
		resp.Lines = append(resp.Lines, ToLineResponse(&e.Lines[i]))
	}
	return resp
}

// ListEntriesParams holds parameters for listing entries.
type ListEntriesParams struct {
	Statuses  []domain.EntryStatus
	Limit     int
	NextToken *string
}

// ListEntriesResponse is a paginated page of entries.
type ListEntriesResponse struct {
	Entries   []EntryResponse `json:"entries"`
	NextToken *string         `json:"nextToken,omitempty"`
}
