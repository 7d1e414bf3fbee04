package dto

import (
	"time"

	"github.com/mitra-labs/ledgercore/internal/core/domain"
)

// CreateLedgerRequest defines the payload for creating a ledger.
type CreateLedgerRequest struct {
	Name             string `json:"name" binding:"required"`
	BaseCurrencyCode string `json:"baseCurrencyCode" binding:"required,currency"`
}

// LedgerResponse defines the data returned for a ledger.
type LedgerResponse struct {
	LedgerID         string    `json:"ledgerID"`
	Name             string    `json:"name"`
	BaseCurrencyCode string    `json:"baseCurrencyCode"`
	CreatedAt        time.Time `json:"createdAt"`
}

// ToLedgerResponse converts a domain.Ledger to LedgerResponse.
func ToLedgerResponse(l *domain.Ledger) LedgerResponse {
	return LedgerResponse{
		LedgerID:         l.LedgerID,
		Name:             l.Name,
		BaseCurrencyCode: l.BaseCurrencyCode,
		CreatedAt:        l.CreatedAt,
	}
}
