package dto

import (
	"time"

	"github.com/mitra-labs/ledgercore/internal/core/domain"
)

// MatchResponse defines the data returned for a reconciliation match version.
// The factor breakdown is always included, never just the total.
type MatchResponse struct {
	MatchID   string                 `json:"matchID"`
	RawTxnIDs []string               `json:"rawTxnIDs"`
	Version   int64                  `json:"version"`
	EntryID   *string                `json:"entryID,omitempty"`
	RuleID    *string                `json:"ruleID,omitempty"`
	Kind      domain.CandidateKind   `json:"kind"`
	Status    domain.MatchStatus     `json:"status"`
	Score     float64                `json:"score"`
	Breakdown domain.FactorBreakdown `json:"breakdown"`
	CreatedAt time.Time              `json:"createdAt"`
	CreatedBy string                 `json:"createdBy"`
}

// ToMatchResponse converts a domain.ReconciliationMatch to MatchResponse.
func ToMatchResponse(m *domain.ReconciliationMatch) MatchResponse {
	return MatchResponse{
		MatchID:   m.MatchID,
		RawTxnIDs: m.RawTxnIDs,
		Version:   m.Version,
		EntryID:   m.EntryID,
		RuleID:    m.RuleID,
		Kind:      m.Kind,
		Status:    m.Status,
		Score:     m.Score,
		Breakdown: m.Breakdown,
		CreatedAt: m.CreatedAt,
		CreatedBy: m.CreatedBy,
	}
}

// ToMatchResponses converts a slice of domain.ReconciliationMatch.
func ToMatchResponses(matches []domain.ReconciliationMatch) []MatchResponse {
	responses := make([]MatchResponse, len(matches))
	for i := range matches {
		responses[i] = ToMatchResponse(&matches[i])
	}
	return responses
}

// ReconcileRequest triggers a reconciliation run.
type ReconcileRequest struct {
	// Since bounds which raw transactions are considered; zero means the
	// engine's default lookback.
	Since *time.Time `json:"since,omitempty"`
}

// ReconciliationSummary reports what one reconciliation run did.
type ReconciliationSummary struct {
	Processed     int `json:"processed"`
	AutoMatched   int `json:"autoMatched"`
	PendingReview int `json:"pendingReview"`
	Unmatched     int `json:"unmatched"`
	TransferLegs  int `json:"transferLegs"`
	TransferPairs int `json:"transferPairs"`
}

// ConfirmBatchRequest lists the matches a user accepts in bulk.
type ConfirmBatchRequest struct {
	MatchIDs []string `json:"matchIDs" binding:"required,min=1"`
}

// Batch item outcomes.
const (
	BatchOutcomeConfirmed   = "CONFIRMED"
	BatchOutcomeSkipped     = "SKIPPED"
	BatchOutcomeNeedsReview = "NEEDS_REVIEW"
	BatchOutcomeFailed      = "FAILED"
)

// BatchItemResult reports what happened to one match in a batch confirmation.
type BatchItemResult struct {
	MatchID string `json:"matchID"`
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`
}

// ConfirmBatchResponse reports exactly which items succeeded and which need
// individual attention.
type ConfirmBatchResponse struct {
	Confirmed   int               `json:"confirmed"`
	NeedsReview int               `json:"needsReview"`
	Skipped     int               `json:"skipped"`
	Failed      int               `json:"failed"`
	Items       []BatchItemResult `json:"items"`
}
