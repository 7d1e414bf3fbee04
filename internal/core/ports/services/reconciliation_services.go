package services

import (
	"context"
	"time"

	"github.com/mitra-labs/ledgercore/internal/core/domain"
	"github.com/mitra-labs/ledgercore/internal/dto"
)

// ReconciliationSvcFacade orchestrates candidate generation, scoring,
// thresholding and versioned match records.
type ReconciliationSvcFacade interface {
	// Reconcile runs the three phases over unreconciled raw transactions:
	// transfer detection, normal matching, transfer pairing. Re-running is
	// idempotent: already resolved transactions are skipped, and changed rule
	// outcomes produce new match versions superseding the old ones.
	Reconcile(ctx context.Context, ledgerID string, since time.Time, actorID string) (*dto.ReconciliationSummary, error)

	// ConfirmMatch accepts a pending match individually.
	ConfirmMatch(ctx context.Context, ledgerID string, matchID string, actorID string) (*domain.ReconciliationMatch, error)

	// RejectMatch rejects a pending match, releasing the raw transaction for
	// a future run.
	RejectMatch(ctx context.Context, ledgerID string, matchID string, actorID string) (*domain.ReconciliationMatch, error)

	// ConfirmBatch applies the confidence-tiered confirmation policy to a set
	// of matches and reports exactly which items succeeded.
	ConfirmBatch(ctx context.Context, ledgerID string, req dto.ConfirmBatchRequest, actorID string) (*dto.ConfirmBatchResponse, error)

	// ListPendingMatches retrieves matches awaiting review.
	ListPendingMatches(ctx context.Context, ledgerID string) ([]domain.ReconciliationMatch, error)

	// ListMatchHistory retrieves the full match version history of a raw
	// transaction.
	ListMatchHistory(ctx context.Context, ledgerID string, rawTxnID string) ([]domain.ReconciliationMatch, error)
}

// TransferSvcFacade detects and pairs internal transfers through the
// processing (clearing) account.
type TransferSvcFacade interface {
	// DetectTransfers classifies raw transactions as transfer legs and posts
	// the clearing entries (phase 1). It returns the set of claimed raw
	// transaction IDs.
	DetectTransfers(ctx context.Context, ledgerID string, txns []domain.RawTransaction, actorID string) (map[string]bool, error)

	// PairTransfers pairs open outgoing/incoming legs whose restricted-factor
	// score clears the auto threshold (phase 3). Returns the number of pairs.
	PairTransfers(ctx context.Context, ledgerID string, actorID string) (int, error)

	// ListUnpairedTransfers retrieves transfer legs still waiting for a peer.
	ListUnpairedTransfers(ctx context.Context, ledgerID string) ([]domain.ReconciliationMatch, error)
}
