package repositories

import (
	"context"
	"time"

	"github.com/mitra-labs/ledgercore/internal/core/domain"
)

// MatchReader defines read operations for reconciliation match data
type MatchReader interface {
	// FindMatchByID retrieves a specific match version by its identifier.
	FindMatchByID(ctx context.Context, matchID string) (*domain.ReconciliationMatch, error)

	// ListMatchesByStatus retrieves a ledger's matches in any of the given statuses.
	ListMatchesByStatus(ctx context.Context, ledgerID string, statuses []domain.MatchStatus) ([]domain.ReconciliationMatch, error)

	// ListMatchVersions retrieves the full, never-deleted match history of a
	// raw transaction, oldest version first.
	ListMatchVersions(ctx context.Context, rawTxnID string) ([]domain.ReconciliationMatch, error)

	// ListOpenTransferLegs retrieves active TRANSFER_LEG matches for a ledger:
	// detected transfer legs not yet covered by a pairing.
	ListOpenTransferLegs(ctx context.Context, ledgerID string) ([]domain.ReconciliationMatch, error)
}

// MatchWriter defines write operations for reconciliation match data
type MatchWriter interface {
	// SaveMatch inserts a new match version and atomically supersedes the
	// previous active match of every covered raw transaction. The operation
	// is a compare-and-swap on each raw transaction's match version:
	// expectedVersions holds the version each covered raw transaction was
	// observed at, and a lost race fails with ErrStaleMatchVersion leaving
	// nothing applied.
	SaveMatch(ctx context.Context, match domain.ReconciliationMatch, expectedVersions map[string]int64) error

	// UpdateMatchStatus transitions a match between review states. When
	// entryID is non-nil the produced journal entry is recorded on the match,
	// which happens when confirming a rule-posting candidate.
	UpdateMatchStatus(ctx context.Context, matchID string, status domain.MatchStatus, entryID *string, actorID string, now time.Time) error
}

// MatchRepositoryFacade combines match repository interfaces
type MatchRepositoryFacade interface {
	MatchReader
	MatchWriter
}
