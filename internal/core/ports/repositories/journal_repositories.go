package repositories

import (
	"context"
	"time"

	"github.com/mitra-labs/ledgercore/internal/core/domain"
	"github.com/shopspring/decimal"
)

// EntryReader defines read operations for journal entry data
type EntryReader interface {
	// FindEntryByID retrieves a specific journal entry by its unique identifier.
	FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error)

	// ListEntries retrieves a paginated list of entries for a ledger using
	// token-based pagination. Statuses filters when non-empty.
	ListEntries(ctx context.Context, ledgerID string, statuses []domain.EntryStatus, limit int, nextToken *string) ([]domain.JournalEntry, *string, error)

	// ListOpenEntries retrieves POSTED (not yet reconciled) entries whose date
	// falls inside [from, to]. Used for reconciliation candidate generation;
	// callers hold no locks while scoring these.
	ListOpenEntries(ctx context.Context, ledgerID string, from, to time.Time) ([]domain.JournalEntry, error)
}

// LineReader defines read operations for journal line data
type LineReader interface {
	// FindLinesByEntryID retrieves all lines of a single entry.
	FindLinesByEntryID(ctx context.Context, entryID string) ([]domain.JournalLine, error)

	// SumPostedLines computes the signed base-currency balance of an account
	// by replaying only POSTED and RECONCILED lines up to asOf.
	SumPostedLines(ctx context.Context, accountID string, asOf time.Time) (decimal.Decimal, error)
}

// EntryWriter defines write operations for journal entry data
type EntryWriter interface {
	// SaveDraftEntry persists a DRAFT entry and its lines. Drafts never touch
	// account balances.
	SaveDraftEntry(ctx context.Context, entry domain.JournalEntry, lines []domain.JournalLine) error

	// PostEntry atomically flips a DRAFT entry to POSTED and applies the
	// balance changes, locking the affected accounts for the duration.
	// Returns ErrConflict if the entry is no longer a draft.
	PostEntry(ctx context.Context, entryID string, balanceChanges map[string]decimal.Decimal, actorID string, now time.Time) error

	// SavePostedEntry persists an entry directly in POSTED status with its
	// lines and balance changes in one transaction. Used for reversals and
	// system-generated postings.
	SavePostedEntry(ctx context.Context, entry domain.JournalEntry, lines []domain.JournalLine, balanceChanges map[string]decimal.Decimal) error

	// UpdateEntryStatusAndLinks updates the status of an entry. Link arguments
	// are applied only when non-nil; a nil link leaves the stored value alone.
	UpdateEntryStatusAndLinks(ctx context.Context, entryID string, status domain.EntryStatus, reversingEntryID *string, originalEntryID *string, actorID string, now time.Time) error

	// SaveReversalEntry posts the reversal entry with its lines and balance
	// changes, and flips the original entry to VOID linking the two, all in
	// one transaction. Returns ErrAlreadyVoided if the original already has a
	// reversing entry.
	SaveReversalEntry(ctx context.Context, originalEntryID string, reversal domain.JournalEntry, lines []domain.JournalLine, balanceChanges map[string]decimal.Decimal) error
}

// JournalRepositoryFacade combines all entry-related repository interfaces
type JournalRepositoryFacade interface {
	EntryReader
	LineReader
	EntryWriter
}

// JournalRepositoryWithTx extends JournalRepositoryFacade with transaction capabilities
type JournalRepositoryWithTx interface {
	JournalRepositoryFacade
	TransactionManager
}
