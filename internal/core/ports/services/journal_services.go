package services

import (
	"context"
	"time"

	"github.com/mitra-labs/ledgercore/internal/core/domain"
	"github.com/mitra-labs/ledgercore/internal/dto"
	"github.com/shopspring/decimal"
)

// JournalSvcFacade is the ledger store: it owns journal entries and enforces
// the balance and immutability invariants.
type JournalSvcFacade interface {
	// CreateDraftEntry validates and persists a DRAFT entry. It rejects
	// entries with fewer than two lines, non-positive amounts, and entries
	// whose base-currency debit/credit totals differ by more than the
	// tolerance.
	CreateDraftEntry(ctx context.Context, ledgerID string, req dto.CreateEntryRequest, actorID string) (*domain.JournalEntry, error)

	// PostEntry flips a DRAFT entry to POSTED. Balance is re-validated at
	// post time and the flip is atomic; posted entries are immutable.
	PostEntry(ctx context.Context, ledgerID string, entryID string, actorID string) (*domain.JournalEntry, error)

	// CreateAndPostEntry creates a draft and posts it in one command.
	CreateAndPostEntry(ctx context.Context, ledgerID string, req dto.CreateEntryRequest, source domain.EntrySource, actorID string) (*domain.JournalEntry, error)

	// VoidEntry voids a POSTED or RECONCILED entry by posting a sign-flipped
	// reversal and linking both records. Fails with ErrAlreadyVoided on the
	// second call.
	VoidEntry(ctx context.Context, ledgerID string, entryID string, reason string, actorID string) (*domain.JournalEntry, error)

	// MarkEntryReconciled transitions a POSTED entry to RECONCILED once a
	// match claims it.
	MarkEntryReconciled(ctx context.Context, ledgerID string, entryID string, actorID string) error

	// GetEntryByID retrieves an entry with its lines.
	GetEntryByID(ctx context.Context, ledgerID string, entryID string) (*domain.JournalEntry, error)

	// ListEntries retrieves a paginated, filterable list of entries.
	ListEntries(ctx context.Context, ledgerID string, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error)

	// ListOpenEntries retrieves unreconciled POSTED entries inside a window.
	ListOpenEntries(ctx context.Context, ledgerID string, from, to time.Time) ([]domain.JournalEntry, error)

	// BalanceOf computes an account balance as of a date from POSTED and
	// RECONCILED lines only; drafts never affect balance.
	BalanceOf(ctx context.Context, ledgerID string, accountID string, asOf time.Time) (decimal.Decimal, error)

	// CheckAccountingEquation verifies the trial balance for a ledger:
	// assets = liabilities + equity + (income - expenses), with the
	// processing account included as a suspense account. Returns
	// ErrAccountingEquation with the delta when violated.
	CheckAccountingEquation(ctx context.Context, ledgerID string) error
}
