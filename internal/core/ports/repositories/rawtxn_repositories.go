package repositories

import (
	"context"
	"time"

	"github.com/mitra-labs/ledgercore/internal/core/domain"
)

// RawTransactionReader defines read operations for the append-only raw
// transaction layer. There is deliberately no update or delete: annotation
// happens through new ReconciliationMatch versions, never by editing.
type RawTransactionReader interface {
	// FindRawTxnByID retrieves a raw transaction by its unique identifier.
	FindRawTxnByID(ctx context.Context, rawTxnID string) (*domain.RawTransaction, error)

	// FindRawTxnsByIDs retrieves multiple raw transactions by their IDs.
	FindRawTxnsByIDs(ctx context.Context, rawTxnIDs []string) (map[string]domain.RawTransaction, error)

	// ListUnreconciledSince retrieves raw transactions dated at or after since
	// that have no active resolved match.
	ListUnreconciledSince(ctx context.Context, ledgerID string, since time.Time) ([]domain.RawTransaction, error)

	// ListRawTxns retrieves a paginated list for a ledger.
	ListRawTxns(ctx context.Context, ledgerID string, limit int, nextToken *string) ([]domain.RawTransaction, *string, error)
}

// RawTransactionWriter appends statement batches.
type RawTransactionWriter interface {
	// AppendBatch atomically persists the document envelope and all its
	// transactions. A previously seen (institution, file fingerprint) pair
	// fails with ErrDuplicateDocument and persists nothing.
	AppendBatch(ctx context.Context, doc domain.StatementDocument, txns []domain.RawTransaction) error
}

// RawTransactionRepositoryFacade combines raw transaction repository interfaces
type RawTransactionRepositoryFacade interface {
	RawTransactionReader
	RawTransactionWriter
}
