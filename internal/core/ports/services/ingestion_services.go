package services

import (
	"context"
	"time"

	"github.com/mitra-labs/ledgercore/internal/core/domain"
	"github.com/mitra-labs/ledgercore/internal/dto"
)

// IngestionSvcFacade is the boundary with the statement extraction
// collaborator: it validates document envelopes and appends accepted batches
// into the immutable raw transaction layer.
type IngestionSvcFacade interface {
	// IngestStatement validates opening + sum(signed amounts) against the
	// declared closing balance and the document fingerprint, then appends the
	// batch atomically. Out-of-tolerance batches fail with a
	// BalanceMismatchError carrying the delta; nothing is persisted.
	IngestStatement(ctx context.Context, ledgerID string, req dto.IngestStatementRequest, actorID string) (*domain.StatementDocument, error)

	// GetRawTxnByID retrieves a raw transaction.
	GetRawTxnByID(ctx context.Context, ledgerID string, rawTxnID string) (*domain.RawTransaction, error)

	// ListUnreconciledSince retrieves raw transactions awaiting reconciliation.
	ListUnreconciledSince(ctx context.Context, ledgerID string, since time.Time) ([]domain.RawTransaction, error)

	// ListRawTxns retrieves a paginated list of raw transactions.
	ListRawTxns(ctx context.Context, ledgerID string, limit int, nextToken *string) ([]domain.RawTransaction, *string, error)
}
