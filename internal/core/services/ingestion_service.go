package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mitra-labs/ledgercore/internal/apperrors"
	"github.com/mitra-labs/ledgercore/internal/core/domain"
	portsrepo "github.com/mitra-labs/ledgercore/internal/core/ports/repositories"
	portssvc "github.com/mitra-labs/ledgercore/internal/core/ports/services"
	"github.com/mitra-labs/ledgercore/internal/dto"
	"github.com/mitra-labs/ledgercore/internal/middleware"
	"github.com/mitra-labs/ledgercore/internal/utils/accounting"
)

// ingestionService is the boundary with the statement extraction collaborator.
// It validates document envelopes against their declared balances and appends
// accepted batches into the append-only raw transaction layer.
type ingestionService struct {
	rawTxnRepo portsrepo.RawTransactionRepositoryFacade
	ledgerSvc  portssvc.LedgerSvcFacade
}

// NewIngestionService creates a new IngestionService.
func NewIngestionService(rawTxnRepo portsrepo.RawTransactionRepositoryFacade, ledgerSvc portssvc.LedgerSvcFacade) portssvc.IngestionSvcFacade {
	return &ingestionService{
		rawTxnRepo: rawTxnRepo,
		ledgerSvc:  ledgerSvc,
	}
}

var _ portssvc.IngestionSvcFacade = (*ingestionService)(nil)

// IngestStatement validates the batch and appends it atomically. Acceptance is
// all-or-nothing: an out-of-tolerance balance or a duplicate file fingerprint
// rejects the whole document and persists nothing.
func (s *ingestionService) IngestStatement(ctx context.Context, ledgerID string, req dto.IngestStatementRequest, actorID string) (*domain.StatementDocument, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if _, err := requireLedger(ctx, s.ledgerSvc, ledgerID); err != nil {
		return nil, err
	}
	if req.PeriodEnd.Before(req.PeriodStart) {
		return nil, fmt.Errorf("%w: statement period end precedes its start", apperrors.ErrValidation)
	}

	signedSum := decimal.Zero
	for _, txn := range req.Transactions {
		if txn.Amount.LessThanOrEqual(decimal.Zero) {
			return nil, fmt.Errorf("%w: statement transaction amounts must be positive", apperrors.ErrInvalidAmount)
		}
		if txn.Direction == domain.Outflow {
			signedSum = signedSum.Sub(txn.Amount)
		} else {
			signedSum = signedSum.Add(txn.Amount)
		}
	}

	computed := req.OpeningBalance.Add(signedSum)
	delta := req.ClosingBalance.Sub(computed)
	if delta.Abs().GreaterThan(accounting.BalanceTolerance) {
		logger.Warn("statement rejected for balance mismatch", "ledger_id", ledgerID, "delta", delta.String())
		return nil, &apperrors.BalanceMismatchError{
			Opening: req.OpeningBalance,
			Closing: req.ClosingBalance,
			Delta:   delta,
		}
	}

	now := time.Now()
	audit := domain.AuditFields{
		CreatedAt:     now,
		CreatedBy:     actorID,
		LastUpdatedAt: now,
		LastUpdatedBy: actorID,
	}

	doc := domain.StatementDocument{
		DocumentID:      uuid.NewString(),
		LedgerID:        ledgerID,
		Institution:     req.Institution,
		InstitutionRef:  req.InstitutionRef,
		CurrencyCode:    strings.ToUpper(req.CurrencyCode),
		PeriodStart:     req.PeriodStart,
		PeriodEnd:       req.PeriodEnd,
		OpeningBalance:  req.OpeningBalance,
		ClosingBalance:  req.ClosingBalance,
		FileFingerprint: req.FileFingerprint,
		TxnCount:        len(req.Transactions),
		AuditFields:     audit,
	}

	txns := make([]domain.RawTransaction, 0, len(req.Transactions))
	for _, txnReq := range req.Transactions {
		currency := txnReq.CurrencyCode
		if currency == "" {
			currency = doc.CurrencyCode
		}
		institutionRef := txnReq.Reference
		if institutionRef == "" {
			institutionRef = doc.InstitutionRef
		}
		txns = append(txns, domain.RawTransaction{
			RawTxnID:       uuid.NewString(),
			LedgerID:       ledgerID,
			DocumentID:     doc.DocumentID,
			TxnDate:        txnReq.TxnDate,
			Amount:         txnReq.Amount,
			Direction:      txnReq.Direction,
			Description:    txnReq.Description,
			CurrencyCode:   strings.ToUpper(currency),
			InstitutionRef: institutionRef,
			Fingerprint:    txnFingerprint(txnReq),
			RawConfidence:  txnReq.RawConfidence,
			AuditFields:    audit,
		})
	}

	if err := s.rawTxnRepo.AppendBatch(ctx, doc, txns); err != nil {
		logger.Error("failed to append statement batch", "error", err, "ledger_id", ledgerID)
		return nil, err
	}

	logger.Info("statement ingested", "document_id", doc.DocumentID, "txn_count", doc.TxnCount, "institution", doc.Institution)
	return &doc, nil
}

// txnFingerprint is a stable content hash over the fields that identify a
// statement line, used for duplicate diagnosis across uploads.
func txnFingerprint(txn dto.StatementTxn) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%s",
		txn.TxnDate.UTC().Format("2006-01-02"),
		txn.Amount.String(),
		txn.Direction,
		strings.ToLower(strings.TrimSpace(txn.Description)),
	)
	return hex.EncodeToString(h.Sum(nil))
}

// GetRawTxnByID retrieves a raw transaction.
func (s *ingestionService) GetRawTxnByID(ctx context.Context, ledgerID string, rawTxnID string) (*domain.RawTransaction, error) {
	txn, err := s.rawTxnRepo.FindRawTxnByID(ctx, rawTxnID)
	if err != nil {
		return nil, err
	}
	if txn.LedgerID != ledgerID {
		return nil, fmt.Errorf("%w: raw transaction %s", apperrors.ErrNotFound, rawTxnID)
	}
	return txn, nil
}

// ListUnreconciledSince retrieves raw transactions awaiting reconciliation.
func (s *ingestionService) ListUnreconciledSince(ctx context.Context, ledgerID string, since time.Time) ([]domain.RawTransaction, error) {
	return s.rawTxnRepo.ListUnreconciledSince(ctx, ledgerID, since)
}

// ListRawTxns retrieves a paginated list of raw transactions.
func (s *ingestionService) ListRawTxns(ctx context.Context, ledgerID string, limit int, nextToken *string) ([]domain.RawTransaction, *string, error) {
	if _, err := requireLedger(ctx, s.ledgerSvc, ledgerID); err != nil {
		return nil, nil, err
	}
	return s.rawTxnRepo.ListRawTxns(ctx, ledgerID, limit, nextToken)
}
