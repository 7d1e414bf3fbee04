package services

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mitra-labs/ledgercore/internal/core/domain"
	portsrepo "github.com/mitra-labs/ledgercore/internal/core/ports/repositories"
	portssvc "github.com/mitra-labs/ledgercore/internal/core/ports/services"
	"github.com/mitra-labs/ledgercore/internal/core/scoring"
	"github.com/mitra-labs/ledgercore/internal/dto"
	"github.com/mitra-labs/ledgercore/internal/embedding"
	"github.com/mitra-labs/ledgercore/internal/middleware"
)

// transferKeywords classify a statement description as an internal transfer
// leg. Matching is case-insensitive containment.
var transferKeywords = []string{"transfer", "xfer", "trf", "own account"}

// transferService detects internal transfer legs and pairs them through the
// per-ledger clearing account. An unpaired leg parks its amount in clearing,
// so a nonzero clearing balance is itself the signal that legs are missing.
type transferService struct {
	matchRepo  portsrepo.MatchRepositoryFacade
	rawTxnRepo portsrepo.RawTransactionRepositoryFacade
	accountSvc portssvc.AccountSvcFacade
	journalSvc portssvc.JournalSvcFacade
	embedder   embedding.Provider
	policy     MatchPolicy
}

// NewTransferService creates a new TransferService.
func NewTransferService(
	matchRepo portsrepo.MatchRepositoryFacade,
	rawTxnRepo portsrepo.RawTransactionRepositoryFacade,
	accountSvc portssvc.AccountSvcFacade,
	journalSvc portssvc.JournalSvcFacade,
	embedder embedding.Provider,
	policy MatchPolicy,
) portssvc.TransferSvcFacade {
	return &transferService{
		matchRepo:  matchRepo,
		rawTxnRepo: rawTxnRepo,
		accountSvc: accountSvc,
		journalSvc: journalSvc,
		embedder:   embedder,
		policy:     policy,
	}
}

var _ portssvc.TransferSvcFacade = (*transferService)(nil)

func transferLike(description string) bool {
	lower := strings.ToLower(description)
	for _, keyword := range transferKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// DetectTransfers classifies raw transactions as transfer legs and posts each
// leg's clearing entry. An outgoing leg credits the source account and debits
// clearing; an incoming leg debits the destination and credits clearing. Once
// both legs of a transfer are posted the clearing account nets to zero.
func (s *transferService) DetectTransfers(ctx context.Context, ledgerID string, txns []domain.RawTransaction, actorID string) (map[string]bool, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	claimed := make(map[string]bool)

	for _, txn := range txns {
		if !transferLike(txn.Description) {
			continue
		}

		account, err := s.accountSvc.ResolveByInstitutionRef(ctx, ledgerID, txn.InstitutionRef)
		if err != nil {
			return nil, err
		}
		if account == nil {
			// Transfer wording but no linked account: leave it to normal
			// matching.
			continue
		}

		processing, err := s.accountSvc.GetOrCreateProcessingAccount(ctx, ledgerID, actorID)
		if err != nil {
			return nil, err
		}

		var debitID, creditID string
		if txn.Direction == domain.Outflow {
			debitID, creditID = processing.AccountID, account.AccountID
		} else {
			debitID, creditID = account.AccountID, processing.AccountID
		}

		entry, err := s.journalSvc.CreateAndPostEntry(ctx, ledgerID, dto.CreateEntryRequest{
			Date:         txn.TxnDate,
			Memo:         "Transfer leg: " + txn.Description,
			CurrencyCode: txn.CurrencyCode,
			Lines: []dto.CreateLineRequest{
				{AccountID: debitID, Amount: txn.Amount, Direction: domain.Debit},
				{AccountID: creditID, Amount: txn.Amount, Direction: domain.Credit},
			},
		}, domain.SourceSystem, actorID)
		if err != nil {
			return nil, err
		}
		if err := s.journalSvc.MarkEntryReconciled(ctx, ledgerID, entry.EntryID, actorID); err != nil {
			return nil, err
		}

		now := time.Now()
		// Legs are claimed by classification, not scored; the breakdown stays
		// empty on purpose.
		leg := domain.ReconciliationMatch{
			MatchID:   uuid.NewString(),
			LedgerID:  ledgerID,
			RawTxnIDs: []string{txn.RawTxnID},
			Version:   txn.MatchVersion + 1,
			EntryID:   &entry.EntryID,
			Kind:      domain.CandidateTransferLeg,
			Status:    domain.MatchAuto,
			Score:     100,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     actorID,
				LastUpdatedAt: now,
				LastUpdatedBy: actorID,
			},
		}
		if err := s.matchRepo.SaveMatch(ctx, leg, map[string]int64{txn.RawTxnID: txn.MatchVersion}); err != nil {
			return nil, err
		}

		claimed[txn.RawTxnID] = true
		logger.Info("transfer leg detected", "raw_txn_id", txn.RawTxnID, "direction", txn.Direction, "entry_id", entry.EntryID)
	}

	// Each leg posted a clearing entry, so verify the ledger still balances
	// before handing back to the run.
	if len(claimed) > 0 {
		if err := s.journalSvc.CheckAccountingEquation(ctx, ledgerID); err != nil {
			return nil, err
		}
	}

	return claimed, nil
}

// PairTransfers pairs open outgoing and incoming legs whose restricted-factor
// score clears the auto threshold. A pair match covers both raw transactions
// and supersedes their leg matches in one versioned swap.
func (s *transferService) PairTransfers(ctx context.Context, ledgerID string, actorID string) (int, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	legs, err := s.matchRepo.ListOpenTransferLegs(ctx, ledgerID)
	if err != nil {
		return 0, err
	}
	if len(legs) < 2 {
		return 0, nil
	}

	rawTxnIDs := make([]string, 0, len(legs))
	for _, leg := range legs {
		rawTxnIDs = append(rawTxnIDs, leg.RawTxnIDs...)
	}
	txns, err := s.rawTxnRepo.FindRawTxnsByIDs(ctx, rawTxnIDs)
	if err != nil {
		return 0, err
	}

	var outs, ins []domain.RawTransaction
	for _, id := range rawTxnIDs {
		txn, ok := txns[id]
		if !ok {
			continue
		}
		if txn.Direction == domain.Outflow {
			outs = append(outs, txn)
		} else {
			ins = append(ins, txn)
		}
	}
	sort.Slice(outs, func(i, j int) bool { return outs[i].RawTxnID < outs[j].RawTxnID })
	sort.Slice(ins, func(i, j int) bool { return ins[i].RawTxnID < ins[j].RawTxnID })

	cache := newEmbedCache(s.embedder)
	used := make(map[string]bool)
	pairs := 0

	for _, out := range outs {
		var best *domain.RawTransaction
		var bestResult scoring.Result
		bestDateDiff := math.MaxFloat64

		for i := range ins {
			in := ins[i]
			if used[in.RawTxnID] {
				continue
			}
			result := scoring.ScoreTransferPair(scoring.Input{
				RawAmount:          out.Amount,
				CandidateAmount:    in.Amount,
				RawDate:            out.TxnDate,
				CandidateDate:      in.TxnDate,
				RawEmbedding:       cache.embed(ctx, out.Description),
				CandidateEmbedding: cache.embed(ctx, in.Description),
				AmountCeiling:      s.policy.AmountCeiling,
			})
			dateDiff := math.Abs(out.TxnDate.Sub(in.TxnDate).Hours())
			if betterCandidate(result.Total, dateDiff, in.RawTxnID, bestResult.Total, bestDateDiff, bestID(best)) {
				best = &ins[i]
				bestResult = result
				bestDateDiff = dateDiff
			}
		}

		if best == nil || bestResult.Total < s.policy.AutoAcceptScore {
			continue
		}

		now := time.Now()
		version := out.MatchVersion
		if best.MatchVersion > version {
			version = best.MatchVersion
		}
		pair := domain.ReconciliationMatch{
			MatchID:   uuid.NewString(),
			LedgerID:  ledgerID,
			RawTxnIDs: []string{out.RawTxnID, best.RawTxnID},
			Version:   version + 1,
			Kind:      domain.CandidateTransferPair,
			Status:    domain.MatchAuto,
			Score:     bestResult.Total,
			Breakdown: bestResult.Breakdown,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     actorID,
				LastUpdatedAt: now,
				LastUpdatedBy: actorID,
			},
		}
		expected := map[string]int64{
			out.RawTxnID:  out.MatchVersion,
			best.RawTxnID: best.MatchVersion,
		}
		if err := s.matchRepo.SaveMatch(ctx, pair, expected); err != nil {
			return pairs, err
		}

		used[best.RawTxnID] = true
		pairs++
		logger.Info("transfer pair matched", "out", out.RawTxnID, "in", best.RawTxnID, "score", bestResult.Total)
	}

	return pairs, nil
}

// ListUnpairedTransfers retrieves transfer legs still waiting for a peer.
func (s *transferService) ListUnpairedTransfers(ctx context.Context, ledgerID string) ([]domain.ReconciliationMatch, error) {
	return s.matchRepo.ListOpenTransferLegs(ctx, ledgerID)
}

func bestID(txn *domain.RawTransaction) string {
	if txn == nil {
		return ""
	}
	return txn.RawTxnID
}

// betterCandidate is the deterministic tie-break: higher score first, then
// nearer date, then lower candidate ID. An empty current ID means no
// candidate yet.
func betterCandidate(score, dateDiff float64, id string, bestScore, bestDateDiff float64, bestID string) bool {
	if bestID == "" {
		return true
	}
	if score != bestScore {
		return score > bestScore
	}
	if dateDiff != bestDateDiff {
		return dateDiff < bestDateDiff
	}
	return id < bestID
}
