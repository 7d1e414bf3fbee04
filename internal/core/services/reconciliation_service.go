package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/mitra-labs/ledgercore/internal/apperrors"
	"github.com/mitra-labs/ledgercore/internal/core/domain"
	portsrepo "github.com/mitra-labs/ledgercore/internal/core/ports/repositories"
	portssvc "github.com/mitra-labs/ledgercore/internal/core/ports/services"
	"github.com/mitra-labs/ledgercore/internal/core/scoring"
	"github.com/mitra-labs/ledgercore/internal/dto"
	"github.com/mitra-labs/ledgercore/internal/embedding"
	"github.com/mitra-labs/ledgercore/internal/middleware"
)

// MatchPolicy carries the reconciliation thresholds. The batch threshold sits
// deliberately below the auto threshold: batch confirmation is a human
// accepting a whole review queue, so it extends a little further down than
// the engine is allowed to go on its own.
type MatchPolicy struct {
	AutoAcceptScore  float64
	ReviewScore      float64
	BatchAcceptScore float64
	LookbackDays     int
	AmountCeiling    float64
}

// reconciliationService orchestrates candidate generation, scoring,
// thresholding and versioned match records.
type reconciliationService struct {
	rawTxnRepo  portsrepo.RawTransactionRepositoryFacade
	matchRepo   portsrepo.MatchRepositoryFacade
	journalSvc  portssvc.JournalSvcFacade
	ruleSvc     portssvc.RuleSvcFacade
	transferSvc portssvc.TransferSvcFacade
	ledgerSvc   portssvc.LedgerSvcFacade
	embedder    embedding.Provider
	policy      MatchPolicy
}

// NewReconciliationService creates a new ReconciliationService.
func NewReconciliationService(
	rawTxnRepo portsrepo.RawTransactionRepositoryFacade,
	matchRepo portsrepo.MatchRepositoryFacade,
	journalSvc portssvc.JournalSvcFacade,
	ruleSvc portssvc.RuleSvcFacade,
	transferSvc portssvc.TransferSvcFacade,
	ledgerSvc portssvc.LedgerSvcFacade,
	embedder embedding.Provider,
	policy MatchPolicy,
) portssvc.ReconciliationSvcFacade {
	return &reconciliationService{
		rawTxnRepo:  rawTxnRepo,
		matchRepo:   matchRepo,
		journalSvc:  journalSvc,
		ruleSvc:     ruleSvc,
		transferSvc: transferSvc,
		ledgerSvc:   ledgerSvc,
		embedder:    embedder,
		policy:      policy,
	}
}

var _ portssvc.ReconciliationSvcFacade = (*reconciliationService)(nil)

// scoredCandidate pairs a candidate with its scoring result for routing.
type scoredCandidate struct {
	candidate domain.MatchCandidate
	result    scoring.Result
	dateDiff  float64
}

// Reconcile runs the three phases over unreconciled raw transactions:
// transfer detection, normal matching, transfer pairing.
func (s *reconciliationService) Reconcile(ctx context.Context, ledgerID string, since time.Time, actorID string) (*dto.ReconciliationSummary, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if _, err := requireLedger(ctx, s.ledgerSvc, ledgerID); err != nil {
		return nil, err
	}

	txns, err := s.rawTxnRepo.ListUnreconciledSince(ctx, ledgerID, since)
	if err != nil {
		return nil, err
	}

	summary := &dto.ReconciliationSummary{Processed: len(txns)}
	if len(txns) == 0 {
		return summary, nil
	}

	// Phase 1: transfer legs come out first so the normal matcher never
	// wrongly claims half of an internal transfer.
	claimed, err := s.transferSvc.DetectTransfers(ctx, ledgerID, txns, actorID)
	if err != nil {
		return nil, err
	}
	summary.TransferLegs = len(claimed)

	// Candidate entries are loaded once for the whole run window and sliced
	// per transaction below.
	lookback := time.Duration(s.policy.LookbackDays) * 24 * time.Hour
	from, to := txns[0].TxnDate, txns[0].TxnDate
	for _, txn := range txns {
		if txn.TxnDate.Before(from) {
			from = txn.TxnDate
		}
		if txn.TxnDate.After(to) {
			to = txn.TxnDate
		}
	}
	openEntries, err := s.journalSvc.ListOpenEntries(ctx, ledgerID, from.Add(-lookback), to.Add(lookback))
	if err != nil {
		return nil, err
	}

	cache := newEmbedCache(s.embedder)
	ruleCache := make(map[string][]domain.ReconciliationRule)
	claimedEntries := make(map[string]bool)

	// Phase 2: score and route everything that is not a transfer leg.
	for _, txn := range txns {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if claimed[txn.RawTxnID] {
			continue
		}

		best, err := s.bestCandidate(ctx, ledgerID, txn, openEntries, claimedEntries, ruleCache, cache)
		if err != nil {
			return nil, err
		}
		if best == nil {
			summary.Unmatched++
			continue
		}

		switch {
		case best.result.Total >= s.policy.AutoAcceptScore:
			if err := s.applyMatch(ctx, ledgerID, txn, *best, domain.MatchAuto, actorID); err != nil {
				if errors.Is(err, apperrors.ErrStaleMatchVersion) {
					logger.Warn("lost match race, skipping", "raw_txn_id", txn.RawTxnID)
					continue
				}
				return nil, err
			}
			if best.candidate.Kind == domain.CandidateJournalEntry {
				claimedEntries[best.candidate.Entry.EntryID] = true
			}
			summary.AutoMatched++

		case best.result.Total >= s.policy.ReviewScore:
			if s.samePendingMatch(ctx, txn, *best) {
				summary.PendingReview++
				continue
			}
			if err := s.applyMatch(ctx, ledgerID, txn, *best, domain.MatchPendingReview, actorID); err != nil {
				if errors.Is(err, apperrors.ErrStaleMatchVersion) {
					logger.Warn("lost match race, skipping", "raw_txn_id", txn.RawTxnID)
					continue
				}
				return nil, err
			}
			summary.PendingReview++

		default:
			summary.Unmatched++
		}
	}

	// Phase 3: pair the transfer legs parked in clearing.
	pairs, err := s.transferSvc.PairTransfers(ctx, ledgerID, actorID)
	if err != nil {
		return nil, err
	}
	summary.TransferPairs = pairs

	if err := s.journalSvc.CheckAccountingEquation(ctx, ledgerID); err != nil {
		return nil, err
	}

	logger.Info("reconciliation run complete",
		"ledger_id", ledgerID,
		"processed", summary.Processed,
		"auto", summary.AutoMatched,
		"pending", summary.PendingReview,
		"unmatched", summary.Unmatched,
		"transfer_legs", summary.TransferLegs,
		"transfer_pairs", summary.TransferPairs,
	)
	return summary, nil
}

// bestCandidate scores every eligible candidate for one raw transaction and
// returns the winner, or nil when there is nothing to score. Ties break by
// nearest date, then lowest candidate ID, so runs are deterministic.
func (s *reconciliationService) bestCandidate(
	ctx context.Context,
	ledgerID string,
	txn domain.RawTransaction,
	openEntries []domain.JournalEntry,
	claimedEntries map[string]bool,
	ruleCache map[string][]domain.ReconciliationRule,
	cache *embedCache,
) (*scoredCandidate, error) {
	dateKey := txn.TxnDate.Format("2006-01-02")
	rules, ok := ruleCache[dateKey]
	if !ok {
		var err error
		rules, err = s.ruleSvc.EffectiveRules(ctx, ledgerID, txn.TxnDate)
		if err != nil {
			return nil, err
		}
		ruleCache[dateKey] = rules
	}

	var matchedRules []domain.ReconciliationRule
	for _, rule := range rules {
		if rule.Predicate.Matches(txn) {
			matchedRules = append(matchedRules, rule)
		}
	}
	ruleMatched := len(matchedRules) > 0

	lookback := time.Duration(s.policy.LookbackDays) * 24 * time.Hour
	rawEmb := cache.embed(ctx, txn.Description)

	var best *scoredCandidate
	consider := func(cand domain.MatchCandidate, result scoring.Result) {
		dateDiff := math.Abs(txn.TxnDate.Sub(cand.Date(txn.TxnDate)).Hours())
		if best == nil || betterCandidate(result.Total, dateDiff, cand.ID(), best.result.Total, best.dateDiff, best.candidate.ID()) {
			best = &scoredCandidate{candidate: cand, result: result, dateDiff: dateDiff}
		}
	}

	for i := range openEntries {
		entry := &openEntries[i]
		if claimedEntries[entry.EntryID] {
			continue
		}
		diff := entry.EntryDate.Sub(txn.TxnDate)
		if diff < -lookback || diff > lookback {
			continue
		}
		result := scoring.Score(scoring.Input{
			RawAmount:          txn.Amount,
			CandidateAmount:    entry.Amount,
			RawDate:            txn.TxnDate,
			CandidateDate:      entry.EntryDate,
			RawEmbedding:       rawEmb,
			CandidateEmbedding: cache.embed(ctx, entry.Memo),
			RuleMatched:        ruleMatched,
			AmountCeiling:      s.policy.AmountCeiling,
		})
		consider(domain.MatchCandidate{Kind: domain.CandidateJournalEntry, Entry: entry}, result)
	}

	for i := range matchedRules {
		rule := &matchedRules[i]
		// A rule posting mirrors the transaction exactly; amount and date
		// factors are perfect by construction.
		result := scoring.Score(scoring.Input{
			RawAmount:          txn.Amount,
			CandidateAmount:    txn.Amount,
			RawDate:            txn.TxnDate,
			CandidateDate:      txn.TxnDate,
			RawEmbedding:       rawEmb,
			CandidateEmbedding: cache.embed(ctx, rule.Name),
			RuleMatched:        true,
			AmountCeiling:      s.policy.AmountCeiling,
		})
		consider(domain.MatchCandidate{Kind: domain.CandidateRulePosting, Rule: rule}, result)
	}

	return best, nil
}

// samePendingMatch reports whether the transaction's active match is already a
// pending match for the same candidate. Re-running then leaves it untouched
// instead of minting an identical version.
func (s *reconciliationService) samePendingMatch(ctx context.Context, txn domain.RawTransaction, best scoredCandidate) bool {
	if txn.ActiveMatchID == nil {
		return false
	}
	active, err := s.matchRepo.FindMatchByID(ctx, *txn.ActiveMatchID)
	if err != nil || active.Status != domain.MatchPendingReview || active.Kind != best.candidate.Kind {
		return false
	}
	switch best.candidate.Kind {
	case domain.CandidateJournalEntry:
		return active.EntryID != nil && *active.EntryID == best.candidate.Entry.EntryID
	case domain.CandidateRulePosting:
		return active.RuleID != nil && *active.RuleID == best.candidate.Rule.RuleID
	}
	return false
}

// applyMatch persists one match version and, for auto acceptance, performs
// the posting side effects: rule candidates post their template entry, and
// the linked entry flips to RECONCILED. The versioned save is the claim on
// the transaction, so it commits before any journal side effect; losing the
// version race then leaves the entry untouched and claimable by the winner's
// next run.
func (s *reconciliationService) applyMatch(ctx context.Context, ledgerID string, txn domain.RawTransaction, best scoredCandidate, status domain.MatchStatus, actorID string) error {
	now := time.Now()
	match := domain.ReconciliationMatch{
		MatchID:   uuid.NewString(),
		LedgerID:  ledgerID,
		RawTxnIDs: []string{txn.RawTxnID},
		Version:   txn.MatchVersion + 1,
		Kind:      best.candidate.Kind,
		Status:    status,
		Score:     best.result.Total,
		Breakdown: best.result.Breakdown,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorID,
		},
	}

	switch best.candidate.Kind {
	case domain.CandidateJournalEntry:
		match.EntryID = &best.candidate.Entry.EntryID
	case domain.CandidateRulePosting:
		match.RuleID = &best.candidate.Rule.RuleID
	}

	if err := s.matchRepo.SaveMatch(ctx, match, map[string]int64{txn.RawTxnID: txn.MatchVersion}); err != nil {
		return err
	}

	if status != domain.MatchAuto {
		return nil
	}
	switch best.candidate.Kind {
	case domain.CandidateJournalEntry:
		return s.journalSvc.MarkEntryReconciled(ctx, ledgerID, best.candidate.Entry.EntryID, actorID)
	case domain.CandidateRulePosting:
		entry, err := s.postRuleEntry(ctx, ledgerID, *best.candidate.Rule, txn, actorID)
		if err != nil {
			return err
		}
		return s.matchRepo.UpdateMatchStatus(ctx, match.MatchID, domain.MatchAuto, &entry.EntryID, actorID, time.Now())
	}
	return nil
}

// postRuleEntry creates and posts the rule's template entry for one raw
// transaction, then marks it reconciled.
func (s *reconciliationService) postRuleEntry(ctx context.Context, ledgerID string, rule domain.ReconciliationRule, txn domain.RawTransaction, actorID string) (*domain.JournalEntry, error) {
	entry, err := s.journalSvc.CreateAndPostEntry(ctx, ledgerID, dto.CreateEntryRequest{
		Date:         txn.TxnDate,
		Memo:         txn.Description,
		CurrencyCode: txn.CurrencyCode,
		Lines: []dto.CreateLineRequest{
			{AccountID: rule.DebitAccountID, Amount: txn.Amount, Direction: domain.Debit},
			{AccountID: rule.CreditAccountID, Amount: txn.Amount, Direction: domain.Credit},
		},
	}, domain.SourceStatement, rule.RuleID)
	if err != nil {
		return nil, err
	}
	if err := s.journalSvc.MarkEntryReconciled(ctx, ledgerID, entry.EntryID, actorID); err != nil {
		return nil, err
	}
	return entry, nil
}

// ConfirmMatch accepts a pending match individually. Confirming an already
// settled match is a no-op; rejected and superseded matches cannot be revived.
func (s *reconciliationService) ConfirmMatch(ctx context.Context, ledgerID string, matchID string, actorID string) (*domain.ReconciliationMatch, error) {
	match, err := s.getMatch(ctx, ledgerID, matchID)
	if err != nil {
		return nil, err
	}

	switch match.Status {
	case domain.MatchAuto, domain.MatchConfirmed:
		return match, nil
	case domain.MatchRejected, domain.MatchSuperseded:
		return nil, fmt.Errorf("%w: match %s is %s and cannot be confirmed", apperrors.ErrConflict, matchID, match.Status)
	}

	var entryID *string
	switch match.Kind {
	case domain.CandidateJournalEntry:
		if match.EntryID == nil {
			return nil, fmt.Errorf("%w: match %s has no linked entry", apperrors.ErrInternal, matchID)
		}
		if err := s.journalSvc.MarkEntryReconciled(ctx, ledgerID, *match.EntryID, actorID); err != nil {
			return nil, err
		}
	case domain.CandidateRulePosting:
		if match.RuleID == nil {
			return nil, fmt.Errorf("%w: match %s has no linked rule", apperrors.ErrInternal, matchID)
		}
		rule, err := s.ruleSvc.GetRuleByID(ctx, ledgerID, *match.RuleID)
		if err != nil {
			return nil, err
		}
		txn, err := s.rawTxnRepo.FindRawTxnByID(ctx, match.RawTxnIDs[0])
		if err != nil {
			return nil, err
		}
		entry, err := s.postRuleEntry(ctx, ledgerID, *rule, *txn, actorID)
		if err != nil {
			return nil, err
		}
		entryID = &entry.EntryID
	}

	if err := s.matchRepo.UpdateMatchStatus(ctx, matchID, domain.MatchConfirmed, entryID, actorID, time.Now()); err != nil {
		return nil, err
	}
	middleware.GetLoggerFromCtx(ctx).Info("match confirmed", "match_id", matchID)
	return s.matchRepo.FindMatchByID(ctx, matchID)
}

// RejectMatch rejects a pending match. The raw transaction stays pointed at
// the rejected version, which keeps the audit trail intact while releasing it
// for future runs.
func (s *reconciliationService) RejectMatch(ctx context.Context, ledgerID string, matchID string, actorID string) (*domain.ReconciliationMatch, error) {
	match, err := s.getMatch(ctx, ledgerID, matchID)
	if err != nil {
		return nil, err
	}

	switch match.Status {
	case domain.MatchRejected:
		return match, nil
	case domain.MatchPendingReview:
	default:
		return nil, fmt.Errorf("%w: match %s is %s and cannot be rejected", apperrors.ErrConflict, matchID, match.Status)
	}

	if err := s.matchRepo.UpdateMatchStatus(ctx, matchID, domain.MatchRejected, nil, actorID, time.Now()); err != nil {
		return nil, err
	}
	middleware.GetLoggerFromCtx(ctx).Info("match rejected", "match_id", matchID)
	return s.matchRepo.FindMatchByID(ctx, matchID)
}

// ConfirmBatch applies the tiered confirmation policy to a set of matches.
// Items at or above the batch threshold confirm; items below stay pending and
// report NEEDS_REVIEW; already settled items are SKIPPED. One failing item
// never aborts the rest, and cancellation stops cleanly between items.
func (s *reconciliationService) ConfirmBatch(ctx context.Context, ledgerID string, req dto.ConfirmBatchRequest, actorID string) (*dto.ConfirmBatchResponse, error) {
	resp := &dto.ConfirmBatchResponse{}

	for _, matchID := range req.MatchIDs {
		if err := ctx.Err(); err != nil {
			return resp, err
		}

		item := dto.BatchItemResult{MatchID: matchID}
		match, err := s.getMatch(ctx, ledgerID, matchID)
		switch {
		case err != nil:
			item.Outcome = dto.BatchOutcomeFailed
			item.Error = err.Error()
			resp.Failed++

		case match.Status != domain.MatchPendingReview:
			item.Outcome = dto.BatchOutcomeSkipped
			resp.Skipped++

		case match.Score < s.policy.BatchAcceptScore:
			item.Outcome = dto.BatchOutcomeNeedsReview
			resp.NeedsReview++

		default:
			if _, err := s.ConfirmMatch(ctx, ledgerID, matchID, actorID); err != nil {
				item.Outcome = dto.BatchOutcomeFailed
				item.Error = err.Error()
				resp.Failed++
			} else {
				item.Outcome = dto.BatchOutcomeConfirmed
				resp.Confirmed++
			}
		}
		resp.Items = append(resp.Items, item)
	}

	return resp, nil
}

// ListPendingMatches retrieves matches awaiting review.
func (s *reconciliationService) ListPendingMatches(ctx context.Context, ledgerID string) ([]domain.ReconciliationMatch, error) {
	if _, err := requireLedger(ctx, s.ledgerSvc, ledgerID); err != nil {
		return nil, err
	}
	return s.matchRepo.ListMatchesByStatus(ctx, ledgerID, []domain.MatchStatus{domain.MatchPendingReview})
}

// ListMatchHistory retrieves the full match version history of a raw
// transaction, oldest first.
func (s *reconciliationService) ListMatchHistory(ctx context.Context, ledgerID string, rawTxnID string) ([]domain.ReconciliationMatch, error) {
	txn, err := s.rawTxnRepo.FindRawTxnByID(ctx, rawTxnID)
	if err != nil {
		return nil, err
	}
	if txn.LedgerID != ledgerID {
		return nil, fmt.Errorf("%w: raw transaction %s", apperrors.ErrNotFound, rawTxnID)
	}
	return s.matchRepo.ListMatchVersions(ctx, rawTxnID)
}

func (s *reconciliationService) getMatch(ctx context.Context, ledgerID string, matchID string) (*domain.ReconciliationMatch, error) {
	match, err := s.matchRepo.FindMatchByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.LedgerID != ledgerID {
		return nil, fmt.Errorf("%w: match %s", apperrors.ErrNotFound, matchID)
	}
	return match, nil
}
