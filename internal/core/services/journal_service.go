package services

import (
	"context"
	"fmt"
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

// journalService owns journal entries and enforces the double-entry
// invariants: balanced postings, immutability after POSTED, corrections only
// through linked reversals.
type journalService struct {
	journalRepo portsrepo.JournalRepositoryWithTx
	accountSvc  portssvc.AccountSvcFacade
	ledgerSvc   portssvc.LedgerSvcFacade
}

// NewJournalService creates a new JournalService.
func NewJournalService(journalRepo portsrepo.JournalRepositoryWithTx, accountSvc portssvc.AccountSvcFacade, ledgerSvc portssvc.LedgerSvcFacade) portssvc.JournalSvcFacade {
	return &journalService{
		journalRepo: journalRepo,
		accountSvc:  accountSvc,
		ledgerSvc:   ledgerSvc,
	}
}

var _ portssvc.JournalSvcFacade = (*journalService)(nil)

// buildEntry converts a create request into a DRAFT entry with its lines,
// validating balance and account membership along the way.
func (s *journalService) buildEntry(ctx context.Context, ledgerID string, req dto.CreateEntryRequest, source domain.EntrySource, actorID string) (*domain.JournalEntry, []domain.JournalLine, error) {
	if _, err := requireLedger(ctx, s.ledgerSvc, ledgerID); err != nil {
		return nil, nil, err
	}

	accountIDs := make([]string, 0, len(req.Lines))
	for _, line := range req.Lines {
		accountIDs = append(accountIDs, line.AccountID)
	}
	accounts, err := s.accountSvc.GetAccountsByIDs(ctx, ledgerID, accountIDs)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	entryID := uuid.NewString()
	audit := domain.AuditFields{
		CreatedAt:     now,
		CreatedBy:     actorID,
		LastUpdatedAt: now,
		LastUpdatedBy: actorID,
	}

	lines := make([]domain.JournalLine, 0, len(req.Lines))
	for _, lineReq := range req.Lines {
		account := accounts[lineReq.AccountID]
		if !account.IsActive {
			return nil, nil, fmt.Errorf("%w: account %s is inactive", apperrors.ErrValidation, account.AccountID)
		}

		fxRate := decimal.NewFromInt(1)
		if lineReq.FXRate != nil {
			if lineReq.FXRate.LessThanOrEqual(decimal.Zero) {
				return nil, nil, fmt.Errorf("%w: fx rate must be positive", apperrors.ErrValidation)
			}
			fxRate = *lineReq.FXRate
		}
		lineDate := req.Date
		if lineReq.LineDate != nil {
			lineDate = *lineReq.LineDate
		}

		lines = append(lines, domain.JournalLine{
			LineID:       uuid.NewString(),
			EntryID:      entryID,
			AccountID:    lineReq.AccountID,
			Amount:       lineReq.Amount,
			Direction:    lineReq.Direction,
			CurrencyCode: account.CurrencyCode,
			FXRate:       fxRate,
			LineDate:     lineDate,
			Notes:        lineReq.Notes,
			AuditFields:  audit,
		})
	}

	if err := accounting.ValidateEntryBalance(lines); err != nil {
		return nil, nil, err
	}

	entry := &domain.JournalEntry{
		EntryID:      entryID,
		LedgerID:     ledgerID,
		EntryDate:    req.Date,
		Memo:         req.Memo,
		CurrencyCode: req.CurrencyCode,
		Status:       domain.Draft,
		Source:       source,
		Amount:       debitTotal(lines),
		AuditFields:  audit,
	}
	return entry, lines, nil
}

// debitTotal is the entry's economic value: the debit side total in base
// currency. Both sides agree within tolerance for a balanced entry.
func debitTotal(lines []domain.JournalLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		if line.Direction == domain.Debit {
			total = total.Add(line.BaseAmount())
		}
	}
	return total
}

// computeBalanceChanges aggregates the signed balance delta per account in
// account currency.
func (s *journalService) computeBalanceChanges(ctx context.Context, ledgerID string, lines []domain.JournalLine) (map[string]decimal.Decimal, error) {
	accountIDs := make([]string, 0, len(lines))
	for _, line := range lines {
		accountIDs = append(accountIDs, line.AccountID)
	}
	accounts, err := s.accountSvc.GetAccountsByIDs(ctx, ledgerID, accountIDs)
	if err != nil {
		return nil, err
	}

	changes := make(map[string]decimal.Decimal, len(accounts))
	for _, line := range lines {
		signed, err := accounting.CalculateSignedAmount(line, accounts[line.AccountID].AccountType)
		if err != nil {
			return nil, err
		}
		changes[line.AccountID] = changes[line.AccountID].Add(signed)
	}
	return changes, nil
}

// CreateDraftEntry validates and persists a DRAFT entry.
func (s *journalService) CreateDraftEntry(ctx context.Context, ledgerID string, req dto.CreateEntryRequest, actorID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	entry, lines, err := s.buildEntry(ctx, ledgerID, req, domain.SourceManual, actorID)
	if err != nil {
		return nil, err
	}

	if err := s.journalRepo.SaveDraftEntry(ctx, *entry, lines); err != nil {
		logger.Error("failed to save draft entry", "error", err, "ledger_id", ledgerID)
		return nil, err
	}

	entry.Lines = lines
	logger.Info("draft entry created", "entry_id", entry.EntryID, "amount", entry.Amount)
	return entry, nil
}

// PostEntry flips a DRAFT entry to POSTED after re-validating balance. The
// flip plus balance application is atomic, and a lost account-lock race comes
// back as the retryable ErrLockTimeout.
func (s *journalService) PostEntry(ctx context.Context, ledgerID string, entryID string, actorID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	entry, err := s.GetEntryByID(ctx, ledgerID, entryID)
	if err != nil {
		return nil, err
	}
	if entry.Status != domain.Draft {
		return nil, fmt.Errorf("%w: entry %s is %s, not a draft", apperrors.ErrConflict, entryID, entry.Status)
	}

	if err := accounting.ValidateEntryBalance(entry.Lines); err != nil {
		return nil, err
	}

	changes, err := s.computeBalanceChanges(ctx, ledgerID, entry.Lines)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.journalRepo.PostEntry(ctx, entryID, changes, actorID, now); err != nil {
		logger.Error("failed to post entry", "error", err, "entry_id", entryID)
		return nil, err
	}

	entry.Status = domain.Posted
	entry.LastUpdatedAt = now
	entry.LastUpdatedBy = actorID
	logger.Info("entry posted", "entry_id", entryID, "amount", entry.Amount)
	return entry, nil
}

// CreateAndPostEntry creates a draft and posts it in one command. Used by
// manual flows that skip the draft stage and by the reconciliation engine for
// rule and transfer postings.
func (s *journalService) CreateAndPostEntry(ctx context.Context, ledgerID string, req dto.CreateEntryRequest, source domain.EntrySource, actorID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	entry, lines, err := s.buildEntry(ctx, ledgerID, req, source, actorID)
	if err != nil {
		return nil, err
	}
	entry.Status = domain.Posted

	changes, err := s.computeBalanceChanges(ctx, ledgerID, lines)
	if err != nil {
		return nil, err
	}

	if err := s.journalRepo.SavePostedEntry(ctx, *entry, lines, changes); err != nil {
		logger.Error("failed to save posted entry", "error", err, "ledger_id", ledgerID)
		return nil, err
	}

	entry.Lines = lines
	logger.Info("entry posted", "entry_id", entry.EntryID, "source", entry.Source, "amount", entry.Amount)
	return entry, nil
}

// VoidEntry voids a POSTED or RECONCILED entry by posting a sign-flipped
// reversal and linking the two records. The original is never edited; both
// entries stay queryable forever.
func (s *journalService) VoidEntry(ctx context.Context, ledgerID string, entryID string, reason string, actorID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	original, err := s.GetEntryByID(ctx, ledgerID, entryID)
	if err != nil {
		return nil, err
	}
	switch original.Status {
	case domain.Posted, domain.Reconciled:
	default:
		return nil, fmt.Errorf("%w: entry %s is %s and cannot be voided", apperrors.ErrConflict, entryID, original.Status)
	}
	if original.ReversingEntryID != nil {
		return nil, fmt.Errorf("%w: entry %s", apperrors.ErrAlreadyVoided, entryID)
	}

	now := time.Now()
	audit := domain.AuditFields{
		CreatedAt:     now,
		CreatedBy:     actorID,
		LastUpdatedAt: now,
		LastUpdatedBy: actorID,
	}

	reversal := domain.JournalEntry{
		EntryID:         uuid.NewString(),
		LedgerID:        ledgerID,
		EntryDate:       now,
		Memo:            fmt.Sprintf("Void (%s): %s", reason, original.Memo),
		CurrencyCode:    original.CurrencyCode,
		Status:          domain.Posted,
		Source:          domain.SourceSystem,
		OriginalEntryID: &original.EntryID,
		Amount:          original.Amount,
		AuditFields:     audit,
	}

	reversalLines := make([]domain.JournalLine, 0, len(original.Lines))
	for _, line := range original.Lines {
		reversalLines = append(reversalLines, domain.JournalLine{
			LineID:       uuid.NewString(),
			EntryID:      reversal.EntryID,
			AccountID:    line.AccountID,
			Amount:       line.Amount,
			Direction:    line.Direction.Opposite(),
			CurrencyCode: line.CurrencyCode,
			FXRate:       line.FXRate,
			LineDate:     now,
			Notes:        line.Notes,
			AuditFields:  audit,
		})
	}

	changes, err := s.computeBalanceChanges(ctx, ledgerID, reversalLines)
	if err != nil {
		return nil, err
	}

	if err := s.journalRepo.SaveReversalEntry(ctx, original.EntryID, reversal, reversalLines, changes); err != nil {
		logger.Error("failed to void entry", "error", err, "entry_id", entryID)
		return nil, err
	}

	reversal.Lines = reversalLines
	logger.Info("entry voided", "entry_id", entryID, "reversal_id", reversal.EntryID, "reason", reason)
	return &reversal, nil
}

// MarkEntryReconciled transitions a POSTED entry to RECONCILED once a match
// claims it.
func (s *journalService) MarkEntryReconciled(ctx context.Context, ledgerID string, entryID string, actorID string) error {
	entry, err := s.journalRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		return err
	}
	if entry.LedgerID != ledgerID {
		return fmt.Errorf("%w: entry %s", apperrors.ErrNotFound, entryID)
	}
	if entry.Status == domain.Reconciled {
		return nil
	}
	if entry.Status != domain.Posted {
		return fmt.Errorf("%w: entry %s is %s and cannot be reconciled", apperrors.ErrConflict, entryID, entry.Status)
	}
	return s.journalRepo.UpdateEntryStatusAndLinks(ctx, entryID, domain.Reconciled, nil, nil, actorID, time.Now())
}

// GetEntryByID retrieves an entry with its lines.
func (s *journalService) GetEntryByID(ctx context.Context, ledgerID string, entryID string) (*domain.JournalEntry, error) {
	entry, err := s.journalRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.LedgerID != ledgerID {
		return nil, fmt.Errorf("%w: entry %s", apperrors.ErrNotFound, entryID)
	}
	lines, err := s.journalRepo.FindLinesByEntryID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	entry.Lines = lines
	return entry, nil
}

// ListEntries retrieves a paginated, filterable list of entries.
func (s *journalService) ListEntries(ctx context.Context, ledgerID string, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error) {
	if _, err := requireLedger(ctx, s.ledgerSvc, ledgerID); err != nil {
		return nil, err
	}
	entries, nextToken, err := s.journalRepo.ListEntries(ctx, ledgerID, params.Statuses, params.Limit, params.NextToken)
	if err != nil {
		return nil, err
	}

	resp := &dto.ListEntriesResponse{NextToken: nextToken}
	for i := range entries {
		resp.Entries = append(resp.Entries, dto.ToEntryResponse(&entries[i]))
	}
	return resp, nil
}

// ListOpenEntries retrieves unreconciled POSTED entries inside a window.
func (s *journalService) ListOpenEntries(ctx context.Context, ledgerID string, from, to time.Time) ([]domain.JournalEntry, error) {
	return s.journalRepo.ListOpenEntries(ctx, ledgerID, from, to)
}

// BalanceOf computes an account balance as of a date by replaying POSTED and
// RECONCILED lines. Drafts never affect balance.
func (s *journalService) BalanceOf(ctx context.Context, ledgerID string, accountID string, asOf time.Time) (decimal.Decimal, error) {
	if _, err := s.accountSvc.GetAccountByID(ctx, ledgerID, accountID); err != nil {
		return decimal.Zero, err
	}
	return s.journalRepo.SumPostedLines(ctx, accountID, asOf)
}

// CheckAccountingEquation verifies the trial balance for a ledger. With every
// balance stated in its normal sign, debit-normal totals minus credit-normal
// totals must come out to zero.
func (s *journalService) CheckAccountingEquation(ctx context.Context, ledgerID string) error {
	accounts, err := s.accountSvc.ListAccounts(ctx, ledgerID, true)
	if err != nil {
		return err
	}

	now := time.Now()
	delta := decimal.Zero
	for _, account := range accounts {
		balance, err := s.journalRepo.SumPostedLines(ctx, account.AccountID, now)
		if err != nil {
			return err
		}
		if account.AccountType.DebitNormal() {
			delta = delta.Add(balance)
		} else {
			delta = delta.Sub(balance)
		}
	}

	if delta.Abs().GreaterThan(accounting.BalanceTolerance) {
		return fmt.Errorf("%w: trial balance off by %s", apperrors.ErrAccountingEquation, delta.String())
	}
	return nil
}
