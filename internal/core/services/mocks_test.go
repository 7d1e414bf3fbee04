package services_test

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/mitra-labs/ledgercore/internal/core/domain"
	portsrepo "github.com/mitra-labs/ledgercore/internal/core/ports/repositories"
	portssvc "github.com/mitra-labs/ledgercore/internal/core/ports/services"
	"github.com/mitra-labs/ledgercore/internal/dto"
)

// --- Mock LedgerRepository ---

type MockLedgerRepository struct {
	mock.Mock
}

var _ portsrepo.LedgerRepositoryFacade = (*MockLedgerRepository)(nil)

func (m *MockLedgerRepository) SaveLedger(ctx context.Context, ledger domain.Ledger) error {
	args := m.Called(ctx, ledger)
	return args.Error(0)
}

func (m *MockLedgerRepository) FindLedgerByID(ctx context.Context, ledgerID string) (*domain.Ledger, error) {
	args := m.Called(ctx, ledgerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ledger), args.Error(1)
}

func (m *MockLedgerRepository) ListLedgers(ctx context.Context) ([]domain.Ledger, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Ledger), args.Error(1)
}

// --- Mock AccountRepository ---

type MockAccountRepository struct {
	mock.Mock
}

var _ portsrepo.AccountRepositoryFacade = (*MockAccountRepository)(nil)

func (m *MockAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAccountByInstitutionRef(ctx context.Context, ledgerID string, institutionRef string) (*domain.Account, error) {
	args := m.Called(ctx, ledgerID, institutionRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindSystemAccount(ctx context.Context, ledgerID string, name string) (*domain.Account, error) {
	args := m.Called(ctx, ledgerID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) ListAccounts(ctx context.Context, ledgerID string, includeSystem bool) ([]domain.Account, error) {
	args := m.Called(ctx, ledgerID, includeSystem)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) DeactivateAccount(ctx context.Context, accountID string, actorID string, now time.Time) error {
	args := m.Called(ctx, accountID, actorID, now)
	return args.Error(0)
}

func (m *MockAccountRepository) FindAccountsByIDsForUpdate(ctx context.Context, tx pgx.Tx, accountIDs []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, tx, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) UpdateAccountBalancesInTx(ctx context.Context, tx pgx.Tx, balanceChanges map[string]decimal.Decimal, actorID string, now time.Time) error {
	args := m.Called(ctx, tx, balanceChanges, actorID, now)
	return args.Error(0)
}

// --- Mock JournalRepository ---

type MockJournalRepository struct {
	mock.Mock
}

var _ portsrepo.JournalRepositoryWithTx = (*MockJournalRepository)(nil)

func (m *MockJournalRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalRepository) ListEntries(ctx context.Context, ledgerID string, statuses []domain.EntryStatus, limit int, nextToken *string) ([]domain.JournalEntry, *string, error) {
	args := m.Called(ctx, ledgerID, statuses, limit, nextToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var returnedToken *string
	if args.Get(1) != nil {
		tokenVal := args.Get(1).(string)
		returnedToken = &tokenVal
	}
	return args.Get(0).([]domain.JournalEntry), returnedToken, args.Error(2)
}

func (m *MockJournalRepository) ListOpenEntries(ctx context.Context, ledgerID string, from, to time.Time) ([]domain.JournalEntry, error) {
	args := m.Called(ctx, ledgerID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.JournalEntry), args.Error(1)
}

func (m *MockJournalRepository) FindLinesByEntryID(ctx context.Context, entryID string) ([]domain.JournalLine, error) {
	args := m.Called(ctx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.JournalLine), args.Error(1)
}

func (m *MockJournalRepository) SumPostedLines(ctx context.Context, accountID string, asOf time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, accountID, asOf)
	if args.Get(0) == nil {
		return decimal.Zero, args.Error(1)
	}
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockJournalRepository) SaveDraftEntry(ctx context.Context, entry domain.JournalEntry, lines []domain.JournalLine) error {
	args := m.Called(ctx, entry, lines)
	return args.Error(0)
}

func (m *MockJournalRepository) PostEntry(ctx context.Context, entryID string, balanceChanges map[string]decimal.Decimal, actorID string, now time.Time) error {
	args := m.Called(ctx, entryID, balanceChanges, actorID, now)
	return args.Error(0)
}

func (m *MockJournalRepository) SavePostedEntry(ctx context.Context, entry domain.JournalEntry, lines []domain.JournalLine, balanceChanges map[string]decimal.Decimal) error {
	args := m.Called(ctx, entry, lines, balanceChanges)
	return args.Error(0)
}

func (m *MockJournalRepository) UpdateEntryStatusAndLinks(ctx context.Context, entryID string, status domain.EntryStatus, reversingEntryID *string, originalEntryID *string, actorID string, now time.Time) error {
	args := m.Called(ctx, entryID, status, reversingEntryID, originalEntryID, actorID, now)
	return args.Error(0)
}

func (m *MockJournalRepository) SaveReversalEntry(ctx context.Context, originalEntryID string, reversal domain.JournalEntry, lines []domain.JournalLine, balanceChanges map[string]decimal.Decimal) error {
	args := m.Called(ctx, originalEntryID, reversal, lines, balanceChanges)
	return args.Error(0)
}

func (m *MockJournalRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Tx), args.Error(1)
}

func (m *MockJournalRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockJournalRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

// --- Mock RawTransactionRepository ---

type MockRawTxnRepository struct {
	mock.Mock
}

var _ portsrepo.RawTransactionRepositoryFacade = (*MockRawTxnRepository)(nil)

func (m *MockRawTxnRepository) FindRawTxnByID(ctx context.Context, rawTxnID string) (*domain.RawTransaction, error) {
	args := m.Called(ctx, rawTxnID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RawTransaction), args.Error(1)
}

func (m *MockRawTxnRepository) FindRawTxnsByIDs(ctx context.Context, rawTxnIDs []string) (map[string]domain.RawTransaction, error) {
	args := m.Called(ctx, rawTxnIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.RawTransaction), args.Error(1)
}

func (m *MockRawTxnRepository) ListUnreconciledSince(ctx context.Context, ledgerID string, since time.Time) ([]domain.RawTransaction, error) {
	args := m.Called(ctx, ledgerID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RawTransaction), args.Error(1)
}

func (m *MockRawTxnRepository) ListRawTxns(ctx context.Context, ledgerID string, limit int, nextToken *string) ([]domain.RawTransaction, *string, error) {
	args := m.Called(ctx, ledgerID, limit, nextToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var returnedToken *string
	if args.Get(1) != nil {
		tokenVal := args.Get(1).(string)
		returnedToken = &tokenVal
	}
	return args.Get(0).([]domain.RawTransaction), returnedToken, args.Error(2)
}

func (m *MockRawTxnRepository) AppendBatch(ctx context.Context, doc domain.StatementDocument, txns []domain.RawTransaction) error {
	args := m.Called(ctx, doc, txns)
	return args.Error(0)
}

// --- Mock MatchRepository ---

type MockMatchRepository struct {
	mock.Mock
}

var _ portsrepo.MatchRepositoryFacade = (*MockMatchRepository)(nil)

func (m *MockMatchRepository) FindMatchByID(ctx context.Context, matchID string) (*domain.ReconciliationMatch, error) {
	args := m.Called(ctx, matchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReconciliationMatch), args.Error(1)
}

func (m *MockMatchRepository) ListMatchesByStatus(ctx context.Context, ledgerID string, statuses []domain.MatchStatus) ([]domain.ReconciliationMatch, error) {
	args := m.Called(ctx, ledgerID, statuses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ReconciliationMatch), args.Error(1)
}

func (m *MockMatchRepository) ListMatchVersions(ctx context.Context, rawTxnID string) ([]domain.ReconciliationMatch, error) {
	args := m.Called(ctx, rawTxnID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ReconciliationMatch), args.Error(1)
}

func (m *MockMatchRepository) ListOpenTransferLegs(ctx context.Context, ledgerID string) ([]domain.ReconciliationMatch, error) {
	args := m.Called(ctx, ledgerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ReconciliationMatch), args.Error(1)
}

func (m *MockMatchRepository) SaveMatch(ctx context.Context, match domain.ReconciliationMatch, expectedVersions map[string]int64) error {
	args := m.Called(ctx, match, expectedVersions)
	return args.Error(0)
}

func (m *MockMatchRepository) UpdateMatchStatus(ctx context.Context, matchID string, status domain.MatchStatus, entryID *string, actorID string, now time.Time) error {
	args := m.Called(ctx, matchID, status, entryID, actorID, now)
	return args.Error(0)
}

// --- Mock RuleRepository ---

type MockRuleRepository struct {
	mock.Mock
}

var _ portsrepo.RuleRepositoryFacade = (*MockRuleRepository)(nil)

func (m *MockRuleRepository) SaveRule(ctx context.Context, rule domain.ReconciliationRule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

func (m *MockRuleRepository) UpdateRule(ctx context.Context, rule domain.ReconciliationRule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

func (m *MockRuleRepository) FindRuleByID(ctx context.Context, ruleID string) (*domain.ReconciliationRule, error) {
	args := m.Called(ctx, ruleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReconciliationRule), args.Error(1)
}

func (m *MockRuleRepository) ListRules(ctx context.Context, ledgerID string) ([]domain.ReconciliationRule, error) {
	args := m.Called(ctx, ledgerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ReconciliationRule), args.Error(1)
}

func (m *MockRuleRepository) ListEffectiveRules(ctx context.Context, ledgerID string, date time.Time) ([]domain.ReconciliationRule, error) {
	args := m.Called(ctx, ledgerID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ReconciliationRule), args.Error(1)
}

// --- Mock LedgerService ---

type MockLedgerService struct {
	mock.Mock
}

var _ portssvc.LedgerSvcFacade = (*MockLedgerService)(nil)

func (m *MockLedgerService) CreateLedger(ctx context.Context, req dto.CreateLedgerRequest, actorID string) (*domain.Ledger, error) {
	args := m.Called(ctx, req, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ledger), args.Error(1)
}

func (m *MockLedgerService) GetLedgerByID(ctx context.Context, ledgerID string) (*domain.Ledger, error) {
	args := m.Called(ctx, ledgerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ledger), args.Error(1)
}

func (m *MockLedgerService) ListLedgers(ctx context.Context) ([]domain.Ledger, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Ledger), args.Error(1)
}

// --- Mock AccountService ---

type MockAccountService struct {
	mock.Mock
}

var _ portssvc.AccountSvcFacade = (*MockAccountService)(nil)

func (m *MockAccountService) GetAccountByID(ctx context.Context, ledgerID string, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, ledgerID, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountService) GetAccountsByIDs(ctx context.Context, ledgerID string, accountIDs []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, ledgerID, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}

func (m *MockAccountService) ListAccounts(ctx context.Context, ledgerID string, includeSystem bool) ([]domain.Account, error) {
	args := m.Called(ctx, ledgerID, includeSystem)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountService) ResolveByInstitutionRef(ctx context.Context, ledgerID string, institutionRef string) (*domain.Account, error) {
	args := m.Called(ctx, ledgerID, institutionRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountService) CreateAccount(ctx context.Context, ledgerID string, req dto.CreateAccountRequest, actorID string) (*domain.Account, error) {
	args := m.Called(ctx, ledgerID, req, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountService) DeactivateAccount(ctx context.Context, ledgerID string, accountID string, actorID string) error {
	args := m.Called(ctx, ledgerID, accountID, actorID)
	return args.Error(0)
}

func (m *MockAccountService) GetOrCreateProcessingAccount(ctx context.Context, ledgerID string, actorID string) (*domain.Account, error) {
	args := m.Called(ctx, ledgerID, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

// --- Mock JournalService ---

type MockJournalService struct {
	mock.Mock
}

var _ portssvc.JournalSvcFacade = (*MockJournalService)(nil)

func (m *MockJournalService) CreateDraftEntry(ctx context.Context, ledgerID string, req dto.CreateEntryRequest, actorID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, ledgerID, req, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalService) PostEntry(ctx context.Context, ledgerID string, entryID string, actorID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, ledgerID, entryID, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalService) CreateAndPostEntry(ctx context.Context, ledgerID string, req dto.CreateEntryRequest, source domain.EntrySource, actorID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, ledgerID, req, source, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalService) VoidEntry(ctx context.Context, ledgerID string, entryID string, reason string, actorID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, ledgerID, entryID, reason, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalService) MarkEntryReconciled(ctx context.Context, ledgerID string, entryID string, actorID string) error {
	args := m.Called(ctx, ledgerID, entryID, actorID)
	return args.Error(0)
}

func (m *MockJournalService) GetEntryByID(ctx context.Context, ledgerID string, entryID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, ledgerID, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalService) ListEntries(ctx context.Context, ledgerID string, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error) {
	args := m.Called(ctx, ledgerID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListEntriesResponse), args.Error(1)
}

func (m *MockJournalService) ListOpenEntries(ctx context.Context, ledgerID string, from, to time.Time) ([]domain.JournalEntry, error) {
	args := m.Called(ctx, ledgerID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.JournalEntry), args.Error(1)
}

func (m *MockJournalService) BalanceOf(ctx context.Context, ledgerID string, accountID string, asOf time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, ledgerID, accountID, asOf)
	if args.Get(0) == nil {
		return decimal.Zero, args.Error(1)
	}
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockJournalService) CheckAccountingEquation(ctx context.Context, ledgerID string) error {
	args := m.Called(ctx, ledgerID)
	return args.Error(0)
}

// --- Mock RuleService ---

type MockRuleService struct {
	mock.Mock
}

var _ portssvc.RuleSvcFacade = (*MockRuleService)(nil)

func (m *MockRuleService) CreateRule(ctx context.Context, ledgerID string, req dto.CreateRuleRequest, actorID string) (*domain.ReconciliationRule, error) {
	args := m.Called(ctx, ledgerID, req, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReconciliationRule), args.Error(1)
}

func (m *MockRuleService) UpdateRule(ctx context.Context, ledgerID string, ruleID string, req dto.UpdateRuleRequest, actorID string) (*domain.ReconciliationRule, error) {
	args := m.Called(ctx, ledgerID, ruleID, req, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReconciliationRule), args.Error(1)
}

func (m *MockRuleService) GetRuleByID(ctx context.Context, ledgerID string, ruleID string) (*domain.ReconciliationRule, error) {
	args := m.Called(ctx, ledgerID, ruleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReconciliationRule), args.Error(1)
}

func (m *MockRuleService) ListRules(ctx context.Context, ledgerID string) ([]domain.ReconciliationRule, error) {
	args := m.Called(ctx, ledgerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ReconciliationRule), args.Error(1)
}

func (m *MockRuleService) EffectiveRules(ctx context.Context, ledgerID string, date time.Time) ([]domain.ReconciliationRule, error) {
	args := m.Called(ctx, ledgerID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ReconciliationRule), args.Error(1)
}

// --- Mock TransferService ---

type MockTransferService struct {
	mock.Mock
}

var _ portssvc.TransferSvcFacade = (*MockTransferService)(nil)

func (m *MockTransferService) DetectTransfers(ctx context.Context, ledgerID string, txns []domain.RawTransaction, actorID string) (map[string]bool, error) {
	args := m.Called(ctx, ledgerID, txns, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]bool), args.Error(1)
}

func (m *MockTransferService) PairTransfers(ctx context.Context, ledgerID string, actorID string) (int, error) {
	args := m.Called(ctx, ledgerID, actorID)
	return args.Int(0), args.Error(1)
}

func (m *MockTransferService) ListUnpairedTransfers(ctx context.Context, ledgerID string) ([]domain.ReconciliationMatch, error) {
	args := m.Called(ctx, ledgerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ReconciliationMatch), args.Error(1)
}
