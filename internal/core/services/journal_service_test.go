package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/mitra-labs/ledgercore/internal/apperrors"
	"github.com/mitra-labs/ledgercore/internal/core/domain"
	portssvc "github.com/mitra-labs/ledgercore/internal/core/ports/services"
	"github.com/mitra-labs/ledgercore/internal/core/services"
	"github.com/mitra-labs/ledgercore/internal/dto"
)

type JournalServiceTestSuite struct {
	suite.Suite
	mockJournalRepo *MockJournalRepository
	mockAccountSvc  *MockAccountService
	mockLedgerSvc   *MockLedgerService
	service         portssvc.JournalSvcFacade

	ledgerID       string
	actorID        string
	cashAccount    domain.Account
	revenueAccount domain.Account
}

func (suite *JournalServiceTestSuite) SetupTest() {
	suite.mockJournalRepo = new(MockJournalRepository)
	suite.mockAccountSvc = new(MockAccountService)
	suite.mockLedgerSvc = new(MockLedgerService)
	suite.service = services.NewJournalService(suite.mockJournalRepo, suite.mockAccountSvc, suite.mockLedgerSvc)

	suite.ledgerID = uuid.NewString()
	suite.actorID = uuid.NewString()

	suite.cashAccount = domain.Account{
		AccountID:    uuid.NewString(),
		LedgerID:     suite.ledgerID,
		AccountType:  domain.Asset,
		CurrencyCode: "EUR",
		IsActive:     true,
	}
	suite.revenueAccount = domain.Account{
		AccountID:    uuid.NewString(),
		LedgerID:     suite.ledgerID,
		AccountType:  domain.Income,
		CurrencyCode: "EUR",
		IsActive:     true,
	}
}

func (suite *JournalServiceTestSuite) expectLedger() {
	suite.mockLedgerSvc.On("GetLedgerByID", mock.Anything, suite.ledgerID).
		Return(&domain.Ledger{LedgerID: suite.ledgerID, BaseCurrencyCode: "EUR"}, nil)
}

func (suite *JournalServiceTestSuite) balancedRequest(amount int64) dto.CreateEntryRequest {
	return dto.CreateEntryRequest{
		Date:         time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		Memo:         "Invoice 42",
		CurrencyCode: "EUR",
		Lines: []dto.CreateLineRequest{
			{AccountID: suite.cashAccount.AccountID, Amount: decimal.NewFromInt(amount), Direction: domain.Debit},
			{AccountID: suite.revenueAccount.AccountID, Amount: decimal.NewFromInt(amount), Direction: domain.Credit},
		},
	}
}

func (suite *JournalServiceTestSuite) accountsMap() map[string]domain.Account {
	return map[string]domain.Account{
		suite.cashAccount.AccountID:    suite.cashAccount,
		suite.revenueAccount.AccountID: suite.revenueAccount,
	}
}

func (suite *JournalServiceTestSuite) TestCreateDraftEntry_Success() {
	ctx := context.Background()
	suite.expectLedger()
	suite.mockAccountSvc.On("GetAccountsByIDs", ctx, suite.ledgerID, mock.Anything).Return(suite.accountsMap(), nil).Once()
	suite.mockJournalRepo.On("SaveDraftEntry", ctx, mock.AnythingOfType("domain.JournalEntry"), mock.AnythingOfType("[]domain.JournalLine")).Return(nil).Once()

	entry, err := suite.service.CreateDraftEntry(ctx, suite.ledgerID, suite.balancedRequest(100), suite.actorID)

	suite.Require().NoError(err)
	suite.Require().NotNil(entry)
	suite.Equal(domain.Draft, entry.Status)
	suite.Equal(domain.SourceManual, entry.Source)
	suite.True(entry.Amount.Equal(decimal.NewFromInt(100)))
	suite.Len(entry.Lines, 2)
	// Line currency follows the account, not the request.
	suite.Equal("EUR", entry.Lines[0].CurrencyCode)
	suite.mockJournalRepo.AssertExpectations(suite.T())
}

func (suite *JournalServiceTestSuite) TestCreateDraftEntry_Unbalanced() {
	ctx := context.Background()
	suite.expectLedger()
	suite.mockAccountSvc.On("GetAccountsByIDs", ctx, suite.ledgerID, mock.Anything).Return(suite.accountsMap(), nil).Once()

	req := suite.balancedRequest(100)
	req.Lines[1].Amount = decimal.NewFromInt(90)

	_, err := suite.service.CreateDraftEntry(ctx, suite.ledgerID, req, suite.actorID)

	suite.ErrorIs(err, apperrors.ErrUnbalancedEntry)
	suite.mockJournalRepo.AssertNotCalled(suite.T(), "SaveDraftEntry", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *JournalServiceTestSuite) TestCreateDraftEntry_InactiveAccount() {
	ctx := context.Background()
	suite.expectLedger()

	inactive := suite.cashAccount
	inactive.IsActive = false
	accounts := suite.accountsMap()
	accounts[inactive.AccountID] = inactive
	suite.mockAccountSvc.On("GetAccountsByIDs", ctx, suite.ledgerID, mock.Anything).Return(accounts, nil).Once()

	_, err := suite.service.CreateDraftEntry(ctx, suite.ledgerID, suite.balancedRequest(100), suite.actorID)

	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *JournalServiceTestSuite) TestCreateDraftEntry_NegativeFXRate() {
	ctx := context.Background()
	suite.expectLedger()
	suite.mockAccountSvc.On("GetAccountsByIDs", ctx, suite.ledgerID, mock.Anything).Return(suite.accountsMap(), nil).Once()

	req := suite.balancedRequest(100)
	bad := decimal.NewFromInt(-1)
	req.Lines[0].FXRate = &bad

	_, err := suite.service.CreateDraftEntry(ctx, suite.ledgerID, req, suite.actorID)

	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *JournalServiceTestSuite) TestPostEntry_Success() {
	ctx := context.Background()
	entryID := uuid.NewString()
	draft := &domain.JournalEntry{
		EntryID:  entryID,
		LedgerID: suite.ledgerID,
		Status:   domain.Draft,
	}
	lines := []domain.JournalLine{
		{AccountID: suite.cashAccount.AccountID, Amount: decimal.NewFromInt(50), Direction: domain.Debit, FXRate: decimal.NewFromInt(1)},
		{AccountID: suite.revenueAccount.AccountID, Amount: decimal.NewFromInt(50), Direction: domain.Credit, FXRate: decimal.NewFromInt(1)},
	}

	suite.mockJournalRepo.On("FindEntryByID", ctx, entryID).Return(draft, nil).Once()
	suite.mockJournalRepo.On("FindLinesByEntryID", ctx, entryID).Return(lines, nil).Once()
	suite.mockAccountSvc.On("GetAccountsByIDs", ctx, suite.ledgerID, mock.Anything).Return(suite.accountsMap(), nil).Once()
	suite.mockJournalRepo.On("PostEntry", ctx, entryID, mock.MatchedBy(func(changes map[string]decimal.Decimal) bool {
		// Debit to asset raises cash, credit to income raises revenue.
		return changes[suite.cashAccount.AccountID].Equal(decimal.NewFromInt(50)) &&
			changes[suite.revenueAccount.AccountID].Equal(decimal.NewFromInt(50))
	}), suite.actorID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	posted, err := suite.service.PostEntry(ctx, suite.ledgerID, entryID, suite.actorID)

	suite.Require().NoError(err)
	suite.Equal(domain.Posted, posted.Status)
	suite.mockJournalRepo.AssertExpectations(suite.T())
}

func (suite *JournalServiceTestSuite) TestPostEntry_NotDraft() {
	ctx := context.Background()
	entryID := uuid.NewString()
	posted := &domain.JournalEntry{EntryID: entryID, LedgerID: suite.ledgerID, Status: domain.Posted}

	suite.mockJournalRepo.On("FindEntryByID", ctx, entryID).Return(posted, nil).Once()
	suite.mockJournalRepo.On("FindLinesByEntryID", ctx, entryID).Return([]domain.JournalLine{}, nil).Once()

	_, err := suite.service.PostEntry(ctx, suite.ledgerID, entryID, suite.actorID)

	suite.ErrorIs(err, apperrors.ErrConflict)
}

func (suite *JournalServiceTestSuite) TestVoidEntry_Success() {
	ctx := context.Background()
	entryID := uuid.NewString()
	original := &domain.JournalEntry{
		EntryID:  entryID,
		LedgerID: suite.ledgerID,
		Status:   domain.Posted,
		Memo:     "Rent March",
		Amount:   decimal.NewFromInt(800),
	}
	lines := []domain.JournalLine{
		{AccountID: suite.cashAccount.AccountID, Amount: decimal.NewFromInt(800), Direction: domain.Credit, FXRate: decimal.NewFromInt(1)},
		{AccountID: suite.revenueAccount.AccountID, Amount: decimal.NewFromInt(800), Direction: domain.Debit, FXRate: decimal.NewFromInt(1)},
	}

	suite.mockJournalRepo.On("FindEntryByID", ctx, entryID).Return(original, nil).Once()
	suite.mockJournalRepo.On("FindLinesByEntryID", ctx, entryID).Return(lines, nil).Once()
	suite.mockAccountSvc.On("GetAccountsByIDs", ctx, suite.ledgerID, mock.Anything).Return(suite.accountsMap(), nil).Once()
	suite.mockJournalRepo.On("SaveReversalEntry", ctx, entryID,
		mock.MatchedBy(func(reversal domain.JournalEntry) bool {
			return reversal.Source == domain.SourceSystem &&
				reversal.OriginalEntryID != nil && *reversal.OriginalEntryID == entryID
		}),
		mock.MatchedBy(func(reversalLines []domain.JournalLine) bool {
			// Directions flip, amounts stay.
			return len(reversalLines) == 2 &&
				reversalLines[0].Direction == domain.Debit &&
				reversalLines[1].Direction == domain.Credit
		}),
		mock.AnythingOfType("map[string]decimal.Decimal"),
	).Return(nil).Once()

	reversal, err := suite.service.VoidEntry(ctx, suite.ledgerID, entryID, "duplicate", suite.actorID)

	suite.Require().NoError(err)
	suite.Contains(reversal.Memo, "duplicate")
	suite.Contains(reversal.Memo, "Rent March")
	suite.mockJournalRepo.AssertExpectations(suite.T())
}

func (suite *JournalServiceTestSuite) TestVoidEntry_AlreadyVoided() {
	ctx := context.Background()
	entryID := uuid.NewString()
	reversingID := uuid.NewString()
	original := &domain.JournalEntry{
		EntryID:          entryID,
		LedgerID:         suite.ledgerID,
		Status:           domain.Posted,
		ReversingEntryID: &reversingID,
	}

	suite.mockJournalRepo.On("FindEntryByID", ctx, entryID).Return(original, nil).Once()
	suite.mockJournalRepo.On("FindLinesByEntryID", ctx, entryID).Return([]domain.JournalLine{}, nil).Once()

	_, err := suite.service.VoidEntry(ctx, suite.ledgerID, entryID, "duplicate", suite.actorID)

	suite.ErrorIs(err, apperrors.ErrAlreadyVoided)
}

func (suite *JournalServiceTestSuite) TestVoidEntry_DraftRejected() {
	ctx := context.Background()
	entryID := uuid.NewString()
	draft := &domain.JournalEntry{EntryID: entryID, LedgerID: suite.ledgerID, Status: domain.Draft}

	suite.mockJournalRepo.On("FindEntryByID", ctx, entryID).Return(draft, nil).Once()
	suite.mockJournalRepo.On("FindLinesByEntryID", ctx, entryID).Return([]domain.JournalLine{}, nil).Once()

	_, err := suite.service.VoidEntry(ctx, suite.ledgerID, entryID, "oops", suite.actorID)

	suite.ErrorIs(err, apperrors.ErrConflict)
}

func (suite *JournalServiceTestSuite) TestMarkEntryReconciled_Idempotent() {
	ctx := context.Background()
	entryID := uuid.NewString()
	reconciled := &domain.JournalEntry{EntryID: entryID, LedgerID: suite.ledgerID, Status: domain.Reconciled}

	suite.mockJournalRepo.On("FindEntryByID", ctx, entryID).Return(reconciled, nil).Once()

	err := suite.service.MarkEntryReconciled(ctx, suite.ledgerID, entryID, suite.actorID)

	suite.NoError(err)
	suite.mockJournalRepo.AssertNotCalled(suite.T(), "UpdateEntryStatusAndLinks", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *JournalServiceTestSuite) TestMarkEntryReconciled_DraftRejected() {
	ctx := context.Background()
	entryID := uuid.NewString()
	draft := &domain.JournalEntry{EntryID: entryID, LedgerID: suite.ledgerID, Status: domain.Draft}

	suite.mockJournalRepo.On("FindEntryByID", ctx, entryID).Return(draft, nil).Once()

	err := suite.service.MarkEntryReconciled(ctx, suite.ledgerID, entryID, suite.actorID)

	suite.ErrorIs(err, apperrors.ErrConflict)
}

func (suite *JournalServiceTestSuite) TestGetEntryByID_WrongLedger() {
	ctx := context.Background()
	entryID := uuid.NewString()
	other := &domain.JournalEntry{EntryID: entryID, LedgerID: uuid.NewString(), Status: domain.Posted}

	suite.mockJournalRepo.On("FindEntryByID", ctx, entryID).Return(other, nil).Once()

	_, err := suite.service.GetEntryByID(ctx, suite.ledgerID, entryID)

	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *JournalServiceTestSuite) TestCheckAccountingEquation_Balanced() {
	ctx := context.Background()
	accounts := []domain.Account{suite.cashAccount, suite.revenueAccount}

	suite.mockAccountSvc.On("ListAccounts", ctx, suite.ledgerID, true).Return(accounts, nil).Once()
	// Both balances in normal sign: debit-normal cash 500, credit-normal revenue 500.
	suite.mockJournalRepo.On("SumPostedLines", ctx, suite.cashAccount.AccountID, mock.AnythingOfType("time.Time")).Return(decimal.NewFromInt(500), nil).Once()
	suite.mockJournalRepo.On("SumPostedLines", ctx, suite.revenueAccount.AccountID, mock.AnythingOfType("time.Time")).Return(decimal.NewFromInt(500), nil).Once()

	suite.NoError(suite.service.CheckAccountingEquation(ctx, suite.ledgerID))
}

func (suite *JournalServiceTestSuite) TestCheckAccountingEquation_Violated() {
	ctx := context.Background()
	accounts := []domain.Account{suite.cashAccount, suite.revenueAccount}

	suite.mockAccountSvc.On("ListAccounts", ctx, suite.ledgerID, true).Return(accounts, nil).Once()
	suite.mockJournalRepo.On("SumPostedLines", ctx, suite.cashAccount.AccountID, mock.AnythingOfType("time.Time")).Return(decimal.NewFromInt(500), nil).Once()
	suite.mockJournalRepo.On("SumPostedLines", ctx, suite.revenueAccount.AccountID, mock.AnythingOfType("time.Time")).Return(decimal.NewFromInt(400), nil).Once()

	err := suite.service.CheckAccountingEquation(ctx, suite.ledgerID)

	suite.ErrorIs(err, apperrors.ErrAccountingEquation)
}

func (suite *JournalServiceTestSuite) TestBalanceOf() {
	ctx := context.Background()
	asOf := time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC)

	suite.mockAccountSvc.On("GetAccountByID", ctx, suite.ledgerID, suite.cashAccount.AccountID).Return(&suite.cashAccount, nil).Once()
	suite.mockJournalRepo.On("SumPostedLines", ctx, suite.cashAccount.AccountID, asOf).Return(decimal.NewFromInt(1250), nil).Once()

	balance, err := suite.service.BalanceOf(ctx, suite.ledgerID, suite.cashAccount.AccountID, asOf)

	suite.Require().NoError(err)
	suite.True(balance.Equal(decimal.NewFromInt(1250)))
}

func TestJournalServiceTestSuite(t *testing.T) {
	suite.Run(t, new(JournalServiceTestSuite))
}
