package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/mitra-labs/ledgercore/internal/apperrors"
	"github.com/mitra-labs/ledgercore/internal/core/domain"
	portssvc "github.com/mitra-labs/ledgercore/internal/core/ports/services"
	"github.com/mitra-labs/ledgercore/internal/core/services"
	"github.com/mitra-labs/ledgercore/internal/dto"
)

type AccountServiceTestSuite struct {
	suite.Suite
	mockAccountRepo *MockAccountRepository
	mockLedgerSvc   *MockLedgerService
	service         portssvc.AccountSvcFacade

	ledgerID string
	actorID  string
}

func (suite *AccountServiceTestSuite) SetupTest() {
	suite.mockAccountRepo = new(MockAccountRepository)
	suite.mockLedgerSvc = new(MockLedgerService)
	suite.service = services.NewAccountService(suite.mockAccountRepo, suite.mockLedgerSvc)

	suite.ledgerID = uuid.NewString()
	suite.actorID = uuid.NewString()
	suite.mockLedgerSvc.On("GetLedgerByID", mock.Anything, suite.ledgerID).
		Return(&domain.Ledger{LedgerID: suite.ledgerID, BaseCurrencyCode: "EUR"}, nil).Maybe()
}

func (suite *AccountServiceTestSuite) TestCreateAccount_Success() {
	ctx := context.Background()
	suite.mockAccountRepo.On("SaveAccount", ctx, mock.MatchedBy(func(account domain.Account) bool {
		return account.IsActive && !account.IsSystem && account.CurrencyCode == "EUR" && account.Balance.IsZero()
	})).Return(nil).Once()

	account, err := suite.service.CreateAccount(ctx, suite.ledgerID, dto.CreateAccountRequest{
		Name:         "Checking",
		AccountType:  domain.Asset,
		CurrencyCode: "eur",
	}, suite.actorID)

	suite.Require().NoError(err)
	suite.Equal("EUR", account.CurrencyCode)
	suite.mockAccountRepo.AssertExpectations(suite.T())
}

func (suite *AccountServiceTestSuite) TestCreateAccount_UnknownType() {
	ctx := context.Background()

	_, err := suite.service.CreateAccount(ctx, suite.ledgerID, dto.CreateAccountRequest{
		Name:         "Checking",
		AccountType:  domain.AccountType("WISHFUL"),
		CurrencyCode: "EUR",
	}, suite.actorID)

	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockAccountRepo.AssertNotCalled(suite.T(), "SaveAccount", mock.Anything, mock.Anything)
}

func (suite *AccountServiceTestSuite) TestCreateAccount_ReservedName() {
	ctx := context.Background()

	_, err := suite.service.CreateAccount(ctx, suite.ledgerID, dto.CreateAccountRequest{
		Name:         "transfer clearing",
		AccountType:  domain.Asset,
		CurrencyCode: "EUR",
	}, suite.actorID)

	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *AccountServiceTestSuite) TestGetAccountsByIDs_MissingAccount() {
	ctx := context.Background()
	presentID := uuid.NewString()
	missingID := uuid.NewString()
	suite.mockAccountRepo.On("FindAccountsByIDs", ctx, []string{presentID, missingID}).
		Return(map[string]domain.Account{presentID: {AccountID: presentID, LedgerID: suite.ledgerID}}, nil).Once()

	_, err := suite.service.GetAccountsByIDs(ctx, suite.ledgerID, []string{presentID, missingID})

	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *AccountServiceTestSuite) TestResolveByInstitutionRef_EmptyRef() {
	ctx := context.Background()

	account, err := suite.service.ResolveByInstitutionRef(ctx, suite.ledgerID, "")

	suite.NoError(err)
	suite.Nil(account)
	suite.mockAccountRepo.AssertNotCalled(suite.T(), "FindAccountByInstitutionRef", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *AccountServiceTestSuite) TestResolveByInstitutionRef_UnlinkedIsNotAnError() {
	ctx := context.Background()
	suite.mockAccountRepo.On("FindAccountByInstitutionRef", ctx, suite.ledgerID, "NL01FNB0123456789").
		Return(nil, apperrors.ErrNotFound).Once()

	account, err := suite.service.ResolveByInstitutionRef(ctx, suite.ledgerID, "NL01FNB0123456789")

	suite.NoError(err)
	suite.Nil(account)
}

func (suite *AccountServiceTestSuite) TestDeactivateAccount_SystemAccountRefused() {
	ctx := context.Background()
	accountID := uuid.NewString()
	suite.mockAccountRepo.On("FindAccountByID", ctx, accountID).
		Return(&domain.Account{AccountID: accountID, LedgerID: suite.ledgerID, IsSystem: true}, nil).Once()

	err := suite.service.DeactivateAccount(ctx, suite.ledgerID, accountID, suite.actorID)

	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockAccountRepo.AssertNotCalled(suite.T(), "DeactivateAccount", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *AccountServiceTestSuite) TestGetOrCreateProcessingAccount_CreatesOnFirstUse() {
	ctx := context.Background()
	suite.mockAccountRepo.On("FindSystemAccount", ctx, suite.ledgerID, "Transfer Clearing").
		Return(nil, apperrors.ErrNotFound).Once()
	suite.mockAccountRepo.On("SaveAccount", ctx, mock.MatchedBy(func(account domain.Account) bool {
		return account.IsSystem && account.AccountType == domain.Asset && account.CurrencyCode == "EUR"
	})).Return(nil).Once()

	account, err := suite.service.GetOrCreateProcessingAccount(ctx, suite.ledgerID, suite.actorID)

	suite.Require().NoError(err)
	suite.True(account.IsSystem)
	suite.mockAccountRepo.AssertExpectations(suite.T())
}

func (suite *AccountServiceTestSuite) TestGetOrCreateProcessingAccount_LosingRaceReadsWinner() {
	ctx := context.Background()
	winner := &domain.Account{AccountID: uuid.NewString(), LedgerID: suite.ledgerID, IsSystem: true}

	suite.mockAccountRepo.On("FindSystemAccount", ctx, suite.ledgerID, "Transfer Clearing").
		Return(nil, apperrors.ErrNotFound).Once()
	suite.mockAccountRepo.On("SaveAccount", ctx, mock.Anything).Return(apperrors.ErrDuplicate).Once()
	suite.mockAccountRepo.On("FindSystemAccount", ctx, suite.ledgerID, "Transfer Clearing").
		Return(winner, nil).Once()

	account, err := suite.service.GetOrCreateProcessingAccount(ctx, suite.ledgerID, suite.actorID)

	suite.Require().NoError(err)
	suite.Equal(winner.AccountID, account.AccountID)
}

func TestAccountServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AccountServiceTestSuite))
}
