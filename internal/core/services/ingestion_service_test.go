package services_test

import (
	"context"
	"errors"
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

type IngestionServiceTestSuite struct {
	suite.Suite
	mockRawTxnRepo *MockRawTxnRepository
	mockLedgerSvc  *MockLedgerService
	service        portssvc.IngestionSvcFacade

	ledgerID string
	actorID  string
}

func (suite *IngestionServiceTestSuite) SetupTest() {
	suite.mockRawTxnRepo = new(MockRawTxnRepository)
	suite.mockLedgerSvc = new(MockLedgerService)
	suite.service = services.NewIngestionService(suite.mockRawTxnRepo, suite.mockLedgerSvc)

	suite.ledgerID = uuid.NewString()
	suite.actorID = uuid.NewString()
	suite.mockLedgerSvc.On("GetLedgerByID", mock.Anything, suite.ledgerID).
		Return(&domain.Ledger{LedgerID: suite.ledgerID, BaseCurrencyCode: "USD"}, nil).Maybe()
}

func (suite *IngestionServiceTestSuite) statementRequest() dto.IngestStatementRequest {
	return dto.IngestStatementRequest{
		Institution:     "First National",
		InstitutionRef:  "NL01FNB0123456789",
		CurrencyCode:    "usd",
		PeriodStart:     time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:       time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC),
		OpeningBalance:  decimal.NewFromInt(1000),
		ClosingBalance:  decimal.NewFromInt(1150),
		FileFingerprint: "sha256:abc123",
		Transactions: []dto.StatementTxn{
			{
				TxnDate:     time.Date(2025, 5, 5, 0, 0, 0, 0, time.UTC),
				Amount:      decimal.NewFromInt(200),
				Direction:   domain.Inflow,
				Description: "Salary May",
			},
			{
				TxnDate:     time.Date(2025, 5, 12, 0, 0, 0, 0, time.UTC),
				Amount:      decimal.NewFromInt(50),
				Direction:   domain.Outflow,
				Description: "Groceries",
				Reference:   "NL99OTHER012345",
			},
		},
	}
}

func (suite *IngestionServiceTestSuite) TestIngestStatement_Success() {
	ctx := context.Background()
	var savedDoc domain.StatementDocument
	var savedTxns []domain.RawTransaction
	suite.mockRawTxnRepo.On("AppendBatch", ctx, mock.AnythingOfType("domain.StatementDocument"), mock.AnythingOfType("[]domain.RawTransaction")).
		Run(func(args mock.Arguments) {
			savedDoc = args.Get(1).(domain.StatementDocument)
			savedTxns = args.Get(2).([]domain.RawTransaction)
		}).Return(nil).Once()

	doc, err := suite.service.IngestStatement(ctx, suite.ledgerID, suite.statementRequest(), suite.actorID)

	suite.Require().NoError(err)
	suite.Equal("USD", doc.CurrencyCode)
	suite.Equal(2, doc.TxnCount)
	suite.Equal(savedDoc.DocumentID, doc.DocumentID)
	suite.Require().Len(savedTxns, 2)
	// Transaction currency defaults to the document's, references fall back
	// to the document institution ref.
	suite.Equal("USD", savedTxns[0].CurrencyCode)
	suite.Equal("NL01FNB0123456789", savedTxns[0].InstitutionRef)
	suite.Equal("NL99OTHER012345", savedTxns[1].InstitutionRef)
	suite.NotEmpty(savedTxns[0].Fingerprint)
	suite.NotEqual(savedTxns[0].Fingerprint, savedTxns[1].Fingerprint)
}

func (suite *IngestionServiceTestSuite) TestIngestStatement_BalanceMismatch() {
	ctx := context.Background()
	req := suite.statementRequest()
	req.ClosingBalance = decimal.NewFromInt(1250)

	_, err := suite.service.IngestStatement(ctx, suite.ledgerID, req, suite.actorID)

	var mismatch *apperrors.BalanceMismatchError
	suite.Require().ErrorAs(err, &mismatch)
	suite.True(mismatch.Delta.Equal(decimal.NewFromInt(100)))
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockRawTxnRepo.AssertNotCalled(suite.T(), "AppendBatch", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *IngestionServiceTestSuite) TestIngestStatement_ToleratesRoundingDelta() {
	ctx := context.Background()
	req := suite.statementRequest()
	req.ClosingBalance = decimal.RequireFromString("1150.005")

	suite.mockRawTxnRepo.On("AppendBatch", ctx, mock.Anything, mock.Anything).Return(nil).Once()

	_, err := suite.service.IngestStatement(ctx, suite.ledgerID, req, suite.actorID)

	suite.NoError(err)
}

func (suite *IngestionServiceTestSuite) TestIngestStatement_NonPositiveAmount() {
	ctx := context.Background()
	req := suite.statementRequest()
	req.Transactions[0].Amount = decimal.Zero

	_, err := suite.service.IngestStatement(ctx, suite.ledgerID, req, suite.actorID)

	suite.ErrorIs(err, apperrors.ErrInvalidAmount)
}

func (suite *IngestionServiceTestSuite) TestIngestStatement_InvertedPeriod() {
	ctx := context.Background()
	req := suite.statementRequest()
	req.PeriodStart, req.PeriodEnd = req.PeriodEnd, req.PeriodStart

	_, err := suite.service.IngestStatement(ctx, suite.ledgerID, req, suite.actorID)

	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *IngestionServiceTestSuite) TestIngestStatement_DuplicateDocument() {
	ctx := context.Background()
	suite.mockRawTxnRepo.On("AppendBatch", ctx, mock.Anything, mock.Anything).
		Return(apperrors.ErrDuplicateDocument).Once()

	_, err := suite.service.IngestStatement(ctx, suite.ledgerID, suite.statementRequest(), suite.actorID)

	suite.ErrorIs(err, apperrors.ErrDuplicateDocument)
}

func (suite *IngestionServiceTestSuite) TestIngestStatement_UnknownLedger() {
	ctx := context.Background()
	unknownID := uuid.NewString()
	suite.mockLedgerSvc.On("GetLedgerByID", mock.Anything, unknownID).
		Return(nil, errors.New("ledger not found: "+unknownID)).Once()

	_, err := suite.service.IngestStatement(ctx, unknownID, suite.statementRequest(), suite.actorID)

	suite.Error(err)
	suite.mockRawTxnRepo.AssertNotCalled(suite.T(), "AppendBatch", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *IngestionServiceTestSuite) TestGetRawTxnByID_WrongLedger() {
	ctx := context.Background()
	rawTxnID := uuid.NewString()
	suite.mockRawTxnRepo.On("FindRawTxnByID", ctx, rawTxnID).
		Return(&domain.RawTransaction{RawTxnID: rawTxnID, LedgerID: uuid.NewString()}, nil).Once()

	_, err := suite.service.GetRawTxnByID(ctx, suite.ledgerID, rawTxnID)

	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func TestIngestionServiceTestSuite(t *testing.T) {
	suite.Run(t, new(IngestionServiceTestSuite))
}
