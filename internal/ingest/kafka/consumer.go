package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/mitra-labs/ledgercore/internal/apperrors"
	"github.com/mitra-labs/ledgercore/internal/core/domain"
	portssvc "github.com/mitra-labs/ledgercore/internal/core/ports/services"
	"github.com/mitra-labs/ledgercore/internal/dto"
	"github.com/mitra-labs/ledgercore/internal/middleware"
)

// statementMessage is the envelope published by the extraction collaborator.
type statementMessage struct {
	LedgerID  string                     `json:"ledgerID"`
	ActorID   string                     `json:"actorID"`
	Statement dto.IngestStatementRequest `json:"statement"`
}

// Consumer reads extracted statement documents off a topic and feeds them
// into the ingestion service. Messages that fail validation are committed
// anyway: redelivery cannot fix a malformed or out-of-balance document.
type Consumer struct {
	reader           *kafka.Reader
	ingestionService portssvc.IngestionSvcFacade
	logger           *slog.Logger
}

func NewConsumer(brokers []string, topic, groupID string, ingestionService portssvc.IngestionSvcFacade, logger *slog.Logger) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: brokers,
			Topic:   topic,
			GroupID: groupID,
		}),
		ingestionService: ingestionService,
		logger:           logger.With(slog.String("component", "statement_consumer")),
	}
}

// Run consumes until ctx is cancelled. It returns nil on cancellation.
func (c *Consumer) Run(ctx context.Context) error {
	ctx = middleware.ContextWithLogger(ctx, c.logger)
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}

		c.handle(ctx, msg)

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message) {
	var envelope statementMessage
	if err := json.Unmarshal(msg.Value, &envelope); err != nil {
		c.logger.Error("dropping undecodable statement message",
			slog.Int64("offset", msg.Offset), slog.Any("error", err))
		return
	}
	if envelope.LedgerID == "" {
		c.logger.Error("dropping statement message without ledger ID",
			slog.Int64("offset", msg.Offset))
		return
	}
	actorID := envelope.ActorID
	if actorID == "" {
		actorID = domain.SystemActor
	}

	doc, err := c.ingestionService.IngestStatement(ctx, envelope.LedgerID, envelope.Statement, actorID)
	if err != nil {
		var mismatch *apperrors.BalanceMismatchError
		switch {
		case errors.Is(err, apperrors.ErrDuplicateDocument):
			c.logger.Info("skipping already ingested statement",
				slog.String("ledgerID", envelope.LedgerID),
				slog.String("fingerprint", envelope.Statement.FileFingerprint))
		case errors.As(err, &mismatch):
			c.logger.Error("rejecting out-of-balance statement",
				slog.String("ledgerID", envelope.LedgerID),
				slog.String("fingerprint", envelope.Statement.FileFingerprint),
				slog.String("delta", mismatch.Delta.String()))
		default:
			c.logger.Error("statement ingestion failed",
				slog.String("ledgerID", envelope.LedgerID),
				slog.Int64("offset", msg.Offset), slog.Any("error", err))
		}
		return
	}

	c.logger.Info("statement ingested",
		slog.String("ledgerID", envelope.LedgerID),
		slog.String("documentID", doc.DocumentID),
		slog.Int("txnCount", len(envelope.Statement.Transactions)))
}

// Close releases the underlying reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
