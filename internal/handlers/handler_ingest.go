package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mitra-labs/ledgercore/internal/apperrors"
	portssvc "github.com/mitra-labs/ledgercore/internal/core/ports/services"
	"github.com/mitra-labs/ledgercore/internal/dto"
	"github.com/mitra-labs/ledgercore/internal/middleware"
)

// ingestHandler handles statement ingestion and raw transaction queries.
type ingestHandler struct {
	ingestionService portssvc.IngestionSvcFacade
}

// registerIngestRoutes registers routes for the statement boundary.
func registerIngestRoutes(rg *gin.RouterGroup, ingestionService portssvc.IngestionSvcFacade) {
	h := &ingestHandler{ingestionService: ingestionService}

	rg.POST("/statements", h.ingestStatement)

	rawTxns := rg.Group("/raw-transactions")
	{
		rawTxns.GET("", h.listRawTxns)
		rawTxns.GET("/:raw_txn_id", h.getRawTxn)
	}
}

func (h *ingestHandler) ingestStatement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.IngestStatementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	doc, err := h.ingestionService.IngestStatement(c.Request.Context(), c.Param("ledger_id"), req, actorFrom(c))
	if err != nil {
		// The mismatch delta is diagnostic gold for the uploader; surface it
		// as structured fields rather than a flat message.
		var mismatch *apperrors.BalanceMismatchError
		if errors.As(err, &mismatch) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   mismatch.Error(),
				"opening": mismatch.Opening,
				"closing": mismatch.Closing,
				"delta":   mismatch.Delta,
			})
			return
		}
		respondServiceError(c, logger, err, "ingest statement")
		return
	}

	c.JSON(http.StatusCreated, dto.IngestStatementResponse{DocumentID: doc.DocumentID, TxnCount: doc.TxnCount})
}

func (h *ingestHandler) getRawTxn(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	txn, err := h.ingestionService.GetRawTxnByID(c.Request.Context(), c.Param("ledger_id"), c.Param("raw_txn_id"))
	if err != nil {
		respondServiceError(c, logger, err, "get raw transaction")
		return
	}
	c.JSON(http.StatusOK, dto.ToRawTxnResponse(txn))
}

func (h *ingestHandler) listRawTxns(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}
	var nextToken *string
	if token := c.Query("nextToken"); token != "" {
		nextToken = &token
	}

	txns, newNextToken, err := h.ingestionService.ListRawTxns(c.Request.Context(), c.Param("ledger_id"), limit, nextToken)
	if err != nil {
		respondServiceError(c, logger, err, "list raw transactions")
		return
	}

	responses := make([]dto.RawTxnResponse, len(txns))
	for i := range txns {
		responses[i] = dto.ToRawTxnResponse(&txns[i])
	}
	c.JSON(http.StatusOK, gin.H{"rawTransactions": responses, "nextToken": newNextToken})
}
