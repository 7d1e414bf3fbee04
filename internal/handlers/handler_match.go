package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	portssvc "github.com/mitra-labs/ledgercore/internal/core/ports/services"
	"github.com/mitra-labs/ledgercore/internal/dto"
	"github.com/mitra-labs/ledgercore/internal/middleware"
)

// matchHandler handles reconciliation runs and match review.
type matchHandler struct {
	reconciliationService portssvc.ReconciliationSvcFacade
	transferService       portssvc.TransferSvcFacade
}

// registerMatchRoutes registers routes for the reconciliation engine.
func registerMatchRoutes(rg *gin.RouterGroup, reconciliationService portssvc.ReconciliationSvcFacade, transferService portssvc.TransferSvcFacade) {
	h := &matchHandler{reconciliationService: reconciliationService, transferService: transferService}

	rg.POST("/reconcile", h.reconcile)

	matches := rg.Group("/matches")
	{
		matches.GET("/pending", h.listPendingMatches)
		matches.POST("/:match_id/confirm", h.confirmMatch)
		matches.POST("/:match_id/reject", h.rejectMatch)
		matches.POST("/confirm-batch", h.confirmBatch)
	}

	rg.GET("/raw-transactions/:raw_txn_id/matches", h.listMatchHistory)
	rg.GET("/transfers/unpaired", h.listUnpairedTransfers)
}

func (h *matchHandler) reconcile(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.ReconcileRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
			return
		}
	}
	since := time.Time{}
	if req.Since != nil {
		since = *req.Since
	}

	summary, err := h.reconciliationService.Reconcile(c.Request.Context(), c.Param("ledger_id"), since, actorFrom(c))
	if err != nil {
		respondServiceError(c, logger, err, "reconcile")
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *matchHandler) listPendingMatches(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	matches, err := h.reconciliationService.ListPendingMatches(c.Request.Context(), c.Param("ledger_id"))
	if err != nil {
		respondServiceError(c, logger, err, "list pending matches")
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": dto.ToMatchResponses(matches)})
}

func (h *matchHandler) confirmMatch(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	match, err := h.reconciliationService.ConfirmMatch(c.Request.Context(), c.Param("ledger_id"), c.Param("match_id"), actorFrom(c))
	if err != nil {
		respondServiceError(c, logger, err, "confirm match")
		return
	}
	c.JSON(http.StatusOK, dto.ToMatchResponse(match))
}

func (h *matchHandler) rejectMatch(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	match, err := h.reconciliationService.RejectMatch(c.Request.Context(), c.Param("ledger_id"), c.Param("match_id"), actorFrom(c))
	if err != nil {
		respondServiceError(c, logger, err, "reject match")
		return
	}
	c.JSON(http.StatusOK, dto.ToMatchResponse(match))
}

func (h *matchHandler) confirmBatch(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.ConfirmBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	resp, err := h.reconciliationService.ConfirmBatch(c.Request.Context(), c.Param("ledger_id"), req, actorFrom(c))
	if err != nil {
		respondServiceError(c, logger, err, "confirm batch")
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *matchHandler) listMatchHistory(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	matches, err := h.reconciliationService.ListMatchHistory(c.Request.Context(), c.Param("ledger_id"), c.Param("raw_txn_id"))
	if err != nil {
		respondServiceError(c, logger, err, "list match history")
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": dto.ToMatchResponses(matches)})
}

func (h *matchHandler) listUnpairedTransfers(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	legs, err := h.transferService.ListUnpairedTransfers(c.Request.Context(), c.Param("ledger_id"))
	if err != nil {
		respondServiceError(c, logger, err, "list unpaired transfers")
		return
	}
	c.JSON(http.StatusOK, gin.H{"transferLegs": dto.ToMatchResponses(legs)})
}
