package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/mitra-labs/ledgercore/internal/core/ports/services"
	"github.com/mitra-labs/ledgercore/internal/dto"
	"github.com/mitra-labs/ledgercore/internal/middleware"
)

// ledgerHandler handles HTTP requests related to ledgers.
type ledgerHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

// registerLedgerRoutes registers routes related to ledgers.
func registerLedgerRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerSvcFacade) {
	h := &ledgerHandler{ledgerService: ledgerService}

	ledgers := rg.Group("/ledgers")
	{
		ledgers.POST("", h.createLedger)
		ledgers.GET("", h.listLedgers)
		ledgers.GET("/:ledger_id", h.getLedger)
	}
}

func (h *ledgerHandler) createLedger(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateLedgerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	ledger, err := h.ledgerService.CreateLedger(c.Request.Context(), req, actorFrom(c))
	if err != nil {
		respondServiceError(c, logger, err, "create ledger")
		return
	}
	c.JSON(http.StatusCreated, dto.ToLedgerResponse(ledger))
}

func (h *ledgerHandler) getLedger(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	ledger, err := h.ledgerService.GetLedgerByID(c.Request.Context(), c.Param("ledger_id"))
	if err != nil {
		respondServiceError(c, logger, err, "get ledger")
		return
	}
	c.JSON(http.StatusOK, dto.ToLedgerResponse(ledger))
}

func (h *ledgerHandler) listLedgers(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	ledgers, err := h.ledgerService.ListLedgers(c.Request.Context())
	if err != nil {
		respondServiceError(c, logger, err, "list ledgers")
		return
	}

	responses := make([]dto.LedgerResponse, len(ledgers))
	for i := range ledgers {
		responses[i] = dto.ToLedgerResponse(&ledgers[i])
	}
	c.JSON(http.StatusOK, gin.H{"ledgers": responses})
}
