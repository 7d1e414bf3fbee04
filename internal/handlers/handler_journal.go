package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mitra-labs/ledgercore/internal/core/domain"
	portssvc "github.com/mitra-labs/ledgercore/internal/core/ports/services"
	"github.com/mitra-labs/ledgercore/internal/dto"
	"github.com/mitra-labs/ledgercore/internal/middleware"
)

// journalHandler handles HTTP requests related to journal entries.
type journalHandler struct {
	journalService portssvc.JournalSvcFacade
}

// registerJournalRoutes registers routes related to journal entries.
func registerJournalRoutes(rg *gin.RouterGroup, journalService portssvc.JournalSvcFacade) {
	h := &journalHandler{journalService: journalService}

	entries := rg.Group("/entries")
	{
		entries.POST("", h.createDraftEntry)
		entries.GET("", h.listEntries)
		entries.GET("/:entry_id", h.getEntry)
		entries.POST("/:entry_id/post", h.postEntry)
		entries.POST("/:entry_id/void", h.voidEntry)
	}

	rg.GET("/trial-balance", h.checkTrialBalance)
}

func (h *journalHandler) createDraftEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	entry, err := h.journalService.CreateDraftEntry(c.Request.Context(), c.Param("ledger_id"), req, actorFrom(c))
	if err != nil {
		respondServiceError(c, logger, err, "create entry")
		return
	}
	c.JSON(http.StatusCreated, dto.ToEntryResponse(entry))
}

func (h *journalHandler) getEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	entry, err := h.journalService.GetEntryByID(c.Request.Context(), c.Param("ledger_id"), c.Param("entry_id"))
	if err != nil {
		respondServiceError(c, logger, err, "get entry")
		return
	}
	c.JSON(http.StatusOK, dto.ToEntryResponse(entry))
}

func (h *journalHandler) listEntries(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	params := dto.ListEntriesParams{}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		params.Limit = limit
	}
	if token := c.Query("nextToken"); token != "" {
		params.NextToken = &token
	}
	for _, status := range c.QueryArray("status") {
		params.Statuses = append(params.Statuses, domain.EntryStatus(status))
	}

	resp, err := h.journalService.ListEntries(c.Request.Context(), c.Param("ledger_id"), params)
	if err != nil {
		respondServiceError(c, logger, err, "list entries")
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *journalHandler) postEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	entry, err := h.journalService.PostEntry(c.Request.Context(), c.Param("ledger_id"), c.Param("entry_id"), actorFrom(c))
	if err != nil {
		respondServiceError(c, logger, err, "post entry")
		return
	}
	c.JSON(http.StatusOK, dto.ToEntryResponse(entry))
}

func (h *journalHandler) voidEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.VoidEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	reversal, err := h.journalService.VoidEntry(c.Request.Context(), c.Param("ledger_id"), c.Param("entry_id"), req.Reason, actorFrom(c))
	if err != nil {
		respondServiceError(c, logger, err, "void entry")
		return
	}
	c.JSON(http.StatusOK, dto.ToEntryResponse(reversal))
}

// checkTrialBalance verifies the accounting equation for the ledger.
func (h *journalHandler) checkTrialBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	if err := h.journalService.CheckAccountingEquation(c.Request.Context(), c.Param("ledger_id")); err != nil {
		respondServiceError(c, logger, err, "check trial balance")
		return
	}
	c.JSON(http.StatusOK, gin.H{"balanced": true})
}
