package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	portssvc "github.com/mitra-labs/ledgercore/internal/core/ports/services"
	"github.com/mitra-labs/ledgercore/internal/dto"
	"github.com/mitra-labs/ledgercore/internal/middleware"
)

// accountHandler handles HTTP requests related to accounts.
type accountHandler struct {
	accountService portssvc.AccountSvcFacade
	journalService portssvc.JournalSvcFacade
}

// registerAccountRoutes registers routes related to accounts. Balance queries
// live here too since they are account-addressed.
func registerAccountRoutes(rg *gin.RouterGroup, accountService portssvc.AccountSvcFacade, journalService portssvc.JournalSvcFacade) {
	h := &accountHandler{accountService: accountService, journalService: journalService}

	accounts := rg.Group("/accounts")
	{
		accounts.POST("", h.createAccount)
		accounts.GET("", h.listAccounts)
		accounts.GET("/:account_id", h.getAccount)
		accounts.DELETE("/:account_id", h.deactivateAccount)
		accounts.GET("/:account_id/balance", h.getBalance)
	}
}

func (h *accountHandler) createAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	account, err := h.accountService.CreateAccount(c.Request.Context(), c.Param("ledger_id"), req, actorFrom(c))
	if err != nil {
		respondServiceError(c, logger, err, "create account")
		return
	}
	c.JSON(http.StatusCreated, dto.ToAccountResponse(account))
}

func (h *accountHandler) getAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	account, err := h.accountService.GetAccountByID(c.Request.Context(), c.Param("ledger_id"), c.Param("account_id"))
	if err != nil {
		respondServiceError(c, logger, err, "get account")
		return
	}
	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}

func (h *accountHandler) listAccounts(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	includeSystem := c.Query("includeSystem") == "true"
	accounts, err := h.accountService.ListAccounts(c.Request.Context(), c.Param("ledger_id"), includeSystem)
	if err != nil {
		respondServiceError(c, logger, err, "list accounts")
		return
	}
	c.JSON(http.StatusOK, gin.H{"accounts": dto.ToAccountResponses(accounts)})
}

func (h *accountHandler) deactivateAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	err := h.accountService.DeactivateAccount(c.Request.Context(), c.Param("ledger_id"), c.Param("account_id"), actorFrom(c))
	if err != nil {
		respondServiceError(c, logger, err, "deactivate account")
		return
	}
	c.Status(http.StatusNoContent)
}

// getBalance replays posted lines as of an optional ?asOf=RFC3339 date.
func (h *accountHandler) getBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	asOf := time.Now()
	if raw := c.Query("asOf"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "asOf must be RFC3339"})
			return
		}
		asOf = parsed
	}

	accountID := c.Param("account_id")
	balance, err := h.journalService.BalanceOf(c.Request.Context(), c.Param("ledger_id"), accountID, asOf)
	if err != nil {
		respondServiceError(c, logger, err, "get balance")
		return
	}
	c.JSON(http.StatusOK, dto.BalanceResponse{AccountID: accountID, AsOf: asOf, Balance: balance})
}
