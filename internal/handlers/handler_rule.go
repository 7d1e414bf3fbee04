package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/mitra-labs/ledgercore/internal/core/ports/services"
	"github.com/mitra-labs/ledgercore/internal/dto"
	"github.com/mitra-labs/ledgercore/internal/middleware"
)

// ruleHandler handles HTTP requests related to reconciliation rules.
type ruleHandler struct {
	ruleService portssvc.RuleSvcFacade
}

// registerRuleRoutes registers routes related to reconciliation rules.
func registerRuleRoutes(rg *gin.RouterGroup, ruleService portssvc.RuleSvcFacade) {
	h := &ruleHandler{ruleService: ruleService}

	rules := rg.Group("/rules")
	{
		rules.POST("", h.createRule)
		rules.GET("", h.listRules)
		rules.GET("/:rule_id", h.getRule)
		rules.PUT("/:rule_id", h.updateRule)
	}
}

func (h *ruleHandler) createRule(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	rule, err := h.ruleService.CreateRule(c.Request.Context(), c.Param("ledger_id"), req, actorFrom(c))
	if err != nil {
		respondServiceError(c, logger, err, "create rule")
		return
	}
	c.JSON(http.StatusCreated, dto.ToRuleResponse(rule))
}

func (h *ruleHandler) getRule(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	rule, err := h.ruleService.GetRuleByID(c.Request.Context(), c.Param("ledger_id"), c.Param("rule_id"))
	if err != nil {
		respondServiceError(c, logger, err, "get rule")
		return
	}
	c.JSON(http.StatusOK, dto.ToRuleResponse(rule))
}

func (h *ruleHandler) listRules(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	rules, err := h.ruleService.ListRules(c.Request.Context(), c.Param("ledger_id"))
	if err != nil {
		respondServiceError(c, logger, err, "list rules")
		return
	}

	c.JSON(http.StatusOK, gin.H{"rules": dto.ToRuleResponses(rules)})
}

func (h *ruleHandler) updateRule(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.UpdateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	rule, err := h.ruleService.UpdateRule(c.Request.Context(), c.Param("ledger_id"), c.Param("rule_id"), req, actorFrom(c))
	if err != nil {
		respondServiceError(c, logger, err, "update rule")
		return
	}
	c.JSON(http.StatusOK, dto.ToRuleResponse(rule))
}
