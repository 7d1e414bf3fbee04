package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mitra-labs/ledgercore/internal/apperrors"
	portssvc "github.com/mitra-labs/ledgercore/internal/core/ports/services"
	"github.com/mitra-labs/ledgercore/internal/middleware"
	"github.com/mitra-labs/ledgercore/internal/platform/config"
)

// RegisterRoutes sets up all application routes, injecting dependencies using
// interfaces.
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	registerValidations()

	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	setupAPIV1Routes(r, services)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to per-entity
// route registrations. Everything except ledger management is scoped under a
// ledger.
func setupAPIV1Routes(r *gin.Engine, services *portssvc.ServiceContainer) {
	v1 := r.Group("/api/v1")

	registerLedgerRoutes(v1, services.Ledger)

	ledger := v1.Group("/ledgers/:ledger_id")
	registerAccountRoutes(ledger, services.Account, services.Journal)
	registerJournalRoutes(ledger, services.Journal)
	registerIngestRoutes(ledger, services.Ingestion)
	registerMatchRoutes(ledger, services.Reconciliation, services.Transfer)
	registerRuleRoutes(ledger, services.Rule)
}

// respondServiceError maps service errors onto HTTP statuses. Validation and
// duplicate problems are the caller's fault; conflicts mean the resource moved
// on; everything else is ours.
func respondServiceError(c *gin.Context, logger *slog.Logger, err error, action string) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		logger.Warn("validation error", slog.String("action", action), slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		logger.Warn("resource not found", slog.String("action", action), slog.String("error", err.Error()))
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrDuplicate):
		logger.Warn("duplicate resource", slog.String("action", action), slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrConflict):
		logger.Warn("state conflict", slog.String("action", action), slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.Error("service error", slog.String("action", action), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to " + action})
	}
}

// actorFrom returns the acting identity for audit fields.
func actorFrom(c *gin.Context) string {
	return middleware.GetActorIDFromContext(c)
}
