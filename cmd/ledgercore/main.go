package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/mitra-labs/ledgercore/internal/core/services"
	"github.com/mitra-labs/ledgercore/internal/embedding"
	"github.com/mitra-labs/ledgercore/internal/handlers"
	ingestkafka "github.com/mitra-labs/ledgercore/internal/ingest/kafka"
	"github.com/mitra-labs/ledgercore/internal/middleware"
	"github.com/mitra-labs/ledgercore/internal/platform/config"
	"github.com/mitra-labs/ledgercore/internal/repositories/database/pgsql"
	"github.com/mitra-labs/ledgercore/pkg/database"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer dbPool.Close()
	logger.Info("Database connection pool established.")

	logger.Info("Running database migrations...")
	if err := database.RunMigrations(cfg.DatabaseURL, "file://migrations", logger); err != nil {
		logger.Error("Failed to run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	embedder := buildEmbedder(ctx, cfg, logger)

	repos := pgsql.NewRepositoryProvider(dbPool)
	serviceContainer := services.NewContainer(&repos, embedder, services.MatchPolicy{
		AutoAcceptScore:  cfg.AutoAcceptScore,
		ReviewScore:      cfg.ReviewScore,
		BatchAcceptScore: cfg.BatchAcceptScore,
		LookbackDays:     cfg.MatchLookbackDays,
		AmountCeiling:    cfg.AmountCeiling,
	})

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-Actor-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.ActorMiddleware())

	rate, err := limiter.NewRateFromFormatted(cfg.RateLimit)
	if err != nil {
		logger.Error("Invalid rate limit format", slog.String("value", cfg.RateLimit), slog.String("error", err.Error()))
		os.Exit(1)
	}
	r.Use(middleware.RateLimit(limiter.New(memory.NewStore(), rate)))

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, serviceContainer)

	if len(cfg.KafkaBrokers) > 0 {
		consumer := ingestkafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID, serviceContainer.Ingestion, logger)
		defer consumer.Close()
		go func() {
			logger.Info("Statement consumer starting", slog.String("topic", cfg.KafkaTopic))
			if err := consumer.Run(ctx); err != nil {
				logger.Error("Statement consumer stopped", slog.String("error", err.Error()))
			}
		}()
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to run", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", slog.String("error", err.Error()))
	}
}

// buildEmbedder picks the description embedding provider. Falls back to the
// deterministic local vectorizer when Gemini is not configured or fails to
// initialize, so reconciliation keeps working without the external service.
func buildEmbedder(ctx context.Context, cfg *config.Config, logger *slog.Logger) embedding.Provider {
	if cfg.GeminiAPIKey == "" {
		logger.Info("GEMINI_API_KEY not set, using local embedding provider")
		return embedding.NewHashingProvider()
	}
	gemini, err := embedding.NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiEmbedModel)
	if err != nil {
		logger.Warn("Gemini embedding provider unavailable, using local provider", slog.String("error", err.Error()))
		return embedding.NewHashingProvider()
	}
	return gemini
}
