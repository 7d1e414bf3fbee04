package config

import (
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL  string
	Port         string
	IsProduction bool

	// Reconciliation policy. The single-item auto-accept threshold (85) and
	// the batch auto-accept floor (80) differ deliberately: bulk mode keeps
	// its own, stricter review boundary. Both are kept as configurable
	// policy constants rather than collapsed into one.
	AutoAcceptScore   float64
	ReviewScore       float64
	BatchAcceptScore  float64
	MatchLookbackDays int
	AmountCeiling     float64

	// Embeddings. When a Gemini API key is set, description similarity uses
	// the Gemini embedding model; otherwise the deterministic local
	// vectorizer is used.
	GeminiAPIKey     string
	GeminiEmbedModel string

	// Statement ingestion over Kafka (optional; enabled when brokers are set).
	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string

	RateLimit string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("AUTO_ACCEPT_SCORE", 85.0)
	viper.SetDefault("REVIEW_SCORE", 60.0)
	viper.SetDefault("BATCH_ACCEPT_SCORE", 80.0)
	viper.SetDefault("MATCH_LOOKBACK_DAYS", 30)
	viper.SetDefault("AMOUNT_CEILING", 0.25)
	viper.SetDefault("GEMINI_API_KEY", "")
	viper.SetDefault("GEMINI_EMBED_MODEL", "text-embedding-004")
	viper.SetDefault("KAFKA_BROKERS", "")
	viper.SetDefault("KAFKA_TOPIC", "extracted_statements")
	viper.SetDefault("KAFKA_GROUP_ID", "ledgercore")
	viper.SetDefault("RATE_LIMIT", "100-M")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")

	cfg.AutoAcceptScore = viper.GetFloat64("AUTO_ACCEPT_SCORE")
	cfg.ReviewScore = viper.GetFloat64("REVIEW_SCORE")
	cfg.BatchAcceptScore = viper.GetFloat64("BATCH_ACCEPT_SCORE")
	if cfg.BatchAcceptScore > cfg.AutoAcceptScore {
		log.Printf("Warning: BATCH_ACCEPT_SCORE (%v) above AUTO_ACCEPT_SCORE (%v); batch mode is meant to be the lower floor.\n", cfg.BatchAcceptScore, cfg.AutoAcceptScore)
	}

	cfg.MatchLookbackDays = viper.GetInt("MATCH_LOOKBACK_DAYS")
	cfg.AmountCeiling = viper.GetFloat64("AMOUNT_CEILING")

	cfg.GeminiAPIKey = viper.GetString("GEMINI_API_KEY")
	cfg.GeminiEmbedModel = viper.GetString("GEMINI_EMBED_MODEL")

	if brokers := viper.GetString("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	cfg.KafkaTopic = viper.GetString("KAFKA_TOPIC")
	cfg.KafkaGroupID = viper.GetString("KAFKA_GROUP_ID")

	cfg.RateLimit = viper.GetString("RATE_LIMIT")

	return cfg, nil
}
