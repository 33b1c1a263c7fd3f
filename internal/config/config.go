package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration
type Config struct {
	LogLevel string
	AppEnv   string
	Port     string

	// Model
	RunID          string
	ModelLocation  string
	BucketName     string
	ExperimentID   string
	ModelServerURL string
	RequestTimeout int // seconds
	RequestsPerSec int
	S3EndpointURL  string
	S3Region       string
	S3UseSSL       bool
	AWSAccessKeyID string
	AWSSecretKey   string

	// Stream
	KafkaBootstrapServers string
	KafkaGroupID          string
	SalesStreamName       string
	PredictionsStreamName string
	StreamBatchSize       int
	StreamPayloadEncoding string

	// Sinks
	TestRun          bool
	DBHost           string
	DBPort           string
	DBUser           string
	DBPassword       string
	DBName           string
	DBSSLMode        string
	TelegramBotToken string
	TelegramChatID   int64
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	CacheTTL         time.Duration

	// Batch
	BatchSize int
}

// Load initializes configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	var cfg Config

	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")
	cfg.AppEnv = getEnvWithDefault("APP_ENV", "dev")
	cfg.Port = getEnvWithDefault("PORT", "9696")

	cfg.RunID = os.Getenv("RUN_ID")
	cfg.ModelLocation = os.Getenv("MODEL_LOCATION")
	cfg.BucketName = getEnvWithDefault("S3_BUCKET_NAME", "mlartifact-s3")
	cfg.ExperimentID = getEnvWithDefault("EXP_ID", "6")
	cfg.ModelServerURL = os.Getenv("MODEL_SERVER_URL")
	cfg.RequestTimeout = getEnvIntWithDefault("REQUEST_TIMEOUT", 30)
	cfg.RequestsPerSec = getEnvIntWithDefault("REQUESTS_PER_SEC", 5)
	cfg.S3EndpointURL = os.Getenv("S3_ENDPOINT_URL")
	cfg.S3Region = os.Getenv("S3_REGION")
	cfg.S3UseSSL = getEnvBoolWithDefault("S3_USE_SSL", true)
	cfg.AWSAccessKeyID = os.Getenv("AWS_ACCESS_KEY_ID")
	cfg.AWSSecretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")

	cfg.KafkaBootstrapServers = os.Getenv("KAFKA_BOOTSTRAP_SERVERS")
	cfg.KafkaGroupID = getEnvWithDefault("KAFKA_GROUP_ID", "sales-prediction")
	cfg.SalesStreamName = getEnvWithDefault("SALES_STREAM_NAME", "sales_events")
	cfg.PredictionsStreamName = getEnvWithDefault("PREDICTIONS_STREAM_NAME", "sales_predictions")
	cfg.StreamBatchSize = getEnvIntWithDefault("STREAM_BATCH_SIZE", 100)
	cfg.StreamPayloadEncoding = getEnvWithDefault("STREAM_PAYLOAD_ENCODING", "base64")

	cfg.TestRun = getEnvBoolWithDefault("TEST_RUN", false)
	cfg.DBHost = os.Getenv("DB_HOST")
	cfg.DBPort = getEnvWithDefault("DB_PORT", "5432")
	cfg.DBUser = os.Getenv("DB_USER")
	cfg.DBPassword = os.Getenv("DB_PASSWORD")
	cfg.DBName = os.Getenv("DB_NAME")
	cfg.DBSSLMode = os.Getenv("DB_SSLMODE")
	cfg.TelegramBotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.TelegramChatID = getEnvInt64WithDefault("TELEGRAM_CHAT_ID", 0)
	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.RedisDB = getEnvIntWithDefault("REDIS_DB", 0)
	cfg.CacheTTL = getEnvDurationWithDefault("PREDICTION_CACHE_TTL", 24*time.Hour)

	cfg.BatchSize = getEnvIntWithDefault("BATCH_SIZE", 500)

	return &cfg, nil
}

// RequestTimeoutDuration converts RequestTimeout to a duration
func (c *Config) RequestTimeoutDuration() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// SetupLogger configures the global logger for a binary
func SetupLogger(level string) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64WithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}
