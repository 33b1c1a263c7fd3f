package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Alias1177/SalesPredictor/internal/codec"
	"github.com/Alias1177/SalesPredictor/internal/config"
	"github.com/Alias1177/SalesPredictor/internal/database"
	"github.com/Alias1177/SalesPredictor/internal/model"
	platformhttp "github.com/Alias1177/SalesPredictor/internal/platform/http"
	"github.com/Alias1177/SalesPredictor/internal/predict"
	"github.com/Alias1177/SalesPredictor/internal/sink"
	"github.com/Alias1177/SalesPredictor/internal/storage"
	"github.com/Alias1177/SalesPredictor/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// Components is everything a driver needs, built from one Config
type Components struct {
	Service *predict.ModelService

	// Lookup is nil unless a prediction cache is configured
	Lookup *sink.RedisLookup

	closers []func()
}

// Close releases sink connections in reverse order of creation
func (c *Components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

// Build loads the model and connects every configured sink
func Build(ctx context.Context, cfg *config.Config) (*Components, error) {
	m, err := LoadModel(ctx, cfg)
	if err != nil {
		return nil, err
	}

	decoder, err := codec.ForEncoding(cfg.StreamPayloadEncoding)
	if err != nil {
		return nil, err
	}

	c := &Components{}
	sinks, err := c.connectSinks(ctx, cfg)
	if err != nil {
		c.Close()
		return nil, err
	}

	c.Service = predict.NewModelService(m, cfg.RunID, sinks...).WithDecoder(decoder)
	log.Info().Str("version", cfg.RunID).Int("sinks", len(sinks)).Msg("Prediction service ready")
	return c, nil
}

// LoadModel returns a remote scoring client when MODEL_SERVER_URL is set,
// otherwise the artifact from MODEL_LOCATION or the tracking layout
func LoadModel(ctx context.Context, cfg *config.Config) (models.Model, error) {
	if cfg.ModelServerURL != "" {
		client := platformhttp.NewClient(platformhttp.ClientOptions{
			Timeout:         cfg.RequestTimeoutDuration(),
			RequestsPerSec:  cfg.RequestsPerSec,
			MaxRetryTimeout: cfg.RequestTimeoutDuration(),
		})
		log.Info().Str("url", cfg.ModelServerURL).Msg("Using remote model server")
		return model.NewRemoteModel(client, cfg.ModelServerURL), nil
	}

	location := model.Location(model.LocationParams{
		ModelLocation: cfg.ModelLocation,
		Bucket:        cfg.BucketName,
		ExperimentID:  cfg.ExperimentID,
		RunID:         cfg.RunID,
	})

	var store storage.ObjectStore
	if strings.HasPrefix(location, "s3://") {
		s3, err := storage.NewS3Store(storage.S3Params{
			EndpointURL:     cfg.S3EndpointURL,
			Region:          cfg.S3Region,
			UseSSL:          cfg.S3UseSSL,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretKey,
		})
		if err != nil {
			return nil, err
		}
		store = s3
	}

	return model.Load(ctx, location, store)
}

func (c *Components) connectSinks(ctx context.Context, cfg *config.Config) ([]models.Sink, error) {
	if cfg.TestRun {
		log.Info().Msg("TEST_RUN set, predictions are only logged")
		return []models.Sink{sink.NewLogSink()}, nil
	}

	var sinks []models.Sink

	if cfg.KafkaBootstrapServers != "" {
		producer, err := sink.NewKafkaProducer(cfg.KafkaBootstrapServers)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, func() {
			producer.Flush(int((5 * time.Second).Milliseconds()))
			producer.Close()
		})
		sinks = append(sinks, sink.NewKafkaSink(producer, cfg.PredictionsStreamName))
	}

	dbParams := database.ConnectionParams{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	}
	if dbParams.Configured() {
		db, err := database.New(ctx, dbParams)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		c.closers = append(c.closers, func() { db.Close() })
		sinks = append(sinks, sink.NewPredictionLogSink(db))
	}

	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != 0 {
		bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Telegram bot: %w", err)
		}
		sinks = append(sinks, sink.NewTelegramSink(bot, cfg.TelegramChatID))
	}

	if cfg.RedisAddr != "" {
		client, err := sink.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, func() { client.Close() })
		sinks = append(sinks, sink.NewRedisSink(client, cfg.CacheTTL))
		c.Lookup = sink.NewRedisLookup(client)
	}

	return sinks, nil
}
