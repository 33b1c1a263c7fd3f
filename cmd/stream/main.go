package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Alias1177/SalesPredictor/internal/app"
	"github.com/Alias1177/SalesPredictor/internal/config"
	"github.com/Alias1177/SalesPredictor/internal/stream"
	"github.com/rs/zerolog/log"
)

func main() {
	eventFile := flag.String("event", "", "handle one JSON stream envelope from this file and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	config.SetupLogger(cfg.LogLevel)

	// 2. Load model and sinks
	components, err := app.Build(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize prediction service")
	}
	defer components.Close()

	// 3a. Single envelope
	if *eventFile != "" {
		raw, err := os.ReadFile(*eventFile)
		if err != nil {
			log.Fatal().Err(err).Str("file", *eventFile).Msg("Failed to read event")
		}
		handleCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeoutDuration())
		defer cancel()

		result, err := stream.HandleEnvelope(handleCtx, components.Service, raw)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to handle event")
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			log.Fatal().Err(err).Msg("Failed to write result")
		}
		return
	}

	// 3b. Consume the sales topic
	if cfg.KafkaBootstrapServers == "" {
		log.Fatal().Msg("KAFKA_BOOTSTRAP_SERVERS not set in environment")
	}
	kc, err := stream.NewKafkaConsumer(cfg.KafkaBootstrapServers, cfg.KafkaGroupID, cfg.SalesStreamName)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start consumer")
	}
	defer kc.Close()

	consumer := stream.NewConsumer(kc, components.Service, stream.Options{
		BatchSize:     cfg.StreamBatchSize,
		PollTimeout:   time.Second,
		HandleTimeout: cfg.RequestTimeoutDuration(),
	})
	log.Info().Str("topic", cfg.SalesStreamName).Str("group", cfg.KafkaGroupID).Msg("Starting stream consumer")
	if err := consumer.Run(ctx); err != nil {
		log.Error().Err(err).Msg("Consumer stopped")
		return
	}
	log.Info().Msg("Shutdown signal received, exiting...")
}
