package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Alias1177/SalesPredictor/internal/app"
	"github.com/Alias1177/SalesPredictor/internal/config"
	httpserver "github.com/Alias1177/SalesPredictor/internal/server/http"
	"github.com/rs/zerolog/log"
)

func main() {
	// Setup context with cancellation for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// 2. Configure logging
	config.SetupLogger(cfg.LogLevel)
	log.Info().Str("env", cfg.AppEnv).Msg("Starting sales prediction web service")

	// 3. Load model and sinks
	components, err := app.Build(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize prediction service")
	}
	defer components.Close()

	var lookup httpserver.PredictionLookup
	if components.Lookup != nil {
		lookup = components.Lookup
	}

	// 4. Serve
	handler := httpserver.NewHandler(components.Service, lookup, cfg.RequestTimeoutDuration())
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: httpserver.NewRouter(cfg.AppEnv, handler),
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutdown signal received, exiting...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
