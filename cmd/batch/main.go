package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/Alias1177/SalesPredictor/internal/app"
	"github.com/Alias1177/SalesPredictor/internal/batch"
	"github.com/Alias1177/SalesPredictor/internal/config"
	"github.com/rs/zerolog/log"
)

// Usage: batch <input.csv> <output_name>
// Results are written to output/<output_name>.csv
func main() {
	if len(os.Args) != 3 {
		log.Fatal().Msg("usage: batch <input.csv> <output_name>")
	}
	inputFile := os.Args[1]
	outputFile := filepath.Join("output", os.Args[2]+".csv")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	config.SetupLogger(cfg.LogLevel)

	// Batch scoring only writes the output file
	cfg.TestRun = true
	components, err := app.Build(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load model")
	}
	defer components.Close()

	log.Info().Str("input", inputFile).Str("output", outputFile).Str("run_id", cfg.RunID).Msg("Applying the model")
	scorer := batch.NewScorer(components.Service, cfg.BatchSize, cfg.RequestTimeoutDuration())
	summary, err := scorer.ScoreFile(ctx, inputFile, outputFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Batch scoring failed")
	}
	if summary.Failed > 0 {
		log.Warn().Int("failed", summary.Failed).Msg("Some rows could not be scored, see the error column")
	}
}
