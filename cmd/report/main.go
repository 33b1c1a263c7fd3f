package main

import (
	"context"
	"flag"
	"time"

	"github.com/Alias1177/SalesPredictor/internal/config"
	"github.com/Alias1177/SalesPredictor/internal/database"
	"github.com/Alias1177/SalesPredictor/internal/sink"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// Posts the latest logged predictions to the configured Telegram chat
func main() {
	limit := flag.Int("limit", 20, "number of predictions to include")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	config.SetupLogger(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeoutDuration()+10*time.Second)
	defer cancel()

	// Initialize database
	db, err := database.New(ctx, database.ConnectionParams{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	// Initialize Telegram bot
	if cfg.TelegramBotToken == "" || cfg.TelegramChatID == 0 {
		log.Fatal().Msg("TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID must be set in environment")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Telegram bot")
	}

	rows, err := db.RecentPredictionLogs(ctx, *limit)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read prediction logs")
	}
	log.Info().Int("rows", len(rows)).Msg("Found logged predictions")

	if err := sink.NewTelegramSink(bot, cfg.TelegramChatID).SendDigest(ctx, rows); err != nil {
		log.Fatal().Err(err).Msg("Failed to send report")
	}
	log.Info().Int64("chat_id", cfg.TelegramChatID).Msg("Report sent")
}
