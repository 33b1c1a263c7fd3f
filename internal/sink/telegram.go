package sink

import (
	"context"
	"fmt"
	"strings"

	"github.com/Alias1177/SalesPredictor/internal/database"
	"github.com/Alias1177/SalesPredictor/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender is the part of *tgbotapi.BotAPI the sink needs
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramSink posts a short summary of each prediction to a chat
type TelegramSink struct {
	bot    Sender
	chatID int64
}

// NewTelegramSink creates a sink for chatID
func NewTelegramSink(bot Sender, chatID int64) *TelegramSink {
	return &TelegramSink{bot: bot, chatID: chatID}
}

// Notify sends the message. The bot API call has no context support,
// so only an already cancelled context is honoured.
func (s *TelegramSink) Notify(ctx context.Context, event models.PredictionEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(s.chatID, FormatSummary(event))
	if _, err := s.bot.Send(msg); err != nil {
		return fmt.Errorf("sending telegram message: %w", err)
	}
	return nil
}

// FormatSummary renders one line per event
func FormatSummary(event models.PredictionEvent) string {
	f := event.Features
	summary := fmt.Sprintf("Sales forecast %.2f for store %d (model %s)",
		event.Prediction.SalesPrediction, f.Store, event.Version)
	if id := event.Prediction.SalesID.String(); id != "" {
		summary += ", sales_id " + id
	}
	return summary
}

// SendDigest posts one message summarising logged predictions
func (s *TelegramSink) SendDigest(ctx context.Context, rows []database.PredictionLog) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(s.chatID, FormatDigest(rows))
	msg.ParseMode = "Markdown"
	if _, err := s.bot.Send(msg); err != nil {
		return fmt.Errorf("sending telegram digest: %w", err)
	}
	return nil
}

// FormatDigest renders the latest predictions, newest first, with their total
func FormatDigest(rows []database.PredictionLog) string {
	if len(rows) == 0 {
		return "*Sales forecasts*\nNo predictions logged yet."
	}

	var b strings.Builder
	total := 0.0
	fmt.Fprintf(&b, "*Sales forecasts* (last %d)\n", len(rows))
	for _, r := range rows {
		total += r.Prediction
		fmt.Fprintf(&b, "%s store %d: %.2f", r.Timestamp.Format("2006-01-02 15:04"), r.Store, r.Prediction)
		if r.ModelVersion != "" {
			fmt.Fprintf(&b, " (%s)", r.ModelVersion)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Total: %.2f", total)
	return b.String()
}
