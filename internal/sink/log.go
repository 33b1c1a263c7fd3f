package sink

import (
	"context"

	"github.com/Alias1177/SalesPredictor/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogSink writes events to the log instead of an external system
type LogSink struct {
	logger zerolog.Logger
}

// NewLogSink creates a sink on the global logger
func NewLogSink() *LogSink {
	return &LogSink{logger: log.With().Str("component", "log_sink").Logger()}
}

// Notify never fails
func (s *LogSink) Notify(_ context.Context, event models.PredictionEvent) error {
	s.logger.Debug().
		Str("model", event.Model).
		Str("version", event.Version).
		Str("sales_id", event.Prediction.SalesID.String()).
		Float64("sales_prediction", event.Prediction.SalesPrediction).
		Msg("Prediction")
	return nil
}
