package sink

import (
	"context"
	"time"

	"github.com/Alias1177/SalesPredictor/internal/database"
	"github.com/Alias1177/SalesPredictor/models"
)

// PredictionLogger stores prediction rows
type PredictionLogger interface {
	InsertPredictionLog(ctx context.Context, row database.PredictionLog) error
}

// PredictionLogSink writes each event with its features to prediction_logs
type PredictionLogSink struct {
	db  PredictionLogger
	now func() time.Time
}

// NewPredictionLogSink creates a sink over db
func NewPredictionLogSink(db PredictionLogger) *PredictionLogSink {
	return &PredictionLogSink{db: db, now: time.Now}
}

// Notify inserts one row
func (s *PredictionLogSink) Notify(ctx context.Context, event models.PredictionEvent) error {
	f := event.Features
	return s.db.InsertPredictionLog(ctx, database.PredictionLog{
		Timestamp:    s.now().UTC(),
		SalesID:      event.Prediction.SalesID.String(),
		ModelVersion: event.Version,
		Store:        f.Store,
		Promo:        f.Promo,
		Holiday:      f.Holiday,
		Year:         f.Year,
		Month:        f.Month,
		DayOfWeek:    f.DayOfWeek,
		IsWeekend:    f.IsWeekend,
		Prediction:   event.Prediction.SalesPrediction,
	})
}
