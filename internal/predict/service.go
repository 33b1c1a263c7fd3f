package predict

import (
	"context"
	"errors"
	"fmt"

	"github.com/Alias1177/SalesPredictor/internal/calculate"
	"github.com/Alias1177/SalesPredictor/internal/codec"
	"github.com/Alias1177/SalesPredictor/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ModelService turns sales records into prediction events and fans them out to sinks.
// It keeps no state between calls; the model, version and sinks are fixed at construction.
type ModelService struct {
	model   models.Model
	version string
	sinks   []models.Sink
	decode  codec.Decoder
	logger  zerolog.Logger
}

// NewModelService creates a service around an already loaded model
func NewModelService(model models.Model, version string, sinks ...models.Sink) *ModelService {
	return &ModelService{
		model:   model,
		version: version,
		sinks:   append([]models.Sink(nil), sinks...),
		decode:  codec.DecodeBase64,
		logger:  log.With().Str("component", "model_service").Logger(),
	}
}

// WithDecoder returns a copy of the service that decodes stream payloads with d
func (s *ModelService) WithDecoder(d codec.Decoder) *ModelService {
	clone := *s
	clone.decode = d
	return &clone
}

// Version returns the model version reported in events
func (s *ModelService) Version() string {
	return s.version
}

// PrepareFeatures derives the feature set for one record
func (s *ModelService) PrepareFeatures(input models.SalesInput) (models.FeatureSet, error) {
	return calculate.Features(input)
}

// Predict scores a single feature set
func (s *ModelService) Predict(ctx context.Context, features models.FeatureSet) (float64, error) {
	preds, err := s.PredictBatch(ctx, []models.FeatureSet{features})
	if err != nil {
		return 0, err
	}
	return preds[0], nil
}

// PredictBatch scores several feature sets in one model call
func (s *ModelService) PredictBatch(ctx context.Context, features []models.FeatureSet) ([]float64, error) {
	if len(features) == 0 {
		return nil, nil
	}
	if s.model == nil {
		return nil, &models.ModelInferenceError{Err: errors.New("no model loaded")}
	}

	preds, err := s.model.Predict(ctx, features)
	if err != nil {
		return nil, &models.ModelInferenceError{Err: err}
	}
	if len(preds) != len(features) {
		return nil, &models.ModelInferenceError{
			Err: fmt.Errorf("model returned %d predictions for %d inputs", len(preds), len(features)),
		}
	}
	return preds, nil
}

// Process runs one decoded event through features, model and sinks.
// Sink failures are logged and never returned.
func (s *ModelService) Process(ctx context.Context, event models.SalesEvent) (*models.PredictionEvent, error) {
	features, err := s.PrepareFeatures(event.SalesInput)
	if err != nil {
		return nil, err
	}

	prediction, err := s.Predict(ctx, features)
	if err != nil {
		return nil, err
	}

	predictionEvent := models.PredictionEvent{
		Model:   models.ModelName,
		Version: s.version,
		Prediction: models.Prediction{
			SalesPrediction: prediction,
			SalesID:         event.SalesID,
		},
		Features: features,
	}

	s.notify(ctx, predictionEvent)
	return &predictionEvent, nil
}

// HandleEvent processes every record of a stream envelope in order.
// A bad record is reported in Failures and the rest are still processed.
func (s *ModelService) HandleEvent(ctx context.Context, event *models.KinesisEvent) *models.PredictionResult {
	result := &models.PredictionResult{Predictions: []models.PredictionEvent{}}
	if event == nil {
		return result
	}

	for i, record := range event.Records {
		salesEvent, err := s.decode(record.Kinesis.Data)
		if err != nil {
			s.logger.Warn().Err(err).Int("index", i).Msg("Skipping undecodable record")
			result.Failures = append(result.Failures, models.RecordFailure{Index: i, Error: err.Error()})
			continue
		}

		predictionEvent, err := s.Process(ctx, *salesEvent)
		if err != nil {
			s.logger.Warn().Err(err).Int("index", i).Str("sales_id", salesEvent.SalesID.String()).
				Msg("Skipping record")
			result.Failures = append(result.Failures, models.RecordFailure{
				Index:   i,
				SalesID: salesEvent.SalesID,
				Error:   err.Error(),
			})
			continue
		}

		result.Predictions = append(result.Predictions, *predictionEvent)
	}

	return result
}

func (s *ModelService) notify(ctx context.Context, event models.PredictionEvent) {
	for i, sink := range s.sinks {
		if err := notifyOne(ctx, sink, event); err != nil {
			failure := &models.SinkFailure{Sink: i, SalesID: event.Prediction.SalesID, Err: err}
			s.logger.Error().Err(failure).Int("sink", i).Str("sink_type", fmt.Sprintf("%T", sink)).
				Msg("Notification failed")
		}
	}
}

// notifyOne turns a panicking sink into an error so the remaining sinks still run
func notifyOne(ctx context.Context, sink models.Sink, event models.PredictionEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panicked: %v", r)
		}
	}()
	return sink.Notify(ctx, event)
}
