package predict

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Alias1177/SalesPredictor/internal/codec"
	"github.com/Alias1177/SalesPredictor/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePayload = "eyJzYWxlc19pbnB1dCI6IHsiZGF0ZSI6ICIyMDIyLTEyLTI1IiwgInN0b3JlIjogMiwgInByb21vIjogMSwgImhvbGlkYXkiOiAwfSwgInNhbGVzX2lkIjogNTEyfQ=="

// modelMock always returns the same value, once per input
type modelMock struct {
	value float64
	calls int
}

func (m *modelMock) Predict(_ context.Context, features []models.FeatureSet) ([]float64, error) {
	m.calls++
	preds := make([]float64, len(features))
	for i := range preds {
		preds[i] = m.value
	}
	return preds, nil
}

type recordingSink struct {
	name   string
	events *[]string
	err    error
}

func (s recordingSink) Notify(_ context.Context, event models.PredictionEvent) error {
	*s.events = append(*s.events, s.name+":"+event.Prediction.SalesID.String())
	return s.err
}

func encode(t *testing.T, date string, id int64) string {
	t.Helper()
	payload, err := codec.EncodeBase64(models.SalesEvent{
		SalesInput: models.NewSalesInput(date, 1, 0, 0),
		SalesID:    models.NewIntSalesID(id),
	})
	require.NoError(t, err)
	return payload
}

func TestPrepareFeatures(t *testing.T) {
	service := NewModelService(nil, "")
	features, err := service.PrepareFeatures(models.NewSalesInput("2022-12-25", 2, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, models.FeatureSet{
		Store: 2, Promo: 1, Holiday: 0, Year: 2022, Month: 12, DayOfWeek: 6, IsWeekend: 1,
	}, features)
}

func TestPredict(t *testing.T) {
	service := NewModelService(&modelMock{value: 500.0}, "")
	features := models.FeatureSet{Store: 2, Promo: 1, Year: 2022, Month: 12, DayOfWeek: 6, IsWeekend: 1}

	prediction, err := service.Predict(context.Background(), features)
	require.NoError(t, err)
	assert.Equal(t, 500.0, prediction)
}

func TestPredictErrors(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name  string
		model models.Model
	}{
		{name: "no model", model: nil},
		{name: "model error", model: models.ModelFunc(func(context.Context, []models.FeatureSet) ([]float64, error) {
			return nil, boom
		})},
		{name: "empty result", model: models.ModelFunc(func(context.Context, []models.FeatureSet) ([]float64, error) {
			return []float64{}, nil
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewModelService(tt.model, "v")
			_, err := service.Predict(context.Background(), models.FeatureSet{})
			var inferenceErr *models.ModelInferenceError
			require.True(t, errors.As(err, &inferenceErr), "got %v", err)
		})
	}
}

func TestPredictDeadline(t *testing.T) {
	slow := models.ModelFunc(func(ctx context.Context, _ []models.FeatureSet) ([]float64, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := NewModelService(slow, "v").Predict(ctx, models.FeatureSet{})
	var inferenceErr *models.ModelInferenceError
	require.True(t, errors.As(err, &inferenceErr))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestHandleEvent(t *testing.T) {
	service := NewModelService(&modelMock{value: 500.0}, "Test123")

	result := service.HandleEvent(context.Background(), models.NewKinesisEvent(samplePayload))

	require.Len(t, result.Predictions, 1)
	assert.Empty(t, result.Failures)

	out, err := json.Marshal(result)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"predictions": [
			{
				"model": "sales_prediction_model",
				"version": "Test123",
				"prediction": {"sales_prediction": 500.0, "sales_id": 512}
			}
		]
	}`, string(out))
}

func TestHandleEventSkipsMalformedRecords(t *testing.T) {
	var calls []string
	service := NewModelService(&modelMock{value: 1}, "v",
		recordingSink{name: "a", events: &calls},
		recordingSink{name: "b", events: &calls},
	)

	event := models.NewKinesisEvent(
		encode(t, "2023-01-01", 1),
		"not-base64!!",
		encode(t, "2023-01-02", 3),
		encode(t, "2023-13-45", 4),
		encode(t, "2023-01-03", 5),
	)

	result := service.HandleEvent(context.Background(), event)

	require.Len(t, result.Predictions, 3)
	assert.Equal(t, "1", result.Predictions[0].Prediction.SalesID.String())
	assert.Equal(t, "3", result.Predictions[1].Prediction.SalesID.String())
	assert.Equal(t, "5", result.Predictions[2].Prediction.SalesID.String())

	require.Len(t, result.Failures, 2)
	assert.Equal(t, 1, result.Failures[0].Index)
	assert.True(t, result.Failures[0].SalesID.IsZero())
	assert.Equal(t, 3, result.Failures[1].Index)
	assert.Equal(t, "4", result.Failures[1].SalesID.String())

	assert.Equal(t, []string{"a:1", "b:1", "a:3", "b:3", "a:5", "b:5"}, calls)
}

func TestHandleEventIsolatesSinkFailures(t *testing.T) {
	var calls []string
	service := NewModelService(&modelMock{value: 7}, "v",
		recordingSink{name: "broken", events: &calls, err: errors.New("stream unavailable")},
		recordingSink{name: "ok", events: &calls},
	)

	result := service.HandleEvent(context.Background(), models.NewKinesisEvent(
		encode(t, "2023-01-01", 10),
		encode(t, "2023-01-02", 11),
	))

	require.Len(t, result.Predictions, 2)
	assert.Empty(t, result.Failures)
	assert.Equal(t, 7.0, result.Predictions[0].Prediction.SalesPrediction)
	assert.Equal(t, []string{"broken:10", "ok:10", "broken:11", "ok:11"}, calls)
}

func TestHandleEventIsolatesSinkPanic(t *testing.T) {
	var calls []string
	panicking := models.SinkFunc(func(context.Context, models.PredictionEvent) error {
		panic("stream client nil")
	})
	service := NewModelService(&modelMock{value: 3}, "v", panicking, recordingSink{name: "ok", events: &calls})

	var result *models.PredictionResult
	require.NotPanics(t, func() {
		result = service.HandleEvent(context.Background(), models.NewKinesisEvent(
			encode(t, "2023-01-01", 10),
			encode(t, "2023-01-02", 11),
		))
	})

	require.Len(t, result.Predictions, 2)
	assert.Empty(t, result.Failures)
	assert.Equal(t, []string{"ok:10", "ok:11"}, calls)
}

func TestNotifyOneRecoversPanic(t *testing.T) {
	err := notifyOne(context.Background(), models.SinkFunc(func(context.Context, models.PredictionEvent) error {
		panic("boom")
	}), models.PredictionEvent{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sink panicked: boom")
}

func TestHandleEventModelFailure(t *testing.T) {
	failing := models.ModelFunc(func(context.Context, []models.FeatureSet) ([]float64, error) {
		return nil, errors.New("model offline")
	})
	var calls []string
	service := NewModelService(failing, "v", recordingSink{name: "s", events: &calls})

	result := service.HandleEvent(context.Background(), models.NewKinesisEvent(samplePayload))

	assert.Empty(t, result.Predictions)
	require.Len(t, result.Failures, 1)
	assert.Contains(t, result.Failures[0].Error, "model offline")
	assert.Empty(t, calls)
}

func TestHandleEventNil(t *testing.T) {
	result := NewModelService(&modelMock{}, "v").HandleEvent(context.Background(), nil)
	assert.Empty(t, result.Predictions)
	assert.Empty(t, result.Failures)
}

func TestWithDecoder(t *testing.T) {
	base := NewModelService(&modelMock{value: 2}, "v")
	jsonService := base.WithDecoder(codec.DecodeJSON)

	raw := `{"sales_input":{"date":"2022-12-25","store":2,"promo":1,"holiday":0},"sales_id":"abc"}`
	result := jsonService.HandleEvent(context.Background(), models.NewKinesisEvent(raw))
	require.Len(t, result.Predictions, 1)
	assert.Equal(t, "abc", result.Predictions[0].Prediction.SalesID.String())

	// the receiver is unchanged and still expects base64
	result = base.HandleEvent(context.Background(), models.NewKinesisEvent(raw))
	assert.Empty(t, result.Predictions)
	assert.Equal(t, "v", base.Version())
}
