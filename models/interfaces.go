package models

import "context"

// Model scores a batch of feature sets, one value per set
type Model interface {
	Predict(ctx context.Context, features []FeatureSet) ([]float64, error)
}

// Sink receives every prediction event
type Sink interface {
	Notify(ctx context.Context, event PredictionEvent) error
}

// SinkFunc adapts a plain function to Sink
type SinkFunc func(ctx context.Context, event PredictionEvent) error

// Notify calls f
func (f SinkFunc) Notify(ctx context.Context, event PredictionEvent) error {
	return f(ctx, event)
}

// ModelFunc adapts a plain function to Model
type ModelFunc func(ctx context.Context, features []FeatureSet) ([]float64, error)

// Predict calls f
func (f ModelFunc) Predict(ctx context.Context, features []FeatureSet) ([]float64, error) {
	return f(ctx, features)
}
