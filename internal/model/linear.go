package model

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/Alias1177/SalesPredictor/models"
)

// LinearArtifact is the exported form of a dict-vectorized linear regressor.
// Numeric features use Coefficients; one-hot encoded features use Categorical
// keys of the form "name=value".
type LinearArtifact struct {
	Intercept    float64            `json:"intercept"`
	Coefficients map[string]float64 `json:"coefficients"`
	Categorical  map[string]float64 `json:"categorical,omitempty"`
}

// LinearModel scores feature sets with a LinearArtifact
type LinearModel struct {
	artifact LinearArtifact
}

// NewLinearModel validates an artifact and wraps it
func NewLinearModel(artifact LinearArtifact) (*LinearModel, error) {
	known := make(map[string]bool, len(models.FeatureNames))
	for _, name := range models.FeatureNames {
		known[name] = true
	}
	for name := range artifact.Coefficients {
		if !known[name] {
			return nil, fmt.Errorf("artifact has coefficient for unknown feature %q", name)
		}
	}
	return &LinearModel{artifact: artifact}, nil
}

// ParseLinearModel decodes a model.json artifact
func ParseLinearModel(data []byte) (*LinearModel, error) {
	var artifact LinearArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("parsing model artifact: %w", err)
	}
	return NewLinearModel(artifact)
}

// Predict implements models.Model
func (m *LinearModel) Predict(ctx context.Context, features []models.FeatureSet) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	preds := make([]float64, len(features))
	for i, f := range features {
		score := m.artifact.Intercept
		values := f.Map()
		for _, name := range models.FeatureNames {
			value := values[name]
			score += m.artifact.Coefficients[name] * float64(value)
			if len(m.artifact.Categorical) > 0 {
				score += m.artifact.Categorical[name+"="+strconv.Itoa(value)]
			}
		}
		preds[i] = score
	}
	return preds, nil
}
