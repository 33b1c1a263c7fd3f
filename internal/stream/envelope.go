package stream

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Alias1177/SalesPredictor/internal/predict"
	"github.com/Alias1177/SalesPredictor/models"
)

// HandleEnvelope handles one JSON stream envelope of the form {"Records": [...]}
func HandleEnvelope(ctx context.Context, svc *predict.ModelService, raw []byte) (*models.PredictionResult, error) {
	var event models.KinesisEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return nil, fmt.Errorf("parsing stream envelope: %w", err)
	}
	return svc.HandleEvent(ctx, &event), nil
}
