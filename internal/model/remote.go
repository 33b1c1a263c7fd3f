package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	platformhttp "github.com/Alias1177/SalesPredictor/internal/platform/http"
	"github.com/Alias1177/SalesPredictor/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RemoteModel calls an MLflow-style scoring server
type RemoteModel struct {
	client  *platformhttp.Client
	baseURL string
	logger  zerolog.Logger
}

type invocationRequest struct {
	DataframeRecords []map[string]int `json:"dataframe_records"`
}

// NewRemoteModel creates a client for {baseURL}/invocations
func NewRemoteModel(client *platformhttp.Client, baseURL string) *RemoteModel {
	return &RemoteModel{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  log.With().Str("component", "remote_model").Logger(),
	}
}

// Predict implements models.Model
func (m *RemoteModel) Predict(ctx context.Context, features []models.FeatureSet) ([]float64, error) {
	req := invocationRequest{DataframeRecords: make([]map[string]int, len(features))}
	for i, f := range features {
		req.DataframeRecords[i] = f.Map()
	}

	var raw json.RawMessage
	if err := m.client.PostJSON(ctx, m.baseURL+"/invocations", req, &raw); err != nil {
		return nil, fmt.Errorf("scoring server: %w", err)
	}

	preds, err := parsePredictions(raw)
	if err != nil {
		m.logger.Error().Err(err).Str("response", string(raw)).Msg("Unexpected scoring response")
		return nil, err
	}

	m.logger.Debug().Int("count", len(preds)).Msg("Scored records")
	return preds, nil
}

// parsePredictions accepts {"predictions": [...]} and a bare array
func parsePredictions(raw json.RawMessage) ([]float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var preds []float64
		if err := json.Unmarshal(raw, &preds); err != nil {
			return nil, fmt.Errorf("parsing predictions: %w", err)
		}
		return preds, nil
	}

	var wrapped struct {
		Predictions []float64 `json:"predictions"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("parsing predictions: %w", err)
	}
	if wrapped.Predictions == nil {
		return nil, fmt.Errorf("response has no predictions")
	}
	return wrapped.Predictions, nil
}
