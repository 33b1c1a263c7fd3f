package model

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	platformhttp "github.com/Alias1177/SalesPredictor/internal/platform/http"
	"github.com/Alias1177/SalesPredictor/internal/storage"
	"github.com/Alias1177/SalesPredictor/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const artifactJSON = `{
	"intercept": 100,
	"coefficients": {"promo": 50, "is_weekend": -20},
	"categorical": {"store=2": 10}
}`

var sunday = models.FeatureSet{Store: 2, Promo: 1, Holiday: 0, Year: 2022, Month: 12, DayOfWeek: 6, IsWeekend: 1}

func TestLinearModelPredict(t *testing.T) {
	m, err := ParseLinearModel([]byte(artifactJSON))
	require.NoError(t, err)

	other := sunday
	other.Store = 3
	other.Promo = 0
	other.IsWeekend = 0

	preds, err := m.Predict(context.Background(), []models.FeatureSet{sunday, other})
	require.NoError(t, err)
	assert.InDelta(t, 140.0, preds[0], 1e-9)
	assert.InDelta(t, 100.0, preds[1], 1e-9)
}

func TestLinearModelRejectsUnknownFeature(t *testing.T) {
	_, err := ParseLinearModel([]byte(`{"intercept": 1, "coefficients": {"weather": 2}}`))
	assert.Error(t, err)

	_, err = ParseLinearModel([]byte(`not json`))
	assert.Error(t, err)
}

func TestLocation(t *testing.T) {
	tests := []struct {
		name   string
		params LocationParams
		want   string
	}{
		{
			name:   "explicit location wins",
			params: LocationParams{ModelLocation: "/models/latest", Bucket: "b", ExperimentID: "6", RunID: "r"},
			want:   "/models/latest",
		},
		{
			name:   "tracking layout",
			params: LocationParams{Bucket: "mlartifact-s3", ExperimentID: "6", RunID: "080e0226"},
			want:   "s3://mlartifact-s3/6/080e0226/artifacts/model",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Location(tt.params))
		})
	}
}

func TestLoadFromObjectStore(t *testing.T) {
	store := storage.NewLocalStore(t.TempDir())
	ctx := context.Background()
	require.NoError(t, store.PutObject(ctx, "mlartifact-s3", "6/run1/artifacts/model/model.json", []byte(artifactJSON)))

	location := Location(LocationParams{Bucket: "mlartifact-s3", ExperimentID: "6", RunID: "run1"})
	m, err := Load(ctx, location, store)
	require.NoError(t, err)

	preds, err := m.Predict(ctx, []models.FeatureSet{sunday})
	require.NoError(t, err)
	assert.InDelta(t, 140.0, preds[0], 1e-9)

	_, err = Load(ctx, "s3://mlartifact-s3/6/missing/artifacts/model", store)
	assert.Error(t, err)

	_, err = Load(ctx, location, nil)
	assert.Error(t, err)
}

func TestLoadFromDisk(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ArtifactFile), []byte(artifactJSON), 0o644))

	m, err := Load(context.Background(), dir, nil)
	require.NoError(t, err)
	assert.NotNil(t, m)
}

func TestRemoteModel(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     []float64
		wantErr  bool
	}{
		{name: "wrapped", response: `{"predictions": [222.69, 10]}`, want: []float64{222.69, 10}},
		{name: "bare list", response: `[1.5, 2.5]`, want: []float64{1.5, 2.5}},
		{name: "no predictions", response: `{"other": 1}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/invocations", r.URL.Path)
				body, _ := io.ReadAll(r.Body)
				var req invocationRequest
				require.NoError(t, json.Unmarshal(body, &req))
				assert.Len(t, req.DataframeRecords, 2)
				assert.Equal(t, 6, req.DataframeRecords[0]["dayofweek"])
				w.Write([]byte(tt.response))
			}))
			defer srv.Close()

			client := platformhttp.NewClient(platformhttp.ClientOptions{
				Timeout:         time.Second,
				RequestsPerSec:  50,
				MaxRetryTimeout: time.Second,
				InitialInterval: 5 * time.Millisecond,
			})
			m := NewRemoteModel(client, srv.URL+"/")

			preds, err := m.Predict(context.Background(), []models.FeatureSet{sunday, sunday})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, preds)
		})
	}
}
