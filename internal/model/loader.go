package model

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/Alias1177/SalesPredictor/internal/storage"
	"github.com/rs/zerolog/log"
)

// ArtifactFile is the file name of the model inside its artifact directory
const ArtifactFile = "model.json"

// LocationParams describes where a tracked model lives
type LocationParams struct {
	ModelLocation string
	Bucket        string
	ExperimentID  string
	RunID         string
}

// Location returns the explicit location if set, otherwise the tracking server layout
// s3://{bucket}/{experiment}/{run}/artifacts/model
func Location(p LocationParams) string {
	if p.ModelLocation != "" {
		return p.ModelLocation
	}
	return fmt.Sprintf("s3://%s/%s/%s/artifacts/model", p.Bucket, p.ExperimentID, p.RunID)
}

// Load reads the artifact at location. s3:// locations go through store,
// anything else is read from disk.
func Load(ctx context.Context, location string, store storage.ObjectStore) (*LinearModel, error) {
	var (
		data []byte
		err  error
	)

	if strings.HasPrefix(location, "s3://") {
		if store == nil {
			return nil, fmt.Errorf("no object store configured for %s", location)
		}
		bucket, prefix, perr := storage.ParseS3URI(location)
		if perr != nil {
			return nil, perr
		}
		data, err = store.GetObject(ctx, bucket, path.Join(prefix, ArtifactFile))
	} else {
		data, err = os.ReadFile(filepath.Join(location, ArtifactFile))
	}
	if err != nil {
		return nil, fmt.Errorf("loading model from %s: %w", location, err)
	}

	m, err := ParseLinearModel(data)
	if err != nil {
		return nil, err
	}
	log.Info().Str("location", location).Msg("Model loaded")
	return m, nil
}
