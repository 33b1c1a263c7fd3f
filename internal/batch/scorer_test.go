package batch

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/Alias1177/SalesPredictor/internal/predict"
	"github.com/Alias1177/SalesPredictor/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constantModel(value float64, calls *[]int) models.Model {
	return models.ModelFunc(func(_ context.Context, features []models.FeatureSet) ([]float64, error) {
		if calls != nil {
			*calls = append(*calls, len(features))
		}
		preds := make([]float64, len(features))
		for i := range preds {
			preds[i] = value
		}
		return preds, nil
	})
}

func newTestScorer(model models.Model, batchSize int) *Scorer {
	s := NewScorer(predict.NewModelService(model, "Test123"), batchSize, 0)
	n := 0
	s.newID = func() string {
		n++
		return "id-" + strconv.Itoa(n)
	}
	return s
}

func readOutput(t *testing.T, out string) [][]string {
	t.Helper()
	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.NotEmpty(t, records)
	assert.Equal(t, OutputColumns, records[0])
	return records[1:]
}

func TestScore(t *testing.T) {
	input := `date,store,promo,holiday,sales
2022-12-25,2,1,0,1200.5
2023-01-02,1,0,1,
`
	var out bytes.Buffer
	summary, err := newTestScorer(constantModel(500, nil), 10).Score(context.Background(), strings.NewReader(input), &out)
	require.NoError(t, err)
	assert.Equal(t, Summary{Rows: 2, Scored: 2}, summary)

	rows := readOutput(t, out.String())
	require.Len(t, rows, 2)
	assert.Equal(t, []string{
		"id-1", "2", "2022-12-25", "1", "0", "2022", "12", "25", "6", "1", "1200.5", "500", "Test123", "",
	}, rows[0])
	assert.Equal(t, []string{
		"id-2", "1", "2023-01-02", "0", "1", "2023", "1", "2", "0", "0", "", "500", "Test123", "",
	}, rows[1])
}

func TestScoreReportsBadRows(t *testing.T) {
	input := `store,date,promo,holiday
1,2023-01-03,0,0
2,not-a-date,1,0
3,2023-01-04,,0
x,2023-01-05,0,0
4,2023-01-06,1.0,0
`
	var out bytes.Buffer
	summary, err := newTestScorer(constantModel(10, nil), 10).Score(context.Background(), strings.NewReader(input), &out)
	require.NoError(t, err)
	assert.Equal(t, Summary{Rows: 5, Scored: 2, Failed: 3}, summary)

	rows := readOutput(t, out.String())
	require.Len(t, rows, 5)

	errCol := len(OutputColumns) - 1
	predCol := 11
	assert.Empty(t, rows[0][errCol])
	assert.Contains(t, rows[1][errCol], "date")
	assert.Empty(t, rows[1][predCol])
	assert.Contains(t, rows[2][errCol], "promo")
	assert.Contains(t, rows[3][errCol], "store")
	assert.Empty(t, rows[4][errCol])
	assert.Equal(t, "1", rows[4][3])
}

func TestScoreChunks(t *testing.T) {
	var input strings.Builder
	input.WriteString("date,store,promo,holiday\n")
	for i := 0; i < 7; i++ {
		input.WriteString("2023-01-02,1,0,0\n")
	}

	var calls []int
	var out bytes.Buffer
	summary, err := newTestScorer(constantModel(1, &calls), 3).Score(context.Background(), strings.NewReader(input.String()), &out)
	require.NoError(t, err)
	assert.Equal(t, 7, summary.Scored)
	assert.Equal(t, []int{3, 3, 1}, calls)
}

func TestScoreBoundsChunkOfInvalidRows(t *testing.T) {
	// invalid rows count towards the chunk size, so every second row flushes
	input := `date,store,promo,holiday
bad-date,1,0,0
2023-01-02,1,0,0
bad-date,1,0,0
2023-01-03,1,0,0
bad-date,1,0,0
bad-date,1,0,0
bad-date,1,0,0
`
	var calls []int
	var out bytes.Buffer
	summary, err := newTestScorer(constantModel(1, &calls), 2).Score(context.Background(), strings.NewReader(input), &out)
	require.NoError(t, err)
	assert.Equal(t, Summary{Rows: 7, Scored: 2, Failed: 5}, summary)
	assert.Equal(t, []int{1, 1}, calls)

	rows := readOutput(t, out.String())
	require.Len(t, rows, 7)
	assert.Empty(t, rows[1][len(OutputColumns)-1])
	assert.Empty(t, rows[3][len(OutputColumns)-1])
}

func TestScoreModelFailureMarksChunk(t *testing.T) {
	failing := models.ModelFunc(func(context.Context, []models.FeatureSet) ([]float64, error) {
		return nil, errors.New("server unavailable")
	})
	input := "date,store,promo,holiday\n2023-01-02,1,0,0\n2023-01-03,1,0,0\n"

	var out bytes.Buffer
	summary, err := newTestScorer(failing, 10).Score(context.Background(), strings.NewReader(input), &out)
	require.NoError(t, err)
	assert.Equal(t, Summary{Rows: 2, Failed: 2}, summary)

	for _, r := range readOutput(t, out.String()) {
		assert.Contains(t, r[len(OutputColumns)-1], "model inference failed")
	}
}

func TestScoreMissingColumn(t *testing.T) {
	_, err := newTestScorer(constantModel(1, nil), 10).Score(context.Background(),
		strings.NewReader("date,store,promo\n2023-01-02,1,0\n"), &bytes.Buffer{})
	assert.ErrorContains(t, err, "holiday")
}

func TestScoreCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestScorer(constantModel(1, nil), 10).Score(ctx,
		strings.NewReader("date,store,promo,holiday\n2023-01-02,1,0,0\n"), &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScoreFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "test.csv")
	require.NoError(t, os.WriteFile(input, []byte("date,store,promo,holiday\n2022-12-25,2,1,0\n"), 0o644))

	output := filepath.Join(dir, "output", "test_output.csv")
	scorer := NewScorer(predict.NewModelService(constantModel(500, nil), "Test123"), 0, 0)
	summary, err := scorer.ScoreFile(context.Background(), input, output)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Scored)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	rows := readOutput(t, string(data))
	require.Len(t, rows, 1)
	assert.Len(t, rows[0][0], 36)
}
