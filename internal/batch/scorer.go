package batch

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Alias1177/SalesPredictor/internal/calculate"
	"github.com/Alias1177/SalesPredictor/internal/predict"
	"github.com/Alias1177/SalesPredictor/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// OutputColumns is the header of every scored file
var OutputColumns = []string{
	"sales_id", "store", "date", "promo", "holiday",
	"year", "month", "day", "dayofweek", "is_weekend",
	"sales", "sales_prediction", "model_version", "error",
}

var requiredColumns = []string{"date", "store", "promo", "holiday"}

// Summary counts the rows of one run
type Summary struct {
	Rows   int
	Scored int
	Failed int
}

// Scorer scores a CSV file of sales records in chunks
type Scorer struct {
	svc       *predict.ModelService
	batchSize int
	timeout   time.Duration
	newID     func() string
	logger    zerolog.Logger
}

// NewScorer creates a scorer. timeout bounds each model call, 0 means no bound.
func NewScorer(svc *predict.ModelService, batchSize int, timeout time.Duration) *Scorer {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &Scorer{
		svc:       svc,
		batchSize: batchSize,
		timeout:   timeout,
		newID:     func() string { return uuid.New().String() },
		logger:    log.With().Str("component", "batch_scorer").Logger(),
	}
}

type row struct {
	salesID    string
	input      models.SalesInput
	sales      string
	features   models.FeatureSet
	day        int
	prediction float64
	err        error
}

// ScoreFile reads inputPath and writes the scored rows to outputPath,
// creating its directory if needed
func (s *Scorer) ScoreFile(ctx context.Context, inputPath, outputPath string) (Summary, error) {
	in, err := os.Open(inputPath)
	if err != nil {
		return Summary{}, fmt.Errorf("opening input: %w", err)
	}
	defer in.Close()

	if dir := filepath.Dir(outputPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Summary{}, fmt.Errorf("creating output directory: %w", err)
		}
	}
	out, err := os.Create(outputPath)
	if err != nil {
		return Summary{}, fmt.Errorf("creating output: %w", err)
	}

	summary, err := s.Score(ctx, in, out)
	if cerr := out.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("closing output: %w", cerr)
	}
	return summary, err
}

// Score reads CSV records from r and writes one output row per input row to w.
// Rows that cannot be scored keep their place with the error column filled.
func (s *Scorer) Score(ctx context.Context, r io.Reader, w io.Writer) (Summary, error) {
	var summary Summary

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return summary, fmt.Errorf("reading header: %w", err)
	}
	columns, err := indexColumns(header)
	if err != nil {
		return summary, err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(OutputColumns); err != nil {
		return summary, fmt.Errorf("writing header: %w", err)
	}

	chunk := make([]*row, 0, s.batchSize)
	valid := 0
	flush := func() error {
		if err := s.scoreChunk(ctx, chunk); err != nil {
			return err
		}
		for _, rw := range chunk {
			if rw.err != nil {
				summary.Failed++
			} else {
				summary.Scored++
			}
			if err := writer.Write(s.render(rw)); err != nil {
				return fmt.Errorf("writing row: %w", err)
			}
		}
		chunk = chunk[:0]
		valid = 0
		return nil
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return summary, fmt.Errorf("reading row %d: %w", summary.Rows+1, err)
		}
		summary.Rows++

		rw := s.parseRow(record, columns)
		chunk = append(chunk, rw)
		if rw.err == nil {
			valid++
		}
		if valid >= s.batchSize || len(chunk) >= s.batchSize {
			if err := flush(); err != nil {
				return summary, err
			}
		}
	}
	if len(chunk) > 0 {
		if err := flush(); err != nil {
			return summary, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return summary, fmt.Errorf("writing output: %w", err)
	}

	s.logger.Info().Int("rows", summary.Rows).Int("scored", summary.Scored).Int("failed", summary.Failed).
		Str("model_version", s.svc.Version()).Msg("Batch scored")
	return summary, nil
}

func (s *Scorer) scoreChunk(ctx context.Context, chunk []*row) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var (
		pending  []*row
		features []models.FeatureSet
	)
	for _, rw := range chunk {
		if rw.err == nil {
			pending = append(pending, rw)
			features = append(features, rw.features)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	preds, err := s.svc.PredictBatch(callCtx, features)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Error().Err(err).Int("rows", len(pending)).Msg("Chunk failed")
		for _, rw := range pending {
			rw.err = err
		}
		return nil
	}
	for i, rw := range pending {
		rw.prediction = preds[i]
	}
	return nil
}

func (s *Scorer) parseRow(record []string, columns map[string]int) *row {
	rw := &row{salesID: s.newID()}

	field := func(name string) (string, bool) {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return "", false
		}
		value := strings.TrimSpace(record[idx])
		return value, value != ""
	}

	rw.input.Date, _ = field("date")
	rw.sales, _ = field("sales")
	for _, target := range []struct {
		name string
		dst  **int
	}{
		{"store", &rw.input.Store},
		{"promo", &rw.input.Promo},
		{"holiday", &rw.input.Holiday},
	} {
		value, ok := field(target.name)
		if !ok {
			continue
		}
		n, err := parseInt(value)
		if err != nil {
			rw.err = &models.ParseError{Field: target.name, Value: value, Err: err}
			return rw
		}
		*target.dst = &n
	}

	rw.features, rw.err = calculate.Features(rw.input)
	if rw.err == nil {
		rw.day, rw.err = calculate.DayOfMonth(rw.input.Date)
	}
	return rw
}

func (s *Scorer) render(rw *row) []string {
	intOrEmpty := func(p *int) string {
		if p == nil {
			return ""
		}
		return strconv.Itoa(*p)
	}

	if rw.err != nil {
		return []string{
			rw.salesID, intOrEmpty(rw.input.Store), rw.input.Date, intOrEmpty(rw.input.Promo),
			intOrEmpty(rw.input.Holiday), "", "", "", "", "",
			rw.sales, "", s.svc.Version(), rw.err.Error(),
		}
	}

	f := rw.features
	date := rw.input.Date
	if t, err := models.ParseSalesDate(date); err == nil {
		date = t.Format("2006-01-02")
	}
	return []string{
		rw.salesID, strconv.Itoa(f.Store), date, strconv.Itoa(f.Promo), strconv.Itoa(f.Holiday),
		strconv.Itoa(f.Year), strconv.Itoa(f.Month), strconv.Itoa(rw.day), strconv.Itoa(f.DayOfWeek),
		strconv.Itoa(f.IsWeekend), rw.sales, strconv.FormatFloat(rw.prediction, 'f', -1, 64),
		s.svc.Version(), "",
	}
}

func indexColumns(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("input is missing column %q", name)
		}
	}
	return columns, nil
}

// parseInt accepts integral floats such as "1.0" written by dataframe exports
func parseInt(value string) (int, error) {
	if n, err := strconv.Atoi(value); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, fmt.Errorf("%s is not a whole number", value)
	}
	return int(f), nil
}
