package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ModelName identifies the service in every prediction event
const ModelName = "sales_prediction_model"

// SalesInput is one raw observation for a store and date
type SalesInput struct {
	Date    string   `json:"date"`
	Store   *int     `json:"store"`
	Promo   *int     `json:"promo"`
	Holiday *int     `json:"holiday"`
	Sales   *float64 `json:"sales,omitempty"`
}

// NewSalesInput builds an input with all required fields present
func NewSalesInput(date string, store, promo, holiday int) SalesInput {
	return SalesInput{
		Date:    date,
		Store:   &store,
		Promo:   &promo,
		Holiday: &holiday,
	}
}

// SalesID is an opaque correlation identifier. The raw JSON value is kept
// so it is written back exactly as it was received.
type SalesID struct {
	raw json.RawMessage
}

// NewSalesID wraps a string identifier
func NewSalesID(id string) SalesID {
	raw, _ := json.Marshal(id)
	return SalesID{raw: raw}
}

// NewIntSalesID wraps a numeric identifier
func NewIntSalesID(id int64) SalesID {
	return SalesID{raw: json.RawMessage(strconv.FormatInt(id, 10))}
}

// IsZero reports whether no identifier was supplied
func (id SalesID) IsZero() bool {
	return len(id.raw) == 0 || bytes.Equal(id.raw, []byte("null"))
}

// String returns the identifier without JSON quoting
func (id SalesID) String() string {
	if id.IsZero() {
		return ""
	}
	var s string
	if err := json.Unmarshal(id.raw, &s); err == nil {
		return s
	}
	return string(id.raw)
}

// MarshalJSON implements json.Marshaler
func (id SalesID) MarshalJSON() ([]byte, error) {
	if id.IsZero() {
		return []byte("null"), nil
	}
	return id.raw, nil
}

// UnmarshalJSON implements json.Unmarshaler
func (id *SalesID) UnmarshalJSON(data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("invalid sales_id: %s", data)
	}
	id.raw = append(json.RawMessage(nil), bytes.TrimSpace(data)...)
	return nil
}

// SalesEvent is a decoded stream record
type SalesEvent struct {
	SalesInput SalesInput `json:"sales_input"`
	SalesID    SalesID    `json:"sales_id"`
}

// FeatureSet holds the model inputs derived from a SalesInput
type FeatureSet struct {
	Store     int `json:"store"`
	Promo     int `json:"promo"`
	Holiday   int `json:"holiday"`
	Year      int `json:"year"`
	Month     int `json:"month"`
	DayOfWeek int `json:"dayofweek"`
	IsWeekend int `json:"is_weekend"`
}

// FeatureNames lists the features in the order models expect them
var FeatureNames = []string{"store", "promo", "holiday", "year", "month", "dayofweek", "is_weekend"}

// Map returns the features keyed by name
func (f FeatureSet) Map() map[string]int {
	return map[string]int{
		"store":      f.Store,
		"promo":      f.Promo,
		"holiday":    f.Holiday,
		"year":       f.Year,
		"month":      f.Month,
		"dayofweek":  f.DayOfWeek,
		"is_weekend": f.IsWeekend,
	}
}

// Prediction is the forecast part of a PredictionEvent
type Prediction struct {
	SalesPrediction float64 `json:"sales_prediction"`
	SalesID         SalesID `json:"sales_id"`
}

// PredictionEvent is broadcast to every sink after a successful inference
type PredictionEvent struct {
	Model      string     `json:"model"`
	Version    string     `json:"version"`
	Prediction Prediction `json:"prediction"`

	// Features the prediction was computed from; storage sinks log them.
	Features FeatureSet `json:"-"`
}

// KinesisEvent is the raw stream envelope handed to HandleEvent
type KinesisEvent struct {
	Records []KinesisRecord `json:"Records"`
}

// KinesisRecord wraps one encoded sub-event
type KinesisRecord struct {
	Kinesis KinesisData `json:"kinesis"`
}

// KinesisData carries the encoded payload
type KinesisData struct {
	Data string `json:"data"`
}

// NewKinesisEvent builds an envelope from encoded payloads
func NewKinesisEvent(payloads ...string) *KinesisEvent {
	event := &KinesisEvent{Records: make([]KinesisRecord, 0, len(payloads))}
	for _, p := range payloads {
		event.Records = append(event.Records, KinesisRecord{Kinesis: KinesisData{Data: p}})
	}
	return event
}

// RecordFailure reports a sub-event that produced no prediction
type RecordFailure struct {
	Index   int     `json:"index"`
	SalesID SalesID `json:"sales_id"`
	Error   string  `json:"error"`
}

// PredictionResult is the outcome of handling one KinesisEvent
type PredictionResult struct {
	Predictions []PredictionEvent `json:"predictions"`
	Failures    []RecordFailure   `json:"failures,omitempty"`
}
