package codec

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Alias1177/SalesPredictor/models"
)

// Decoder turns one encoded stream payload into a sales event
type Decoder func(data string) (*models.SalesEvent, error)

// DecodeBase64 decodes a base64-encoded JSON sales event
func DecodeBase64(data string) (*models.SalesEvent, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(data))
	if err != nil {
		return nil, fmt.Errorf("decoding base64 payload: %w", err)
	}
	return DecodeJSON(string(raw))
}

// DecodeJSON decodes a plain JSON sales event
func DecodeJSON(data string) (*models.SalesEvent, error) {
	var event models.SalesEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return nil, fmt.Errorf("parsing sales event: %w", err)
	}
	return &event, nil
}

// EncodeBase64 is the inverse of DecodeBase64
func EncodeBase64(event models.SalesEvent) (string, error) {
	raw, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("encoding sales event: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// ForEncoding returns the decoder for a STREAM_PAYLOAD_ENCODING value
func ForEncoding(encoding string) (Decoder, error) {
	switch strings.ToLower(encoding) {
	case "", "base64":
		return DecodeBase64, nil
	case "json":
		return DecodeJSON, nil
	default:
		return nil, fmt.Errorf("unsupported payload encoding %q", encoding)
	}
}
