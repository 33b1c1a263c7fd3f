package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/Alias1177/SalesPredictor/internal/sink"
	"github.com/Alias1177/SalesPredictor/models"
	"github.com/gin-gonic/gin"
)

type predictRequest struct {
	models.SalesInput
	SalesID models.SalesID `json:"sales_id"`
}

type predictResponse struct {
	Model           string         `json:"model"`
	Version         string         `json:"version"`
	SalesPrediction float64        `json:"sales_prediction"`
	SalesID         models.SalesID `json:"sales_id"`
}

// Predict handles POST /predict
func (h *Handler) Predict(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	event, err := h.svc.Process(ctx, models.SalesEvent{SalesInput: req.SalesInput, SalesID: req.SalesID})
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error().Err(err).Str("sales_id", req.SalesID.String()).Msg("Prediction failed")
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, predictResponse{
		Model:           event.Model,
		Version:         event.Version,
		SalesPrediction: event.Prediction.SalesPrediction,
		SalesID:         event.Prediction.SalesID,
	})
}

// GetPrediction handles GET /predictions/:sales_id
func (h *Handler) GetPrediction(c *gin.Context) {
	salesID := c.Param("sales_id")
	event, err := h.lookup.Lookup(c.Request.Context(), salesID)
	if errors.Is(err, sink.ErrNotCached) {
		c.JSON(http.StatusNotFound, gin.H{"error": "prediction not found"})
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("sales_id", salesID).Msg("Lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, event)
}

func statusFor(err error) int {
	var (
		parseErr   *models.ParseError
		missingErr *models.MissingFieldError
		modelErr   *models.ModelInferenceError
	)
	switch {
	case errors.As(err, &parseErr), errors.As(err, &missingErr):
		return http.StatusBadRequest
	case errors.As(err, &modelErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
