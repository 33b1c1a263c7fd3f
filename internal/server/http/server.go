package http

import (
	"context"
	"net/http"
	"time"

	"github.com/Alias1177/SalesPredictor/internal/predict"
	"github.com/Alias1177/SalesPredictor/models"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// PredictionLookup finds a previously published prediction by sales_id
type PredictionLookup interface {
	Lookup(ctx context.Context, salesID string) (*models.PredictionEvent, error)
}

// Handler serves the prediction API
type Handler struct {
	svc     *predict.ModelService
	lookup  PredictionLookup
	timeout time.Duration
	logger  zerolog.Logger
}

// NewHandler creates the API handler. lookup may be nil when no cache is configured;
// timeout bounds each model call, 0 means the request context alone.
func NewHandler(svc *predict.ModelService, lookup PredictionLookup, timeout time.Duration) *Handler {
	return &Handler{
		svc:     svc,
		lookup:  lookup,
		timeout: timeout,
		logger:  log.With().Str("component", "http_server").Logger(),
	}
}

// NewRouter builds the engine with middleware, health check and API routes
func NewRouter(appEnv string, h *Handler) *gin.Engine {
	if appEnv == "prod" || appEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	h.RegisterRoutes(router)
	return router
}

// RegisterRoutes adds the API routes to router
func (h *Handler) RegisterRoutes(router gin.IRouter) {
	router.POST("/predict", h.Predict)
	if h.lookup != nil {
		router.GET("/predictions/:sales_id", h.GetPrediction)
	}
}
