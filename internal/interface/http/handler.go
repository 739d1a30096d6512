package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/aqi-predictor/internal/domain/airquality"
)

const serviceName = "Air Quality Prediction API"

// Handler wires the stateless HTTP endpoints to the prediction service.
type Handler struct {
	svc    airquality.Service
	logger *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(svc airquality.Service, logger *slog.Logger) *Handler {
	return &Handler{
		svc:    svc,
		logger: logger.With("component", "http.handler"),
	}
}

// Index describes the service and its endpoints.
func (h *Handler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "online",
		"app_name": serviceName,
		"endpoints": gin.H{
			"/api/predict":               "POST - Predict the AQI for one location and time",
			"/api/v1/forms":              "POST - Open a prediction form",
			"/api/v1/predictions/recent": "GET - Most recent predictions",
			"/api/v1/locations/trending": "GET - Most predicted locations",
			"/health":                    "GET - Service health",
		},
		"documentation": "Send a POST request to /api/predict with JSON data containing location_id, location_name, parameter, unit, datetimeUTC, datetime_local, latitude and longitude",
	})
}

// Health reports liveness plus prediction counters.
func (h *Handler) Health(c *gin.Context) {
	status := h.svc.Status()
	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"predictor":   status.Predictor,
		"predictions": status.Predictions,
	})
}

// Predict validates the body and returns one prediction.
func (h *Handler) Predict(c *gin.Context) {
	var input airquality.FormInput
	if err := c.ShouldBindJSON(&input); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", airquality.InvalidRequestMessage, err))
		return
	}

	res, err := h.svc.Predict(c.Request.Context(), input)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}

	c.JSON(http.StatusOK, res)
}

// RecentPredictions lists the latest recorded predictions.
func (h *Handler) RecentPredictions(c *gin.Context) {
	limit, ok := queryLimit(c)
	if !ok {
		return
	}
	entries, err := h.svc.RecentPredictions(c.Request.Context(), limit)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"predictions": entries})
}

// TrendingLocations lists the most predicted locations.
func (h *Handler) TrendingLocations(c *gin.Context) {
	limit, ok := queryLimit(c)
	if !ok {
		return
	}
	items, err := h.svc.TrendingLocations(c.Request.Context(), limit)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"locations": items})
}

func queryLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "limit must be a non-negative integer", err))
		return 0, false
	}
	return limit, true
}
