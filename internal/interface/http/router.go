package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/aqi-predictor/internal/infra/config"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler, forms *FormHandler) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestLogger(handler.logger),
		errorHandlingMiddleware(handler.logger),
		corsMiddleware(cfg.HTTP.AllowedOrigins),
		rateLimitMiddleware(cfg.HTTP.RateLimit, handler.logger),
	)

	router.GET("/", handler.Index)
	router.GET("/health", handler.Health)
	router.POST("/api/predict", handler.Predict)

	api := router.Group("/api/v1")
	{
		api.GET("/predictions/recent", handler.RecentPredictions)
		api.GET("/locations/trending", handler.TrendingLocations)

		api.POST("/forms", forms.Create)
		api.GET("/forms/:id", forms.Get)
		api.PUT("/forms/:id/fields/:name", forms.SetField)
		api.POST("/forms/:id/validate", forms.Validate)
		api.POST("/forms/:id/submit", forms.Submit)
		api.POST("/forms/:id/reset", forms.Reset)
		api.DELETE("/forms/:id", forms.Delete)
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        withRetry(router, cfg.HTTP.Retry, handler.logger),
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("http request", "method", c.Request.Method, "path", c.Request.URL.Path, "status", c.Writer.Status(), "latency_ms", latency.Milliseconds())
	}
}
