package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/aqi-predictor/internal/domain/airquality"
	"github.com/yanqian/aqi-predictor/internal/infra/config"
	"github.com/yanqian/aqi-predictor/internal/infra/formsession"
	"github.com/yanqian/aqi-predictor/internal/infra/historyrepo"
	"github.com/yanqian/aqi-predictor/internal/infra/locationstore"
	"github.com/yanqian/aqi-predictor/pkg/metrics"
)

const validBody = `{"location_id":"SF-001","location_name":"San Francisco","parameter":"PM2.5","unit":"µg/m³","datetimeUTC":"2024-07-01T09:30","datetime_local":"2024-07-01T02:30","latitude":37.7749,"longitude":-122.4194}`

func TestRouter_PredictSuccess(t *testing.T) {
	predictor := airquality.PredictorFunc(func(ctx context.Context, in airquality.FormInput) (airquality.PredictionResult, error) {
		return airquality.PredictionResult{AQI: 42, Timestamp: "2024-07-01T09:30:00.000Z", Input: in}, nil
	})
	server := newRouterUnderTest(t, predictor, nil)

	recorder := performRequest(server, http.MethodPost, "/api/predict", validBody)
	require.Equal(t, http.StatusOK, recorder.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.Equal(t, true, got["success"])
	require.EqualValues(t, 42, got["aqi"])
	require.Equal(t, "SF-001", got["location_id"])
	require.Equal(t, "37.7749", got["latitude"])

	recent := performRequest(server, http.MethodGet, "/api/v1/predictions/recent", "")
	require.Equal(t, http.StatusOK, recent.Code)
	var history struct {
		Predictions []airquality.HistoryEntry `json:"predictions"`
	}
	require.NoError(t, json.Unmarshal(recent.Body.Bytes(), &history))
	require.Len(t, history.Predictions, 1)
	require.Equal(t, 42, history.Predictions[0].AQI)

	trending := performRequest(server, http.MethodGet, "/api/v1/locations/trending?limit=5", "")
	require.Equal(t, http.StatusOK, trending.Code)
	require.Contains(t, trending.Body.String(), "San Francisco")
}

func TestRouter_PredictInvalidInput(t *testing.T) {
	var calls atomic.Int32
	predictor := airquality.PredictorFunc(func(ctx context.Context, in airquality.FormInput) (airquality.PredictionResult, error) {
		calls.Add(1)
		return airquality.PredictionResult{AQI: 1}, nil
	})
	server := newRouterUnderTest(t, predictor, nil)

	recorder := performRequest(server, http.MethodPost, "/api/predict", `{"location_id":"SF-001","latitude":"95"}`)
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	body := decodeErrorBody(t, recorder.Body.Bytes())
	require.Equal(t, airquality.InvalidRequestMessage, body.Error)
	require.Equal(t, "invalid_request", body.Code)
	require.Contains(t, body.Fields, airquality.FieldLatitude)
	require.NotContains(t, body.Fields, airquality.FieldLocationID)
	require.Zero(t, calls.Load())
}

func TestRouter_PredictMalformedJSON(t *testing.T) {
	server := newRouterUnderTest(t, nil, nil)

	recorder := performRequest(server, http.MethodPost, "/api/predict", `{"latitude":true}`)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	require.Equal(t, "invalid_request", decodeErrorBody(t, recorder.Body.Bytes()).Code)
}

func TestRouter_PredictModelError(t *testing.T) {
	predictor := airquality.PredictorFunc(func(ctx context.Context, in airquality.FormInput) (airquality.PredictionResult, error) {
		return airquality.FailureResult("Model not loaded correctly"), nil
	})
	server := newRouterUnderTest(t, predictor, nil)

	recorder := performRequest(server, http.MethodPost, "/api/predict", validBody)
	require.Equal(t, http.StatusInternalServerError, recorder.Code)

	body := decodeErrorBody(t, recorder.Body.Bytes())
	require.Equal(t, "model_error", body.Code)
	require.Equal(t, "Model not loaded correctly", body.Error)
}

func TestRouter_RetriesTransientPredictFailure(t *testing.T) {
	var calls atomic.Int32
	predictor := airquality.PredictorFunc(func(ctx context.Context, in airquality.FormInput) (airquality.PredictionResult, error) {
		if calls.Add(1) == 1 {
			return airquality.PredictionResult{}, errors.New("backend reset")
		}
		return airquality.PredictionResult{AQI: 77, Timestamp: "2024-07-01T09:30:00.000Z", Input: in}, nil
	})
	server := newRouterUnderTest(t, predictor, func(cfg *config.Config) {
		cfg.HTTP.Retry = config.RetryConfig{Enabled: true, MaxAttempts: 2, BaseBackoff: time.Millisecond, Exclude: []string{"/api/v1/forms"}}
	})

	recorder := performRequest(server, http.MethodPost, "/api/predict", validBody)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.EqualValues(t, 2, calls.Load())
}

func TestRouter_ModelReportedFailureIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	predictor := airquality.PredictorFunc(func(ctx context.Context, in airquality.FormInput) (airquality.PredictionResult, error) {
		calls.Add(1)
		return airquality.FailureResult("Model not loaded correctly"), nil
	})
	server := newRouterUnderTest(t, predictor, func(cfg *config.Config) {
		cfg.HTTP.Retry = config.RetryConfig{Enabled: true, MaxAttempts: 3, BaseBackoff: time.Millisecond}
	})

	recorder := performRequest(server, http.MethodPost, "/api/predict", validBody)
	require.Equal(t, http.StatusInternalServerError, recorder.Code)
	require.Equal(t, "model_error", decodeErrorBody(t, recorder.Body.Bytes()).Code)
	require.EqualValues(t, 1, calls.Load())

	health := performRequest(server, http.MethodGet, "/health", "")
	var got struct {
		Predictions struct {
			Total  int64 `json:"total"`
			Failed int64 `json:"failed"`
		} `json:"predictions"`
	}
	require.NoError(t, json.Unmarshal(health.Body.Bytes(), &got))
	require.EqualValues(t, 1, got.Predictions.Total)
	require.EqualValues(t, 1, got.Predictions.Failed)
}

func TestRouter_RateLimit(t *testing.T) {
	server := newRouterUnderTest(t, nil, func(cfg *config.Config) {
		cfg.HTTP.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 1}
	})

	require.Equal(t, http.StatusOK, performRequest(server, http.MethodGet, "/health", "").Code)

	recorder := performRequest(server, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusTooManyRequests, recorder.Code)
	require.Equal(t, "rate_limit_exceeded", decodeErrorBody(t, recorder.Body.Bytes()).Code)
}

func TestRouter_IndexAndHealth(t *testing.T) {
	server := newRouterUnderTest(t, nil, nil)

	index := performRequest(server, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, index.Code)
	require.Contains(t, index.Body.String(), "/api/predict")

	health := performRequest(server, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, health.Code)
	var got struct {
		Status      string `json:"status"`
		Predictor   string `json:"predictor"`
		Predictions struct {
			Total  int64 `json:"total"`
			Failed int64 `json:"failed"`
		} `json:"predictions"`
	}
	require.NoError(t, json.Unmarshal(health.Body.Bytes(), &got))
	require.Equal(t, "healthy", got.Status)
	require.Equal(t, "stub", got.Predictor)
}

func TestRouter_CORSPreflight(t *testing.T) {
	server := newRouterUnderTest(t, nil, func(cfg *config.Config) {
		cfg.HTTP.AllowedOrigins = []string{"https://aqi.example.com"}
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/forms", nil)
	req.Header.Set("Origin", "https://aqi.example.com")
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "https://aqi.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PUT")
}

func TestRouter_InvalidLimit(t *testing.T) {
	server := newRouterUnderTest(t, nil, nil)

	recorder := performRequest(server, http.MethodGet, "/api/v1/predictions/recent?limit=abc", "")
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func performRequest(server *http.Server, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	return rec
}

// newRouterUnderTest builds the full stack over memory stores. A nil
// predictor answers a fixed AQI immediately.
func newRouterUnderTest(t *testing.T, predictor airquality.Predictor, mutate func(*config.Config)) *http.Server {
	t.Helper()
	if predictor == nil {
		predictor = airquality.PredictorFunc(func(ctx context.Context, in airquality.FormInput) (airquality.PredictionResult, error) {
			return airquality.PredictionResult{AQI: 50, Timestamp: "2024-07-01T09:30:00.000Z", Input: in}, nil
		})
	}
	logger := newTestLogger()
	cfg := &config.Config{
		HTTP: config.HTTPConfig{
			Address:      ":0",
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
		},
	}
	if mutate != nil {
		mutate(cfg)
	}

	counters := &metrics.PredictionCounters{}
	history := historyrepo.NewMemoryRepository(10)
	stats := locationstore.NewMemoryStore()
	recorded := airquality.NewRecordingPredictor(predictor, history, stats, counters, logger)
	svc := airquality.NewService(airquality.ServiceConfig{PredictorName: "stub", RecentLimit: 10}, recorded, history, stats, counters, logger)
	registry := formsession.NewRegistry(formsession.Config{IdleTTL: time.Minute, MaxSessions: 10}, airquality.FormConfig{}, recorded, logger)

	return NewRouter(cfg, NewHandler(svc, logger), NewFormHandler(registry, logger))
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}

type errorBody struct {
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields"`
}

func decodeErrorBody(t *testing.T, raw []byte) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}
