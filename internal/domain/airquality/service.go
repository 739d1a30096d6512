package airquality

import (
	"context"
	"log/slog"

	apperrors "github.com/yanqian/aqi-predictor/pkg/errors"
	"github.com/yanqian/aqi-predictor/pkg/metrics"
)

// InvalidRequestMessage is returned when a stateless prediction fails validation.
const InvalidRequestMessage = "Missing or invalid required parameters"

const defaultRecentLimit = 20

// Service exposes the stateless prediction API and the history views.
type Service interface {
	Predict(ctx context.Context, input FormInput) (PredictionResult, error)
	RecentPredictions(ctx context.Context, limit int) ([]HistoryEntry, error)
	TrendingLocations(ctx context.Context, limit int) ([]LocationCount, error)
	Status() Status
}

// Status is reported by the health endpoint.
type Status struct {
	Predictor   string                     `json:"predictor"`
	Predictions metrics.PredictionSnapshot `json:"predictions"`
}

type service struct {
	cfg       ServiceConfig
	predictor Predictor
	history   HistoryRepository
	stats     LocationStats
	counters  *metrics.PredictionCounters
	logger    *slog.Logger
}

// NewService wires the prediction service. predictor is expected to already
// record history (see NewRecordingPredictor).
func NewService(cfg ServiceConfig, predictor Predictor, history HistoryRepository, stats LocationStats, counters *metrics.PredictionCounters, logger *slog.Logger) Service {
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = defaultRecentLimit
	}
	return &service{
		cfg:       cfg,
		predictor: predictor,
		history:   history,
		stats:     stats,
		counters:  counters,
		logger:    logger.With("component", "airquality.service"),
	}
}

// Predict validates server side, then runs the predictor. Model-reported
// failures and transport failures both surface as model_error.
func (s *service) Predict(ctx context.Context, input FormInput) (PredictionResult, error) {
	if errs := ValidateInput(input); len(errs) > 0 {
		return PredictionResult{}, apperrors.Wrap("invalid_input", InvalidRequestMessage, &FieldErrors{Fields: errs})
	}

	res, err := s.predictor.Predict(ctx, input)
	if err != nil {
		return PredictionResult{}, apperrors.Wrap("model_error", "Model prediction failed", err)
	}
	if res.Failed() {
		return PredictionResult{}, apperrors.Wrap("model_error", res.Error, ErrModelReported)
	}
	s.logger.Info("prediction served", "location_id", input.LocationID, "aqi", res.AQI, "band", ColorBand(res.AQI))
	return res, nil
}

func (s *service) RecentPredictions(ctx context.Context, limit int) ([]HistoryEntry, error) {
	limit = s.clampLimit(limit)
	entries, err := s.history.Recent(ctx, limit)
	if err != nil {
		return nil, apperrors.Wrap("history_error", "failed to load prediction history", err)
	}
	if entries == nil {
		entries = []HistoryEntry{}
	}
	return entries, nil
}

func (s *service) TrendingLocations(ctx context.Context, limit int) ([]LocationCount, error) {
	limit = s.clampLimit(limit)
	items, err := s.stats.Top(ctx, limit)
	if err != nil {
		return nil, apperrors.Wrap("history_error", "failed to load trending locations", err)
	}
	if items == nil {
		items = []LocationCount{}
	}
	return items, nil
}

func (s *service) Status() Status {
	status := Status{Predictor: s.cfg.PredictorName}
	if s.counters != nil {
		status.Predictions = s.counters.Snapshot()
	}
	return status
}

func (s *service) clampLimit(limit int) int {
	if limit <= 0 || limit > s.cfg.RecentLimit {
		return s.cfg.RecentLimit
	}
	return limit
}
