package airquality

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/aqi-predictor/pkg/metrics"
)

type recordingPredictor struct {
	next     Predictor
	history  HistoryRepository
	stats    LocationStats
	counters *metrics.PredictionCounters
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

// NewRecordingPredictor decorates next so that every outcome is counted and
// every success is written to history and location stats. Storage failures are
// logged and never change the prediction outcome.
func NewRecordingPredictor(next Predictor, history HistoryRepository, stats LocationStats, counters *metrics.PredictionCounters, logger *slog.Logger) Predictor {
	return &recordingPredictor{
		next:     next,
		history:  history,
		stats:    stats,
		counters: counters,
		logger:   logger.With("component", "airquality.recorder"),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    func() string { return uuid.NewString() },
	}
}

func (p *recordingPredictor) Predict(ctx context.Context, input FormInput) (PredictionResult, error) {
	res, err := p.next.Predict(ctx, input)
	if p.counters != nil {
		p.counters.Observe(err != nil || res.Failed())
	}
	if err != nil || res.Failed() {
		return res, err
	}

	entry := HistoryEntry{
		ID:           p.newID(),
		LocationID:   res.Input.LocationID,
		LocationName: res.Input.LocationName,
		Parameter:    res.Input.Parameter,
		Unit:         res.Input.Unit,
		Latitude:     res.Input.Latitude,
		Longitude:    res.Input.Longitude,
		AQI:          res.AQI,
		Category:     CategoryLabel(res.AQI),
		PredictedAt:  res.Timestamp,
		CreatedAt:    p.now(),
	}
	if p.history != nil {
		if saveErr := p.history.Save(ctx, entry); saveErr != nil {
			p.logger.Warn("history save failed", "location_id", entry.LocationID, "error", saveErr)
		}
	}
	if p.stats != nil {
		display := strings.TrimSpace(entry.LocationName)
		if display == "" {
			display = entry.LocationID
		}
		if statErr := p.stats.Increment(ctx, strings.TrimSpace(entry.LocationID), display); statErr != nil {
			p.logger.Warn("location stats update failed", "location_id", entry.LocationID, "error", statErr)
		}
	}
	return res, nil
}
