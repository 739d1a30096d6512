package airquality

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/aqi-predictor/pkg/metrics"
)

func TestRecordingPredictorRecordsSuccess(t *testing.T) {
	history := &stubHistory{}
	stats := &stubStats{}
	counters := &metrics.PredictionCounters{}
	next := &stubPredictor{results: []PredictionResult{{AQI: 160, Timestamp: "2024-07-01T09:30:00.000Z", Input: validInput()}}}

	p := NewRecordingPredictor(next, history, stats, counters, newTestLogger()).(*recordingPredictor)
	p.now = func() time.Time { return time.Date(2024, 7, 1, 9, 30, 0, 0, time.UTC) }
	p.newID = func() string { return "id-1" }

	res, err := p.Predict(context.Background(), validInput())
	require.NoError(t, err)
	require.Equal(t, 160, res.AQI)

	require.Len(t, history.saved, 1)
	entry := history.saved[0]
	require.Equal(t, "id-1", entry.ID)
	require.Equal(t, "SF-001", entry.LocationID)
	require.Equal(t, "Unhealthy", entry.Category)
	require.Equal(t, "2024-07-01T09:30:00.000Z", entry.PredictedAt)
	require.Equal(t, []LocationCount{{Location: "SF-001|San Francisco", Count: 1}}, stats.increments)
	require.Equal(t, metrics.PredictionSnapshot{Total: 1}, counters.Snapshot())
}

func TestRecordingPredictorSkipsFailures(t *testing.T) {
	history := &stubHistory{}
	stats := &stubStats{}
	counters := &metrics.PredictionCounters{}

	p := NewRecordingPredictor(&stubPredictor{err: errors.New("timeout")}, history, stats, counters, newTestLogger())
	_, err := p.Predict(context.Background(), validInput())
	require.Error(t, err)

	p = NewRecordingPredictor(&stubPredictor{results: []PredictionResult{FailureResult("bad model")}}, history, stats, counters, newTestLogger())
	res, err := p.Predict(context.Background(), validInput())
	require.NoError(t, err)
	require.True(t, res.Failed())

	require.Empty(t, history.saved)
	require.Empty(t, stats.increments)
	require.Equal(t, metrics.PredictionSnapshot{Total: 2, Failed: 2}, counters.Snapshot())
}

func TestRecordingPredictorIgnoresStorageErrors(t *testing.T) {
	history := &stubHistory{err: errors.New("db down")}
	stats := &stubStats{err: errors.New("cache down")}

	p := NewRecordingPredictor(&stubPredictor{}, history, stats, nil, newTestLogger())
	res, err := p.Predict(context.Background(), validInput())
	require.NoError(t, err)
	require.Equal(t, 50, res.AQI)
}
