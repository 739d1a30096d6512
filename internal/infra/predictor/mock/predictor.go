package mock

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/yanqian/aqi-predictor/internal/domain/airquality"
	"github.com/yanqian/aqi-predictor/pkg/util"
)

// DefaultLatency is the simulated inference delay.
const DefaultLatency = 1500 * time.Millisecond

// MaxAQI is the upper bound of generated values; the lower bound is 1.
const MaxAQI = 300

// Predictor stands in for a real model: it waits, then returns a random AQI
// with the input echoed back.
type Predictor struct {
	latency time.Duration
	intn    func(n int) int
	now     func() time.Time
}

// NewPredictor builds a mock predictor. A negative latency is treated as zero.
func NewPredictor(latency time.Duration) *Predictor {
	if latency < 0 {
		latency = 0
	}
	return &Predictor{
		latency: latency,
		intn:    rand.IntN,
		now:     util.NowUTC,
	}
}

// Predict waits for the configured latency and synthesizes a success record.
// It fails only when ctx ends before the wait is over.
func (p *Predictor) Predict(ctx context.Context, input airquality.FormInput) (airquality.PredictionResult, error) {
	if p.latency > 0 {
		timer := time.NewTimer(p.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return airquality.PredictionResult{}, ctx.Err()
		case <-timer.C:
		}
	}
	return airquality.PredictionResult{
		AQI:       p.intn(MaxAQI) + 1,
		Timestamp: util.ISOTimestamp(p.now()),
		Input:     input,
	}, nil
}

var _ airquality.Predictor = (*Predictor)(nil)
