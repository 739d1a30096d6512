package metrics

import "sync/atomic"

// PredictionCounters tracks how many predictions were served and how many failed.
type PredictionCounters struct {
	total  atomic.Int64
	failed atomic.Int64
}

// PredictionSnapshot is the serialisable view of the counters.
type PredictionSnapshot struct {
	Total  int64 `json:"total"`
	Failed int64 `json:"failed"`
}

// Observe records one prediction outcome.
func (c *PredictionCounters) Observe(failed bool) {
	c.total.Add(1)
	if failed {
		c.failed.Add(1)
	}
}

// Snapshot returns the current values.
func (c *PredictionCounters) Snapshot() PredictionSnapshot {
	return PredictionSnapshot{Total: c.total.Load(), Failed: c.failed.Load()}
}

// IsZero reports whether nothing has been recorded yet.
func (s PredictionSnapshot) IsZero() bool {
	return s.Total == 0 && s.Failed == 0
}
