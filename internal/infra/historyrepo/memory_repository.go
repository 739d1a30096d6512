package historyrepo

import (
	"context"
	"sync"

	"github.com/yanqian/aqi-predictor/internal/domain/airquality"
)

const defaultCapacity = 500

// MemoryRepository keeps the most recent predictions in a bounded slice.
type MemoryRepository struct {
	mu       sync.RWMutex
	capacity int
	entries  []airquality.HistoryEntry
}

// NewMemoryRepository constructs a repository holding at most capacity entries.
func NewMemoryRepository(capacity int) *MemoryRepository {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &MemoryRepository{capacity: capacity}
}

// Save implements airquality.HistoryRepository.
func (r *MemoryRepository) Save(_ context.Context, entry airquality.HistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	if overflow := len(r.entries) - r.capacity; overflow > 0 {
		r.entries = append([]airquality.HistoryEntry(nil), r.entries[overflow:]...)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (r *MemoryRepository) Recent(_ context.Context, limit int) ([]airquality.HistoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if limit <= 0 || limit > len(r.entries) {
		limit = len(r.entries)
	}
	out := make([]airquality.HistoryEntry, 0, limit)
	for i := len(r.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.entries[i])
	}
	return out, nil
}

var _ airquality.HistoryRepository = (*MemoryRepository)(nil)
