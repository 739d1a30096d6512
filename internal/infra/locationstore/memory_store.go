package locationstore

import (
	"context"
	"sort"
	"sync"

	"github.com/yanqian/aqi-predictor/internal/domain/airquality"
)

// MemoryStore counts predictions per location in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	counts   map[string]int64
	displays map[string]string
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		counts:   make(map[string]int64),
		displays: make(map[string]string),
	}
}

// Increment bumps the counter for a location and remembers its first display name.
func (s *MemoryStore) Increment(_ context.Context, locationID, display string) error {
	if locationID == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[locationID]++
	if _, exists := s.displays[locationID]; !exists && display != "" {
		s.displays[locationID] = display
	}
	return nil
}

// Top returns the most predicted locations, ties broken by name.
func (s *MemoryStore) Top(_ context.Context, limit int) ([]airquality.LocationCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = len(s.counts)
	}
	items := make([]airquality.LocationCount, 0, len(s.counts))
	for id, count := range s.counts {
		display := s.displays[id]
		if display == "" {
			display = id
		}
		items = append(items, airquality.LocationCount{Location: display, Count: count})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Count == items[j].Count {
			return items[i].Location < items[j].Location
		}
		return items[i].Count > items[j].Count
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

var _ airquality.LocationStats = (*MemoryStore)(nil)
