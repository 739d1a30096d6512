package airquality

import "context"

// HistoryRepository persists successful predictions.
type HistoryRepository interface {
	Save(ctx context.Context, entry HistoryEntry) error
	Recent(ctx context.Context, limit int) ([]HistoryEntry, error)
}

// LocationStats counts predictions per location.
type LocationStats interface {
	Increment(ctx context.Context, locationID, display string) error
	Top(ctx context.Context, limit int) ([]LocationCount, error)
}
