package historyrepo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/aqi-predictor/internal/domain/airquality"
)

const schema = `
	CREATE TABLE IF NOT EXISTS prediction_history (
		id            UUID PRIMARY KEY,
		location_id   TEXT NOT NULL,
		location_name TEXT NOT NULL,
		parameter     TEXT NOT NULL,
		unit          TEXT NOT NULL,
		latitude      TEXT NOT NULL,
		longitude     TEXT NOT NULL,
		aqi           INTEGER NOT NULL,
		category      TEXT NOT NULL,
		predicted_at  TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS prediction_history_created_at_idx ON prediction_history (created_at DESC);
`

// PostgresRepository implements airquality.HistoryRepository using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// EnsureSchema creates the history table when it is missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, schema)
	return err
}

// Save inserts one history row.
func (r *PostgresRepository) Save(ctx context.Context, entry airquality.HistoryEntry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO prediction_history
			(id, location_id, location_name, parameter, unit, latitude, longitude, aqi, category, predicted_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, entry.ID, entry.LocationID, entry.LocationName, entry.Parameter, entry.Unit,
		entry.Latitude, entry.Longitude, entry.AQI, entry.Category, entry.PredictedAt, entry.CreatedAt)
	return err
}

// Recent returns the newest rows first.
func (r *PostgresRepository) Recent(ctx context.Context, limit int) ([]airquality.HistoryEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, location_id, location_name, parameter, unit, latitude, longitude, aqi, category, predicted_at, created_at
		FROM prediction_history
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []airquality.HistoryEntry
	for rows.Next() {
		entry, err := scanHistoryEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHistoryEntry(row rowScanner) (airquality.HistoryEntry, error) {
	var entry airquality.HistoryEntry
	err := row.Scan(
		&entry.ID,
		&entry.LocationID,
		&entry.LocationName,
		&entry.Parameter,
		&entry.Unit,
		&entry.Latitude,
		&entry.Longitude,
		&entry.AQI,
		&entry.Category,
		&entry.PredictedAt,
		&entry.CreatedAt,
	)
	if err != nil {
		return airquality.HistoryEntry{}, err
	}
	return entry, nil
}

var _ airquality.HistoryRepository = (*PostgresRepository)(nil)
