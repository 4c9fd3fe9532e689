package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	feed "antarctic-explorer/internal/feed/domain"
)

const defaultQueryTimeout = 2 * time.Second

// LatestReadingSource reads the newest numeric telemetry point for a
// station as the next sample.
type LatestReadingSource struct {
	db        *sql.DB
	stationID string
	pointKey  string
	timeout   time.Duration
	location  *time.Location
}

// Option customizes a LatestReadingSource.
type Option func(*LatestReadingSource)

// WithQueryTimeout bounds each query.
func WithQueryTimeout(timeout time.Duration) Option {
	return func(s *LatestReadingSource) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// WithLocation sets the zone used to format sample timestamps.
func WithLocation(loc *time.Location) Option {
	return func(s *LatestReadingSource) {
		if loc != nil {
			s.location = loc
		}
	}
}

// NewLatestReadingSource constructs a LatestReadingSource.
func NewLatestReadingSource(db *sql.DB, stationID, pointKey string, opts ...Option) (*LatestReadingSource, error) {
	if db == nil {
		return nil, fmt.Errorf("%w: postgres source: nil db", feed.ErrInvalidConfig)
	}
	if stationID == "" || pointKey == "" {
		return nil, fmt.Errorf("%w: postgres source: station id and point key required", feed.ErrInvalidConfig)
	}
	s := &LatestReadingSource{
		db:        db,
		stationID: stationID,
		pointKey:  pointKey,
		timeout:   defaultQueryTimeout,
		location:  time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Generate implements feed.Source.
func (s *LatestReadingSource) Generate(ctx context.Context) (feed.Sample, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	row := s.db.QueryRowContext(ctx, `
SELECT ts, value_numeric
FROM telemetry_points
WHERE station_id = $1 AND point_key = $2 AND value_numeric IS NOT NULL
ORDER BY ts DESC
LIMIT 1`, s.stationID, s.pointKey)

	var ts time.Time
	var value sql.NullFloat64
	if err := row.Scan(&ts, &value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return feed.Sample{}, fmt.Errorf("%w: no telemetry for %s/%s", feed.ErrSourceUnavailable, s.stationID, s.pointKey)
		}
		return feed.Sample{}, fmt.Errorf("%w: query latest reading: %w", feed.ErrSourceUnavailable, err)
	}
	if !value.Valid {
		return feed.Sample{}, fmt.Errorf("%w: null reading for %s/%s", feed.ErrSourceUnavailable, s.stationID, s.pointKey)
	}
	return feed.NewSample(value.Float64, ts.In(s.location)), nil
}
