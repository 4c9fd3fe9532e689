package feed

import "errors"

var (
	// ErrInvalidConfig indicates a feed that cannot be started.
	ErrInvalidConfig = errors.New("feed: invalid config")
	// ErrSourceUnavailable indicates a sample source failed for one tick.
	ErrSourceUnavailable = errors.New("feed: source unavailable")
	// ErrNoDataYet indicates no tick has completed successfully.
	ErrNoDataYet = errors.New("feed: no data yet")
)
