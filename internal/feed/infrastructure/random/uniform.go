package random

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"

	feed "antarctic-explorer/internal/feed/domain"
)

// Defaults match the Antarctic demo station.
const (
	DefaultMin       = -18.0
	DefaultMax       = -16.0
	DefaultPrecision = 1
)

// UniformSource draws values uniformly from [lo, hi], rounded to
// precision decimals, stamped with the clock time.
type UniformSource struct {
	lo        float64
	hi        float64
	precision int
	clock     feed.Clock

	mu  sync.Mutex
	rng *rand.Rand
}

// Option customizes a UniformSource.
type Option func(*UniformSource)

// WithClock assigns the clock.
func WithClock(clock feed.Clock) Option {
	return func(s *UniformSource) { s.clock = clock }
}

// WithRand assigns the random generator.
func WithRand(rng *rand.Rand) Option {
	return func(s *UniformSource) { s.rng = rng }
}

// WithSeed seeds a PCG generator, for reproducible runs.
func WithSeed(seed uint64) Option {
	return func(s *UniformSource) { s.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) }
}

// NewUniformSource constructs a UniformSource.
func NewUniformSource(lo, hi float64, precision int, opts ...Option) (*UniformSource, error) {
	if math.IsNaN(lo) || math.IsNaN(hi) || lo > hi {
		return nil, fmt.Errorf("%w: range [%v, %v]", feed.ErrInvalidConfig, lo, hi)
	}
	if precision < 0 || precision > 6 {
		return nil, fmt.Errorf("%w: precision %d out of [0, 6]", feed.ErrInvalidConfig, precision)
	}
	s := &UniformSource{
		lo:        lo,
		hi:        hi,
		precision: precision,
		clock:     feed.SystemClock{},
		rng:       rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Generate implements feed.Source.
func (s *UniformSource) Generate(ctx context.Context) (feed.Sample, error) {
	if err := ctx.Err(); err != nil {
		return feed.Sample{}, fmt.Errorf("%w: %w", feed.ErrSourceUnavailable, err)
	}
	if s == nil || s.clock == nil {
		return feed.Sample{}, fmt.Errorf("%w: no clock", feed.ErrSourceUnavailable)
	}
	if s.rng == nil {
		return feed.Sample{}, fmt.Errorf("%w: no random generator", feed.ErrSourceUnavailable)
	}
	now := s.clock.Now()
	if now.IsZero() {
		return feed.Sample{}, fmt.Errorf("%w: clock returned zero time", feed.ErrSourceUnavailable)
	}

	s.mu.Lock()
	u := s.rng.Float64()
	s.mu.Unlock()

	value := Round(s.lo+u*(s.hi-s.lo), s.precision)
	return feed.NewSample(value, now), nil
}

// Round rounds v half away from zero to precision decimals.
func Round(v float64, precision int) float64 {
	scale := math.Pow(10, float64(precision))
	return math.Round(v*scale) / scale
}
