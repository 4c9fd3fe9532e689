package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	feed "antarctic-explorer/internal/feed/domain"
	"antarctic-explorer/internal/observability/logging"
	"antarctic-explorer/internal/observability/metrics"
)

const regenerateKey = "snapshot"

// ErrAlreadyRunning is returned when Run is called on a running feed.
var ErrAlreadyRunning = errors.New("feed: scheduler already running")

// State is the memo state of a feed.
type State string

const (
	StateStale     State = "stale"
	StateComputing State = "computing"
	StateFresh     State = "fresh"
)

// Config holds the one-time feed settings.
type Config struct {
	Interval        time.Duration
	Capacity        int
	GenerateTimeout time.Duration
	// Eager regenerates on every scheduled tick instead of waiting for the
	// first reader, so notifiers see every tick.
	Eager bool
}

// Validate checks the config.
func (c Config) Validate() error {
	if c.Capacity < 1 {
		return fmt.Errorf("%w: capacity must be >= 1, got %d", feed.ErrInvalidConfig, c.Capacity)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("%w: interval must be > 0, got %s", feed.ErrInvalidConfig, c.Interval)
	}
	if c.GenerateTimeout < 0 {
		return fmt.Errorf("%w: generate timeout must be >= 0, got %s", feed.ErrInvalidConfig, c.GenerateTimeout)
	}
	return nil
}

// Notifier receives every successfully regenerated snapshot.
type Notifier interface {
	Notify(ctx context.Context, snap *feed.Snapshot)
}

// Status describes the feed for operators.
type Status struct {
	State       State      `json:"state"`
	Tick        uint64     `json:"tick"`
	WindowLen   int        `json:"window_len"`
	Capacity    int        `json:"capacity"`
	Interval    string     `json:"interval"`
	Failures    uint64     `json:"failures"`
	LastSuccess *time.Time `json:"last_success,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
}

// Feed owns the rolling window, the tick scheduler and the memoized snapshot.
type Feed struct {
	cfg       Config
	source    feed.Source
	clock     feed.Clock
	logger    *zap.Logger
	notifiers []Notifier

	group   singleflight.Group
	running atomic.Bool

	mu        sync.RWMutex
	idle      *sync.Cond
	window    *feed.Window
	current   *feed.Snapshot
	epoch     uint64
	computed  uint64
	computing bool
	tick      uint64
	failures  uint64
	lastErr   error
	lastOK    time.Time
}

// Option customizes a Feed.
type Option func(*Feed)

// WithNotifier adds a notifier.
func WithNotifier(notifier Notifier) Option {
	return func(f *Feed) {
		if notifier != nil {
			f.notifiers = append(f.notifiers, notifier)
		}
	}
}

// WithClock assigns the clock used for ComputedAt.
func WithClock(clock feed.Clock) Option {
	return func(f *Feed) {
		if clock != nil {
			f.clock = clock
		}
	}
}

// WithLogger assigns a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(f *Feed) {
		f.logger = logging.OrNop(logger)
	}
}

// NewFeed validates cfg and constructs a stale feed with an empty window.
func NewFeed(cfg Config, source feed.Source, opts ...Option) (*Feed, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if source == nil {
		return nil, fmt.Errorf("%w: nil source", feed.ErrInvalidConfig)
	}
	f := &Feed{
		cfg:     cfg,
		source:  source,
		clock:   feed.SystemClock{},
		logger:  zap.NewNop(),
		window:  feed.NewWindow(cfg.Capacity),
		current: feed.EmptySnapshot(),
		epoch:   1,
	}
	f.idle = sync.NewCond(&f.mu)
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Snapshot returns the memoized snapshot, regenerating it first when the
// current tick has not been computed. Concurrent callers during a
// regeneration share its result. Before the first successful tick the
// empty snapshot is returned.
func (f *Feed) Snapshot(ctx context.Context) *feed.Snapshot {
	f.mu.RLock()
	if f.computed == f.epoch {
		snap := f.current
		f.mu.RUnlock()
		metrics.IncSnapshotRead(true)
		return snap
	}
	f.mu.RUnlock()

	metrics.IncSnapshotRead(false)
	v, _, _ := f.group.Do(regenerateKey, func() (any, error) {
		return f.regenerate(ctx), nil
	})
	return v.(*feed.Snapshot)
}

// Invalidate marks the memo stale. It is called on every scheduled tick.
func (f *Feed) Invalidate() {
	f.mu.Lock()
	f.epoch++
	f.mu.Unlock()
}

// Refresh invalidates the memo and regenerates it.
func (f *Feed) Refresh(ctx context.Context) *feed.Snapshot {
	f.Invalidate()
	return f.Snapshot(ctx)
}

// State reports the memo state.
func (f *Feed) State() State {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.stateLocked()
}

func (f *Feed) stateLocked() State {
	switch {
	case f.computing:
		return StateComputing
	case f.computed == f.epoch:
		return StateFresh
	default:
		return StateStale
	}
}

// Status reports the feed status.
func (f *Feed) Status() Status {
	f.mu.RLock()
	defer f.mu.RUnlock()
	status := Status{
		State:     f.stateLocked(),
		Tick:      f.tick,
		WindowLen: f.window.Len(),
		Capacity:  f.window.Cap(),
		Interval:  f.cfg.Interval.String(),
		Failures:  f.failures,
	}
	if !f.lastOK.IsZero() {
		lastOK := f.lastOK
		status.LastSuccess = &lastOK
	}
	if f.lastErr != nil {
		status.LastError = f.lastErr.Error()
	}
	return status
}

// Run drives invalidation every interval until ctx is done. On return any
// in-flight regeneration has completed.
func (f *Feed) Run(ctx context.Context) error {
	if !f.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer f.running.Store(false)

	ticker := time.NewTicker(f.cfg.Interval)
	defer ticker.Stop()

	f.logger.Info("feed scheduler started",
		zap.Duration("interval", f.cfg.Interval),
		zap.Int("capacity", f.cfg.Capacity),
		zap.Bool("eager", f.cfg.Eager),
	)
	if f.cfg.Eager {
		f.Snapshot(ctx)
	}
	for {
		select {
		case <-ctx.Done():
			f.waitIdle()
			f.logger.Info("feed scheduler stopped", zap.Uint64("tick", f.Status().Tick))
			return nil
		case <-ticker.C:
			f.Invalidate()
			if f.cfg.Eager {
				f.Snapshot(ctx)
			}
		}
	}
}

func (f *Feed) waitIdle() {
	f.mu.Lock()
	for f.computing {
		f.idle.Wait()
	}
	f.mu.Unlock()
}

func (f *Feed) regenerate(ctx context.Context) *feed.Snapshot {
	f.mu.Lock()
	if f.computed == f.epoch {
		snap := f.current
		f.mu.Unlock()
		return snap
	}
	target := f.epoch
	f.computing = true
	f.mu.Unlock()

	start := time.Now()
	sample, err := f.generate(context.WithoutCancel(ctx))

	f.mu.Lock()
	f.computing = false
	f.computed = target
	if err != nil {
		f.failures++
		f.lastErr = err
		snap := f.current
		f.idle.Broadcast()
		f.mu.Unlock()

		metrics.ObserveRegeneration(metrics.ResultError, time.Since(start))
		metrics.IncSourceFailure(failureReason(err))
		f.logger.Warn("feed tick skipped", zap.Error(err), zap.Uint64("tick", snap.Tick))
		return snap
	}
	evicted, wasFull := f.window.Append(sample)
	f.tick++
	snap := feed.BuildSnapshot(f.tick, f.window, f.clock.Now())
	f.current = snap
	f.lastErr = nil
	f.lastOK = snap.ComputedAt
	f.idle.Broadcast()
	f.mu.Unlock()

	metrics.ObserveRegeneration(metrics.ResultSuccess, time.Since(start))
	var slope *float64
	if snap.Trend != nil {
		slope = &snap.Trend.Slope
	}
	metrics.SetSnapshotGauges(snap.Tick, len(snap.Window), sample.Value, slope)
	if ce := f.logger.Check(zap.DebugLevel, "feed tick"); ce != nil {
		fields := []zap.Field{
			zap.Uint64("tick", snap.Tick),
			zap.Float64("value", sample.Value),
			zap.String("timestamp", sample.Timestamp),
			zap.Int("window_len", len(snap.Window)),
		}
		if wasFull {
			fields = append(fields, zap.String("evicted", evicted.Timestamp))
		}
		ce.Write(fields...)
	}

	notifyCtx := context.WithoutCancel(ctx)
	for _, notifier := range f.notifiers {
		f.notify(notifyCtx, notifier, snap)
	}
	return snap
}

// notify shields the feed from a panicking notifier.
func (f *Feed) notify(ctx context.Context, notifier Notifier, snap *feed.Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error("notifier panicked", zap.Uint64("tick", snap.Tick), zap.Any("panic", r))
		}
	}()
	notifier.Notify(ctx, snap)
}

type generateResult struct {
	sample feed.Sample
	err    error
}

// generate calls the source, bounded by GenerateTimeout when set. Every
// failure is reported as ErrSourceUnavailable.
func (f *Feed) generate(ctx context.Context) (feed.Sample, error) {
	if f.cfg.GenerateTimeout <= 0 {
		return classify(safeGenerate(ctx, f.source))
	}
	ctx, cancel := context.WithTimeout(ctx, f.cfg.GenerateTimeout)
	defer cancel()

	done := make(chan generateResult, 1)
	go func() {
		sample, err := safeGenerate(ctx, f.source)
		done <- generateResult{sample: sample, err: err}
	}()
	select {
	case res := <-done:
		return classify(res.sample, res.err)
	case <-ctx.Done():
		return classify(feed.Sample{}, ctx.Err())
	}
}

func safeGenerate(ctx context.Context, source feed.Source) (sample feed.Sample, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("source panic: %v", r)
		}
	}()
	return source.Generate(ctx)
}

func classify(sample feed.Sample, err error) (feed.Sample, error) {
	if err == nil {
		return sample, nil
	}
	if errors.Is(err, feed.ErrSourceUnavailable) {
		return feed.Sample{}, err
	}
	return feed.Sample{}, fmt.Errorf("%w: %w", feed.ErrSourceUnavailable, err)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}
