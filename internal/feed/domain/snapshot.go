package feed

import "time"

// Row is the tabular projection of a sample.
type Row struct {
	Value     float64 `json:"value"`
	Timestamp string  `json:"timestamp"`
}

// TableColumns lists the column order of Row.
var TableColumns = []string{"value", "timestamp"}

// Snapshot is the set of views materialized once per tick. Every reader of
// a tick shares one Snapshot, so its slices and pointers are read-only;
// callers that need to modify rows take Rows or Samples copies.
// Tick zero with no Latest is the empty state reported before any
// successful tick.
type Snapshot struct {
	Tick       uint64    `json:"tick"`
	ComputedAt time.Time `json:"computed_at"`
	Window     []Sample  `json:"window"`
	Table      []Row     `json:"table"`
	Latest     *Sample   `json:"latest"`
	Trend      *Trend    `json:"trend"`
}

// EmptySnapshot returns the empty-state marker.
func EmptySnapshot() *Snapshot {
	return &Snapshot{Window: []Sample{}, Table: []Row{}}
}

// BuildSnapshot derives every view from one copy of the window.
func BuildSnapshot(tick uint64, window *Window, computedAt time.Time) *Snapshot {
	samples := window.Samples()
	snap := &Snapshot{
		Tick:       tick,
		ComputedAt: computedAt,
		Window:     samples,
		Table:      make([]Row, len(samples)),
	}
	values := make([]float64, len(samples))
	for i, sample := range samples {
		snap.Table[i] = Row(sample)
		values[i] = sample.Value
	}
	if latest, ok := window.Last(); ok {
		snap.Latest = &latest
	}
	if trend, ok := FitTrend(values); ok {
		snap.Trend = &trend
	}
	return snap
}

// Samples returns a copy of the window view.
func (s *Snapshot) Samples() []Sample {
	if s == nil {
		return []Sample{}
	}
	return append([]Sample(nil), s.Window...)
}

// Rows returns a copy of the table view.
func (s *Snapshot) Rows() []Row {
	if s == nil {
		return []Row{}
	}
	return append([]Row(nil), s.Table...)
}

// Empty reports whether the snapshot carries no data.
func (s *Snapshot) Empty() bool {
	return s == nil || s.Latest == nil
}

// LatestSample returns the newest sample or ErrNoDataYet.
func (s *Snapshot) LatestSample() (Sample, error) {
	if s.Empty() {
		return Sample{}, ErrNoDataYet
	}
	return *s.Latest, nil
}

// TrendLine evaluates the trend at every window index. It returns nil when
// the trend is undefined.
func (s *Snapshot) TrendLine() []float64 {
	if s == nil || s.Trend == nil {
		return nil
	}
	line := make([]float64, len(s.Window))
	for i := range line {
		line[i] = s.Trend.At(i)
	}
	return line
}
