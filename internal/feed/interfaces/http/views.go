package http

import (
	"strconv"
	"time"

	feed "antarctic-explorer/internal/feed/domain"
)

// TemperatureUnit is appended to displayed values.
const TemperatureUnit = "C"

type latestView struct {
	Value     float64 `json:"value"`
	Timestamp string  `json:"timestamp"`
	Display   string  `json:"display"`
}

type readingsView struct {
	Tick    uint64     `json:"tick"`
	Columns []string   `json:"columns"`
	Rows    []feed.Row `json:"rows"`
}

type chartPoint struct {
	Index     int     `json:"index"`
	Timestamp string  `json:"timestamp"`
	Value     float64 `json:"value"`
}

type chartView struct {
	Tick   uint64       `json:"tick"`
	Points []chartPoint `json:"points"`
	Trend  *feed.Trend  `json:"trend"`
	Line   []chartPoint `json:"line"`
}

type snapshotView struct {
	Tick       uint64        `json:"tick"`
	ComputedAt *time.Time    `json:"computed_at"`
	Window     []feed.Sample `json:"window"`
	Table      []feed.Row    `json:"table"`
	Latest     *latestView   `json:"latest"`
	Trend      *feed.Trend   `json:"trend"`
	TrendLine  []float64     `json:"trend_line"`
}

// FormatTemperature renders a value the way the value box shows it.
func FormatTemperature(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64) + " " + TemperatureUnit
}

func newLatestView(sample feed.Sample) latestView {
	return latestView{Value: sample.Value, Timestamp: sample.Timestamp, Display: FormatTemperature(sample.Value)}
}

func newReadingsView(snap *feed.Snapshot) readingsView {
	return readingsView{Tick: snap.Tick, Columns: feed.TableColumns, Rows: snap.Rows()}
}

func newChartView(snap *feed.Snapshot) chartView {
	view := chartView{
		Tick:   snap.Tick,
		Points: make([]chartPoint, len(snap.Window)),
		Trend:  snap.Trend,
		Line:   []chartPoint{},
	}
	for i, sample := range snap.Window {
		view.Points[i] = chartPoint{Index: i, Timestamp: sample.Timestamp, Value: sample.Value}
	}
	for i, value := range snap.TrendLine() {
		view.Line = append(view.Line, chartPoint{Index: i, Timestamp: snap.Window[i].Timestamp, Value: value})
	}
	return view
}

func newSnapshotView(snap *feed.Snapshot) snapshotView {
	view := snapshotView{
		Tick:      snap.Tick,
		Window:    snap.Samples(),
		Table:     snap.Rows(),
		Trend:     snap.Trend,
		TrendLine: snap.TrendLine(),
	}
	if !snap.ComputedAt.IsZero() {
		at := snap.ComputedAt
		view.ComputedAt = &at
	}
	if latest, err := snap.LatestSample(); err == nil {
		lv := newLatestView(latest)
		view.Latest = &lv
	}
	if view.TrendLine == nil {
		view.TrendLine = []float64{}
	}
	return view
}
