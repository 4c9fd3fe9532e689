package http

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	feed "antarctic-explorer/internal/feed/domain"
)

func snapshotOf(values ...float64) *feed.Snapshot {
	window := feed.NewWindow(len(values) + 1)
	for i, v := range values {
		window.Append(feed.NewSample(v, testStart.Add(time.Duration(i)*5*time.Second)))
	}
	return feed.BuildSnapshot(uint64(len(values)), window, testStart)
}

func TestLayoutPlotEmpty(t *testing.T) {
	layout := layoutPlot(feed.EmptySnapshot(), plotArea{Width: 100, Height: 50})
	assert.Empty(t, layout.Points)
	assert.Nil(t, layout.Trend)
}

func TestLayoutPlotSinglePointCentered(t *testing.T) {
	layout := layoutPlot(snapshotOf(-17.0), plotArea{Left: 10, Top: 0, Width: 100, Height: 50})
	require.Len(t, layout.Points, 1)
	assert.InDelta(t, 60, layout.Points[0].X, 1e-9)
	assert.InDelta(t, 25, layout.Points[0].Y, 1e-9)
	assert.Nil(t, layout.Trend)
	assert.Equal(t, "08:00:00", layout.First)
}

func TestLayoutPlotTrendSpansWindow(t *testing.T) {
	area := plotArea{Left: 0, Top: 0, Width: 200, Height: 100}
	layout := layoutPlot(snapshotOf(1, 2, 3), area)
	require.Len(t, layout.Points, 3)
	require.NotNil(t, layout.Trend)

	assert.InDelta(t, 0, layout.Trend.X1, 1e-9)
	assert.InDelta(t, 200, layout.Trend.X2, 1e-9)
	// An exact fit passes through the first and last points.
	assert.InDelta(t, layout.Points[0].Y, layout.Trend.Y1, 1e-9)
	assert.InDelta(t, layout.Points[2].Y, layout.Trend.Y2, 1e-9)
	// Higher values sit higher on the page.
	assert.Less(t, layout.Points[2].Y, layout.Points[0].Y)
	for _, p := range layout.Points {
		assert.True(t, p.Y >= area.Top && p.Y <= area.Top+area.Height)
	}
	assert.Len(t, layout.YTicks, yTickCount)
	assert.Equal(t, "08:00:10", layout.Last)
}

func TestClockPartFallsBackToRawTimestamp(t *testing.T) {
	assert.Equal(t, "08:00:05", clockPart(feed.NewSample(-17, testStart.Add(5*time.Second))))
	assert.Equal(t, "t3", clockPart(feed.Sample{Value: -17, Timestamp: "t3"}))
}
