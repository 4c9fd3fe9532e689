package http

import (
	"fmt"
	"math"
	"time"

	feed "antarctic-explorer/internal/feed/domain"
)

const yTickCount = 5

// plotArea is the drawing box in the target's units (SVG px or PDF mm).
// Y grows downwards in both.
type plotArea struct {
	Left, Top, Width, Height float64
}

type plotPoint struct {
	X, Y      float64
	Value     float64
	Timestamp string
}

type plotTick struct {
	Y     float64
	Label string
}

type plotSegment struct {
	X1, Y1, X2, Y2 float64
}

type plotLayout struct {
	Area   plotArea
	Points []plotPoint
	Trend  *plotSegment
	YTicks []plotTick
	First  string
	Last   string
}

// layoutPlot maps the snapshot window onto area: x is the window index,
// y the value. The regression segment spans the first to the last index.
func layoutPlot(snap *feed.Snapshot, area plotArea) plotLayout {
	layout := plotLayout{Area: area}
	if snap == nil || len(snap.Window) == 0 {
		return layout
	}
	n := len(snap.Window)

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, sample := range snap.Window {
		lo = math.Min(lo, sample.Value)
		hi = math.Max(hi, sample.Value)
	}
	if snap.Trend != nil {
		for _, v := range []float64{snap.Trend.At(0), snap.Trend.At(n - 1)} {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	pad := (hi - lo) * 0.1
	if pad == 0 {
		pad = 0.5
	}
	lo, hi = lo-pad, hi+pad

	xAt := func(i int) float64 {
		if n == 1 {
			return area.Left + area.Width/2
		}
		return area.Left + area.Width*float64(i)/float64(n-1)
	}
	yAt := func(v float64) float64 {
		return area.Top + area.Height*(hi-v)/(hi-lo)
	}

	layout.Points = make([]plotPoint, n)
	for i, sample := range snap.Window {
		layout.Points[i] = plotPoint{X: xAt(i), Y: yAt(sample.Value), Value: sample.Value, Timestamp: sample.Timestamp}
	}
	if snap.Trend != nil {
		layout.Trend = &plotSegment{
			X1: xAt(0), Y1: yAt(snap.Trend.At(0)),
			X2: xAt(n - 1), Y2: yAt(snap.Trend.At(n - 1)),
		}
	}
	for i := 0; i < yTickCount; i++ {
		v := hi - (hi-lo)*float64(i)/float64(yTickCount-1)
		layout.YTicks = append(layout.YTicks, plotTick{Y: yAt(v), Label: fmt.Sprintf("%.1f", v)})
	}
	layout.First = clockPart(snap.Window[0])
	layout.Last = clockPart(snap.Window[n-1])
	return layout
}

// clockPart returns the HH:MM:SS portion of a sample timestamp.
func clockPart(sample feed.Sample) string {
	at, err := sample.Time(time.UTC)
	if err != nil {
		return sample.Timestamp
	}
	return at.Format(time.TimeOnly)
}
