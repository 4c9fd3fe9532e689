package feed

import (
	"context"
	"time"
)

// TimestampLayout is the fixed second-precision layout of Sample.Timestamp.
const TimestampLayout = "2006-01-02 15:04:05"

// Sample is one temperature reading.
type Sample struct {
	Value     float64 `json:"value"`
	Timestamp string  `json:"timestamp"`
}

// NewSample formats at with TimestampLayout.
func NewSample(value float64, at time.Time) Sample {
	return Sample{Value: value, Timestamp: at.Format(TimestampLayout)}
}

// Time parses the sample timestamp in loc.
func (s Sample) Time(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(TimestampLayout, s.Timestamp, loc)
}

// Source produces one new sample per call.
type Source interface {
	Generate(ctx context.Context) (Sample, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (Sample, error)

// Generate implements Source.
func (f SourceFunc) Generate(ctx context.Context) (Sample, error) {
	return f(ctx)
}

// Clock supplies wall-clock time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads time.Now.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now() }
