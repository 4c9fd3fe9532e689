package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRegenerationCounters(t *testing.T) {
	Init(nil, nil)

	before := testutil.ToFloat64(regenerationsTotal.WithLabelValues(ResultError))
	ObserveRegeneration(ResultError, 10*time.Millisecond)
	after := testutil.ToFloat64(regenerationsTotal.WithLabelValues(ResultError))
	assert.Equal(t, before+1, after)
}

func TestSnapshotReadsByMemoOutcome(t *testing.T) {
	Init(nil, nil)

	hits := testutil.ToFloat64(snapshotReads.WithLabelValues(readHit))
	misses := testutil.ToFloat64(snapshotReads.WithLabelValues(readMiss))
	IncSnapshotRead(true)
	IncSnapshotRead(true)
	IncSnapshotRead(false)
	assert.Equal(t, hits+2, testutil.ToFloat64(snapshotReads.WithLabelValues(readHit)))
	assert.Equal(t, misses+1, testutil.ToFloat64(snapshotReads.WithLabelValues(readMiss)))
}

func TestSnapshotGauges(t *testing.T) {
	Init(nil, nil)

	slope := 0.25
	SetSnapshotGauges(7, 3, -16.8, &slope)
	assert.Equal(t, float64(7), testutil.ToFloat64(currentTick))
	assert.Equal(t, float64(3), testutil.ToFloat64(windowSamples))
	assert.Equal(t, -16.8, testutil.ToFloat64(latestValue))
	assert.Equal(t, 0.25, testutil.ToFloat64(trendSlope))

	// An undefined trend leaves the previous slope in place.
	SetSnapshotGauges(8, 1, -17, nil)
	assert.Equal(t, 0.25, testutil.ToFloat64(trendSlope))
}

func TestSourceFailureDefaultsReason(t *testing.T) {
	Init(nil, nil)

	before := testutil.ToFloat64(sourceFailures.WithLabelValues("unknown"))
	IncSourceFailure("")
	assert.Equal(t, before+1, testutil.ToFloat64(sourceFailures.WithLabelValues("unknown")))
}
