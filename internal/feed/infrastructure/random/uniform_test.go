package random

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	feed "antarctic-explorer/internal/feed/domain"
)

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

func TestUniformSourceRangeAndPrecision(t *testing.T) {
	at := time.Date(2026, 10, 19, 9, 15, 30, 123, time.UTC)
	src, err := NewUniformSource(DefaultMin, DefaultMax, DefaultPrecision, WithSeed(42), WithClock(fixedClock{at: at}))
	require.NoError(t, err)

	for i := 0; i < 500; i++ {
		sample, err := src.Generate(context.Background())
		require.NoError(t, err)
		assert.GreaterOrEqual(t, sample.Value, DefaultMin)
		assert.LessOrEqual(t, sample.Value, DefaultMax)
		assert.InDelta(t, sample.Value, Round(sample.Value, 1), 1e-12)
		assert.Equal(t, "2026-10-19 09:15:30", sample.Timestamp)
	}
}

func TestUniformSourceSeedIsReproducible(t *testing.T) {
	a, err := NewUniformSource(0, 100, 2, WithSeed(7))
	require.NoError(t, err)
	b, err := NewUniformSource(0, 100, 2, WithSeed(7))
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		sa, err := a.Generate(context.Background())
		require.NoError(t, err)
		sb, err := b.Generate(context.Background())
		require.NoError(t, err)
		assert.Equal(t, sa.Value, sb.Value)
	}
}

func TestUniformSourceDegenerateRange(t *testing.T) {
	src, err := NewUniformSource(-17, -17, 1)
	require.NoError(t, err)
	sample, err := src.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, -17.0, sample.Value)
}

func TestNewUniformSourceRejectsBadConfig(t *testing.T) {
	_, err := NewUniformSource(-16, -18, 1)
	assert.ErrorIs(t, err, feed.ErrInvalidConfig)
	_, err = NewUniformSource(-18, -16, 9)
	assert.ErrorIs(t, err, feed.ErrInvalidConfig)
	_, err = NewUniformSource(-18, -16, -1)
	assert.ErrorIs(t, err, feed.ErrInvalidConfig)
}

func TestUniformSourceUnavailable(t *testing.T) {
	src, err := NewUniformSource(-18, -16, 1, WithClock(nil))
	require.NoError(t, err)
	_, err = src.Generate(context.Background())
	assert.ErrorIs(t, err, feed.ErrSourceUnavailable)

	src, err = NewUniformSource(-18, -16, 1, WithRand(nil))
	require.NoError(t, err)
	_, err = src.Generate(context.Background())
	assert.ErrorIs(t, err, feed.ErrSourceUnavailable)

	src, err = NewUniformSource(-18, -16, 1, WithClock(fixedClock{}))
	require.NoError(t, err)
	_, err = src.Generate(context.Background())
	assert.ErrorIs(t, err, feed.ErrSourceUnavailable)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src, err = NewUniformSource(-18, -16, 1)
	require.NoError(t, err)
	_, err = src.Generate(ctx)
	assert.ErrorIs(t, err, feed.ErrSourceUnavailable)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRound(t *testing.T) {
	assert.Equal(t, -16.8, Round(-16.84, 1))
	assert.Equal(t, -16.9, Round(-16.86, 1))
	assert.Equal(t, 3.0, Round(2.5, 0))
	assert.Equal(t, 1.23, Round(1.2345, 2))
}
