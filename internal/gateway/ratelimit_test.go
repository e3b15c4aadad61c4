package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock drives the limiter without wall-clock waits.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Sleep(d time.Duration)   { c.now = c.now.Add(d) }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestLimiter(limit int, clock *fakeClock) *Limiter {
	l := NewLimiter(limit, time.Minute)
	l.now = clock.Now
	l.sleep = clock.Sleep
	return l
}

func TestLimiter_UnderCapDoesNotBlock(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(60, clock)
	ctx := context.Background()

	start := clock.Now()
	for i := 0; i < 60; i++ {
		require.NoError(t, l.Wait(ctx))
	}
	assert.Equal(t, start, clock.Now(), "no call under the cap should sleep")
}

func TestLimiter_61stCallBlocksUntilWindowFrees(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(60, clock)
	ctx := context.Background()

	first := clock.Now()
	// 61 calls issued within one second
	for i := 0; i < 60; i++ {
		require.NoError(t, l.Wait(ctx))
		clock.Advance(time.Second / 60)
	}
	require.NoError(t, l.Wait(ctx))

	elapsed := clock.Now().Sub(first)
	assert.GreaterOrEqual(t, elapsed, time.Minute,
		"61st call must only return once the first request aged out of the window")
}

func TestLimiter_SlotsFreeAsRequestsAge(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(2, clock)
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx))
	require.NoError(t, l.Wait(ctx))

	// a minute later both slots are free again
	clock.Advance(time.Minute)
	before := clock.Now()
	require.NoError(t, l.Wait(ctx))
	assert.Equal(t, before, clock.Now())
}

func TestLimiter_ContextCancellation(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(1, clock)

	require.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := l.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewLimiter_Defaults(t *testing.T) {
	l := NewLimiter(0, 0)
	assert.Equal(t, 60, l.limit)
	assert.Equal(t, time.Minute, l.window)
}
