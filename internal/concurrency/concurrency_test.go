package concurrency

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRaceWithTimeoutReturnsFastResult(t *testing.T) {
	got := RaceWithTimeout(context.Background(), 50*time.Millisecond, "fallback", func(ctx context.Context) string {
		return "fast"
	})
	assert.Equal(t, "fast", got)
}

func TestRaceWithTimeoutReturnsFallbackOnTimeout(t *testing.T) {
	got := RaceWithTimeout(context.Background(), 10*time.Millisecond, "fallback", func(ctx context.Context) string {
		time.Sleep(100 * time.Millisecond)
		return "slow"
	})
	assert.Equal(t, "fallback", got)
}

func TestRaceWithTimeoutRecoversPanic(t *testing.T) {
	got := RaceWithTimeout(context.Background(), 50*time.Millisecond, -1, func(ctx context.Context) int {
		panic("boom")
	})
	assert.Equal(t, -1, got)
}

func TestThrottleAllowsFirstThenBlocks(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	th := NewThrottle(250*time.Millisecond, clock)

	assert.True(t, th.Allow())
	assert.False(t, th.Allow())

	now = now.Add(300 * time.Millisecond)
	assert.True(t, th.Allow())
}

func TestDebounceFiresOnceAfterQuiet(t *testing.T) {
	calls := 0
	done := make(chan struct{})
	d := NewDebounce(20 * time.Millisecond)
	for i := 0; i < 5; i++ {
		d.Call(func() {
			calls++
			close(done)
		})
	}
	select {
	case <-done:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("debounce never fired")
	}
	assert.Equal(t, 1, calls)
}
