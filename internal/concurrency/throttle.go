package concurrency

import (
	"sync"
	"time"
)

// Throttle allows at most one call through per interval, driven by an
// injected clock so it stays deterministic in tests (used by scroll
// capture's 250ms throttle).
type Throttle struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
	now      func() time.Time
}

func NewThrottle(interval time.Duration, now func() time.Time) *Throttle {
	return &Throttle{interval: interval, now: now}
}

// Allow reports whether a call at the current time should proceed, and if
// so records it as the new "last allowed" time.
func (t *Throttle) Allow() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := t.now()
	if n.Sub(t.last) < t.interval {
		return false
	}
	t.last = n
	return true
}

// Debounce delays calling fn until quiet has elapsed since the last Call.
// Each Call resets the pending timer; only the most recent scheduled call
// ever fires.
type Debounce struct {
	mu    sync.Mutex
	quiet time.Duration
	timer *time.Timer
}

func NewDebounce(quiet time.Duration) *Debounce {
	return &Debounce{quiet: quiet}
}

func (d *Debounce) Call(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.quiet, fn)
}

// Stop cancels any pending call.
func (d *Debounce) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}
