// Package perf implements performance mark/measure capture and the
// navigation/resource snapshot (§4.11). Grounded on the teacher's
// already-retired internal/performance/diff.go idiom of ring-buffered
// entries plus a deduplicating observer backfill, adapted here from a
// checkpoint-diff tool into live capture via hostenv.PerformanceObserver.
package perf

import (
	"strconv"
	"sync"

	"github.com/brennhill/gasoline-page-agent/internal/buffers"
	"github.com/brennhill/gasoline-page-agent/internal/config"
	"github.com/brennhill/gasoline-page-agent/internal/hostenv"
)

// MarkEntry is a captured performance.mark() call.
type MarkEntry struct {
	Name        string  `json:"name"`
	StartTime   float64 `json:"startTime"`
	Detail      any     `json:"detail,omitempty"`
	CapturedAt  float64 `json:"capturedAt"`
}

// MeasureEntry is a captured performance.measure() call.
type MeasureEntry struct {
	Name       string  `json:"name"`
	StartTime  float64 `json:"startTime"`
	Duration   float64 `json:"duration"`
	CapturedAt float64 `json:"capturedAt"`
}

// MarkTracker wraps window.performance.mark/measure, appending to bounded
// ring buffers and delegating to the original. A PerformanceObserver
// backfills entries created outside the wrapper (e.g. by third-party
// code), deduplicated on (name, startTime).
type MarkTracker struct {
	perf     hostenv.PerformanceAPI
	observer hostenv.PerformanceObserver

	mu        sync.Mutex
	installed bool
	unobserve func()

	marks    *buffers.RingBuffer[MarkEntry]
	measures *buffers.RingBuffer[MeasureEntry]
	seen     map[string]bool
}

// NewMarkTracker builds a MarkTracker. observer may be nil (no backfill).
func NewMarkTracker(perf hostenv.PerformanceAPI, observer hostenv.PerformanceObserver, limits *config.Limits) *MarkTracker {
	return &MarkTracker{
		perf:     perf,
		observer: observer,
		marks:    buffers.NewRingBuffer[MarkEntry](limits.PerfEntriesCap),
		measures: buffers.NewRingBuffer[MeasureEntry](limits.PerfEntriesCap),
		seen:     make(map[string]bool),
	}
}

// Install begins observing and enables Mark/Measure wrapping.
func (t *MarkTracker) Install() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.installed {
		return
	}
	t.installed = true
	if t.observer != nil {
		t.unobserve = t.observer.Observe([]string{"mark", "measure"}, t.onObserved)
	}
}

// Uninstall disconnects the observer. Already-buffered entries survive.
func (t *MarkTracker) Uninstall() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.installed {
		return
	}
	t.installed = false
	if t.unobserve != nil {
		t.unobserve()
		t.unobserve = nil
	}
}

func (t *MarkTracker) dedupeKey(name string, startTime float64) string {
	return name + "\x00" + strconv.FormatFloat(startTime, 'f', -1, 64)
}

func (t *MarkTracker) onObserved(e hostenv.PerformanceEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.installed {
		return
	}
	key := t.dedupeKey(e.Name, e.StartTime)
	if t.seen[key] {
		return
	}
	t.seen[key] = true
	switch e.EntryType {
	case "mark":
		t.marks.WriteOne(MarkEntry{Name: e.Name, StartTime: e.StartTime, Detail: e.Detail, CapturedAt: t.now()})
	case "measure":
		t.measures.WriteOne(MeasureEntry{Name: e.Name, StartTime: e.StartTime, Duration: e.Duration, CapturedAt: t.now()})
	}
}

func (t *MarkTracker) now() float64 {
	if t.perf == nil {
		return 0
	}
	return t.perf.Now()
}

// Mark records a mark and delegates to the original performance.mark.
func (t *MarkTracker) Mark(name string, detail any) {
	t.mu.Lock()
	key := t.dedupeKey(name, t.now())
	installed := t.installed
	if installed && !t.seen[key] {
		t.seen[key] = true
		t.marks.WriteOne(MarkEntry{Name: name, StartTime: t.now(), Detail: detail, CapturedAt: t.now()})
	}
	t.mu.Unlock()
	if t.perf != nil {
		t.perf.Mark(name, detail)
	}
}

// Measure records a measure and delegates to the original performance.measure.
func (t *MarkTracker) Measure(name string, startTime, duration float64) {
	t.mu.Lock()
	key := t.dedupeKey(name, startTime)
	installed := t.installed
	if installed && !t.seen[key] {
		t.seen[key] = true
		t.measures.WriteOne(MeasureEntry{Name: name, StartTime: startTime, Duration: duration, CapturedAt: t.now()})
	}
	t.mu.Unlock()
	if t.perf != nil {
		t.perf.Measure(name, startTime, duration)
	}
}

// ResetForTesting clears both ring buffers and the dedupe set, but leaves
// install state untouched.
func (t *MarkTracker) ResetForTesting() {
	t.marks.Clear()
	t.measures.Clear()
	t.mu.Lock()
	t.seen = make(map[string]bool)
	t.mu.Unlock()
}

// Marks returns a snapshot of recorded marks.
func (t *MarkTracker) Marks() []MarkEntry { return t.marks.ReadAll() }

// Measures returns a snapshot of recorded measures.
func (t *MarkTracker) Measures() []MeasureEntry { return t.measures.ReadAll() }
