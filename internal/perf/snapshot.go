package perf

import (
	"sort"
	"sync"

	"github.com/brennhill/gasoline-page-agent/internal/config"
	"github.com/brennhill/gasoline-page-agent/internal/hostenv"
)

// LongTask is one observed long-task entry.
type LongTask struct {
	StartTime float64 `json:"startTime"`
	Duration  float64 `json:"duration"`
}

// SnapshotObserver tracks long tasks, paint/LCP/CLS/INP metrics from a
// PerformanceObserver feed, independent of MarkTracker (§4.11).
type SnapshotObserver struct {
	observer hostenv.PerformanceObserver
	limits   *config.Limits

	mu            sync.Mutex
	installed     bool
	unobserve     func()
	longTasks     []LongTask
	fcp           float64
	lcp           float64
	clsTotal      float64
	inpMax        float64
}

// NewSnapshotObserver builds a SnapshotObserver. observer may be nil.
func NewSnapshotObserver(observer hostenv.PerformanceObserver, limits *config.Limits) *SnapshotObserver {
	return &SnapshotObserver{observer: observer, limits: limits}
}

// Install subscribes to the relevant entry types.
func (s *SnapshotObserver) Install() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.installed || s.observer == nil {
		s.installed = true
		return
	}
	s.installed = true
	s.unobserve = s.observer.Observe(
		[]string{"longtask", "paint", "largest-contentful-paint", "layout-shift", "event"},
		s.onEntry,
	)
}

// Uninstall disconnects the observer.
func (s *SnapshotObserver) Uninstall() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.installed {
		return
	}
	s.installed = false
	if s.unobserve != nil {
		s.unobserve()
		s.unobserve = nil
	}
}

func (s *SnapshotObserver) onEntry(e hostenv.PerformanceEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch e.EntryType {
	case "longtask":
		s.longTasks = append(s.longTasks, LongTask{StartTime: e.StartTime, Duration: e.Duration})
		if len(s.longTasks) > s.limits.LongTaskCap {
			s.longTasks = s.longTasks[len(s.longTasks)-s.limits.LongTaskCap:]
		}
	case "paint":
		if e.Name == "first-contentful-paint" {
			s.fcp = e.StartTime
		}
	case "largest-contentful-paint":
		s.lcp = e.StartTime
	case "layout-shift":
		if !e.HadRecentInput {
			s.clsTotal += e.Value
		}
	case "event":
		if e.Duration >= float64(s.limits.INPThreshold.Milliseconds()) && e.Duration > s.inpMax {
			s.inpMax = e.Duration
		}
	}
}

// LongTaskMetrics is the getLongTaskMetrics result.
type LongTaskMetrics struct {
	Count              int     `json:"count"`
	TotalBlockingTime  float64 `json:"totalBlockingTime"`
	Longest            float64 `json:"longest"`
}

// ResetForTesting clears all accumulated long-task/vitals state.
func (s *SnapshotObserver) ResetForTesting() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.longTasks = nil
	s.fcp, s.lcp, s.clsTotal, s.inpMax = 0, 0, 0, 0
}

// GetLongTaskMetrics aggregates the observed long tasks.
func (s *SnapshotObserver) GetLongTaskMetrics() LongTaskMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := LongTaskMetrics{Count: len(s.longTasks)}
	for _, t := range s.longTasks {
		m.TotalBlockingTime += nonNeg(t.Duration - 50)
		if t.Duration > m.Longest {
			m.Longest = t.Duration
		}
	}
	return m
}

func nonNeg(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// VitalsSnapshot is the current web-vitals state (§4.11).
type VitalsSnapshot struct {
	FCP float64 `json:"fcp,omitempty"`
	LCP float64 `json:"lcp,omitempty"`
	CLS float64 `json:"cls"`
	INP float64 `json:"inp,omitempty"`
}

// Vitals returns a snapshot of the paint/LCP/CLS/INP state.
func (s *SnapshotObserver) Vitals() VitalsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return VitalsSnapshot{FCP: s.fcp, LCP: s.lcp, CLS: s.clsTotal, INP: s.inpMax}
}

// CategoryBreakdown is the by-initiator-category aggregation in a snapshot.
type CategoryBreakdown struct {
	Category string  `json:"category"`
	Count    int     `json:"count"`
	Total    float64 `json:"totalDuration"`
}

// SlowRequest is one of the top-3 slowest requests in a snapshot.
type SlowRequest struct {
	URL      string  `json:"url"`
	Duration float64 `json:"duration"`
}

// Snapshot is the capturePerformanceSnapshot result.
type Snapshot struct {
	Navigation  *hostenv.ResourceTimingEntry `json:"navigation"`
	Categories  []CategoryBreakdown          `json:"categories"`
	SlowestReqs []SlowRequest                `json:"slowestRequests"`
}

var categoryByInitiator = map[string]string{
	"script": "script", "link": "style", "css": "style",
	"img": "image", "image": "image",
	"fetch": "fetch", "xmlhttprequest": "fetch",
	"font": "font", "css-font-face": "font",
}

func categoryOf(initiatorType string) string {
	if c, ok := categoryByInitiator[initiatorType]; ok {
		return c
	}
	return "other"
}

// CapturePerformanceSnapshot reads the first navigation entry, aggregates
// resource timing by category, and extracts the top-3 slowest requests
// (URLs truncated at 80 chars). Returns nil if no navigation entry exists.
func CapturePerformanceSnapshot(perf hostenv.PerformanceAPI) *Snapshot {
	if perf == nil {
		return nil
	}
	navEntries := perf.GetEntriesByType("navigation")
	if len(navEntries) == 0 {
		return nil
	}
	nav := navEntries[0]

	resources := perf.GetEntriesByType("resource")
	totals := make(map[string]*CategoryBreakdown)
	for _, r := range resources {
		cat := categoryOf(r.InitiatorType)
		b, ok := totals[cat]
		if !ok {
			b = &CategoryBreakdown{Category: cat}
			totals[cat] = b
		}
		b.Count++
		b.Total += nonNeg(r.ResponseEnd - r.StartTime)
	}
	categories := make([]CategoryBreakdown, 0, len(totals))
	for _, b := range totals {
		categories = append(categories, *b)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Category < categories[j].Category })

	sorted := make([]hostenv.ResourceTimingEntry, len(resources))
	copy(sorted, resources)
	sort.Slice(sorted, func(i, j int) bool {
		return (sorted[i].ResponseEnd - sorted[i].StartTime) > (sorted[j].ResponseEnd - sorted[j].StartTime)
	})
	top := 3
	if len(sorted) < top {
		top = len(sorted)
	}
	slowest := make([]SlowRequest, 0, top)
	for i := 0; i < top; i++ {
		slowest = append(slowest, SlowRequest{
			URL:      truncateURL(sorted[i].Name, 80),
			Duration: nonNeg(sorted[i].ResponseEnd - sorted[i].StartTime),
		})
	}

	return &Snapshot{Navigation: &nav, Categories: categories, SlowestReqs: slowest}
}

func truncateURL(url string, max int) string {
	if len(url) <= max {
		return url
	}
	return url[:max]
}

// ErrorSnapshot is the snapshot attached to an error event (§4.11).
type ErrorSnapshot struct {
	Ts       float64        `json:"ts"`
	Marks    []MarkEntry    `json:"marks"`
	Measures []MeasureEntry `json:"measures"`
	Nav      *Snapshot      `json:"navigation,omitempty"`
}

// GetPerformanceSnapshotForError returns nil when disabled; otherwise a
// bounded snapshot of marks/measures from the last 60s plus navigation
// timing, tagged with the error's timestamp.
func GetPerformanceSnapshotForError(enabled bool, tracker *MarkTracker, perf hostenv.PerformanceAPI, limits *config.Limits, errorTs float64) *ErrorSnapshot {
	if !enabled {
		return nil
	}
	since := errorTs - float64(limits.PerfWindow.Milliseconds())
	marks := filterMarksSince(tracker.Marks(), since)
	measures := filterMeasuresSince(tracker.Measures(), since)
	return &ErrorSnapshot{Ts: errorTs, Marks: marks, Measures: measures, Nav: CapturePerformanceSnapshot(perf)}
}

func filterMarksSince(marks []MarkEntry, since float64) []MarkEntry {
	out := make([]MarkEntry, 0, len(marks))
	for _, m := range marks {
		if m.StartTime >= since {
			out = append(out, m)
		}
	}
	return out
}

func filterMeasuresSince(measures []MeasureEntry, since float64) []MeasureEntry {
	out := make([]MeasureEntry, 0, len(measures))
	for _, m := range measures {
		if m.StartTime >= since {
			out = append(out, m)
		}
	}
	return out
}
