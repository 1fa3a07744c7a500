package perf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brennhill/gasoline-page-agent/internal/config"
	"github.com/brennhill/gasoline-page-agent/internal/hostenv"
	"github.com/brennhill/gasoline-page-agent/internal/hostenv/sim"
)

func TestMarkAndMeasureRecordedWhenInstalled(t *testing.T) {
	clock := sim.NewClock(time.Now())
	p := sim.NewPerformance(clock)
	tr := NewMarkTracker(p, nil, config.Default())
	tr.Install()

	tr.Mark("start", nil)
	tr.Measure("m1", 0, 5)

	require.Len(t, tr.Marks(), 1)
	require.Len(t, tr.Measures(), 1)
	assert.Equal(t, []string{"start"}, p.Marks)
}

func TestMarkNotRecordedWhenNotInstalled(t *testing.T) {
	clock := sim.NewClock(time.Now())
	p := sim.NewPerformance(clock)
	tr := NewMarkTracker(p, nil, config.Default())
	tr.Mark("start", nil)
	assert.Len(t, tr.Marks(), 0)
	assert.Equal(t, []string{"start"}, p.Marks, "delegates to original even when not installed")
}

func TestObserverBackfillDedupesAgainstWrapper(t *testing.T) {
	clock := sim.NewClock(time.Now())
	p := sim.NewPerformance(clock)
	obs := sim.NewObserver()
	tr := NewMarkTracker(p, obs, config.Default())
	tr.Install()

	tr.Mark("dup", nil)
	obs.Emit(hostenv.PerformanceEntry{EntryType: "mark", Name: "dup", StartTime: p.Now()})
	obs.Emit(hostenv.PerformanceEntry{EntryType: "mark", Name: "external", StartTime: p.Now() + 1})

	marks := tr.Marks()
	require.Len(t, marks, 2)
}

func TestUninstallStopsObserverBackfill(t *testing.T) {
	clock := sim.NewClock(time.Now())
	p := sim.NewPerformance(clock)
	obs := sim.NewObserver()
	tr := NewMarkTracker(p, obs, config.Default())
	tr.Install()
	tr.Uninstall()
	obs.Emit(hostenv.PerformanceEntry{EntryType: "mark", Name: "late", StartTime: 99})
	assert.Len(t, tr.Marks(), 0)
}

func TestSnapshotObserverLongTaskMetrics(t *testing.T) {
	obs := sim.NewObserver()
	so := NewSnapshotObserver(obs, config.Default())
	so.Install()
	obs.Emit(hostenv.PerformanceEntry{EntryType: "longtask", StartTime: 0, Duration: 60})
	obs.Emit(hostenv.PerformanceEntry{EntryType: "longtask", StartTime: 100, Duration: 30})

	m := so.GetLongTaskMetrics()
	assert.Equal(t, 2, m.Count)
	assert.Equal(t, 10.0, m.TotalBlockingTime) // max(0,60-50) + max(0,30-50) = 10 + 0
	assert.Equal(t, 60.0, m.Longest)
}

func TestSnapshotObserverVitals(t *testing.T) {
	obs := sim.NewObserver()
	so := NewSnapshotObserver(obs, config.Default())
	so.Install()
	obs.Emit(hostenv.PerformanceEntry{EntryType: "paint", Name: "first-contentful-paint", StartTime: 120})
	obs.Emit(hostenv.PerformanceEntry{EntryType: "largest-contentful-paint", StartTime: 400})
	obs.Emit(hostenv.PerformanceEntry{EntryType: "largest-contentful-paint", StartTime: 500})
	obs.Emit(hostenv.PerformanceEntry{EntryType: "layout-shift", Value: 0.1})
	obs.Emit(hostenv.PerformanceEntry{EntryType: "layout-shift", Value: 0.05, HadRecentInput: true})
	obs.Emit(hostenv.PerformanceEntry{EntryType: "event", Duration: 45})

	v := so.Vitals()
	assert.Equal(t, 120.0, v.FCP)
	assert.Equal(t, 500.0, v.LCP, "last LCP entry wins")
	assert.Equal(t, 0.1, v.CLS, "layout-shift with recent input excluded")
	assert.Equal(t, 45.0, v.INP)
}

func TestCapturePerformanceSnapshotNilWithoutNavigation(t *testing.T) {
	clock := sim.NewClock(time.Now())
	p := sim.NewPerformance(clock)
	assert.Nil(t, CapturePerformanceSnapshot(p))
}

type navPerf struct {
	*sim.Performance
	nav hostenv.ResourceTimingEntry
}

func (n *navPerf) GetEntriesByType(entryType string) []hostenv.ResourceTimingEntry {
	if entryType == "navigation" {
		return []hostenv.ResourceTimingEntry{n.nav}
	}
	return n.Performance.GetEntriesByType(entryType)
}

func TestCapturePerformanceSnapshotAggregatesCategories(t *testing.T) {
	clock := sim.NewClock(time.Now())
	base := sim.NewPerformance(clock)
	base.Seed(
		hostenv.ResourceTimingEntry{Name: "https://x/a.js", InitiatorType: "script", StartTime: 0, ResponseEnd: 10},
		hostenv.ResourceTimingEntry{Name: "https://x/b.png", InitiatorType: "img", StartTime: 0, ResponseEnd: 200},
	)
	p := &navPerf{Performance: base, nav: hostenv.ResourceTimingEntry{Name: "https://x/"}}

	snap := CapturePerformanceSnapshot(p)
	require.NotNil(t, snap)
	require.NotNil(t, snap.Navigation)
	require.Len(t, snap.SlowestReqs, 2)
	assert.Equal(t, "https://x/b.png", snap.SlowestReqs[0].URL)
}

func TestGetPerformanceSnapshotForErrorDisabled(t *testing.T) {
	clock := sim.NewClock(time.Now())
	p := sim.NewPerformance(clock)
	tr := NewMarkTracker(p, nil, config.Default())
	assert.Nil(t, GetPerformanceSnapshotForError(false, tr, p, config.Default(), 1000))
}
