package sim

import (
	"sync"

	"github.com/brennhill/gasoline-page-agent/internal/hostenv"
)

// Performance is an in-memory window.performance double: marks/measures
// are recorded for assertions, and resource entries are seeded directly by
// tests via Entries.
type Performance struct {
	mu      sync.Mutex
	clock   *Clock
	Entries []hostenv.ResourceTimingEntry
	Marks   []string
	Measures []string
}

func NewPerformance(clock *Clock) *Performance {
	return &Performance{clock: clock}
}

func (p *Performance) Now() float64 {
	return float64(p.clock.Now().UnixMilli())
}

func (p *Performance) Mark(name string, detail any) {
	p.mu.Lock()
	p.Marks = append(p.Marks, name)
	p.mu.Unlock()
}

func (p *Performance) Measure(name string, startTime, duration float64) {
	p.mu.Lock()
	p.Measures = append(p.Measures, name)
	p.mu.Unlock()
}

func (p *Performance) GetEntriesByType(entryType string) []hostenv.ResourceTimingEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	if entryType != "resource" {
		return nil
	}
	out := make([]hostenv.ResourceTimingEntry, len(p.Entries))
	copy(out, p.Entries)
	return out
}

func (p *Performance) Seed(entries ...hostenv.ResourceTimingEntry) {
	p.mu.Lock()
	p.Entries = append(p.Entries, entries...)
	p.mu.Unlock()
}

// Observer is an in-memory PerformanceObserver double. Tests call Emit to
// deliver an entry to every currently-subscribed callback whose entry type
// matches.
type Observer struct {
	mu   sync.Mutex
	subs []observerSub
}

type observerSub struct {
	types []string
	cb    func(hostenv.PerformanceEntry)
}

func NewObserver() *Observer { return &Observer{} }

func (o *Observer) Observe(entryTypes []string, cb func(hostenv.PerformanceEntry)) func() {
	o.mu.Lock()
	idx := len(o.subs)
	o.subs = append(o.subs, observerSub{types: entryTypes, cb: cb})
	o.mu.Unlock()
	return func() {
		o.mu.Lock()
		o.subs[idx].cb = nil
		o.mu.Unlock()
	}
}

func (o *Observer) Emit(entry hostenv.PerformanceEntry) {
	o.mu.Lock()
	subs := make([]observerSub, len(o.subs))
	copy(subs, o.subs)
	o.mu.Unlock()
	for _, s := range subs {
		if s.cb == nil {
			continue
		}
		for _, t := range s.types {
			if t == entry.EntryType {
				s.cb(entry)
				break
			}
		}
	}
}
