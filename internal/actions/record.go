// Package actions captures click/input/scroll/keydown/change events into a
// bounded ring buffer and forwards every event to the reproduction engine
// as an enhanced action (§4.5). Grounded on the teacher's
// internal/buffers.RingBuffer for the FIFO-overwrite buffer itself; the
// capture/redaction/throttle logic is new, written in the same terse,
// fail-open style as the rest of the teacher's capture code.
package actions

import (
	"sync"

	"github.com/brennhill/gasoline-page-agent/internal/buffers"
	"github.com/brennhill/gasoline-page-agent/internal/concurrency"
	"github.com/brennhill/gasoline-page-agent/internal/config"
	"github.com/brennhill/gasoline-page-agent/internal/hostenv"
	"github.com/brennhill/gasoline-page-agent/internal/reproduction"
)

// Record is one captured raw action, used for the bridge's attached
// "_actions" context on error events.
type Record struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
	Target    string `json:"target,omitempty"`
	X         float64 `json:"x,omitempty"`
	Y         float64 `json:"y,omitempty"`
	Text      string `json:"text,omitempty"`
	Value     string `json:"value,omitempty"`
	Length    int    `json:"length,omitempty"`
	ScrollY   int    `json:"scrollY,omitempty"`
	Key       string `json:"key,omitempty"`
	SelectedValue string `json:"selectedValue,omitempty"`
	SelectedText  string `json:"selectedText,omitempty"`
}

// Buffer is the action ring buffer plus the enhanced-action forwarding
// sink. A disabled Buffer still exists (listeners stay installed per
// §4.5) but drops every event and keeps its backing buffers empty.
type Buffer struct {
	limits *config.Limits
	clock  hostenv.Clock
	window hostenv.Window

	raw      *buffers.RingBuffer[Record]
	enhanced *buffers.RingBuffer[reproduction.EnhancedAction]

	mu      sync.Mutex
	enabled bool

	scrollThrottle *concurrency.Throttle
}

// New builds a Buffer in the enabled state.
func New(limits *config.Limits, clock hostenv.Clock, window hostenv.Window) *Buffer {
	return &Buffer{
		limits:   limits,
		clock:    clock,
		window:   window,
		raw:      buffers.NewRingBuffer[Record](limits.ActionBufferCap),
		enhanced: buffers.NewRingBuffer[reproduction.EnhancedAction](limits.EnhancedActionBufferCap),
		enabled:  true,
		scrollThrottle: concurrency.NewThrottle(limits.ScrollThrottle, clock.Now),
	}
}

// SetEnabled toggles capture. Disabling clears both buffers, matching the
// spec's "on disable, the buffer is cleared" contract; listeners are not
// uninstalled, they simply become no-ops via isEnabled().
func (b *Buffer) SetEnabled(on bool) {
	b.mu.Lock()
	b.enabled = on
	b.mu.Unlock()
	if !on {
		b.raw.Clear()
		b.enhanced.Clear()
	}
}

// ResetForTesting clears both buffers and re-enables capture, giving tests
// a clean-slate Buffer without reconstructing one.
func (b *Buffer) ResetForTesting() {
	b.raw.Clear()
	b.enhanced.Clear()
	b.mu.Lock()
	b.enabled = true
	b.mu.Unlock()
}

func (b *Buffer) isEnabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.enabled
}

func (b *Buffer) push(r Record, e reproduction.EnhancedAction) {
	if !b.isEnabled() {
		return
	}
	b.raw.WriteOne(r)
	b.enhanced.WriteOne(e)
}

// Snapshot returns a copy of the currently buffered raw records.
func (b *Buffer) Snapshot() []Record {
	return b.raw.ReadAll()
}

// SnapshotAny returns the raw records boxed as []any, satisfying
// bridge.ActionSource.
func (b *Buffer) SnapshotAny() []any {
	records := b.raw.ReadAll()
	out := make([]any, len(records))
	for i, r := range records {
		out[i] = r
	}
	return out
}

// SnapshotEnhanced returns a copy of the buffered enhanced actions, used by
// the reproduction engine.
func (b *Buffer) SnapshotEnhanced() []reproduction.EnhancedAction {
	return b.enhanced.ReadAll()
}

func (b *Buffer) now() int64 {
	return b.clock.Now().UnixMilli()
}

func (b *Buffer) currentURL() string {
	if b.window == nil {
		return ""
	}
	return b.window.URL()
}
