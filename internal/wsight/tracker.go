// Package wsight implements WebSocket traffic capture (§4.10): per-
// connection adaptive sampling and schema inference wrapped around a
// hostenv.WSDialer. No teacher analog survives (the teacher's
// internal/capture/websocket.go was retired as out-of-scope MCP-collector
// code); grounded on the spec's own sampling/schema-inference contract and
// on the teacher's general install/uninstall, fail-open interceptor idiom.
package wsight

import (
	"context"
	"encoding/hex"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/brennhill/gasoline-page-agent/internal/bridge"
	"github.com/brennhill/gasoline-page-agent/internal/config"
	"github.com/brennhill/gasoline-page-agent/internal/hostenv"
	"github.com/brennhill/gasoline-page-agent/internal/util"
)

// CaptureMode controls the target sample rate (§4.10).
type CaptureMode string

const (
	ModeAll    CaptureMode = "all"
	ModeHigh   CaptureMode = "high"
	ModeMedium CaptureMode = "medium"
	ModeLow    CaptureMode = "low"
)

func targetRate(mode CaptureMode) float64 {
	switch mode {
	case ModeHigh:
		return 10
	case ModeMedium:
		return 5
	case ModeLow:
		return 2
	default:
		return 5
	}
}

// EventPayload is the TypeWebSocket envelope payload (§4.10). Format is an
// additive SPEC_FULL.md supplement: a best-guess binary-format name tagged
// onto an already-rendered "[Binary: ...]" payload, never replacing it.
type EventPayload struct {
	ConnectionID string `json:"connectionId"`
	URL          string `json:"url"`
	Event        string `json:"event"` // open|message|send|close|error
	Direction    string `json:"direction,omitempty"`
	Size         int    `json:"size,omitempty"`
	Payload      string `json:"payload,omitempty"`
	Truncated    bool   `json:"truncated,omitempty"`
	Format       string `json:"format,omitempty"`
	Code         int    `json:"code,omitempty"`
	Reason       string `json:"reason,omitempty"`
	Ts           string `json:"ts"`
}

// Manager installs itself around a hostenv.WSDialer, instrumenting every
// dialed connection with a fresh ConnectionTracker (§4.10 step 1).
type Manager struct {
	dialer hostenv.WSDialer
	br     *bridge.Bridge
	clock  hostenv.Clock
	limits *config.Limits
	mode   CaptureMode

	mu       sync.Mutex
	trackers map[string]*ConnectionTracker
}

// NewManager builds a Manager wrapping dialer.
func NewManager(dialer hostenv.WSDialer, br *bridge.Bridge, clock hostenv.Clock, limits *config.Limits, mode CaptureMode) *Manager {
	return &Manager{dialer: dialer, br: br, clock: clock, limits: limits, mode: mode, trackers: make(map[string]*ConnectionTracker)}
}

// ResetForTesting discards all tracked connections. Already-open connections
// keep running; their trackers are simply no longer reachable for
// inspection.
func (m *Manager) ResetForTesting() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trackers = make(map[string]*ConnectionTracker)
}

// Dial opens a new connection and attaches capture taps.
func (m *Manager) Dial(ctx context.Context, url string) (hostenv.WSConn, error) {
	conn, err := m.dialer.Dial(ctx, url)
	if err != nil {
		return nil, err
	}
	id := uuid.NewString()
	tr := newConnectionTracker(id, url, m.br, m.clock, m.limits, m.mode)

	m.mu.Lock()
	m.trackers[id] = tr
	m.mu.Unlock()

	tr.attach(conn)
	return &wrappedConn{WSConn: conn, tracker: tr}, nil
}

// ConnectionTracker owns the sampling state and schema inference for one
// WebSocket connection.
type ConnectionTracker struct {
	id     string
	url    string
	br     *bridge.Bridge
	clock  hostenv.Clock
	limits *config.Limits
	mode   CaptureMode

	mu         sync.Mutex
	msgCount   int
	sampleSeq  int
	timestamps []time.Time
	schema     *schemaState
}

func newConnectionTracker(id, url string, br *bridge.Bridge, clock hostenv.Clock, limits *config.Limits, mode CaptureMode) *ConnectionTracker {
	return &ConnectionTracker{id: id, url: url, br: br, clock: clock, limits: limits, mode: mode, schema: newSchemaState()}
}

func (t *ConnectionTracker) attach(conn hostenv.WSConn) {
	t.post(EventPayload{Event: "open"})
	conn.OnMessage(func(data []byte, binary bool) { t.onTraffic("message", "in", data, binary) })
	conn.OnClose(func(code int, reason string) {
		t.post(EventPayload{Event: "close", Code: code, Reason: reason})
	})
	conn.OnError(func(err error) {
		t.post(EventPayload{Event: "error", Reason: err.Error()})
	})
}

// WrapSend instruments an outgoing send, recording/sampling identically to
// incoming messages before the caller actually delegates to conn.Send.
func (t *ConnectionTracker) WrapSend(data []byte, binary bool) {
	t.onTraffic("send", "out", data, binary)
}

func (t *ConnectionTracker) onTraffic(event, direction string, data []byte, binary bool) {
	defer func() { recover() }()

	sample := t.shouldSample()
	if direction == "in" {
		t.inferSchema(data, binary)
	}
	if !sample {
		return
	}

	payload, truncated, format := formatPayload(data, binary, t.limits.WSMaxBody)
	t.post(EventPayload{
		Event:     event,
		Direction: direction,
		Size:      len(data),
		Payload:   payload,
		Truncated: truncated,
		Format:    format,
	})
}

// shouldSample implements the §4.10 sampling contract.
func (t *ConnectionTracker) shouldSample() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.msgCount++
	now := t.clock.Now()
	t.timestamps = append(t.timestamps, now)
	cutoff := now.Add(-5 * time.Second)
	kept := t.timestamps[:0]
	for _, ts := range t.timestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	t.timestamps = kept

	if t.mode == ModeAll {
		return true
	}
	if t.msgCount <= 5 {
		return true
	}

	rate := float64(len(t.timestamps)) / 5.0
	target := targetRate(t.mode)
	if rate <= target {
		return true
	}
	every := int(math.Ceil(rate / target))
	if every < 1 {
		every = 1
	}
	t.sampleSeq++
	return t.sampleSeq%every == 0
}

func (t *ConnectionTracker) post(p EventPayload) {
	p.ConnectionID = t.id
	p.URL = t.url
	p.Ts = t.clock.Now().UTC().Format(time.RFC3339)
	t.br.Post(bridge.Envelope{Type: bridge.TypeWebSocket, Payload: p})
}

// formatPayload implements the §4.10 payload formatting contract, plus the
// SPEC_FULL.md format-hint supplement for binary payloads.
func formatPayload(data []byte, binary bool, cap int) (string, bool, string) {
	if !binary {
		s := string(data)
		if len(s) > cap {
			return s[:cap], true, ""
		}
		return s, false, ""
	}
	format := util.FormatHint(data)
	n := len(data)
	if n < 256 {
		return "[Binary: " + strconv.Itoa(n) + "B] " + hex.EncodeToString(data), false, format
	}
	magicLen := 4
	if n < magicLen {
		magicLen = n
	}
	return "[Binary: " + strconv.Itoa(n) + "B, magic:" + hex.EncodeToString(data[:magicLen]) + "]", false, format
}

// schemaState implements the §4.10 three-phase schema-inference contract.
type schemaState struct {
	recorded  []string
	variants  map[string]int
	detected  bool
	firstFive map[string]bool
}

func newSchemaState() *schemaState {
	return &schemaState{variants: make(map[string]int), firstFive: make(map[string]bool)}
}

func (t *ConnectionTracker) inferSchema(data []byte, binary bool) {
	if binary {
		return
	}
	keys, ok := objectKeySignature(data)
	if !ok {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.schema

	if !s.detected {
		if len(s.recorded) < 5 {
			s.recorded = append(s.recorded, keys)
			s.firstFive[keys] = true
			s.variants[keys]++
			if len(s.recorded) == 5 {
				s.detected = true
			}
			return
		}
	}

	// Phase 3: continue counting variants; add brand-new keys only while
	// under the 50-entry cap.
	if _, seen := s.variants[keys]; seen {
		s.variants[keys]++
		return
	}
	if len(s.variants) < 50 {
		s.variants[keys]++
	}
}

// IsSchemaChange reports whether, after detection, the incoming payload's
// key signature is not among the first 5 recorded.
func (t *ConnectionTracker) IsSchemaChange(data []byte) bool {
	keys, ok := objectKeySignature(data)
	if !ok {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.schema.detected {
		return false
	}
	return !t.schema.firstFive[keys]
}

// objectKeySignature returns the sorted, comma-joined key string of data if
// it parses as a JSON object; ok is false for anything else (arrays,
// scalars, invalid JSON).
func objectKeySignature(data []byte) (string, bool) {
	obj, ok := parseJSONObject(data)
	if !ok {
		return "", false
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ","), true
}
