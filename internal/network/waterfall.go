// Package network implements the network waterfall (§4.8) and fetch body
// capture (§4.9). Grounded on the teacher's already-retired
// internal/capture/network_waterfall.go idiom: a bounded, sorted projection
// over PerformanceResourceTiming entries plus a small pending-request
// registry for in-flight errors, all reads guarded and fail-open.
package network

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/brennhill/gasoline-page-agent/internal/config"
	"github.com/brennhill/gasoline-page-agent/internal/hostenv"
)

// WaterfallEntry is one projected resource-timing record (§4.8).
type WaterfallEntry struct {
	URL           string  `json:"url"`
	InitiatorType string  `json:"initiatorType"`
	StartTime     float64 `json:"startTime"`
	DNS           float64 `json:"dns"`
	Connect       float64 `json:"connect"`
	TLS           float64 `json:"tls,omitempty"`
	TTFB          float64 `json:"ttfb"`
	Download      float64 `json:"download"`
	TransferSize  int64   `json:"transferSize"`
	EncodedSize   int64   `json:"encodedBodySize"`
	DecodedSize   int64   `json:"decodedBodySize"`
	Cached        bool    `json:"cached"`
}

// parseResourceTiming projects a raw ResourceTimingEntry into a
// WaterfallEntry, computing non-negative phase durations.
func parseResourceTiming(e hostenv.ResourceTimingEntry) WaterfallEntry {
	entry := WaterfallEntry{
		URL:           e.Name,
		InitiatorType: e.InitiatorType,
		StartTime:     e.StartTime,
		DNS:           nonNeg(e.DomainLookupEnd - e.DomainLookupStart),
		Connect:       nonNeg(e.ConnectEnd - e.ConnectStart),
		TTFB:          nonNeg(e.ResponseStart - e.RequestStart),
		Download:      nonNeg(e.ResponseEnd - e.ResponseStart),
		TransferSize:  e.TransferSize,
		EncodedSize:   e.EncodedBodySize,
		DecodedSize:   e.DecodedBodySize,
	}
	if e.SecureConnectionStart > 0 {
		entry.TLS = nonNeg(e.ConnectEnd - e.SecureConnectionStart)
	}
	if e.TransferSize == 0 && e.EncodedBodySize > 0 {
		entry.Cached = true
	}
	return entry
}

func nonNeg(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// WaterfallOptions filters a waterfall read.
type WaterfallOptions struct {
	Since           float64
	InitiatorTypes  []string
}

func (o WaterfallOptions) allows(initiatorType string) bool {
	if len(o.InitiatorTypes) == 0 {
		return true
	}
	for _, t := range o.InitiatorTypes {
		if t == initiatorType {
			return true
		}
	}
	return false
}

// PendingRequest is a registered in-flight request awaiting completion.
type PendingRequest struct {
	URL       string
	Method    string
	StartTime time.Time
}

// Tracker owns the pending-request registry and reads resource timing
// entries from the host performance API on demand.
type Tracker struct {
	perf   hostenv.PerformanceAPI
	limits *config.Limits

	mu      sync.Mutex
	nextID  int
	pending map[string]PendingRequest
}

// NewTracker builds a Tracker bound to a host performance API.
func NewTracker(perf hostenv.PerformanceAPI, limits *config.Limits) *Tracker {
	return &Tracker{perf: perf, limits: limits, pending: make(map[string]PendingRequest)}
}

// ResetForTesting clears the pending-request registry and its id counter.
func (t *Tracker) ResetForTesting() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextID = 0
	t.pending = make(map[string]PendingRequest)
}

// RegisterPending adds an in-flight request to the registry and returns its
// monotonic id, prefixed "req_".
func (t *Tracker) RegisterPending(url, method string, start time.Time) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextID++
	id := "req_" + strconv.Itoa(t.nextID)
	t.pending[id] = PendingRequest{URL: url, Method: method, StartTime: start}
	return id
}

// ResolvePending removes a request from the registry once it completes
// (success or failure either way — the registry only tracks in-flight state).
func (t *Tracker) ResolvePending(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.pending, id)
}

func (t *Tracker) pendingSnapshot() []PendingRequest {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]PendingRequest, 0, len(t.pending))
	for _, p := range t.pending {
		out = append(out, p)
	}
	return out
}

// GetNetworkWaterfall reads all resource entries, filters, sorts ascending
// by start time, retains only the most recent WaterfallCap, and projects
// each. Any panic during the read yields an empty sequence (fail-open).
func (t *Tracker) GetNetworkWaterfall(opts WaterfallOptions) (entries []WaterfallEntry) {
	defer func() {
		if recover() != nil {
			entries = nil
		}
	}()
	if t.perf == nil {
		return nil
	}
	raw := t.perf.GetEntriesByType("resource")
	filtered := make([]hostenv.ResourceTimingEntry, 0, len(raw))
	for _, e := range raw {
		if e.StartTime < opts.Since {
			continue
		}
		if !opts.allows(e.InitiatorType) {
			continue
		}
		if strings.HasPrefix(e.Name, "data:") {
			continue
		}
		filtered = append(filtered, e)
	}
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].StartTime < filtered[j].StartTime })
	keep := t.limits.WaterfallCap
	if len(filtered) > keep {
		filtered = filtered[len(filtered)-keep:]
	}
	entries = make([]WaterfallEntry, 0, len(filtered))
	for _, e := range filtered {
		entries = append(entries, parseResourceTiming(e))
	}
	return entries
}

// ErrorWaterfall is the snapshot attached to an error event (§4.8).
type ErrorWaterfall struct {
	Ts       float64           `json:"ts"`
	Entries  []WaterfallEntry  `json:"entries"`
	Pending  []PendingRequest  `json:"pending"`
}

// GetNetworkWaterfallForError returns nil when disabled; otherwise a
// snapshot of entries from the last 30s plus all currently pending
// requests, tagged with the error's timestamp.
func (t *Tracker) GetNetworkWaterfallForError(enabled bool, errorTs float64) *ErrorWaterfall {
	if !enabled {
		return nil
	}
	since := errorTs - float64(t.limits.WaterfallWindow.Milliseconds())
	entries := t.GetNetworkWaterfall(WaterfallOptions{Since: since})
	return &ErrorWaterfall{Ts: errorTs, Entries: entries, Pending: t.pendingSnapshot()}
}

