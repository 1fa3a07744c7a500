// Package metrics exposes the capture core's own self-observability
// surface via github.com/prometheus/client_golang, grounded on
// 99souls-ariadne's engine/telemetry/metrics/prometheus.go: a registry
// wrapping a *prometheus.Registry, building fully-qualified metric names
// once and caching the resulting vectors, tolerant of double-registration.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the capture core's metrics surface: counters plus one
// duration histogram for the capture modules' self-observability signals
// (§4.1 ambient stack).
type Registry struct {
	reg *prometheus.Registry

	EventsPosted       *prometheus.CounterVec
	BufferOverflows    *prometheus.CounterVec
	AIPipelineTimeouts prometheus.Counter
	AIPipelineDuration prometheus.Histogram
	WSMessagesSampled  *prometheus.CounterVec
	WSMessagesDropped  *prometheus.CounterVec
	NetworkBodyErrors  prometheus.Counter
}

// NewRegistry builds a Registry backed by a fresh prometheus.Registry and
// registers every collector. Registration failures (double-register
// against a shared registry) are swallowed, matching the teacher's
// best-effort Register calls — self-observability must never be able to
// crash the capture core it observes.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	r := &Registry{
		reg: reg,
		EventsPosted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gasoline_events_posted_total",
			Help: "Events posted to the page-local bus, by envelope type.",
		}, []string{"type"}),
		BufferOverflows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gasoline_buffer_overflows_total",
			Help: "Ring-buffer writes that evicted an existing entry, by buffer name.",
		}, []string{"buffer"}),
		AIPipelineTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gasoline_ai_pipeline_timeouts_total",
			Help: "AI enrichment builds that missed their timeout and fell back to a minimal summary.",
		}),
		AIPipelineDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gasoline_ai_pipeline_duration_seconds",
			Help:    "Wall-clock duration of the AI enrichment build.",
			Buckets: prometheus.DefBuckets,
		}),
		WSMessagesSampled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gasoline_ws_messages_sampled_total",
			Help: "WebSocket messages selected for capture, by connection direction.",
		}, []string{"direction"}),
		WSMessagesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gasoline_ws_messages_dropped_total",
			Help: "WebSocket messages skipped by adaptive sampling, by connection direction.",
		}, []string{"direction"}),
		NetworkBodyErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gasoline_network_body_capture_errors_total",
			Help: "Network body captures that recovered from a panic.",
		}),
	}
	for _, c := range []prometheus.Collector{
		r.EventsPosted, r.BufferOverflows, r.AIPipelineTimeouts, r.AIPipelineDuration,
		r.WSMessagesSampled, r.WSMessagesDropped, r.NetworkBodyErrors,
	} {
		_ = reg.Register(c) // best-effort; AlreadyRegisteredError is not fatal here
	}
	return r
}

// Handler returns the /metrics HTTP handler for this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
