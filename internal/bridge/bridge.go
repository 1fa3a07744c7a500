// bridge.go — The egress chokepoint (§4.13). postLog (exposed as
// Bridge.PostLog) is the only allowed writer of log-family events to the
// page-local bus; every other emitter (WebSocket, network body, enhanced
// actions, performance snapshot) posts through Bridge.Post directly with its
// own payload shape but the same same-origin guarantee.
package bridge

import (
	"time"

	"github.com/brennhill/gasoline-page-agent/internal/serialize"
)

// Bus is the page-local message bus. A real implementation always posts
// with targetOrigin = window.location.origin; the interface has no origin
// parameter at all, so cross-origin posting is structurally impossible from
// this package (Design Notes §9, spec.md §4.13/§9 same-origin invariant).
type Bus interface {
	Post(env Envelope)
}

// ContextSource supplies the current context-annotation snapshot for
// attachment to error-level events (§4.7, §4.13). Implemented by
// internal/contextannot.Store.
type ContextSource interface {
	Snapshot() map[string]any
}

// ActionSource supplies the current action-buffer snapshot for attachment
// to error-level events (§4.5, §4.13). Implemented by
// internal/actions.Buffer.
type ActionSource interface {
	SnapshotAny() []any
}

// Clock supplies the current time; substituted with a fixed clock in tests.
type Clock interface {
	Now() time.Time
}

// URLSource supplies the current page URL.
type URLSource interface {
	CurrentURL() string
}

// Bridge is the single chokepoint for posting events to the bus.
type Bridge struct {
	bus        Bus
	clock      Clock
	urlSource  URLSource
	context    ContextSource
	actions    ActionSource
	serializer *serialize.Serializer
}

// New constructs a Bridge. context and actions may be nil, in which case
// error events carry no _context/_actions enrichment.
func New(bus Bus, clock Clock, urlSource URLSource, context ContextSource, actions ActionSource, s *serialize.Serializer) *Bridge {
	return &Bridge{
		bus:        bus,
		clock:      clock,
		urlSource:  urlSource,
		context:    context,
		actions:    actions,
		serializer: s,
	}
}

// LogInput is the caller-supplied subset of a LogPayload; PostLog fills in
// ts, url, enrichments, and serializes Args.
type LogInput struct {
	Level    Level
	Type     string
	Message  string
	Err      error
	Args     []any
	Source   string
	Filename string
	Lineno   int
	Colno    int
	Stack    string
}

// PostLog resolves ts/url/source, computes the message, collects
// enrichments for error-level payloads, and posts the merged record (§4.13
// steps 1-4). It never panics and never blocks on the bus.
func (b *Bridge) PostLog(in LogInput) {
	payload := b.buildPayload(in)
	b.bus.Post(Envelope{Type: TypeLog, Payload: payload})
}

// PostLogWithAIContext builds the same base payload as PostLog but attaches
// an already-computed AI enrichment context before posting, since the AI
// pipeline (§4.12) must finish before the message goes out, not after.
func (b *Bridge) PostLogWithAIContext(in LogInput, aiContext any) {
	payload := b.buildPayload(in)
	AttachAIContext(&payload, aiContext)
	b.bus.Post(Envelope{Type: TypeLog, Payload: payload})
}

func (b *Bridge) buildPayload(in LogInput) LogPayload {
	payload := LogPayload{
		Ts:       b.clock.Now().UTC().Format(time.RFC3339),
		URL:      b.urlSource.CurrentURL(),
		Source:   in.Source,
		Level:    in.Level,
		Type:     in.Type,
		Filename: in.Filename,
		Lineno:   in.Lineno,
		Colno:    in.Colno,
		Stack:    in.Stack,
	}
	payload.Message = resolveMessage(in)
	if len(in.Args) > 0 {
		payload.Args = make([]any, len(in.Args))
		for i, a := range in.Args {
			payload.Args[i] = b.serializer.Value(a)
		}
	}
	if in.Err != nil {
		payload.Error = in.Err.Error()
	}
	if payload.Level == LevelError {
		b.attachErrorEnrichments(&payload)
	}
	return payload
}

func resolveMessage(in LogInput) string {
	if in.Message != "" {
		return in.Message
	}
	if in.Err != nil {
		return in.Err.Error()
	}
	if len(in.Args) > 0 {
		if s, ok := in.Args[0].(string); ok {
			return s
		}
	}
	return ""
}

func (b *Bridge) attachErrorEnrichments(payload *LogPayload) {
	var enrichments []string
	if b.context != nil {
		if snap := b.context.Snapshot(); len(snap) > 0 {
			payload.Context = snap
			enrichments = append(enrichments, "context")
		}
	}
	if b.actions != nil {
		if snap := b.actions.SnapshotAny(); len(snap) > 0 {
			payload.Actions = snap
			enrichments = append(enrichments, "actions")
		}
	}
	if len(enrichments) > 0 {
		payload.Enrichments = enrichments
	}
}

// Post posts an arbitrary, already-built envelope (used by WebSocket,
// network-body, enhanced-action, and performance-snapshot emitters, which
// build their own payload shapes but share this same-origin chokepoint).
func (b *Bridge) Post(env Envelope) {
	b.bus.Post(env)
}

// AttachAIContext appends _aiContext/_enrichments to an already-built
// LogPayload. Used by the exception interceptor after the AI enrichment
// pipeline (§4.12) completes, since enrichment happens before PostLog is
// called (it must run before the message is posted, not after).
func AttachAIContext(payload *LogPayload, aiContext any) {
	payload.AIContext = aiContext
	payload.Enrichments = append(payload.Enrichments, "aiContext")
}
