// envelope.go — Page-local message bus envelope types (§6). Every module
// that emits telemetry builds its own payload shape and hands it to Bridge;
// the envelope tag is the only thing the external collector needs to
// dispatch on.
package bridge

// MessageType tags the outer envelope posted onto the page-local bus.
type MessageType string

const (
	TypeLog                MessageType = "GASOLINE_LOG"
	TypeWebSocket           MessageType = "GASOLINE_WS"
	TypeNetworkBody         MessageType = "GASOLINE_NETWORK_BODY"
	TypeEnhancedAction      MessageType = "GASOLINE_ENHANCED_ACTION"
	TypePerformanceSnapshot MessageType = "GASOLINE_PERFORMANCE_SNAPSHOT"
)

// Level is the severity of a log-family event.
type Level string

const (
	LevelLog   Level = "log"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
	LevelDebug Level = "debug"
)

// Envelope is the outer shape posted to the bus: {type, payload}.
type Envelope struct {
	Type    MessageType `json:"type"`
	Payload any         `json:"payload"`
}

// LogPayload is the payload shape for TypeLog events (§3 Event, §4.13).
type LogPayload struct {
	Ts      string `json:"ts"`
	URL     string `json:"url"`
	Source  string `json:"source,omitempty"`
	Level   Level  `json:"level"`
	Type    string `json:"type,omitempty"`
	Message string `json:"message,omitempty"`

	Args  []any  `json:"args,omitempty"`
	Error string `json:"error,omitempty"`
	Stack string `json:"stack,omitempty"`

	// Exception-specific fields (§4.4)
	Filename string `json:"filename,omitempty"`
	Lineno   int    `json:"lineno,omitempty"`
	Colno    int    `json:"colno,omitempty"`

	// Enrichment side channels (§3 Event)
	Enrichments []string       `json:"_enrichments,omitempty"`
	Context     map[string]any `json:"_context,omitempty"`
	Actions     []any          `json:"_actions,omitempty"`
	AIContext   any            `json:"_aiContext,omitempty"`
}
