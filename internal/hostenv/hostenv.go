// hostenv.go — Host-API capability interfaces (Design Notes §9: "model host
// APIs as capability objects passed by the orchestrator so unit tests can
// substitute a faithful double; rely on the real globals only in the
// browser entry point"). Every interceptor package depends only on these
// interfaces, never on a concrete browser binding, so the same interceptor
// code runs against internal/hostenv/sim in tests and internal/hostenv/live
// (or a real JS interop layer) in production.
package hostenv

import (
	"context"
	"time"
)

// Console is the subset of the console object the console interceptor wraps
// (§4.3).
type Console interface {
	Log(args ...any)
	Warn(args ...any)
	Error(args ...any)
	Info(args ...any)
	Debug(args ...any)
}

// ConsoleFn is one of the five console methods, used when stashing/
// restoring originals during install/uninstall.
type ConsoleFn func(args ...any)

// Element is a live DOM element handle. It satisfies serialize.DOMNode and
// carries the attributes the reproduction engine's selector strategies
// read (§4.6).
type Element interface {
	Tag() string
	ElementID() string
	ClassList() []string
	Attr(name string) (string, bool)
	Role() (string, bool)
	TextContent() string
	Parent() (Element, bool)
	BoundingBox() (x, y float64)
}

// Window exposes the page-global state the interceptors need: current URL
// and the focused element (for AI framework detection).
type Window interface {
	URL() string
	FocusedElement() (Element, bool)
}

// Clock abstracts time.Now for deterministic tests.
type Clock interface {
	Now() time.Time
}

// RealClock is the production Clock backed by time.Now.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// UUIDSource generates connection/request identifiers (the crypto.randomUUID
// precondition, §6).
type UUIDSource interface {
	NewUUID() string
}

// Fetcher is the subset of the global fetch function the network body
// wrapper wraps (§4.9).
type Fetcher interface {
	Fetch(ctx context.Context, req FetchRequest) (FetchResponse, error)
}

// FetchRequest is a minimal request description.
type FetchRequest struct {
	URL     string
	Method  string
	Headers map[string]string
	Body    []byte
}

// FetchResponse is a minimal response description; Body is already fully
// buffered by the underlying transport (the 5ms race happens over reading
// it, not over the round trip itself, per §4.9).
type FetchResponse struct {
	Status      int
	Headers     map[string]string
	ContentType string
	Body        []byte
}

// PerformanceEntry mirrors a PerformanceObserver entry (§4.11).
type PerformanceEntry struct {
	EntryType       string
	Name            string
	StartTime       float64
	Duration        float64
	Detail          any
	HadRecentInput  bool    // layout-shift only
	Value           float64 // layout-shift only
}

// PerformanceObserver is a capability that delivers performance entries as
// they occur; the real binding subscribes to window.PerformanceObserver.
type PerformanceObserver interface {
	Observe(entryTypes []string, cb func(PerformanceEntry)) (unobserve func())
}

// ResourceTimingEntry mirrors a raw PerformanceResourceTiming record (§4.8).
type ResourceTimingEntry struct {
	Name                string
	InitiatorType       string
	StartTime           float64
	FetchStart          float64
	DomainLookupStart   float64
	DomainLookupEnd     float64
	ConnectStart        float64
	ConnectEnd          float64
	SecureConnectionStart float64
	RequestStart        float64
	ResponseStart       float64
	ResponseEnd         float64
	TransferSize        int64
	EncodedBodySize     int64
	DecodedBodySize     int64
}

// PerformanceAPI is the subset of window.performance the waterfall and
// perf-mark modules read from and wrap.
type PerformanceAPI interface {
	Now() float64
	Mark(name string, detail any)
	Measure(name string, startTime, duration float64)
	GetEntriesByType(entryType string) []ResourceTimingEntry
}

// WSConn is a live WebSocket connection handle (§4.10).
type WSConn interface {
	URL() string
	Send(data []byte, binary bool) error
	Close(code int, reason string) error
	OnMessage(cb func(data []byte, binary bool))
	OnOpen(cb func())
	OnClose(cb func(code int, reason string))
	OnError(cb func(err error))
}

// History is the subset of window.history the navigation-capture wrapper
// installs itself around (§4.5): pushState/replaceState are intercepted by
// wrapping this interface, and popstate notifications flow back in via the
// OnPopState registration.
type History interface {
	PushState(url string)
	ReplaceState(url string)
	OnPopState(cb func(url string))
}

// WSDialer constructs a new WSConn; the real binding wraps the global
// WebSocket constructor (§4.10), the sim binding is in-memory, and the live
// binding (internal/hostenv/live) opens a real network connection via
// github.com/gorilla/websocket for non-browser embeddings.
type WSDialer interface {
	Dial(ctx context.Context, url string) (WSConn, error)
}
