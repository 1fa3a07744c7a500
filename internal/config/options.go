// options.go — Runtime configuration toggles (§6). Options is a plain
// mutable struct (unlike Limits) since toggles are expected to flip at
// runtime (e.g. a settings panel disabling action capture); callers own
// their own synchronization when sharing an *Options across goroutines.
package config

// WSCaptureMode selects the WebSocket sampling target rate (§4.10).
type WSCaptureMode string

const (
	WSCaptureAll    WSCaptureMode = "all"
	WSCaptureHigh   WSCaptureMode = "high"
	WSCaptureMedium WSCaptureMode = "medium"
	WSCaptureLow    WSCaptureMode = "low"
)

// TargetRate returns the target messages/sec for the mode, or 0 for "all"
// (sampling disabled).
func (m WSCaptureMode) TargetRate() int {
	switch m {
	case WSCaptureHigh:
		return 10
	case WSCaptureMedium:
		return 5
	case WSCaptureLow:
		return 2
	default:
		return 0
	}
}

// Options holds the recognized configuration toggles from spec.md §6.
type Options struct {
	AIContextEnabled             bool
	AIContextStateSnapshotEnabled bool
	ActionCaptureEnabled         bool
	NetworkWaterfallEnabled      bool
	NetworkBodyCaptureEnabled    bool
	WebSocketCaptureEnabled      bool
	WebSocketCaptureMode         WSCaptureMode
	PerformanceMarksEnabled      bool
	PerfSnapshotEnabled          bool
	ServerURL                    string
}

// DefaultOptions returns every capture surface enabled except the Redux
// state snapshot, matching the
// teacher's stance that instrumentation is on unless explicitly disabled.
func DefaultOptions() *Options {
	return &Options{
		AIContextEnabled:              true,
		AIContextStateSnapshotEnabled: false,
		ActionCaptureEnabled:          true,
		NetworkWaterfallEnabled:       true,
		NetworkBodyCaptureEnabled:     true,
		WebSocketCaptureEnabled:       true,
		WebSocketCaptureMode:          WSCaptureHigh,
		PerformanceMarksEnabled:       true,
		PerfSnapshotEnabled:           true,
		ServerURL:                     "",
	}
}
