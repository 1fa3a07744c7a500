package actions

import (
	"sync"

	"github.com/brennhill/gasoline-page-agent/internal/hostenv"
	"github.com/brennhill/gasoline-page-agent/internal/reproduction"
)

// NavigationCapture wraps a hostenv.History's push/replace operations and
// listens for popstate, forwarding every transition to a Buffer as a
// "navigate" enhanced action with fromUrl/toUrl (§4.5 sub-feature).
type NavigationCapture struct {
	history hostenv.History
	buffer  *Buffer

	mu          sync.Mutex
	installed   bool
	currentURL  string
}

// NewNavigationCapture wraps history; install must be called to begin
// intercepting push/replace state and popstate.
func NewNavigationCapture(history hostenv.History, buffer *Buffer, initialURL string) *NavigationCapture {
	return &NavigationCapture{history: history, buffer: buffer, currentURL: initialURL}
}

// Install wraps push/replace state and subscribes to popstate. Calling
// Install twice is a no-op.
func (n *NavigationCapture) Install() {
	n.mu.Lock()
	if n.installed {
		n.mu.Unlock()
		return
	}
	n.installed = true
	n.mu.Unlock()

	n.history.OnPopState(func(url string) {
		n.emit(url)
	})
}

// Uninstall restores the wrapped history to an unwrapped state. Since
// push/replace are invoked explicitly by the caller through this type
// rather than monkey-patched globals, "unwrap" simply stops emitting.
func (n *NavigationCapture) Uninstall() {
	n.mu.Lock()
	n.installed = false
	n.mu.Unlock()
}

// PushState performs a pushState navigation and emits a navigate action.
func (n *NavigationCapture) PushState(url string) {
	n.history.PushState(url)
	n.emit(url)
}

// ReplaceState performs a replaceState navigation and emits a navigate
// action.
func (n *NavigationCapture) ReplaceState(url string) {
	n.history.ReplaceState(url)
	n.emit(url)
}

func (n *NavigationCapture) emit(toURL string) {
	n.mu.Lock()
	if !n.installed {
		n.mu.Unlock()
		return
	}
	fromURL := n.currentURL
	n.currentURL = toURL
	n.mu.Unlock()

	ts := n.buffer.now()
	e := reproduction.EnhancedAction{
		Type: "navigate", Timestamp: ts, URL: fromURL,
		FromURL: fromURL, ToURL: toURL,
	}
	r := Record{Type: "navigate", Timestamp: ts, Target: toURL}
	n.buffer.push(r, e)
}
