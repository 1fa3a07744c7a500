// Package console implements the console interceptor (§4.3): wraps each of
// log/warn/error/info/debug so every call posts a serialized event through
// the bridge before falling through to the original console. There is no
// teacher analog (the teacher's console/exception capture happens inside a
// browser extension content script, never reaching this Go repo) — this is
// grounded on the Interceptor install/uninstall state machine described in
// the spec's own glossary and followed in the same fail-open style as the
// rest of this package: a wrapper must never throw into caller code.
package console

import (
	"sync"

	"github.com/brennhill/gasoline-page-agent/internal/bridge"
	"github.com/brennhill/gasoline-page-agent/internal/hostenv"
)

// Interceptor wraps an underlying console. It satisfies hostenv.Console
// itself, so installing it is just a matter of routing callers at the
// original console through the interceptor instead.
type Interceptor struct {
	br     *bridge.Bridge
	inner  hostenv.Console

	mu        sync.RWMutex
	installed bool
}

// New builds an interceptor wrapping inner. It starts uninstalled: calls
// pass straight through without posting until Install is called.
func New(br *bridge.Bridge, inner hostenv.Console) *Interceptor {
	return &Interceptor{br: br, inner: inner}
}

// Install begins posting every console call through the bridge.
func (i *Interceptor) Install() {
	i.mu.Lock()
	i.installed = true
	i.mu.Unlock()
}

// Uninstall restores pass-through-only behavior.
func (i *Interceptor) Uninstall() {
	i.mu.Lock()
	i.installed = false
	i.mu.Unlock()
}

func (i *Interceptor) isInstalled() bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.installed
}

func (i *Interceptor) call(level string, args []any) {
	if i.isInstalled() {
		i.post(level, args)
	}
	i.forward(level, args)
}

func (i *Interceptor) post(level string, args []any) {
	defer func() { recover() }() // a wrapper must never throw into caller code
	i.br.PostLog(bridge.LogInput{
		Level:   bridge.Level(level),
		Type:    "console",
		Source:  "console",
		Args:    args,
	})
}

func (i *Interceptor) forward(level string, args []any) {
	if i.inner == nil {
		return
	}
	switch level {
	case "log":
		i.inner.Log(args...)
	case "warn":
		i.inner.Warn(args...)
	case "error":
		i.inner.Error(args...)
	case "info":
		i.inner.Info(args...)
	case "debug":
		i.inner.Debug(args...)
	}
}

func (i *Interceptor) Log(args ...any)   { i.call("log", args) }
func (i *Interceptor) Warn(args ...any)  { i.call("warn", args) }
func (i *Interceptor) Error(args ...any) { i.call("error", args) }
func (i *Interceptor) Info(args ...any)  { i.call("info", args) }
func (i *Interceptor) Debug(args ...any) { i.call("debug", args) }
