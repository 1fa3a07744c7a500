// Package exception implements the exception interceptor (§4.4): two taps
// (global error handler, unhandled-rejection listener) that build an error
// event, run it through AI enrichment with a bounded timeout, and post
// through the bridge. No teacher analog exists for the same reason as
// internal/console; grounded on the same Interceptor install/uninstall
// state machine and the spec's §4.12 enrichment contract.
package exception

import (
	"context"
	"sync"

	"github.com/brennhill/gasoline-page-agent/internal/ai"
	"github.com/brennhill/gasoline-page-agent/internal/bridge"
)

// ErrorEvent is the raw shape both taps construct before enrichment.
type ErrorEvent struct {
	Message  string
	Source   string
	Filename string
	Lineno   int
	Colno    int
	Stack    string
}

// PriorHandler is the previously installed global error handler, restored
// on Uninstall.
type PriorHandler func(ErrorEvent)

// Interceptor wires the two taps to the bridge and the AI pipeline.
type Interceptor struct {
	br       *bridge.Bridge
	pipeline *ai.Pipeline

	mu        sync.RWMutex
	installed bool
	prior     PriorHandler
}

func New(br *bridge.Bridge, pipeline *ai.Pipeline) *Interceptor {
	return &Interceptor{br: br, pipeline: pipeline}
}

// Install begins intercepting, stashing the previously-installed global
// handler (may be nil) so Uninstall can restore it.
func (i *Interceptor) Install(prior PriorHandler) {
	i.mu.Lock()
	i.installed = true
	i.prior = prior
	i.mu.Unlock()
}

// Uninstall restores the prior global handler and stops posting: errors
// handled afterwards go only to the handler passed to Install.
func (i *Interceptor) Uninstall() {
	i.mu.Lock()
	i.installed = false
	i.mu.Unlock()
}

func (i *Interceptor) isInstalled() (bool, PriorHandler) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.installed, i.prior
}

// HandleError is the global error-handler tap.
func (i *Interceptor) HandleError(ctx context.Context, ev ErrorEvent) {
	ev.Source = "window.onerror"
	i.handle(ctx, ev)
}

// HandleUnhandledRejection is the unhandled-rejection listener tap. The
// message is prefixed per §4.4.
func (i *Interceptor) HandleUnhandledRejection(ctx context.Context, ev ErrorEvent) {
	ev.Message = "Unhandled Promise Rejection: " + ev.Message
	ev.Source = "unhandledrejection"
	i.handle(ctx, ev)
}

func (i *Interceptor) handle(ctx context.Context, ev ErrorEvent) {
	installed, prior := i.isInstalled()
	if !installed {
		if prior != nil {
			prior(ev)
		}
		return
	}

	in := ai.ErrorInput{Message: ev.Message, Stack: ev.Stack}
	aiCtx, enriched := i.pipeline.Enrich(ctx, in)

	logIn := bridge.LogInput{
		Level:    bridge.LevelError,
		Type:     "exception",
		Message:  ev.Message,
		Source:   ev.Source,
		Filename: ev.Filename,
		Lineno:   ev.Lineno,
		Colno:    ev.Colno,
		Stack:    ev.Stack,
	}
	i.postWithAIContext(logIn, aiCtx, enriched)

	if prior != nil {
		prior(ev)
	}
}

func (i *Interceptor) postWithAIContext(in bridge.LogInput, aiCtx ai.Context, enriched bool) {
	defer func() { recover() }()
	if !enriched {
		i.br.PostLog(in)
		return
	}
	// PostLog builds the base payload and posts it immediately; the AI
	// context must be attached to the same payload before it goes out, so
	// enrichment happens before PostLog rather than as a post-hoc patch.
	i.br.PostLogWithAIContext(in, aiCtx)
}
