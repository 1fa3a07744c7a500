package ai

import (
	"context"

	"github.com/brennhill/gasoline-page-agent/internal/concurrency"
	"github.com/brennhill/gasoline-page-agent/internal/config"
)

// ErrorInput is the minimal error-event shape the pipeline enriches.
type ErrorInput struct {
	Message string
	Stack   string
}

// Pipeline wires together stack parsing, source-map lookup, snippet
// extraction, framework detection, and state snapshotting behind a single
// bounded-timeout entry point (§4.12).
type Pipeline struct {
	limits        *config.Limits
	cache         *SourceMapCache
	enabled       bool
	stateEnabled  bool
	focused       func() (PropertyElement, bool)
	sourceMapOf   func(filename string) (*SourceMap, bool)
	fiberOf       func(el PropertyElement, key string) (ReactFiber, bool)
	state         StateSource
}

// NewPipeline builds a Pipeline. focused resolves the currently focused
// element; sourceMapOf resolves a frame's filename to its source map (the
// real binding fetches and parses it via ParseSourceMap, caching the
// result); fiberOf extracts a ReactFiber from a matched property key;
// state is optional (nil disables Redux-shaped snapshotting regardless of
// stateEnabled).
func NewPipeline(
	limits *config.Limits,
	enabled, stateEnabled bool,
	focused func() (PropertyElement, bool),
	sourceMapOf func(filename string) (*SourceMap, bool),
	fiberOf func(el PropertyElement, key string) (ReactFiber, bool),
	state StateSource,
) *Pipeline {
	return &Pipeline{
		limits:       limits,
		cache:        NewSourceMapCache(limits.SourceMapCacheCap),
		enabled:      enabled,
		stateEnabled: stateEnabled,
		focused:      focused,
		sourceMapOf:  sourceMapOf,
		fiberOf:      fiberOf,
		state:        state,
	}
}

// Enrich implements enrichErrorWithAiContext: if disabled, returns
// (Context{}, false). Otherwise races buildAiContext against the
// configured timeout, falling back to a minimal {summary} context on
// timeout or any failure.
func (p *Pipeline) Enrich(ctx context.Context, in ErrorInput) (Context, bool) {
	if !p.enabled {
		return Context{}, false
	}
	fallback := Context{Summary: fallbackSummary(in.Message)}
	result := concurrency.RaceWithTimeout(ctx, p.limits.AIPipelineTimeout, fallback, func(ctx context.Context) Context {
		return p.build(in)
	})
	return result, true
}

// ResetForTesting empties the pipeline's source-map cache.
func (p *Pipeline) ResetForTesting() {
	p.cache.ResetForTesting()
}

func fallbackSummary(message string) string {
	if message != "" {
		return message
	}
	return "Unknown error"
}

func (p *Pipeline) build(in ErrorInput) (result Context) {
	defer func() {
		if recover() != nil {
			result = Context{Summary: fallbackSummary(in.Message)}
		}
	}()

	frames := ParseStackFrames(in.Stack)
	if len(frames) == 0 {
		return Context{Summary: fallbackSummary(in.Message)}
	}

	maps := p.resolveSourceMaps(frames)
	snippets := ExtractSourceSnippets(frames, maps)

	framework, ancestry := p.resolveFramework()

	var state *StateSnapshot
	if p.stateEnabled && p.state != nil {
		if snap, ok := CaptureStateSnapshot(p.state, in.Message); ok {
			state = &snap
		}
	}

	summary := GenerateAISummary(in.Message, frames, ancestry, state)

	return Context{
		Summary:   summary,
		Frames:    frames,
		Snippets:  snippets,
		Framework: framework,
		Ancestry:  ancestry,
		State:     state,
	}
}

func (p *Pipeline) resolveSourceMaps(frames []Frame) map[string]*SourceMap {
	maps := make(map[string]*SourceMap)
	limit := 3
	if len(frames) < limit {
		limit = len(frames)
	}
	for i := 0; i < limit; i++ {
		filename := frames[i].Filename
		if _, seen := maps[filename]; seen {
			continue
		}
		if sm, ok := p.cache.Get(filename); ok {
			maps[filename] = sm
			continue
		}
		if p.sourceMapOf == nil {
			continue
		}
		if sm, ok := p.sourceMapOf(filename); ok {
			p.cache.Set(filename, sm)
			maps[filename] = sm
		}
	}
	return maps
}

func (p *Pipeline) resolveFramework() (string, []ComponentInfo) {
	if p.focused == nil {
		return "", nil
	}
	el, ok := p.focused()
	if !ok || el == nil {
		return "", nil
	}
	framework, key := DetectFramework(el)
	if framework != "react" || p.fiberOf == nil {
		return framework, nil
	}
	fiber, ok := p.fiberOf(el, key)
	if !ok {
		return framework, nil
	}
	return framework, GetReactComponentAncestry(fiber)
}
