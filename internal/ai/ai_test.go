package ai

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brennhill/gasoline-page-agent/internal/config"
)

func TestParseStackFramesChromeFormat(t *testing.T) {
	stack := "at foo (app.js:10:5)\nat <anonymous>\nat bar (vendor.js:20:1)"
	frames := ParseStackFrames(stack)
	require.Len(t, frames, 2)
	assert.Equal(t, "app.js", frames[0].Filename)
	assert.Equal(t, 10, frames[0].Line)
	assert.Equal(t, 5, frames[0].Column)
}

func TestParseStackFramesFirefoxFormat(t *testing.T) {
	stack := "foo@app.js:10:5\nbar@vendor.js:20:1"
	frames := ParseStackFrames(stack)
	require.Len(t, frames, 2)
	assert.Equal(t, "vendor.js", frames[1].Filename)
}

func TestParseSourceMapRequiresBase64DataURL(t *testing.T) {
	_, ok := ParseSourceMap("https://example.com/map.js.map")
	assert.False(t, ok)

	payload := `{"sourcesContent":["const x = 1;"]}`
	encoded := base64.StdEncoding.EncodeToString([]byte(payload))
	sm, ok := ParseSourceMap("data:application/json;base64," + encoded)
	require.True(t, ok)
	assert.Equal(t, []string{"const x = 1;"}, sm.SourcesContent)
}

func TestParseSourceMapRejectsEmptySourcesContent(t *testing.T) {
	payload := `{"sourcesContent":[]}`
	encoded := base64.StdEncoding.EncodeToString([]byte(payload))
	_, ok := ParseSourceMap("data:application/json;base64," + encoded)
	assert.False(t, ok)
}

func TestSourceMapCacheEvictsLRU(t *testing.T) {
	c := NewSourceMapCache(2)
	c.Set("a", &SourceMap{SourcesContent: []string{"a"}})
	c.Set("b", &SourceMap{SourcesContent: []string{"b"}})
	c.Get("a") // bump a's recency
	c.Set("c", &SourceMap{SourcesContent: []string{"c"}})

	_, aOK := c.Get("a")
	_, bOK := c.Get("b")
	_, cOK := c.Get("c")
	assert.True(t, aOK)
	assert.False(t, bOK, "b should have been evicted as least-recently-used")
	assert.True(t, cOK)
}

func TestExtractSnippetWindowFlagsErrorLine(t *testing.T) {
	source := "l1\nl2\nl3\nl4\nl5\nl6\nl7\nl8\nl9\nl10"
	snip := ExtractSnippet("app.js", source, 5)
	require.NotEmpty(t, snip.Lines)
	var errLineFound bool
	for _, l := range snip.Lines {
		if l.IsError {
			errLineFound = true
			assert.Equal(t, 5, l.Line)
		}
	}
	assert.True(t, errLineFound)
}

type fakeElement struct {
	keys  []string
	props map[string]any
}

func (f *fakeElement) PropertyKeys() []string { return f.keys }
func (f *fakeElement) Property(key string) (any, bool) {
	v, ok := f.props[key]
	return v, ok
}

func TestDetectFrameworkReact(t *testing.T) {
	el := &fakeElement{keys: []string{"id", "__reactFiber$abc123"}}
	fw, key := DetectFramework(el)
	assert.Equal(t, "react", fw)
	assert.Equal(t, "__reactFiber$abc123", key)
}

func TestDetectFrameworkNone(t *testing.T) {
	el := &fakeElement{keys: []string{"id", "className"}}
	fw, _ := DetectFramework(el)
	assert.Equal(t, "", fw)
}

type fakeFiber struct {
	host     bool
	name     string
	props    map[string]any
	state    any
	parent   *fakeFiber
}

func (f *fakeFiber) IsHostComponent() bool       { return f.host }
func (f *fakeFiber) DisplayName() string         { return f.name }
func (f *fakeFiber) MemoizedProps() map[string]any { return f.props }
func (f *fakeFiber) MemoizedState() any          { return f.state }
func (f *fakeFiber) Return() (ReactFiber, bool) {
	if f.parent == nil {
		return nil, false
	}
	return f.parent, true
}

func TestReactComponentAncestrySkipsHostAndReverses(t *testing.T) {
	root := &fakeFiber{name: "App", props: map[string]any{"children": 1, "theme": "dark"}}
	host := &fakeFiber{host: true, parent: root}
	child := &fakeFiber{name: "Button", props: map[string]any{"onClick": 1}, state: map[string]any{"hover": false}, parent: host}

	ancestry := GetReactComponentAncestry(child)
	require.Len(t, ancestry, 2)
	assert.Equal(t, "App", ancestry[0].Name)
	assert.Equal(t, "Button", ancestry[1].Name)
	assert.NotContains(t, ancestry[0].PropKeys, "children")
	assert.True(t, ancestry[1].HasState)
}

type fakeStateSource struct {
	state map[string]any
	ok    bool
}

func (f fakeStateSource) ReduxState() (map[string]any, bool) { return f.state, f.ok }

func TestCaptureStateSnapshotRelevantSlice(t *testing.T) {
	src := fakeStateSource{ok: true, state: map[string]any{
		"auth": map[string]any{"status": "failed", "token": "secret"},
		"ui":   map[string]any{"theme": "dark"},
	}}
	snap, ok := CaptureStateSnapshot(src, "Auth request failed")
	require.True(t, ok)
	assert.Equal(t, "redux", snap.Source)
	assert.Contains(t, snap.RelevantSlice, "auth.status")
}

func TestCaptureStateSnapshotNoStore(t *testing.T) {
	_, ok := CaptureStateSnapshot(fakeStateSource{ok: false}, "x")
	assert.False(t, ok)
}

func TestGenerateAISummarySplitsOnFirstColon(t *testing.T) {
	summary := GenerateAISummary("TypeError: x is not a function", nil, nil, nil)
	assert.Contains(t, summary, "TypeError")
	assert.Contains(t, summary, "x is not a function")
}

func TestPipelineDisabledReturnsFalse(t *testing.T) {
	p := NewPipeline(config.Default(), false, false, nil, nil, nil, nil)
	_, ok := p.Enrich(context.Background(), ErrorInput{Message: "boom"})
	assert.False(t, ok)
}

func TestPipelineNoStackReturnsMinimalSummary(t *testing.T) {
	p := NewPipeline(config.Default(), true, false, nil, nil, nil, nil)
	ctx, ok := p.Enrich(context.Background(), ErrorInput{Message: "boom", Stack: ""})
	require.True(t, ok)
	assert.Equal(t, "boom", ctx.Summary)
}

func TestPipelineWithStackAndSnippets(t *testing.T) {
	payload := `{"sourcesContent":["line1\nline2\nline3"]}`
	encoded := base64.StdEncoding.EncodeToString([]byte(payload))
	sourceMapOf := func(filename string) (*SourceMap, bool) {
		return ParseSourceMap("data:application/json;base64," + encoded)
	}
	p := NewPipeline(config.Default(), true, false, nil, sourceMapOf, nil, nil)
	ctx, ok := p.Enrich(context.Background(), ErrorInput{Message: "TypeError: bad", Stack: "at f (app.js:2:1)"})
	require.True(t, ok)
	require.Len(t, ctx.Frames, 1)
	require.Len(t, ctx.Snippets, 1)
}
