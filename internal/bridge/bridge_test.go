package bridge

import (
	"errors"
	"testing"
	"time"

	"github.com/brennhill/gasoline-page-agent/internal/config"
	"github.com/brennhill/gasoline-page-agent/internal/serialize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBus struct {
	posted []Envelope
}

func (f *fakeBus) Post(env Envelope) { f.posted = append(f.posted, env) }

type fixedClock struct{ t time.Time }

func (f fixedClock) Now() time.Time { return f.t }

type fixedURL struct{ url string }

func (f fixedURL) CurrentURL() string { return f.url }

type fakeContext struct{ m map[string]any }

func (f fakeContext) Snapshot() map[string]any { return f.m }

type fakeActions struct{ a []any }

func (f fakeActions) SnapshotAny() []any { return f.a }

func newTestBridge(ctx ContextSource, actions ActionSource) (*Bridge, *fakeBus) {
	bus := &fakeBus{}
	b := New(bus, fixedClock{t: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}, fixedURL{url: "https://example.com/page"}, ctx, actions, serialize.New(config.Default()))
	return b, bus
}

func TestPostLogBasicShape(t *testing.T) {
	b, bus := newTestBridge(nil, nil)
	b.PostLog(LogInput{Level: LevelWarn, Type: "console", Args: []any{"hi", map[string]int{"n": 1}}})

	require.Len(t, bus.posted, 1)
	env := bus.posted[0]
	assert.Equal(t, TypeLog, env.Type)
	payload := env.Payload.(LogPayload)
	assert.Equal(t, "2026-01-02T03:04:05Z", payload.Ts)
	assert.Equal(t, "https://example.com/page", payload.URL)
	assert.Equal(t, LevelWarn, payload.Level)
	assert.Equal(t, "console", payload.Type)
	assert.Equal(t, "hi", payload.Message)
	assert.Len(t, payload.Args, 2)
}

func TestErrorEventAttachesContextAndActions(t *testing.T) {
	ctx := fakeContext{m: map[string]any{"k": "v"}}
	actions := fakeActions{a: []any{"click"}}
	b, bus := newTestBridge(ctx, actions)
	b.PostLog(LogInput{Level: LevelError, Type: "exception", Message: "boom"})

	payload := bus.posted[0].Payload.(LogPayload)
	assert.Equal(t, map[string]any{"k": "v"}, payload.Context)
	assert.Equal(t, []any{"click"}, payload.Actions)
	assert.ElementsMatch(t, []string{"context", "actions"}, payload.Enrichments)
}

func TestNonErrorEventHasNoEnrichments(t *testing.T) {
	ctx := fakeContext{m: map[string]any{"k": "v"}}
	b, bus := newTestBridge(ctx, nil)
	b.PostLog(LogInput{Level: LevelLog, Message: "hi"})
	payload := bus.posted[0].Payload.(LogPayload)
	assert.Nil(t, payload.Context)
	assert.Nil(t, payload.Enrichments)
}

func TestMessageResolutionPriority(t *testing.T) {
	b, bus := newTestBridge(nil, nil)
	b.PostLog(LogInput{Level: LevelError, Err: errors.New("err-message")})
	payload := bus.posted[0].Payload.(LogPayload)
	assert.Equal(t, "err-message", payload.Message)
	assert.Equal(t, "err-message", payload.Error)
}

func TestEmptyContextAndActionsOmitted(t *testing.T) {
	ctx := fakeContext{m: map[string]any{}}
	actions := fakeActions{a: nil}
	b, bus := newTestBridge(ctx, actions)
	b.PostLog(LogInput{Level: LevelError, Message: "x"})
	payload := bus.posted[0].Payload.(LogPayload)
	assert.Nil(t, payload.Context)
	assert.Nil(t, payload.Actions)
	assert.Nil(t, payload.Enrichments)
}
