package network

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brennhill/gasoline-page-agent/internal/bridge"
	"github.com/brennhill/gasoline-page-agent/internal/config"
	"github.com/brennhill/gasoline-page-agent/internal/hostenv"
	"github.com/brennhill/gasoline-page-agent/internal/hostenv/sim"
	"github.com/brennhill/gasoline-page-agent/internal/serialize"
)

func TestParseResourceTimingComputesPhasesAndCacheHit(t *testing.T) {
	e := hostenv.ResourceTimingEntry{
		Name: "https://x/a.js", InitiatorType: "script",
		StartTime: 0, DomainLookupStart: 1, DomainLookupEnd: 4,
		ConnectStart: 4, ConnectEnd: 10, RequestStart: 10, ResponseStart: 20, ResponseEnd: 30,
		TransferSize: 0, EncodedBodySize: 500,
	}
	w := parseResourceTiming(e)
	assert.Equal(t, 3.0, w.DNS)
	assert.Equal(t, 6.0, w.Connect)
	assert.Equal(t, 0.0, w.TLS)
	assert.Equal(t, 10.0, w.TTFB)
	assert.Equal(t, 10.0, w.Download)
	assert.True(t, w.Cached)
}

func TestGetNetworkWaterfallFiltersSortsAndCaps(t *testing.T) {
	perf := sim.NewPerformance(sim.NewClock(time.Now()))
	for i := 0; i < 60; i++ {
		perf.Seed(hostenv.ResourceTimingEntry{Name: "https://x/r", InitiatorType: "fetch", StartTime: float64(60 - i)})
	}
	perf.Seed(hostenv.ResourceTimingEntry{Name: "data:text/plain;x", InitiatorType: "fetch", StartTime: 1})
	limits := config.Default()
	tr := NewTracker(perf, limits)
	entries := tr.GetNetworkWaterfall(WaterfallOptions{})
	require.Len(t, entries, limits.WaterfallCap)
	for i := 1; i < len(entries); i++ {
		assert.LessOrEqual(t, entries[i-1].StartTime, entries[i].StartTime)
	}
}

func TestGetNetworkWaterfallInitiatorFilter(t *testing.T) {
	perf := sim.NewPerformance(sim.NewClock(time.Now()))
	perf.Seed(hostenv.ResourceTimingEntry{Name: "a", InitiatorType: "script", StartTime: 1})
	perf.Seed(hostenv.ResourceTimingEntry{Name: "b", InitiatorType: "img", StartTime: 2})
	tr := NewTracker(perf, config.Default())
	entries := tr.GetNetworkWaterfall(WaterfallOptions{InitiatorTypes: []string{"img"}})
	require.Len(t, entries, 1)
	assert.Equal(t, "b", entries[0].URL)
}

func TestPendingRegistryRoundTrip(t *testing.T) {
	tr := NewTracker(nil, config.Default())
	id := tr.RegisterPending("https://x/y", "GET", time.Now())
	assert.Contains(t, id, "req_")
	require.Len(t, tr.pendingSnapshot(), 1)
	tr.ResolvePending(id)
	assert.Len(t, tr.pendingSnapshot(), 0)
}

func TestGetNetworkWaterfallForErrorDisabled(t *testing.T) {
	tr := NewTracker(sim.NewPerformance(sim.NewClock(time.Now())), config.Default())
	assert.Nil(t, tr.GetNetworkWaterfallForError(false, 100))
}

func newBridge(t *testing.T) (*bridge.Bridge, *fakeBus) {
	t.Helper()
	limits := config.Default()
	ser := serialize.New(limits)
	bus := &fakeBus{}
	br := bridge.New(bus, sim.NewClock(time.Now()), fixedURL{"https://app.test"}, nil, nil, ser)
	return br, bus
}

type fakeBus struct{ posted []bridge.Envelope }

func (b *fakeBus) Post(env bridge.Envelope) { b.posted = append(b.posted, env) }

type fixedURL struct{ url string }

func (f fixedURL) CurrentURL() string { return f.url }

func TestBodyWrapperRedactsAuthEndpoint(t *testing.T) {
	br, bus := newBridge(t)
	fetcher := sim.NewFetcher()
	fetcher.Responses["login"] = hostenv.FetchResponse{Status: 200, ContentType: "application/json", Body: []byte(`{"token":"abc"}`)}
	w := NewBodyWrapper(fetcher, br, sim.NewClock(time.Now()), config.Default(), DefaultSkipURL(""))

	_, err := w.Fetch(context.Background(), hostenv.FetchRequest{URL: "https://app.test/api/login", Method: "POST", Body: []byte(`{"password":"x"}`)})
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)

	require.Len(t, bus.posted, 1)
	p := bus.posted[0].Payload.(BodyPayload)
	assert.Equal(t, "[REDACTED: auth endpoint]", p.RequestBody)
	assert.Equal(t, "[REDACTED: auth endpoint]", p.ResponseBody)
}

func TestBodyWrapperSkipsConfiguredServer(t *testing.T) {
	br, bus := newBridge(t)
	fetcher := sim.NewFetcher()
	w := NewBodyWrapper(fetcher, br, sim.NewClock(time.Now()), config.Default(), DefaultSkipURL("localhost:9000"))
	_, err := w.Fetch(context.Background(), hostenv.FetchRequest{URL: "http://localhost:9000/ping", Method: "GET"})
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, bus.posted, 0)
}

func TestBodyWrapperBinaryContentType(t *testing.T) {
	br, bus := newBridge(t)
	fetcher := sim.NewFetcher()
	fetcher.Responses["img"] = hostenv.FetchResponse{Status: 200, ContentType: "image/png", Body: make([]byte, 2048)}
	w := NewBodyWrapper(fetcher, br, sim.NewClock(time.Now()), config.Default(), DefaultSkipURL(""))
	_, err := w.Fetch(context.Background(), hostenv.FetchRequest{URL: "https://app.test/img/x.png", Method: "GET"})
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)
	require.Len(t, bus.posted, 1)
	p := bus.posted[0].Payload.(BodyPayload)
	assert.Contains(t, p.ResponseBody, "[Binary: 2048 bytes, image/png]")
}

func TestBodyWrapperTruncatesOversizedBody(t *testing.T) {
	br, bus := newBridge(t)
	fetcher := sim.NewFetcher()
	big := make([]byte, 20*1024)
	for i := range big {
		big[i] = 'x'
	}
	fetcher.Responses["big"] = hostenv.FetchResponse{Status: 200, ContentType: "text/plain", Body: big}
	w := NewBodyWrapper(fetcher, br, sim.NewClock(time.Now()), config.Default(), DefaultSkipURL(""))
	_, err := w.Fetch(context.Background(), hostenv.FetchRequest{URL: "https://app.test/big", Method: "GET"})
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)
	require.Len(t, bus.posted, 1)
	p := bus.posted[0].Payload.(BodyPayload)
	assert.True(t, p.RespTruncated)
	assert.Len(t, p.ResponseBody, config.Default().ResponseBodyCap)
}

func TestBodyWrapperSanitizesSensitiveHeaders(t *testing.T) {
	br, bus := newBridge(t)
	fetcher := sim.NewFetcher()
	fetcher.Responses["safe"] = hostenv.FetchResponse{
		Status: 200, ContentType: "application/json", Body: []byte("{}"),
		Headers: map[string]string{"Authorization": "Bearer x", "X-Trace": "1"},
	}
	w := NewBodyWrapper(fetcher, br, sim.NewClock(time.Now()), config.Default(), DefaultSkipURL(""))
	_, err := w.Fetch(context.Background(), hostenv.FetchRequest{
		URL: "https://app.test/safe", Method: "GET",
		Headers: map[string]string{"Cookie": "s=1", "Accept": "json"},
	})
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)
	require.Len(t, bus.posted, 1)
	p := bus.posted[0].Payload.(BodyPayload)
	assert.NotContains(t, p.ResponseHeaders, "Authorization")
	assert.Contains(t, p.ResponseHeaders, "X-Trace")
	assert.NotContains(t, p.RequestHeaders, "Cookie")
	assert.Contains(t, p.RequestHeaders, "Accept")
}
