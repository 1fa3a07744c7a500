// Command gasoline-demo wires the capture core against the in-memory
// hostenv/sim doubles and drives a handful of page events end to end,
// printing every envelope posted to the page-local bus. It exists as a
// smoke harness for local development, grounded on the teacher's
// cmd/gasoline-cmd/main.go entry-point shape (a single run function
// separated out for testability, a plain stdout report; no flags are
// parsed) rather
// than on its MCP-client content, which is out of scope here.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/brennhill/gasoline-page-agent/internal/actions"
	"github.com/brennhill/gasoline-page-agent/internal/ai"
	"github.com/brennhill/gasoline-page-agent/internal/bridge"
	"github.com/brennhill/gasoline-page-agent/internal/config"
	"github.com/brennhill/gasoline-page-agent/internal/console"
	"github.com/brennhill/gasoline-page-agent/internal/contextannot"
	"github.com/brennhill/gasoline-page-agent/internal/exception"
	"github.com/brennhill/gasoline-page-agent/internal/hostenv/sim"
	"github.com/brennhill/gasoline-page-agent/internal/metrics"
	"github.com/brennhill/gasoline-page-agent/internal/network"
	"github.com/brennhill/gasoline-page-agent/internal/perf"
	"github.com/brennhill/gasoline-page-agent/internal/serialize"
	"github.com/brennhill/gasoline-page-agent/internal/wsight"
)

func main() {
	os.Exit(run(os.Stdout))
}

type reportingBus struct {
	out     *os.File
	metrics *metrics.Registry
	count   int
}

func (b *reportingBus) Post(env bridge.Envelope) {
	b.metrics.EventsPosted.WithLabelValues(string(env.Type)).Inc()
	b.count++
	line, err := json.Marshal(env)
	if err != nil {
		return
	}
	fmt.Fprintln(b.out, string(line))
}

type urlAdapter struct{ w *sim.Window }

func (a urlAdapter) CurrentURL() string { return a.w.URL() }

func run(out *os.File) int {
	limits := config.Default()
	ser := serialize.New(limits)
	clock := sim.NewClock(time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC))
	window := &sim.Window{PageURL: "https://app.example.com/dashboard"}
	metricsReg := metrics.NewRegistry()
	bus := &reportingBus{out: out, metrics: metricsReg}

	ctxStore := contextannot.New(limits, ser)
	actionBuf := actions.New(limits, clock, window)
	br := bridge.New(bus, clock, urlAdapter{window}, ctxStore, actionBuf, ser)

	consoleIC := console.New(br, &sim.Console{})
	consoleIC.Install()

	pipeline := ai.NewPipeline(limits, true, false, nil, nil, nil, nil)
	exceptionIC := exception.New(br, pipeline)
	exceptionIC.Install(nil)

	history := sim.NewHistory(window.URL())
	nav := actions.NewNavigationCapture(history, actionBuf, window.URL())
	nav.Install()

	perfAPI := sim.NewPerformance(clock)
	netTracker := network.NewTracker(perfAPI, limits)
	markTracker := perf.NewMarkTracker(perfAPI, nil, limits)
	markTracker.Install()

	wsDialer := sim.NewWSDialer()
	wsManager := wsight.NewManager(wsDialer, br, clock, limits, wsight.ModeHigh)

	ctxStore.Set("build", "local-dev")
	consoleIC.Log("dashboard booted")
	actionBuf.OnClick(&sim.Element{TagName: "BUTTON", ID: "refresh"}, 10, 20)
	nav.PushState("https://app.example.com/dashboard/settings")
	exceptionIC.HandleError(context.Background(), exception.ErrorEvent{
		Message: "TypeError: cannot read properties of undefined",
		Stack:   "at render (app.js:42:7)",
	})

	markTracker.Mark("dashboard-start", nil)
	_ = netTracker.GetNetworkWaterfall(network.WaterfallOptions{})

	conn, err := wsManager.Dial(context.Background(), "wss://app.example.com/live")
	if err == nil {
		_ = conn.Send([]byte(`{"type":"ping"}`), false)
	}

	fmt.Fprintf(os.Stderr, "gasoline-demo: %d envelopes posted\n", bus.count)
	return 0
}
