package actions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brennhill/gasoline-page-agent/internal/config"
	"github.com/brennhill/gasoline-page-agent/internal/hostenv/sim"
)

func newBuffer() (*Buffer, *sim.Clock, *sim.Window) {
	limits := config.Default()
	clock := sim.NewClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	win := &sim.Window{PageURL: "https://app.test/"}
	return New(limits, clock, win), clock, win
}

func TestOnClickRecordsTruncatedText(t *testing.T) {
	b, _, _ := newBuffer()
	el := &sim.Element{TagName: "button", Text: "This is a very long button label that exceeds fifty characters for sure"}
	b.OnClick(el, 10, 20)

	snap := b.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "click", snap[0].Type)
	assert.LessOrEqual(t, len(snap[0].Text), 50)

	enh := b.SnapshotEnhanced()
	require.Len(t, enh, 1)
	assert.Equal(t, "click", enh[0].Type)
	assert.NotNil(t, enh[0].Selectors)
}

func TestOnInputRedactsSensitiveValue(t *testing.T) {
	b, _, _ := newBuffer()
	el := &sim.Element{TagName: "input", Attrs: map[string]string{"type": "password"}}
	b.OnInput(el, "hunter2")

	snap := b.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "[redacted]", snap[0].Value)
	assert.Equal(t, len("hunter2"), snap[0].Length)
}

func TestOnInputKeepsNonSensitiveValue(t *testing.T) {
	b, _, _ := newBuffer()
	el := &sim.Element{TagName: "input", Attrs: map[string]string{"type": "text"}}
	b.OnInput(el, "alice")

	snap := b.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "alice", snap[0].Value)
}

func TestOnScrollThrottled(t *testing.T) {
	b, clock, _ := newBuffer()
	b.OnScroll(100)
	b.OnScroll(200) // within 250ms, dropped
	assert.Len(t, b.Snapshot(), 1)

	clock.Advance(300 * time.Millisecond)
	b.OnScroll(300)
	assert.Len(t, b.Snapshot(), 2)
}

func TestOnKeydownOnlyActionableKeys(t *testing.T) {
	b, _, _ := newBuffer()
	b.OnKeydown("a")
	assert.Len(t, b.Snapshot(), 0)

	b.OnKeydown("Enter")
	assert.Len(t, b.Snapshot(), 1)
}

func TestOnChangeOnlyForSelect(t *testing.T) {
	b, _, _ := newBuffer()
	div := &sim.Element{TagName: "div"}
	b.OnChange(div, "v", "t")
	assert.Len(t, b.Snapshot(), 0)

	sel := &sim.Element{TagName: "select"}
	b.OnChange(sel, "v1", "Option 1")
	require.Len(t, b.Snapshot(), 1)
	assert.Equal(t, "Option 1", b.Snapshot()[0].SelectedText)
}

func TestBufferOverflowsFIFO(t *testing.T) {
	b, _, _ := newBuffer()
	limits := config.Default()
	for i := 0; i < limits.ActionBufferCap+5; i++ {
		b.OnKeydown("Enter")
	}
	assert.Equal(t, limits.ActionBufferCap, len(b.Snapshot()))
}

func TestDisableClearsBuffer(t *testing.T) {
	b, _, _ := newBuffer()
	b.OnKeydown("Enter")
	require.Len(t, b.Snapshot(), 1)

	b.SetEnabled(false)
	assert.Len(t, b.Snapshot(), 0)

	b.OnKeydown("Enter")
	assert.Len(t, b.Snapshot(), 0, "disabled buffer must drop new events")
}

func TestSensitiveInputDetection(t *testing.T) {
	limits := config.Default()
	cases := []struct {
		name string
		el   *sim.Element
		want bool
	}{
		{"password type", &sim.Element{Attrs: map[string]string{"type": "password"}}, true},
		{"autocomplete cc-", &sim.Element{Attrs: map[string]string{"autocomplete": "cc-number"}}, true},
		{"name ssn", &sim.Element{Attrs: map[string]string{"name": "user_ssn"}}, true},
		{"plain text", &sim.Element{Attrs: map[string]string{"type": "text", "name": "username"}}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, IsSensitiveInput(c.el, limits))
		})
	}
}

func TestNavigationCaptureEmitsFromAndToURL(t *testing.T) {
	b, _, _ := newBuffer()
	hist := sim.NewHistory("https://app.test/")
	nav := NewNavigationCapture(hist, b, "https://app.test/")
	nav.Install()

	nav.PushState("https://app.test/page2")
	enh := b.SnapshotEnhanced()
	require.Len(t, enh, 1)
	assert.Equal(t, "navigate", enh[0].Type)
	assert.Equal(t, "https://app.test/", enh[0].FromURL)
	assert.Equal(t, "https://app.test/page2", enh[0].ToURL)
}

func TestNavigationCapturePopState(t *testing.T) {
	b, _, _ := newBuffer()
	hist := sim.NewHistory("https://app.test/a")
	nav := NewNavigationCapture(hist, b, "https://app.test/a")
	nav.Install()

	hist.Pop("https://app.test/b")
	enh := b.SnapshotEnhanced()
	require.Len(t, enh, 1)
	assert.Equal(t, "https://app.test/b", enh[0].ToURL)
}

func TestNavigationUninstallStopsEmitting(t *testing.T) {
	b, _, _ := newBuffer()
	hist := sim.NewHistory("https://app.test/")
	nav := NewNavigationCapture(hist, b, "https://app.test/")
	nav.Install()
	nav.Uninstall()

	nav.PushState("https://app.test/page2")
	assert.Len(t, b.SnapshotEnhanced(), 0)
}
