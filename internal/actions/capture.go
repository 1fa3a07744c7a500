package actions

import (
	"strings"

	"github.com/brennhill/gasoline-page-agent/internal/hostenv"
	"github.com/brennhill/gasoline-page-agent/internal/reproduction"
)

// OnClick records a click (§4.5): target selector, coordinates, and up to
// 50 chars of trimmed text.
func (b *Buffer) OnClick(el hostenv.Element, x, y float64) {
	text := ""
	if el != nil {
		text = truncateText(strings.TrimSpace(el.TextContent()), b.limits.ClickTextCap)
	}
	ts := b.now()
	r := Record{Type: "click", Timestamp: ts, X: x, Y: y, Text: text}
	e := reproduction.EnhancedAction{Type: "click", Timestamp: ts, URL: b.currentURL()}
	if el != nil {
		r.Target = reproduction.CSSPath(el)
		e.Selectors = reproduction.ComputeSelectors(el, b.limits)
	}
	b.push(r, e)
}

// OnInput records an input event (§4.5). Sensitive inputs are redacted to
// "[redacted]" but the original value's length is always recorded.
func (b *Buffer) OnInput(el hostenv.Element, value string) {
	ts := b.now()
	recordedValue := value
	if IsSensitiveInput(el, b.limits) {
		recordedValue = "[redacted]"
	}
	r := Record{Type: "input", Timestamp: ts, Value: recordedValue, Length: len(value)}
	e := reproduction.EnhancedAction{Type: "input", Timestamp: ts, URL: b.currentURL(), Value: recordedValue}
	if el != nil {
		r.Target = reproduction.CSSPath(el)
		e.Selectors = reproduction.ComputeSelectors(el, b.limits)
	}
	b.push(r, e)
}

// OnScroll records a window scroll, throttled to one per ScrollThrottle
// (§4.5). Calls within the throttle window are silently dropped.
func (b *Buffer) OnScroll(scrollY int) {
	if !b.scrollThrottle.Allow() {
		return
	}

	ts := b.now()
	r := Record{Type: "scroll", Timestamp: ts, ScrollY: scrollY}
	e := reproduction.EnhancedAction{Type: "scroll", Timestamp: ts, URL: b.currentURL(), ScrollY: scrollY}
	b.push(r, e)
}

// OnKeydown records a keydown event, only for allow-listed actionable keys
// (§4.5).
func (b *Buffer) OnKeydown(key string) {
	if !b.limits.ActionableKeys[key] {
		return
	}
	ts := b.now()
	r := Record{Type: "keydown", Timestamp: ts, Key: key}
	e := reproduction.EnhancedAction{Type: "keypress", Timestamp: ts, URL: b.currentURL(), Key: key}
	b.push(r, e)
}

// OnChange records a SELECT element's change event, recording the selected
// value and visible text (§4.5). Non-SELECT elements are ignored.
func (b *Buffer) OnChange(el hostenv.Element, selectedValue, selectedText string) {
	if el == nil || !strings.EqualFold(el.Tag(), "select") {
		return
	}
	ts := b.now()
	r := Record{Type: "change", Timestamp: ts, Target: reproduction.CSSPath(el), SelectedValue: selectedValue, SelectedText: selectedText}
	e := reproduction.EnhancedAction{
		Type: "select", Timestamp: ts, URL: b.currentURL(),
		SelectedValue: selectedValue, SelectedText: selectedText,
		Selectors: reproduction.ComputeSelectors(el, b.limits),
	}
	b.push(r, e)
}

func truncateText(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
