// sim.go — In-memory faithful doubles for every hostenv capability
// interface (Design Notes §9). Used across the test suites of every
// interceptor package instead of mocking each interface ad hoc.
package sim

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/brennhill/gasoline-page-agent/internal/hostenv"
)

// Console records every call made through it, in call order and tagged
// with its level, and also
// forwards to an optional inner console (simulating "call the original").
type Console struct {
	mu    sync.Mutex
	Calls []ConsoleCall
	Inner hostenv.Console
}

type ConsoleCall struct {
	Level string
	Args  []any
}

func (c *Console) record(level string, args []any) {
	c.mu.Lock()
	c.Calls = append(c.Calls, ConsoleCall{Level: level, Args: args})
	c.mu.Unlock()
}

func (c *Console) Log(args ...any) {
	c.record("log", args)
	if c.Inner != nil {
		c.Inner.Log(args...)
	}
}
func (c *Console) Warn(args ...any) {
	c.record("warn", args)
	if c.Inner != nil {
		c.Inner.Warn(args...)
	}
}
func (c *Console) Error(args ...any) {
	c.record("error", args)
	if c.Inner != nil {
		c.Inner.Error(args...)
	}
}
func (c *Console) Info(args ...any) {
	c.record("info", args)
	if c.Inner != nil {
		c.Inner.Info(args...)
	}
}
func (c *Console) Debug(args ...any) {
	c.record("debug", args)
	if c.Inner != nil {
		c.Inner.Debug(args...)
	}
}

// Element is a plain-data DOM element double.
type Element struct {
	TagName    string
	ID         string
	Classes    []string
	Attrs      map[string]string
	RoleAttr   string
	Text       string
	ParentElem *Element
	X, Y       float64
}

func (e *Element) Tag() string       { return e.TagName }
func (e *Element) ElementID() string { return e.ID }
func (e *Element) ClassList() []string {
	return e.Classes
}
func (e *Element) Attr(name string) (string, bool) {
	v, ok := e.Attrs[name]
	return v, ok
}
func (e *Element) Role() (string, bool) {
	if e.RoleAttr == "" {
		return "", false
	}
	return e.RoleAttr, true
}
func (e *Element) TextContent() string { return e.Text }
func (e *Element) Parent() (hostenv.Element, bool) {
	if e.ParentElem == nil {
		return nil, false
	}
	return e.ParentElem, true
}
func (e *Element) BoundingBox() (float64, float64) { return e.X, e.Y }

// Window is a mutable page-state double.
type Window struct {
	mu       sync.Mutex
	PageURL  string
	Focused  hostenv.Element
}

func (w *Window) URL() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.PageURL
}
func (w *Window) SetURL(url string) {
	w.mu.Lock()
	w.PageURL = url
	w.mu.Unlock()
}
func (w *Window) FocusedElement() (hostenv.Element, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.Focused == nil {
		return nil, false
	}
	return w.Focused, true
}

// Clock is a manually-advanced clock double.
type Clock struct {
	mu sync.Mutex
	t  time.Time
}

func NewClock(t time.Time) *Clock { return &Clock{t: t} }
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// UUIDSource generates deterministic, incrementing fake UUIDs for tests.
type UUIDSource struct {
	mu  sync.Mutex
	n   int
	pre string
}

func NewUUIDSource(prefix string) *UUIDSource { return &UUIDSource{pre: prefix} }
func (u *UUIDSource) NewUUID() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.n++
	return u.pre + "-" + itoa(u.n)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

// Fetcher returns canned responses keyed by URL substring match (a response
// is reused for every matching request), falling back to a 200 empty response.
type Fetcher struct {
	mu        sync.Mutex
	Responses map[string]hostenv.FetchResponse
	Requests  []hostenv.FetchRequest
	Delay     time.Duration
}

func NewFetcher() *Fetcher {
	return &Fetcher{Responses: make(map[string]hostenv.FetchResponse)}
}

func (f *Fetcher) Fetch(ctx context.Context, req hostenv.FetchRequest) (hostenv.FetchResponse, error) {
	f.mu.Lock()
	f.Requests = append(f.Requests, req)
	delay := f.Delay
	var resp hostenv.FetchResponse
	found := false
	for pattern, r := range f.Responses {
		if strings.Contains(req.URL, pattern) {
			resp = r
			found = true
			break
		}
	}
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return hostenv.FetchResponse{}, ctx.Err()
		}
	}
	if !found {
		resp = hostenv.FetchResponse{Status: 200, Headers: map[string]string{}, ContentType: "application/json", Body: []byte("{}")}
	}
	return resp, nil
}
