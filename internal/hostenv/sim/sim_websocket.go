package sim

import (
	"context"
	"sync"

	"github.com/brennhill/gasoline-page-agent/internal/hostenv"
)

// WSConn is an in-memory WebSocket connection double. Tests call Deliver
// to simulate an incoming message and SimulateClose/SimulateError to
// simulate lifecycle events.
type WSConn struct {
	mu      sync.Mutex
	url     string
	Sent    []WSSent
	closed  bool
	onMsg   func(data []byte, binary bool)
	onOpen  func()
	onClose func(code int, reason string)
	onErr   func(err error)
}

type WSSent struct {
	Data   []byte
	Binary bool
}

func NewWSConn(url string) *WSConn { return &WSConn{url: url} }

func (c *WSConn) URL() string { return c.url }

func (c *WSConn) Send(data []byte, binary bool) error {
	c.mu.Lock()
	c.Sent = append(c.Sent, WSSent{Data: data, Binary: binary})
	c.mu.Unlock()
	return nil
}

func (c *WSConn) Close(code int, reason string) error {
	c.mu.Lock()
	c.closed = true
	cb := c.onClose
	c.mu.Unlock()
	if cb != nil {
		cb(code, reason)
	}
	return nil
}

func (c *WSConn) OnMessage(cb func(data []byte, binary bool)) {
	c.mu.Lock()
	c.onMsg = cb
	c.mu.Unlock()
}

func (c *WSConn) OnOpen(cb func()) {
	c.mu.Lock()
	c.onOpen = cb
	c.mu.Unlock()
	if cb != nil {
		cb()
	}
}

func (c *WSConn) OnClose(cb func(code int, reason string)) {
	c.mu.Lock()
	c.onClose = cb
	c.mu.Unlock()
}

func (c *WSConn) OnError(cb func(err error)) {
	c.mu.Lock()
	c.onErr = cb
	c.mu.Unlock()
}

// Deliver simulates an incoming message from the remote peer.
func (c *WSConn) Deliver(data []byte, binary bool) {
	c.mu.Lock()
	cb := c.onMsg
	c.mu.Unlock()
	if cb != nil {
		cb(data, binary)
	}
}

// SimulateError delivers an error to the registered OnError callback.
func (c *WSConn) SimulateError(err error) {
	c.mu.Lock()
	cb := c.onErr
	c.mu.Unlock()
	if cb != nil {
		cb(err)
	}
}

// WSDialer is an in-memory hostenv.WSDialer double.
type WSDialer struct {
	mu    sync.Mutex
	Conns []*WSConn
}

func NewWSDialer() *WSDialer { return &WSDialer{} }

func (d *WSDialer) Dial(ctx context.Context, url string) (hostenv.WSConn, error) {
	conn := NewWSConn(url)
	d.mu.Lock()
	d.Conns = append(d.Conns, conn)
	d.mu.Unlock()
	return conn, nil
}
