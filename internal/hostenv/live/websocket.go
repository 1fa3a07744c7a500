// websocket.go — Real WSDialer backed by github.com/gorilla/websocket.
// Used when this core is embedded inside a Go-based devtools harness rather
// than a literal in-browser JS runtime, so the same wsight tracker
// machinery can be exercised against an actual network connection instead
// of only the simulated one in internal/hostenv/sim.
package live

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/brennhill/gasoline-page-agent/internal/hostenv"
)

// WSDialer dials real WebSocket connections.
type WSDialer struct {
	Dialer *websocket.Dialer
}

// NewWSDialer returns a dialer using websocket.DefaultDialer.
func NewWSDialer() *WSDialer {
	return &WSDialer{Dialer: websocket.DefaultDialer}
}

func (d *WSDialer) Dial(ctx context.Context, url string) (hostenv.WSConn, error) {
	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	c := &wsConn{conn: conn, url: url, done: make(chan struct{})}
	go c.readLoop()
	return c, nil
}

// wsConn adapts a *websocket.Conn to hostenv.WSConn.
type wsConn struct {
	conn *websocket.Conn
	url  string

	mu        sync.Mutex
	onMessage func(data []byte, binary bool)
	onOpen    func()
	onClose   func(code int, reason string)
	onError   func(err error)
	done      chan struct{}
	closeOnce sync.Once
}

func (c *wsConn) URL() string { return c.url }

func (c *wsConn) Send(data []byte, binary bool) error {
	msgType := websocket.TextMessage
	if binary {
		msgType = websocket.BinaryMessage
	}
	return c.conn.WriteMessage(msgType, data)
}

func (c *wsConn) Close(code int, reason string) error {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	err := c.conn.Close()
	c.closeOnce.Do(func() { close(c.done) })
	return err
}

func (c *wsConn) OnMessage(cb func(data []byte, binary bool)) {
	c.mu.Lock()
	c.onMessage = cb
	c.mu.Unlock()
}
func (c *wsConn) OnOpen(cb func()) {
	c.mu.Lock()
	c.onOpen = cb
	c.mu.Unlock()
	// The connection is already open by the time Dial returns, so fire
	// immediately rather than waiting for a later event.
	if cb != nil {
		cb()
	}
}
func (c *wsConn) OnClose(cb func(code int, reason string)) {
	c.mu.Lock()
	c.onClose = cb
	c.mu.Unlock()
}
func (c *wsConn) OnError(cb func(err error)) {
	c.mu.Lock()
	c.onError = cb
	c.mu.Unlock()
}

func (c *wsConn) readLoop() {
	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			onClose := c.onClose
			onError := c.onError
			c.mu.Unlock()
			if websocket.IsCloseError(err) {
				if onClose != nil {
					onClose(websocket.CloseNormalClosure, err.Error())
				}
			} else if onError != nil {
				onError(err)
			}
			return
		}
		c.mu.Lock()
		cb := c.onMessage
		c.mu.Unlock()
		if cb != nil {
			cb(data, msgType == websocket.BinaryMessage)
		}
	}
}
