package wsight

import "github.com/brennhill/gasoline-page-agent/internal/hostenv"

// wrappedConn intercepts Send to record/sample outgoing traffic before
// delegating, while passing every other call straight through to inner.
type wrappedConn struct {
	hostenv.WSConn
	tracker *ConnectionTracker
}

func (w *wrappedConn) Send(data []byte, binary bool) error {
	w.tracker.WrapSend(data, binary)
	return w.WSConn.Send(data, binary)
}
