package hub

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// controlWait bounds how long a close frame may take to write.
const controlWait = time.Second

type State int32

const (
	StateOpen State = iota
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Client is a live connection bound to a user. Only the hub reads from or
// writes to it; everything exported is read-only.
type Client struct {
	sellyID     string
	conn        *websocket.Conn
	connectedAt time.Time

	state     atomic.Int32
	writeMu   sync.Mutex
	closeOnce sync.Once
}

func NewClient(sellyID string, conn *websocket.Conn) *Client {
	c := &Client{sellyID: sellyID, conn: conn, connectedAt: time.Now()}

	// The receive loop answers close frames itself, after the entry is gone.
	conn.SetCloseHandler(func(int, string) error { return nil })

	return c
}

func (c *Client) ID() string {
	return c.sellyID
}

func (c *Client) State() State {
	return State(c.state.Load())
}

func (c *Client) ConnectedAt() time.Time {
	return c.connectedAt
}

func (c *Client) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

func (c *Client) write(message string) error {
	if c.State() != StateOpen {
		return ErrClientClosed
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	return c.conn.WriteMessage(websocket.TextMessage, []byte(message))
}

// closeHandshake moves the client to Closing and writes a close frame.
func (c *Client) closeHandshake(code int, reason string) error {
	if !c.state.CompareAndSwap(int32(StateOpen), int32(StateClosing)) {
		return ErrClientClosed
	}

	msg := websocket.FormatCloseMessage(code, reason)
	return c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(controlWait))
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		c.state.Store(int32(StateClosed))
		c.conn.Close()
	})
}

// shutdown sends a close frame with the given code, then drops the transport.
func (c *Client) shutdown(code int, reason string) {
	_ = c.closeHandshake(code, reason)
	c.close()
}
