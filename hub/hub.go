package hub

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type userKey string

// Hub tracks at most one connection per user.
type Hub struct {
	mu          sync.RWMutex
	connections map[userKey]*Client
	log         *zap.SugaredLogger
}

func New(logger *zap.SugaredLogger) *Hub {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &Hub{connections: make(map[userKey]*Client), log: logger}
}

func (h *Hub) Get(sellyID string) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	client, exists := h.connections[userKey(sellyID)]

	return client, exists
}

// Push registers the client. A connection already registered for the same
// user is removed and closed. Push reports whether that happened.
func (h *Hub) Push(client *Client) bool {
	h.mu.Lock()
	old, exists := h.connections[userKey(client.sellyID)]
	h.connections[userKey(client.sellyID)] = client
	h.mu.Unlock()

	if !exists || old == client {
		return false
	}

	h.log.Debugw("replacing connection", "user", client.sellyID, "remote", old.RemoteAddr())
	old.shutdown(websocket.CloseGoingAway, "superseded")

	return true
}

// Pop removes the client only if it is still the one registered for its
// user, so a stale connection can never evict its replacement.
func (h *Hub) Pop(client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.connections[userKey(client.sellyID)] != client {
		return false
	}

	delete(h.connections, userKey(client.sellyID))

	return true
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.connections)
}

// Snapshot returns a copy of the current bindings.
func (h *Hub) Snapshot() map[string]*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make(map[string]*Client, len(h.connections))
	for k, c := range h.connections {
		out[string(k)] = c
	}

	return out
}

// Send writes message as a single text frame to the user's connection.
// Unknown users, closed connections and failed writes all report false;
// the latter two also drop the registration.
func (h *Hub) Send(sellyID, message string) bool {
	if sellyID == "" {
		return false
	}

	client, exists := h.Get(sellyID)
	if !exists {
		return false
	}

	if client.State() != StateOpen {
		h.Pop(client)
		h.log.Debugw("dropping stale connection", "user", sellyID, "state", client.State())
		return false
	}

	if err := client.write(message); err != nil {
		h.Pop(client)
		client.close()
		h.log.Debugw("failed to send a message, dropping connection", "user", sellyID, "error", err)
		return false
	}

	return true
}

// Listen drains inbound frames until the peer closes, the stream fails or
// ctx is cancelled. The client is unregistered and closed on every path.
// A peer-initiated close returns nil.
func (h *Hub) Listen(ctx context.Context, client *Client) error {
	defer func() {
		h.Pop(client)
		client.close()
	}()

	stop := context.AfterFunc(ctx, func() {
		client.shutdown(websocket.CloseGoingAway, "server shutting down")
	})
	defer stop()

	for client.State() == StateOpen {
		_, r, err := client.conn.NextReader()
		if err != nil {
			var closeErr *websocket.CloseError
			switch {
			// 1006 is synthesized by the library for a dropped stream; it
			// never arrives in a close frame.
			case errors.As(err, &closeErr) && closeErr.Code != websocket.CloseAbnormalClosure:
				h.Pop(client)
				if err := client.closeHandshake(websocket.CloseNormalClosure, "closed by user"); err != nil {
					h.log.Debugw("failed to answer close frame", "user", client.sellyID, "error", err)
				}
				return nil
			case ctx.Err() != nil:
				return ctx.Err()
			case client.State() != StateOpen:
				return ErrClientClosed
			default:
				return err
			}
		}

		// Inbound payloads carry no meaning here.
		if _, err := io.Copy(io.Discard, r); err != nil {
			h.log.Debugw("failed to drain frame", "user", client.sellyID, "error", err)
		}
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}

	return ErrClientClosed
}
