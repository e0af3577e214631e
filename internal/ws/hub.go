package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeTimeout is the deadline for a single write to a client.
	writeTimeout = 10 * time.Second

	// pongWait is how long to wait for a pong response before treating the
	// connection as dead.
	pongWait = 60 * time.Second

	// pingPeriod controls how often the server sends WebSocket ping frames.
	// Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// sendBufSize is the per-client outgoing message buffer depth.
	sendBufSize = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Allow all origins — the admin port is expected to be firewalled or
	// proxied; apply CORS at the reverse-proxy level if exposed.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Message is the JSON envelope sent to clients for every diagnostic event.
type Message struct {
	Event string         `json:"event"`
	Time  time.Time      `json:"time"`
	Data  map[string]any `json:"data,omitempty"`
}

// Hub manages WebSocket client connections and pushes delivery diagnostics
// to all connected clients as they happen. It implements the engine's
// Diagnostics interface, so wiring it up is just adding it to the fan-out.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
}

// client represents one connected WebSocket client.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// New creates an empty Hub.
func New() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

// Run blocks until ctx is cancelled, then closes all active connections.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closeAll()
}

// ServeHTTP upgrades the HTTP connection to WebSocket and serves the client.
// Events that occur after the connect are streamed until the connection
// closes. Blocks until then.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response.
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, sendBufSize),
	}
	h.register(c)
	defer h.unregister(c)

	go c.writePump()
	c.readPump() // blocks until connection closes
}

// Count returns the number of currently connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// --- engine.Diagnostics -----------------------------------------------------

func (h *Hub) BundleSent(id string) {
	h.broadcast("bundle_sent", map[string]any{"bundle": id})
}

func (h *Hub) BundleRetryScheduled(id string, attempt int, delay time.Duration) {
	h.broadcast("bundle_retry_scheduled", map[string]any{
		"bundle":  id,
		"attempt": attempt,
		"delay":   delay.String(),
	})
}

func (h *Hub) BundleAbandoned(id, reason string) {
	h.broadcast("bundle_abandoned", map[string]any{"bundle": id, "reason": reason})
}

func (h *Hub) EndpointUnreachable(reason string) {
	h.broadcast("endpoint_unreachable", map[string]any{"reason": reason})
}

func (h *Hub) FlushFinished(session uint64, sent, deferred, abandoned int) {
	h.broadcast("flush_finished", map[string]any{
		"session":   session,
		"sent":      sent,
		"deferred":  deferred,
		"abandoned": abandoned,
	})
}

// --- internal ---------------------------------------------------------------

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *Hub) broadcast(event string, data map[string]any) {
	h.mu.RLock()
	n := len(h.clients)
	h.mu.RUnlock()
	if n == 0 {
		return
	}

	msg, err := json.Marshal(Message{Event: event, Time: time.Now().UTC(), Data: data})
	if err != nil {
		return
	}

	h.mu.RLock()
	targets := make([]*client, 0, n)
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		select {
		case c.send <- msg:
		default:
			// Client's outgoing buffer is full — disconnect it.
			h.unregister(c)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

// writePump drains the client's send channel and forwards messages to the
// WebSocket connection. It also sends periodic ping frames. Runs in its own
// goroutine per client.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				// Channel was closed (hub is shutting down or client removed).
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads frames from the connection to process control messages (pong,
// close) and detect disconnects. Blocks until the connection closes.
func (c *client) readPump() {
	defer c.conn.Close()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}
