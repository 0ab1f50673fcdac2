package http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"fintrack/internal/app"
	"fintrack/internal/log"
)

// EventType tags every message sent on the change feed.
const EventType = "ledger.changed"

const (
	writeWait  = 2 * time.Second
	sendBuffer = 16
)

// changeMessage is the frame broadcast after each commit.
type changeMessage struct {
	Type string `json:"type"`
	app.Event
}

// EventHub fans commit notifications out to WebSocket clients. Every client
// has its own queue and writer goroutine, so a stalled client never holds up
// a commit. Clients whose queue fills up or whose writes fail are dropped.
type EventHub struct {
	upgrader websocket.Upgrader
	logger   *log.Logger
	now      func() time.Time

	mu      sync.Mutex
	clients map[*websocket.Conn]*eventClient
}

type eventClient struct {
	conn *websocket.Conn
	send chan []byte
}

// NewEventHub creates a hub with no clients.
func NewEventHub(logger *log.Logger) *EventHub {
	if logger == nil {
		logger = log.Discard()
	}
	return &EventHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger:  logger.WithComponent(log.ComponentEvents),
		now:     time.Now,
		clients: make(map[*websocket.Conn]*eventClient),
	}
}

// ServeHTTP upgrades the request and keeps the connection registered until
// the client goes away.
func (h *EventHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response
		h.logger.WarnContext(r.Context(), "WebSocket upgrade failed", log.FieldError, err)
		return
	}

	c := &eventClient{conn: conn, send: make(chan []byte, sendBuffer)}
	h.register(c)
	defer h.unregister(conn)
	go h.writePump(c)

	// Reads only drive control frames and detect close
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump owns every data write on c.conn.
func (h *EventHub) writePump(c *eventClient) {
	for payload := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.logger.Debug("Dropping WebSocket client", log.FieldError, err)
			h.unregister(c.conn)
			return
		}
	}
}

// Hook broadcasts one message per commit.
func (h *EventHub) Hook(ctx context.Context, change app.Change, snap app.Snapshot) {
	msg := changeMessage{Type: EventType, Event: app.NewEvent(change, snap, h.now())}
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to marshal change event", log.FieldError, err)
		return
	}
	h.Broadcast(payload)
}

// Broadcast queues payload for every client without waiting on the network.
func (h *EventHub) Broadcast(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn, c := range h.clients {
		select {
		case c.send <- payload:
		default:
			h.logger.Debug("Dropping WebSocket client with a full queue")
			h.removeLocked(conn)
		}
	}
}

// Clients returns the number of connected clients.
func (h *EventHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *EventHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(writeWait))
		h.removeLocked(conn)
	}
}

func (h *EventHub) register(c *eventClient) {
	h.mu.Lock()
	h.clients[c.conn] = c
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("WebSocket client connected", log.FieldCount, n)
}

func (h *EventHub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	removed := h.removeLocked(conn)
	n := len(h.clients)
	h.mu.Unlock()
	if removed {
		h.logger.Debug("WebSocket client disconnected", log.FieldCount, n)
	}
}

// removeLocked closes the client's queue and connection once. h.mu must be
// held.
func (h *EventHub) removeLocked(conn *websocket.Conn) bool {
	c, ok := h.clients[conn]
	if !ok {
		return false
	}
	delete(h.clients, conn)
	close(c.send)
	conn.Close()
	return true
}
