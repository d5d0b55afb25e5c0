// File: internal/gateway/ws.go
package gateway

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/deskhand/deskhand/internal/loop"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer. The event stream is one-way;
	// clients only ever send control frames.
	maxMessageSize = 512
	// Buffer size for the outbound message channel per client.
	sendChannelSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The gateway binds to loopback; browser dashboards connect from file://
	// or localhost origins.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// hub fans loop events out to every connected client. A client that cannot
// keep up has its buffer filled and is disconnected rather than stalling the
// loop.
type hub struct {
	logger *zap.Logger

	mu      sync.Mutex
	clients map[*wsClient]struct{}
	closed  bool
}

func newHub(logger *zap.Logger) *hub {
	return &hub{
		logger:  logger,
		clients: make(map[*wsClient]struct{}),
	}
}

// run consumes the loop's event stream until ctx is cancelled or the stream
// closes.
func (h *hub) run(ctx context.Context, events <-chan loop.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			h.broadcast(ev)
		}
	}
}

func (h *hub) broadcast(ev loop.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- ev:
		default:
			h.logger.Warn("WebSocket send buffer full, dropping client.")
			delete(h.clients, c)
			close(c.send)
		}
	}
}

func (h *hub) register(c *wsClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *hub) unregister(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// closeAll disconnects every client during shutdown.
func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// wsClient is one subscriber to the event stream.
type wsClient struct {
	hub    *hub
	logger *zap.Logger
	conn   *websocket.Conn
	send   chan loop.Event
}

// handleEvents upgrades the connection and starts the pumps. The write pump
// runs in its own goroutine; the read pump blocks the handler until the
// connection closes.
func (s *Server) handleEvents() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already wrote the HTTP error response.
			s.logger.Error("Failed to upgrade connection to WebSocket", zap.Error(err))
			return
		}

		client := &wsClient{
			hub:    s.hub,
			logger: s.logger,
			conn:   conn,
			send:   make(chan loop.Event, sendChannelSize),
		}
		if !s.hub.register(client) {
			conn.Close()
			return
		}
		s.logger.Info("Event stream client connected.", zap.String("remoteAddr", r.RemoteAddr))

		go client.writePump()
		client.readPump()
	}
}

// readPump drains the connection so control frames (pongs, close) are
// processed. The event stream carries no inbound application messages.
func (c *wsClient) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error("Failed to set initial read deadline", zap.Error(err))
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket closed unexpectedly", zap.Error(err))
			} else {
				c.logger.Info("Event stream client disconnected.")
			}
			return
		}
	}
}

// writePump centralizes all writes to the connection, including keepalive
// pings.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error("Failed to set write deadline", zap.Error(err))
				return
			}
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(ev); err != nil {
				c.logger.Error("Error writing event to WebSocket", zap.Error(err))
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
