package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsSendBuffer   = 64
)

// Hub fans broadcast messages out to connected websocket clients:
// render operations for the map and workspace change notifications.
// A client that cannot keep up is dropped.
type Hub struct {
	mu       sync.Mutex
	clients  map[*wsClient]struct{}
	upgrader websocket.Upgrader
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*wsClient]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // CORS is enforced at the HTTP layer
			},
		},
	}
}

// Broadcast encodes the message once, synchronously, and queues the
// bytes to every connected client. Encoding before queueing means the
// caller's structs are not read again after Broadcast returns.
func (h *Hub) Broadcast(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("broadcast encode failed")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// client too slow, drop it
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// HandleWebSocket upgrades the connection and streams broadcasts until
// the client disconnects.
func (h *Hub) HandleWebSocket(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return NewBadRequestError("websocket upgrade failed", err)
	}

	client := &wsClient{conn: conn, send: make(chan []byte, wsSendBuffer)}
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	log.Debug().Str("remote", conn.RemoteAddr().String()).Msg("websocket client connected")

	go h.writeLoop(client)
	h.readLoop(client)
	return nil
}

func (h *Hub) writeLoop(c *wsClient) {
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Debug().Err(err).Msg("websocket write failed")
			break
		}
	}
	c.conn.Close()
}

// readLoop drains client frames (pings and close) until disconnect.
func (h *Hub) readLoop(c *wsClient) {
	defer func() {
		h.mu.Lock()
		if _, ok := h.clients[c]; ok {
			delete(h.clients, c)
			close(c.send)
		}
		h.mu.Unlock()
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
