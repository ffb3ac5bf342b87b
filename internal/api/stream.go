// WebSocket tick stream — every connected client gets the per-tick state
// payload the frontend renders from.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Client is one connected websocket viewer.
type Client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub fans tick payloads out to connected clients. All map access happens
// on the run goroutine; handlers only touch the channels.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
}

// NewHub creates an idle hub; call Run in a goroutine to start it.
func NewHub() *Hub {
	return &Hub{
		clients:    map[*Client]bool{},
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
	}
}

// Run processes register/unregister/broadcast until the process exits.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = true
		case c := <-h.unregister:
			if h.clients[c] {
				delete(h.clients, c)
				close(c.send)
			}
		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// Slow consumer: drop the connection, not the tick.
					delete(h.clients, c)
					close(c.send)
				}
			}
		}
	}
}

// Broadcast marshals v and queues it for every connected client.
func (h *Hub) Broadcast(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("marshal broadcast", "error", err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		// Broadcast queue full; skip this frame rather than block the tick.
	}
}

func (c *Client) reader(h *Hub) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()
	for {
		// The stream is one-way; reads only detect disconnects.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writer() {
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// handleStream upgrades the connection and registers it with the hub.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &Client{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan []byte, 128),
	}
	s.Hub.register <- c
	go c.writer()
	go c.reader(s.Hub)

	slog.Debug("stream client connected", "id", c.id)

	// Prime the new client with the current state so it does not wait a
	// full tick for the first frame.
	if data, err := json.Marshal(s.tickPayload()); err == nil {
		c.send <- data
	}
}
