package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/turnstake/backend/internal/game"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // origin policy enforced by the CORS layer
	},
}

// Client is one player's WebSocket connection.
type Client struct {
	conn     *websocket.Conn
	playerID string
	send     chan []byte
}

func newClient(conn *websocket.Conn, playerID string) *Client {
	return &Client{conn: conn, playerID: playerID, send: make(chan []byte, sendBuffer)}
}

// Hub tracks the active connection per player. A new connection for a player
// replaces the old one; the replaced socket is closed.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	old, replaced := h.clients[c.playerID]
	h.clients[c.playerID] = c
	h.mu.Unlock()

	if replaced {
		close(old.send)
		log.Printf("[WS] %s reconnected; previous socket replaced", c.playerID)
	} else {
		log.Printf("[WS] %s connected", c.playerID)
	}
}

// remove drops the client and reports whether it was still the player's
// active connection. A false return means a newer socket replaced it and the
// player never really left.
func (h *Hub) remove(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.playerID] != c {
		return false
	}
	delete(h.clients, c.playerID)
	close(c.send)
	log.Printf("[WS] %s disconnected", c.playerID)
	return true
}

// IsConnected reports whether the player has an active socket here.
func (h *Hub) IsConnected(playerID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[playerID]
	return ok
}

// SendToUser delivers raw bytes to a player's socket, dropping the message
// if the buffer is full or the player is offline.
func (h *Hub) SendToUser(playerID string, data []byte) {
	h.mu.RLock()
	client, ok := h.clients[playerID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	select {
	case client.send <- data:
	default:
		log.Printf("[WS] send buffer full for %s, dropping message", playerID)
	}
}

// Notify implements game.Notifier for single-instance deployments where the
// manager talks to the hub directly instead of through Redis.
func (h *Hub) Notify(playerID string, e game.Event) {
	data, err := json.Marshal(e)
	if err != nil {
		log.Printf("[WS] marshal event for %s: %v", playerID, err)
		return
	}
	h.SendToUser(playerID, data)
}

// writePump drains the send channel onto the socket and keeps the
// connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Replaced or cleaned up; best-effort close frame.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[WS] write error for %s: %v", c.playerID, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
