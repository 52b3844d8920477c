package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Dias221467/teachmate/internal/push"
	"github.com/Dias221467/teachmate/pkg/logger"
	"github.com/Dias221467/teachmate/pkg/middleware"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	// Events buffered per connection before new ones are dropped.
	sendBuffer = 64
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type pushClient struct {
	hub    *Hub
	userID string
	conn   *websocket.Conn
	send   chan push.Event
}

// Hub fans push events out to every open socket of each addressed user.
type Hub struct {
	mu      sync.Mutex
	clients map[string]map[*pushClient]bool
}

func NewHub() *Hub {
	return &Hub{clients: map[string]map[*pushClient]bool{}}
}

// Publish queues ev for every connection of the listed users. Slow
// connections lose events rather than block the caller; clients still poll.
func (h *Hub) Publish(userIDs []string, ev push.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	seen := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		for c := range h.clients[id] {
			select {
			case c.send <- ev:
			default:
				logger.Log.WithField("userID", id).Warn("Push buffer full, dropping event")
			}
		}
	}
}

// Connected returns the number of open sockets for userID.
func (h *Hub) Connected(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[userID])
}

func (h *Hub) register(c *pushClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.userID] == nil {
		h.clients[c.userID] = map[*pushClient]bool{}
	}
	h.clients[c.userID][c] = true
}

func (h *Hub) unregister(c *pushClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.userID][c]; ok {
		delete(h.clients[c.userID], c)
		close(c.send)
		if len(h.clients[c.userID]) == 0 {
			delete(h.clients, c.userID)
		}
	}
}

// PushWebSocketHandler upgrades an authenticated request into a push socket.
// The token arrives as ?token= since browsers cannot set headers on upgrades.
func (h *Hub) PushWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		respondFail(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	c := &pushClient{hub: h, userID: claims.UserID, conn: conn, send: make(chan push.Event, sendBuffer)}
	h.register(c)
	logger.Log.WithField("userID", c.userID).Info("WebSocket connected")

	go c.writePump()
	c.readPump()
}

// readPump only watches for the peer going away; clients send nothing.
func (c *pushClient) readPump() {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
		logger.Log.WithField("userID", c.userID).Info("WebSocket disconnected")
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.WithError(err).Debug("WebSocket read error")
			}
			return
		}
	}
}

func (c *pushClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
