package events

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ericogr/pokeduel/internal/constants"
	"github.com/ericogr/pokeduel/internal/logging"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 16
)


// Client is one WebSocket watching a single match.
type Client struct {
	MatchID uint
	UserID  uint
	Conn    *websocket.Conn
	Send    chan []byte
}

func NewClient(matchID, userID uint, conn *websocket.Conn) *Client {
	return &Client{
		MatchID: matchID,
		UserID:  userID,
		Conn:    conn,
		Send:    make(chan []byte, sendBuffer),
	}
}

// Hub fans match events out to the WebSocket clients watching each match.
type Hub struct {
	mu       sync.Mutex
	clients  map[uint]map[*Client]struct{}
	origins  map[string]struct{}
	upgrader websocket.Upgrader
}

// NewHub returns a hub accepting browser upgrades from its own host and
// from allowedOrigins (e.g. "https://app.example.com").
func NewHub(allowedOrigins ...string) *Hub {
	h := &Hub{
		clients: make(map[uint]map[*Client]struct{}),
		origins: make(map[string]struct{}, len(allowedOrigins)),
	}
	for _, o := range allowedOrigins {
		if o = normalizeOrigin(o); o != "" {
			h.origins[o] = struct{}{}
		}
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.CheckOrigin,
	}
	return h
}

// CheckOrigin accepts requests without an Origin header (non-browser
// clients), same-host origins and the configured allow-list.
func (h *Hub) CheckOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	_, ok := h.origins[normalizeOrigin(origin)]
	return ok
}

// Upgrade switches the request to a WebSocket, rejecting foreign origins
// with 403.
func (h *Hub) Upgrade(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	return h.upgrader.Upgrade(w, r, nil)
}

func normalizeOrigin(o string) string {
	return strings.ToLower(strings.TrimRight(strings.TrimSpace(o), "/"))
}

func (h *Hub) AddClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.MatchID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.MatchID] = set
	}
	set[c] = struct{}{}
}

// RemoveClient unregisters c and closes its send channel. Calling it twice
// is safe.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.MatchID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.Send)
	if len(set) == 0 {
		delete(h.clients, c.MatchID)
	}
}

// Watchers returns how many clients follow matchID.
func (h *Hub) Watchers(matchID uint) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[matchID])
}

// Broadcast sends message to every watcher of matchID. Slow clients whose
// buffer is full miss the message instead of blocking the publisher.
func (h *Hub) Broadcast(matchID uint, message []byte) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	sent := 0
	for c := range h.clients[matchID] {
		select {
		case c.Send <- message:
			sent++
		default:
			logging.Warn("dropping event for slow client", nil, logging.Fields{
				constants.LogFieldMatchID: matchID,
				constants.LogFieldUserID:  c.UserID,
			})
		}
	}
	return sent
}

// Handle is a bus handler forwarding MatchEvent payloads to watchers.
func (h *Hub) Handle(_ context.Context, e Event) error {
	me, ok := e.Payload.(MatchEvent)
	if !ok {
		return nil
	}
	b, err := json.Marshal(me)
	if err != nil {
		return err
	}
	h.Broadcast(me.MatchID, b)
	return nil
}

// Serve registers c and pumps messages until the connection closes. It
// blocks, so callers run it on the request goroutine.
func (h *Hub) Serve(c *Client) {
	h.AddClient(c)
	logging.Info("event stream opened", logging.Fields{constants.LogFieldMatchID: c.MatchID, constants.LogFieldUserID: c.UserID})
	go h.write(c)
	h.read(c)
	logging.Info("event stream closed", logging.Fields{constants.LogFieldMatchID: c.MatchID, constants.LogFieldUserID: c.UserID})
}

// read only drains control frames; clients never send commands.
func (h *Hub) read(c *Client) {
	defer func() {
		h.RemoveClient(c)
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(512)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) write(c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logging.Warn("event stream write failed", err, logging.Fields{constants.LogFieldMatchID: c.MatchID})
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
