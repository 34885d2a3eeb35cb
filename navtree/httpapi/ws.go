package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one websocket subscriber of a tree
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	treeID string
	userID string
}

// serveWs subscribes the caller to the changes of a tree. Browsers cannot
// set headers on websocket requests, so the token comes as auth_token.
func (s *Server) serveWs(w http.ResponseWriter, r *http.Request) {
	treeID := chi.URLParam(r, "treeID")
	token := r.URL.Query().Get("auth_token")
	if token == "" {
		writeError(w, http.StatusUnauthorized, "Missing auth_token query parameter")
		return
	}
	user, err := s.authn.Validate(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid token")
		return
	}
	if _, err := s.svc.GetTree(r.Context(), treeID); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	c := &Client{
		hub:    s.hub,
		conn:   conn,
		send:   make(chan []byte, 256),
		treeID: treeID,
		userID: user.ID,
	}
	if !s.hub.join(c) {
		conn.Close()
		return
	}

	go c.WritePump()
	go c.ReadPump()
}

// ReadPump discards incoming messages; it only keeps the connection alive
// and notices when the peer goes away.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug("websocket closed", "tree_id", c.treeID, "error", err)
			}
			return
		}
	}
}

// WritePump writes queued messages and pings until send is closed
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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
