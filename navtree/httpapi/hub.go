package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/arthur-debert/navtree/navtree"
)

// MsgSubscribed is the first message a websocket client receives
const MsgSubscribed = "subscribed"

// Hello acknowledges a subscription
type Hello struct {
	Type   string `json:"type"`
	TreeID string `json:"tree_id"`
}

// Hub fans committed tree events out to the websocket clients watching
// the tree. It implements navtree.Notifier.
type Hub struct {
	clients    map[string]map[*Client]bool // treeID -> clients
	register   chan *Client
	unregister chan *Client
	broadcast  chan navtree.Event
	done       chan struct{}
	logger     *slog.Logger
}

// NewHub returns a hub; Run must be started before clients connect
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan navtree.Event, 256),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Publish queues ev for delivery. It never blocks: when the queue is full
// the event is dropped.
func (h *Hub) Publish(ev navtree.Event) {
	select {
	case h.broadcast <- ev:
	default:
		h.logger.Warn("hub queue full, dropping event", "type", ev.Type, "tree_id", ev.TreeID)
	}
}

// Run serves registrations and broadcasts until ctx is done, then closes
// every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			for _, room := range h.clients {
				for c := range room {
					close(c.send)
				}
			}
			h.clients = make(map[string]map[*Client]bool)
			return

		case c := <-h.register:
			room, ok := h.clients[c.treeID]
			if !ok {
				room = make(map[*Client]bool)
				h.clients[c.treeID] = room
			}
			room[c] = true
			h.logger.Debug("client subscribed", "tree_id", c.treeID, "user", c.userID)
			msg, _ := json.Marshal(Hello{Type: MsgSubscribed, TreeID: c.treeID})
			h.deliver(c, msg)

		case c := <-h.unregister:
			if room, ok := h.clients[c.treeID]; ok && room[c] {
				delete(room, c)
				close(c.send)
				if len(room) == 0 {
					delete(h.clients, c.treeID)
				}
				h.logger.Debug("client left", "tree_id", c.treeID, "user", c.userID)
			}

		case ev := <-h.broadcast:
			msg, err := json.Marshal(ev)
			if err != nil {
				h.logger.Error("encoding event", "error", err)
				continue
			}
			if ev.TreeID == "" {
				for _, room := range h.clients {
					h.deliverAll(room, msg)
				}
				continue
			}
			h.deliverAll(h.clients[ev.TreeID], msg)
		}
	}
}

// join and leave give up once Run has returned
func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) deliverAll(room map[*Client]bool, msg []byte) {
	for c := range room {
		h.deliver(c, msg)
	}
}

// deliver drops clients whose send buffer is full
func (h *Hub) deliver(c *Client, msg []byte) {
	select {
	case c.send <- msg:
	default:
		h.logger.Warn("slow client dropped", "tree_id", c.treeID, "user", c.userID)
		room := h.clients[c.treeID]
		delete(room, c)
		close(c.send)
		if len(room) == 0 {
			delete(h.clients, c.treeID)
		}
	}
}
