package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ikkim/orders-backend/pkg/logger"
)

const sendBufferSize = 64

// Event is the JSON frame pushed to clients.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Client is one websocket session of a user.
type Client struct {
	Hub    *Hub
	Conn   *Conn
	UserID uint
	Send   chan []byte
}

type delivery struct {
	userID  uint
	message []byte
}

// Hub tracks connected clients per user and fans events out to all sessions
// of the addressed user.
type Hub struct {
	clients map[uint][]*Client

	register   chan *Client
	unregister chan *Client
	deliver    chan delivery

	// done is closed when Run returns; stopped is guarded by stopMu.
	done    chan struct{}
	stopMu  sync.RWMutex
	stopped bool

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uint][]*Client),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		deliver:    make(chan delivery, 1024),
		done:       make(chan struct{}),
	}
}

func NewClient(hub *Hub, conn *Conn, userID uint) *Client {
	return &Client{Hub: hub, Conn: conn, UserID: userID, Send: make(chan []byte, sendBufferSize)}
}

// Run serves the hub until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			sessions := len(h.clients[client.UserID])
			h.mu.Unlock()
			logger.Info("WebSocket client registered", map[string]interface{}{
				"user_id":        client.UserID,
				"total_sessions": sessions,
			})

		case client := <-h.unregister:
			h.remove(client)

		case d := <-h.deliver:
			h.mu.RLock()
			targets := append([]*Client(nil), h.clients[d.userID]...)
			h.mu.RUnlock()

			for _, client := range targets {
				select {
				case client.Send <- d.message:
				default:
					logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
						"user_id": d.userID,
					})
					h.remove(client)
				}
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	list, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	kept := make([]*Client, 0, len(list))
	found := false
	for _, c := range list {
		if c == client {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if !found {
		return
	}
	if len(kept) == 0 {
		delete(h.clients, client.UserID)
	} else {
		h.clients[client.UserID] = kept
	}
	close(client.Send)

	logger.Info("WebSocket client unregistered", map[string]interface{}{
		"user_id":            client.UserID,
		"remaining_sessions": len(kept),
	})
}

// shutdown releases blocked Register calls, then closes queued and
// connected clients.
func (h *Hub) shutdown() {
	close(h.done)

	h.stopMu.Lock()
	h.stopped = true
	h.stopMu.Unlock()

	for {
		select {
		case client := <-h.register:
			close(client.Send)
		default:
			h.closeAll()
			return
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, list := range h.clients {
		for _, c := range list {
			close(c.Send)
		}
		delete(h.clients, userID)
	}
	logger.Info("WebSocket hub stopped", nil)
}

// SendToUser queues an event for every session of userID. Events for users
// without a session, or beyond the queue capacity, are dropped.
func (h *Hub) SendToUser(userID uint, eventType string, payload interface{}) {
	data, err := json.Marshal(Event{Type: eventType, Data: payload})
	if err != nil {
		logger.Error("Failed to marshal websocket event", err, map[string]interface{}{
			"type": eventType,
		})
		return
	}
	if !h.IsUserOnline(userID) {
		return
	}

	select {
	case h.deliver <- delivery{userID: userID, message: data}:
	default:
		logger.Warn("Delivery queue full, event dropped", map[string]interface{}{
			"user_id": userID,
			"type":    eventType,
		})
	}
}

// Register adds client to the hub. Once the hub has stopped the client's Send
// channel is closed instead, so its write pump exits.
func (h *Hub) Register(client *Client) {
	h.stopMu.RLock()
	defer h.stopMu.RUnlock()
	if h.stopped {
		close(client.Send)
		return
	}
	select {
	case h.register <- client:
	case <-h.done:
		close(client.Send)
	}
}

// Unregister is a no-op after the hub has stopped.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) IsUserOnline(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}
