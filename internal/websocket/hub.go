package websocket

import (
	"log/slog"
	"sync"

	"github.com/sajmeister/aaplat/internal/types"
)

// Hub tracks one dashboard connection per user and delivers agent
// lifecycle events to it. Events for users without an open dashboard
// are dropped; the dashboard reloads its state on connect anyway.
type Hub struct {
	// dashboards maps user ID to the active connection
	dashboards map[string]*Client

	register   chan *Client
	unregister chan *Client
	deliveries chan delivery

	mu sync.RWMutex
}

// delivery is one event addressed to one user's dashboard
type delivery struct {
	userID string
	event  *types.Event
}

// NewHub creates a hub; call Run in its own goroutine before use
func NewHub() *Hub {
	return &Hub{
		dashboards: make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliveries: make(chan delivery, 64),
	}
}

// Run is the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			// A user opening a second dashboard replaces the first
			if existing, ok := h.dashboards[client.userID]; ok {
				existing.closeSend()
				slog.Info("Replaced existing dashboard connection", slog.String("user_id", client.userID))
			}
			h.dashboards[client.userID] = client
			h.mu.Unlock()
			slog.Info("Dashboard connected", slog.String("user_id", client.userID))

		case client := <-h.unregister:
			h.mu.Lock()
			// Only the connection that owns the map entry may remove it;
			// a replaced connection's read pump still unregisters on its
			// way out and must not evict its replacement
			if current, ok := h.dashboards[client.userID]; ok && current == client {
				delete(h.dashboards, client.userID)
				slog.Info("Dashboard disconnected", slog.String("user_id", client.userID))
			}
			h.mu.Unlock()
			client.closeSend()

		case d := <-h.deliveries:
			h.deliver(d)
		}
	}
}

// RegisterClient hands a freshly upgraded connection to the hub
func (h *Hub) RegisterClient(client *Client) {
	h.register <- client
}

// UnregisterClient removes a connection from the hub
func (h *Hub) UnregisterClient(client *Client) {
	h.unregister <- client
}

// BroadcastToUser queues an event for the user's dashboard. Delivery is
// best effort; a full queue drops the event rather than blocking the
// request path.
func (h *Hub) BroadcastToUser(userID string, event *types.Event) {
	select {
	case h.deliveries <- delivery{userID: userID, event: event}:
	default:
		slog.Warn("Event queue is full, dropping event",
			slog.String("user_id", userID), slog.String("type", string(event.Type)))
	}
}

func (h *Hub) deliver(d delivery) {
	h.mu.RLock()
	client, ok := h.dashboards[d.userID]
	h.mu.RUnlock()

	if !ok {
		return
	}

	if err := client.SendEvent(d.event); err != nil {
		slog.Error("Failed to deliver event to dashboard",
			slog.String("user_id", d.userID),
			slog.String("error", err.Error()))
		// Drop the dead connection off the request goroutine
		go func() {
			h.unregister <- client
		}()
	}
}

// IsUserConnected reports whether the user has an open dashboard
func (h *Hub) IsUserConnected(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, ok := h.dashboards[userID]
	return ok
}

// ClientCount returns the number of open dashboards
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.dashboards)
}
