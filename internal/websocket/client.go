package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sajmeister/aaplat/internal/types"
)

const (
	// Time allowed to write an event to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong from the peer
	pongWait = 60 * time.Second

	// Ping interval; must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Dashboards never send payloads, only control frames
	maxMessageSize = 512

	// Outbound event queue per connection
	sendQueueSize = 32
)

// Client is one user's dashboard connection. Traffic is one-way: the
// server pushes events, the dashboard only answers pings.
type Client struct {
	conn   *websocket.Conn
	send   chan []byte
	userID string
	hub    *Hub

	// mu guards closed; the send queue may be closed by the hub on
	// replacement, by unregister, or by an overflowing SendEvent
	mu     sync.Mutex
	closed bool
}

func NewClient(conn *websocket.Conn, userID string, hub *Hub) *Client {
	return &Client{
		conn:   conn,
		send:   make(chan []byte, sendQueueSize),
		userID: userID,
		hub:    hub,
	}
}

// readPump drains the connection to process control frames and detect
// disconnects. Any data frame from the dashboard is ignored.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("Dashboard connection error", slog.String("error", err.Error()))
			}
			return
		}
	}
}

// writePump writes queued events and keepalive pings to the connection
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
				// The hub closed this connection
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

// SendEvent queues an event for this dashboard. A connection that
// cannot keep up is closed instead of backing up the hub.
func (c *Client) SendEvent(event *types.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return websocket.ErrCloseSent
	}

	select {
	case c.send <- data:
		return nil
	default:
		c.closed = true
		close(c.send)
		return websocket.ErrCloseSent
	}
}

// closeSend closes the outbound queue exactly once; later calls are
// no-ops
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// Start launches the read and write pumps
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

// UserID returns the user this connection belongs to
func (c *Client) UserID() string {
	return c.userID
}
