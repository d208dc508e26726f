package notifications

import (
	"log/slog"
	"sync"
	"time"

	"github.com/Cerega32/Bucket-List/internal/middleware"
	"github.com/Cerega32/Bucket-List/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
	sendBuffer     = 64
)

// Client is one websocket connection of a user. Frames queued on Send are
// written by WritePump.
type Client struct {
	Conn   *websocket.Conn
	Send   chan []byte
	UserID uint

	hub       *Hub
	closeOnce sync.Once
}

func newClient(hub *Hub, conn *websocket.Conn, userID uint) *Client {
	return &Client{
		Conn:   conn,
		Send:   make(chan []byte, sendBuffer),
		UserID: userID,
		hub:    hub,
	}
}

// ReadPump consumes control frames until the peer goes away. The socket is
// push-only, so data frames from the client are discarded.
func (c *Client) ReadPump() {
	defer c.hub.Unregister(c)

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				middleware.Logger.Warn("notification socket read failed",
					slog.Uint64("user_id", uint64(c.UserID)),
					slog.String("error", err.Error()),
				)
			}
			return
		}
	}
}

// WritePump writes queued frames and keepalive pings. It returns when Send
// is closed or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

// Queue adds message to the send queue without blocking. A full buffer
// drops the frame and reports false.
func (c *Client) Queue(message []byte) bool {
	select {
	case c.Send <- message:
		return true
	default:
		observability.WebSocketBackpressureDrops.Inc()
		return false
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.Send) })
}
