package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/Cerega32/Bucket-List/internal/middleware"
	"github.com/Cerega32/Bucket-List/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	maxConnsPerUser = 8
	maxTotalConns   = 10000
)

var (
	ErrUserConnLimit   = errors.New("user connection limit reached")
	ErrServerConnLimit = errors.New("server connection limit reached")
)

// Hub maps users to their open notification sockets and fans published
// events out to them.
type Hub struct {
	mu    sync.RWMutex
	conns map[uint]map[*Client]struct{}
	total int
}

func NewHub() *Hub {
	return &Hub{conns: make(map[uint]map[*Client]struct{})}
}

// Register adds a connection for userID.
func (h *Hub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.total >= maxTotalConns {
		return nil, ErrServerConnLimit
	}
	set, ok := h.conns[userID]
	if !ok {
		set = make(map[*Client]struct{})
		h.conns[userID] = set
	}
	if len(set) >= maxConnsPerUser {
		return nil, ErrUserConnLimit
	}

	client := newClient(h, conn, userID)
	set[client] = struct{}{}
	h.total++
	observability.ActiveWebSockets.Inc()
	return client, nil
}

// Unregister removes client and closes its send queue. Calling it twice is
// safe.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	if set, ok := h.conns[client.UserID]; ok {
		if _, exists := set[client]; exists {
			delete(set, client)
			h.total--
			observability.ActiveWebSockets.Dec()
		}
		if len(set) == 0 {
			delete(h.conns, client.UserID)
		}
	}
	h.mu.Unlock()
	client.close()
}

// Connections returns the number of open sockets of userID.
func (h *Hub) Connections(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}

// Deliver queues e on every socket of its user and reports how many
// sockets accepted it.
func (h *Hub) Deliver(e Event) int {
	payload, err := json.Marshal(e)
	if err != nil {
		middleware.Logger.Warn("failed to encode notification", slog.String("error", err.Error()))
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := 0
	for c := range h.conns[e.UserID] {
		if c.Queue(payload) {
			delivered++
		}
	}
	if delivered > 0 {
		observability.NotificationsDelivered.WithLabelValues(e.Type).Add(float64(delivered))
	}
	return delivered
}

// Wire subscribes to every user channel of n and delivers the events to
// local sockets until ctx is done.
func (h *Hub) Wire(ctx context.Context, n *Notifier) error {
	return n.StartPatternSubscriber(ctx, func(e Event) { h.Deliver(e) })
}

// Shutdown closes every send queue, which makes the write pumps send a
// close frame and exit.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	clients := make([]*Client, 0, h.total)
	for _, set := range h.conns {
		for c := range set {
			clients = append(clients, c)
		}
	}
	h.conns = make(map[uint]map[*Client]struct{})
	observability.ActiveWebSockets.Sub(float64(h.total))
	h.total = 0
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}
