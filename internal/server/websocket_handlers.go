package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/Cerega32/Bucket-List/internal/middleware"
	"github.com/Cerega32/Bucket-List/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// wsTicketTTL bounds the time between issuing a ticket and opening the socket.
const wsTicketTTL = 30 * time.Second

func wsTicketKey(ticket string) string {
	return fmt.Sprintf("ws_ticket:%s", ticket)
}

// IssueWSTicket handles POST /api/ws/ticket. Browsers cannot attach an
// Authorization header to a websocket handshake, so the socket is opened
// with a short-lived single-use ticket instead.
func (s *Server) IssueWSTicket(c *fiber.Ctx) error {
	if s.redis == nil {
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			&models.AppError{Code: models.CodeInternal, Message: "Realtime notifications are unavailable"})
	}
	ticket := uuid.NewString()
	if err := s.redis.Set(c.UserContext(), wsTicketKey(ticket), currentUserID(c), wsTicketTTL).Err(); err != nil {
		return models.Respond(c, models.NewInternalError(err))
	}
	return c.JSON(fiber.Map{
		"ticket":     ticket,
		"expires_in": int(wsTicketTTL / time.Second),
	})
}

// TicketRequired authenticates a websocket handshake by consuming the
// ?ticket= query parameter.
func (s *Server) TicketRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ticket := c.Query("ticket")
		if ticket == "" || s.redis == nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("WebSocket ticket required"))
		}
		raw, err := s.redis.GetDel(c.UserContext(), wsTicketKey(ticket)).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return models.Respond(c, models.NewInternalError(err))
		}
		userID, perr := strconv.ParseUint(raw, 10, 32)
		if err != nil || perr != nil || userID == 0 {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired WebSocket ticket"))
		}
		setCaller(c, uint(userID))
		return c.Next()
	}
}

// NotificationsSocket handles GET /api/ws/notifications. Every progression
// event published for the caller is pushed as a JSON text frame.
func (s *Server) NotificationsSocket() fiber.Handler {
	upgrade := websocket.New(func(conn *websocket.Conn) {
		userID, _ := conn.Locals("userID").(uint)
		client, err := s.hub.Register(userID, conn)
		if err != nil {
			middleware.Logger.Warn("notification socket rejected",
				slog.Uint64("user_id", uint64(userID)),
				slog.String("error", err.Error()),
			)
			_ = conn.WriteJSON(fiber.Map{"type": "error", "error": err.Error()})
			_ = conn.Close()
			return
		}
		client.Queue([]byte(`{"type":"connected"}`))

		go client.WritePump()
		client.ReadPump()
	})

	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return models.RespondWithError(c, fiber.StatusUpgradeRequired,
				models.NewValidationError("WebSocket upgrade required"))
		}
		return upgrade(c)
	}
}

// StartNotifications subscribes the socket hub to published events until
// ctx is done. Without Redis there is nothing to subscribe to.
func (s *Server) StartNotifications(ctx context.Context) error {
	return s.hub.Wire(ctx, s.notifier)
}
