// Package notifications publishes user-facing progression events over Redis
// pub/sub.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/Cerega32/Bucket-List/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// Event types.
const (
	EventLevelUp            = "level_up"
	EventAchievementGranted = "achievement_granted"
	EventListCompleted      = "list_completed"
)

// Event is a notification addressed to one user.
type Event struct {
	Type      string         `json:"type"`
	UserID    uint           `json:"user_id"`
	Data      map[string]any `json:"data,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Notifier provides helpers to publish notifications into Redis channels.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a Notifier. A nil client makes every publish a no-op.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// UserChannel is the channel carrying events for userID.
func UserChannel(userID uint) string {
	return fmt.Sprintf("notifications:user:%d", userID)
}

// Publish sends e to its user's channel.
func (n *Notifier) Publish(ctx context.Context, e Event) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return n.rdb.Publish(ctx, UserChannel(e.UserID), payload).Err()
}

// PublishAll publishes events in order, logging failures instead of
// returning them. It runs after a transaction has committed, when there is
// nothing left to roll back.
func (n *Notifier) PublishAll(ctx context.Context, events []Event) {
	for _, e := range events {
		if err := n.Publish(ctx, e); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to publish notification",
				slog.String("type", e.Type),
				slog.Uint64("user_id", uint64(e.UserID)),
				slog.String("error", err.Error()),
			)
		}
	}
}

// StartPatternSubscriber delivers every user event to onEvent until ctx is
// done. Malformed payloads are skipped.
func (n *Notifier) StartPatternSubscriber(ctx context.Context, onEvent func(Event)) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, "notifications:user:*")
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe notifications: %w", err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var e Event
				if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
					continue
				}
				if e.UserID == 0 {
					e.UserID = userIDFromChannel(msg.Channel)
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in notification subscriber",
								slog.Any("panic", r),
								slog.String("stack", string(debug.Stack())),
							)
						}
					}()
					onEvent(e)
				}()
			}
		}
	}()

	return nil
}

func userIDFromChannel(channel string) uint {
	idx := strings.LastIndexByte(channel, ':')
	if idx < 0 {
		return 0
	}
	id, err := strconv.ParseUint(channel[idx+1:], 10, 32)
	if err != nil {
		return 0
	}
	return uint(id)
}
