package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"warbler/internal/cache"
	"warbler/internal/middleware"
	"warbler/internal/models"

	"github.com/redis/go-redis/v9"
)

// FeedEvent is the JSON document pushed to feed sockets.
type FeedEvent struct {
	Type    string      `json:"type"`
	Payload FeedMessage `json:"payload"`
}

// FeedMessage describes a newly posted message.
type FeedMessage struct {
	ID        uint      `json:"id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	UserID    uint      `json:"user_id"`
	Username  string    `json:"username,omitempty"`
}

// Notifier publishes feed events. With Redis every recipient's channel gets
// the event so that any server instance holding the socket can deliver it;
// without Redis events go straight to the local hub.
type Notifier struct {
	rdb *redis.Client
	hub *Hub
}

// NewNotifier returns a Notifier. rdb may be nil.
func NewNotifier(rdb *redis.Client, hub *Hub) *Notifier {
	return &Notifier{rdb: rdb, hub: hub}
}

// Publish announces msg to recipients.
func (n *Notifier) Publish(ctx context.Context, recipients []uint, msg *models.Message) error {
	payload, err := json.Marshal(FeedEvent{
		Type: "message",
		Payload: FeedMessage{
			ID:        msg.ID,
			Text:      msg.Text,
			Timestamp: msg.Timestamp,
			UserID:    msg.UserID,
			Username:  msg.User.Username,
		},
	})
	if err != nil {
		return fmt.Errorf("marshal feed event: %w", err)
	}

	if n.rdb == nil {
		for _, id := range recipients {
			n.hub.Deliver(id, payload)
		}
		return nil
	}

	pipe := n.rdb.Pipeline()
	for _, id := range recipients {
		pipe.Publish(ctx, cache.FeedChannel(id), payload)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// Start subscribes to every feed channel and forwards events to the hub
// until ctx is cancelled. It does nothing without Redis.
func (n *Notifier) Start(ctx context.Context) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, cache.FeedChannelPattern)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe feed: %w", err)
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
				n.dispatch(msg.Channel, msg.Payload)
			}
		}
	}()
	return nil
}

func (n *Notifier) dispatch(channel, payload string) {
	defer func() {
		if r := recover(); r != nil {
			middleware.Logger.Error("panic in feed subscriber",
				slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
		}
	}()

	var userID uint
	if _, err := fmt.Sscanf(channel, "feed:user:%d", &userID); err != nil {
		middleware.Logger.Warn("invalid feed channel", slog.String("channel", channel))
		return
	}
	n.hub.Deliver(userID, []byte(payload))
}
