// Package notify fans stored notifications out to live subscribers over redis pub/sub.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sangwon4052/sangwon-sign-off/internal/config"
	"github.com/sangwon4052/sangwon-sign-off/internal/models"
	"github.com/sangwon4052/sangwon-sign-off/pkg/logger"
)

// Notifier publishes notifications into per-user redis channels. A Notifier
// without a client is a no-op.
type Notifier struct {
	rdb *redis.Client
}

func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// Connect dials redis and verifies the connection. An empty address yields a nil client.
func Connect(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// Enabled reports whether messages actually leave the process.
func (n *Notifier) Enabled() bool {
	return n != nil && n.rdb != nil
}

func (n *Notifier) PublishNotification(ctx context.Context, notification *models.Notification) error {
	if !n.Enabled() || notification == nil {
		return nil
	}
	payload, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	return n.rdb.Publish(ctx, UserChannel(notification.UserID), string(payload)).Err()
}

// Subscribe delivers notifications addressed to userID until ctx is done.
// It returns once the subscription is active.
func (n *Notifier) Subscribe(ctx context.Context, userID uuid.UUID, onMessage func(models.Notification)) error {
	if !n.Enabled() {
		return nil
	}
	sub := n.rdb.Subscribe(ctx, UserChannel(userID))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe: %w", err)
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
				var notification models.Notification
				if err := json.Unmarshal([]byte(msg.Payload), &notification); err != nil {
					logger.Warn("notification_decode_failed", map[string]interface{}{
						"channel": msg.Channel,
						"error":   err.Error(),
					})
					continue
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							logger.Error("notification_subscriber_panic", fmt.Errorf("%v", r), map[string]interface{}{
								"stack": string(debug.Stack()),
							})
						}
					}()
					onMessage(notification)
				}()
			}
		}
	}()

	return nil
}

// UserChannel derives the redis channel name for a user.
func UserChannel(userID uuid.UUID) string {
	return "notifications:user:" + userID.String()
}
