// Package bus is the real-time notification channel. Events are
// published to named channels, one per role ("gymowner-room",
// "staff-room"); connected clients subscribe after authenticating.
// The broker is Redis pub/sub when configured, otherwise an
// in-process fallback.
package bus

import (
	"context"
	"encoding/json"
	"time"

	"gym-service/pkg/config"

	"github.com/redis/go-redis/v9"
)

// Message is one delivered bus message.
type Message struct {
	Channel string
	Payload []byte
}

// Subscription is a live set of channel memberships.
type Subscription interface {
	// Messages yields messages until the subscription is closed.
	Messages() <-chan Message
	Close() error
}

// Broker moves messages between publishers and subscribers.
type Broker interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channels ...string) (Subscription, error)
	Close() error
}

// Event is the wire shape of a published bus event.
type Event struct {
	Event     string      `json:"event"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

var broker Broker

// Init selects and connects the broker. An empty Redis address selects
// the in-process broker.
func Init(cfg *config.Config) error {
	if cfg.Redis.Addr == "" {
		broker = NewMemoryBroker()
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return err
	}

	broker = &redisBroker{client: client}
	return nil
}

// GetBroker returns the active broker.
func GetBroker() Broker {
	if broker == nil {
		broker = NewMemoryBroker()
	}
	return broker
}

// SetBroker replaces the active broker. Used by tests.
func SetBroker(b Broker) {
	broker = b
}

// RoleChannel returns the channel name all users of a role share.
func RoleChannel(role string) string {
	return role + "-room"
}

// Publish emits an event on one channel. Delivery is best-effort.
func Publish(ctx context.Context, channel, event string, data interface{}) error {
	payload, err := json.Marshal(Event{
		Event:     event,
		Data:      data,
		Timestamp: time.Now(),
	})
	if err != nil {
		return err
	}
	return GetBroker().Publish(ctx, channel, payload)
}

// PublishToRoles emits the same event on each role's channel.
func PublishToRoles(ctx context.Context, roles []string, event string, data interface{}) error {
	var firstErr error
	for _, role := range roles {
		if err := Publish(ctx, RoleChannel(role), event, data); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
