package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/go-redis/redis/v8"
)

const (
	ChannelNotifications = "notifications"
)

// Event types pushed to connected clients.
const (
	EventPaymentConfirmed = "payment_confirmed"
	EventNotification     = "notification"
)

// Event is one user-facing notification event.
type Event struct {
	Type           string `json:"type"`
	UserID         int64  `json:"user_id"`
	NotificationID int64  `json:"notification_id,omitempty"`
	Message        string `json:"message"`
	CreatedAt      string `json:"created_at,omitempty"`
}

// Publisher publishes notification events to redis.
type Publisher struct {
	client *redis.Client
}

func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

func (p *Publisher) Publish(ctx context.Context, event *Event) error {
	if event.Type == "" {
		event.Type = EventNotification
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	return p.client.Publish(ctx, ChannelNotifications, data).Err()
}

// Subscriber consumes notification events, typically to feed the ws hub.
type Subscriber struct {
	client *redis.Client
}

func NewSubscriber(client *redis.Client) *Subscriber {
	return &Subscriber{client: client}
}

// Run blocks delivering events to handler until ctx is cancelled.
func (s *Subscriber) Run(ctx context.Context, handler func(*Event)) error {
	sub := s.client.Subscribe(ctx, ChannelNotifications)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Printf("pubsub: dropping malformed event: %v", err)
				continue
			}
			handler(&event)
		}
	}
}
