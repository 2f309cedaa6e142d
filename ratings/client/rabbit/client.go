package rabbit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/glbter/stock-ratings/store"
)

const (
	STATE_CHANGED_QUEUE = "ratings_state_changed"
)

// Publisher is the part of *amqp.Channel the publisher needs.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type StateChange struct {
	Store    string `json:"store"`
	Snapshot any    `json:"snapshot"`
}

func NewStateChangePublisher(channel Publisher) *StateChangePublisher {
	return &StateChangePublisher{
		channel: channel,
	}
}

// StateChangePublisher sends every store snapshot to STATE_CHANGED_QUEUE so a
// separate presentation process can re-render.
type StateChangePublisher struct {
	channel Publisher
}

var _ store.Notifier = (*StateChangePublisher)(nil)

func (c *StateChangePublisher) Notify(ctx context.Context, storeName string, snapshot any) error {
	body, err := json.Marshal(StateChange{Store: storeName, Snapshot: snapshot})
	if err != nil {
		return fmt.Errorf("marshal state change: %w", err)
	}

	return c.channel.PublishWithContext(ctx,
		"",                  // exchange
		STATE_CHANGED_QUEUE, // routing key
		false,               // mandatory
		false,               // immediate
		amqp.Publishing{
			ContentType:   "application/json",
			CorrelationId: uuid.New().String(),
			Type:          storeName,
			Body:          body,
			Priority:      c.storePriority(storeName),
		})
}

func (c *StateChangePublisher) storePriority(storeName string) uint8 {
	if storeName == store.RecommendationStoreName {
		return 3
	}

	return 1
}

// DeclareQueue declares STATE_CHANGED_QUEUE on ch.
func DeclareQueue(ch *amqp.Channel) error {
	if _, err := ch.QueueDeclare(
		STATE_CHANGED_QUEUE, // name
		false,               // durable
		false,               // delete when unused
		false,               // exclusive
		false,               // noWait
		nil,                 // arguments
	); err != nil {
		return fmt.Errorf("declare a queue for state changes: %w", err)
	}

	return nil
}
