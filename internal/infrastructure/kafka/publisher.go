// Package kafka mirrors fulfillment events to a Kafka topic for consumers outside the process.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	domoutbox "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/outbox"
	"github.com/segmentio/kafka-go"
)

// Envelope is the message value written for every event.
type Envelope struct {
	Event      string          `json:"event"`
	Key        string          `json:"key"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Publisher writes events to one topic keyed by order id, so every event of an order lands on
// the same partition in publish order.
type Publisher struct {
	writer *kafka.Writer
	now    func() time.Time
}

func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			WriteTimeout: 5 * time.Second,
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (p *Publisher) Publish(ctx context.Context, e domoutbox.Event) error {
	msg, err := p.message(e)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: write %s: %w", e.EventName(), err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

func (p *Publisher) message(e domoutbox.Event) (kafka.Message, error) {
	env, err := NewEnvelope(e, p.now())
	if err != nil {
		return kafka.Message{}, err
	}
	value, err := json.Marshal(env)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("kafka: encode %s: %w", e.EventName(), err)
	}
	return kafka.Message{
		Key:     []byte(env.Key),
		Value:   value,
		Time:    env.OccurredAt,
		Headers: []kafka.Header{{Key: "event", Value: []byte(env.Event)}},
	}, nil
}

// NewEnvelope wraps an event. The key is the event's OrderID, falling back to its CartID and
// then to the event name.
func NewEnvelope(e domoutbox.Event, now time.Time) (Envelope, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return Envelope{}, fmt.Errorf("kafka: encode %s: %w", e.EventName(), err)
	}
	var ids struct {
		OrderID string
		CartID  string
	}
	_ = json.Unmarshal(payload, &ids)

	key := ids.OrderID
	if key == "" {
		key = ids.CartID
	}
	if key == "" {
		key = e.EventName()
	}
	return Envelope{Event: e.EventName(), Key: key, Payload: payload, OccurredAt: now}, nil
}
