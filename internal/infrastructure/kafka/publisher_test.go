package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/booking"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bare struct{}

func (bare) EventName() string { return "bare.event" }

func TestEnvelopeKeyedByOrder(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	env, err := NewEnvelope(payment.CompletedEvent{OrderID: "o-1", PaymentID: "p-1"}, now)
	require.NoError(t, err)

	assert.Equal(t, "payment.completed", env.Event)
	assert.Equal(t, "o-1", env.Key)
	assert.Equal(t, now, env.OccurredAt)

	var payload payment.CompletedEvent
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, "p-1", payload.PaymentID)
}

func TestEnvelopeKeyFallbacks(t *testing.T) {
	env, err := NewEnvelope(booking.AssemblyFailedEvent{CartID: "c-1", Reason: "stock"}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "c-1", env.Key)

	env, err = NewEnvelope(bare{}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "bare.event", env.Key)
}

func TestPublisherMessage(t *testing.T) {
	p := NewPublisher([]string{"localhost:9092"}, "fulfillment.events")
	fixed := time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	msg, err := p.message(payment.CreatedEvent{OrderID: "o-9", PaymentID: "p-9", TotalPayment: decimal.NewFromInt(12)})
	require.NoError(t, err)
	assert.Equal(t, "o-9", string(msg.Key))
	assert.Equal(t, fixed, msg.Time)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "payment.created", string(msg.Headers[0].Value))

	var env Envelope
	require.NoError(t, json.Unmarshal(msg.Value, &env))
	assert.Equal(t, "payment.created", env.Event)
	assert.Equal(t, fixed, env.OccurredAt)
	require.NoError(t, p.Close())
}
