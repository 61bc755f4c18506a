// Package nats consumes the external pickup, delivery and payment signals published on NATS
// by the courier and payment gateway integrations.
package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/fault"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability/logctx"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const (
	SubjectDeliveryPicked    = "fulfillment.delivery.picked"
	SubjectDeliveryDelivered = "fulfillment.delivery.delivered"
	SubjectDeliveryFailed    = "fulfillment.delivery.failed"
	SubjectPaymentSucceeded  = "fulfillment.payment.succeeded"
	SubjectPaymentFailed     = "fulfillment.payment.failed"

	handleTimeout = 5 * time.Second
)

var errMissingID = errors.New("signal: id is required")

type Delivery interface {
	Picked(ctx context.Context, deliveryID string) error
	Delivered(ctx context.Context, orderID string) error
	Failed(ctx context.Context, orderID string) error
}

type Payment interface {
	Success(ctx context.Context, paymentID string) error
	Failed(ctx context.Context, paymentID string) error
}

// Signal is the message body. Which id is read depends on the subject.
type Signal struct {
	OrderID    string `json:"orderId"`
	DeliveryID string `json:"deliveryId"`
	PaymentID  string `json:"paymentId"`
}

// Reply is sent back when the publisher used request/reply.
type Reply struct {
	OK     bool   `json:"ok"`
	Status string `json:"status,omitempty"`
	Error  string `json:"error,omitempty"`
}

type Subscriber struct {
	conn     *nats.Conn
	queue    string
	delivery Delivery
	payment  Payment
	log      observability.Logger
	events   observability.Counter

	handlers map[string]func(ctx context.Context, s Signal) error
	subs     []*nats.Subscription
}

func NewSubscriber(conn *nats.Conn, queue string, delivery Delivery, payment Payment, tel observability.Observability) *Subscriber {
	if tel == nil {
		tel = observability.Nop()
	}
	s := &Subscriber{
		conn:     conn,
		queue:    queue,
		delivery: delivery,
		payment:  payment,
		log:      tel.Logger().With(observability.F("component", "nats_signals")),
		events:   tel.Metrics().Counter(observability.MEventsHandled),
	}
	s.handlers = map[string]func(ctx context.Context, sig Signal) error{
		SubjectDeliveryPicked: func(ctx context.Context, sig Signal) error {
			return withID(sig.DeliveryID, func() error { return s.delivery.Picked(ctx, sig.DeliveryID) })
		},
		SubjectDeliveryDelivered: func(ctx context.Context, sig Signal) error {
			return withID(sig.OrderID, func() error { return s.delivery.Delivered(ctx, sig.OrderID) })
		},
		SubjectDeliveryFailed: func(ctx context.Context, sig Signal) error {
			return withID(sig.OrderID, func() error { return s.delivery.Failed(ctx, sig.OrderID) })
		},
		SubjectPaymentSucceeded: func(ctx context.Context, sig Signal) error {
			return withID(sig.PaymentID, func() error { return s.payment.Success(ctx, sig.PaymentID) })
		},
		SubjectPaymentFailed: func(ctx context.Context, sig Signal) error {
			return withID(sig.PaymentID, func() error { return s.payment.Failed(ctx, sig.PaymentID) })
		},
	}
	return s
}

func withID(id string, fn func() error) error {
	if id == "" {
		return errMissingID
	}
	return fn()
}

// Start queue-subscribes to every signal subject so replicas share the load.
func (s *Subscriber) Start() error {
	for subject := range s.handlers {
		sub, err := s.conn.QueueSubscribe(subject, s.queue, s.handle)
		if err != nil {
			s.Stop()
			return fmt.Errorf("nats: subscribe %s: %w", subject, err)
		}
		s.subs = append(s.subs, sub)
	}
	s.log.Info("nats_signals_subscribed", observability.F("queue", s.queue), observability.F("subjects", len(s.subs)))
	return nil
}

// Stop drains the subscriptions so in-flight signals finish.
func (s *Subscriber) Stop() {
	for _, sub := range s.subs {
		if err := sub.Drain(); err != nil {
			s.log.Warn("nats_drain_failed", observability.F("subject", sub.Subject), observability.Err(err))
		}
	}
	s.subs = nil
}

func (s *Subscriber) handle(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	err := s.dispatch(ctx, msg)
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	s.events.Add(1,
		observability.L("event", msg.Subject),
		observability.L("outcome", outcome),
	)

	fields := []observability.Field{
		observability.F("subject", msg.Subject),
		observability.F("event_id", eventID(msg)),
		observability.F("outcome", outcome),
	}
	if err != nil {
		s.log.Warn("signal_handled", append(fields, observability.Err(err))...)
	} else {
		s.log.Info("signal_handled", fields...)
	}

	if msg.Reply == "" {
		return
	}
	if rerr := msg.Respond(replyFor(err)); rerr != nil {
		s.log.Warn("signal_reply_failed", observability.F("subject", msg.Subject), observability.Err(rerr))
	}
}

func (s *Subscriber) dispatch(ctx context.Context, msg *nats.Msg) error {
	h, ok := s.handlers[msg.Subject]
	if !ok {
		return fmt.Errorf("signal: unknown subject %q", msg.Subject)
	}
	var sig Signal
	if err := json.Unmarshal(msg.Data, &sig); err != nil {
		return fmt.Errorf("signal: decode: %w", err)
	}
	ctx = logctx.Enrich(ctx, s.log,
		observability.F("subject", msg.Subject),
		observability.F("order_id", sig.OrderID),
		observability.F("delivery_id", sig.DeliveryID),
		observability.F("payment_id", sig.PaymentID),
	)
	return h(ctx, sig)
}

func eventID(msg *nats.Msg) string {
	if msg.Header != nil {
		if id := msg.Header.Get(nats.MsgIdHdr); id != "" {
			return id
		}
	}
	return uuid.NewString()
}

func replyFor(err error) []byte {
	r := Reply{OK: err == nil}
	if err != nil {
		r.Status = fault.Status(err)
		r.Error = err.Error()
	}
	data, _ := json.Marshal(r)
	return data
}
