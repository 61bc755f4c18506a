package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreatedEvent struct {
	OrderID       string
	PaymentID     string
	ProductTotal  decimal.Decimal
	DeliveryTotal decimal.Decimal
	TotalPayment  decimal.Decimal
	OccurredAt    time.Time
}

func (CreatedEvent) EventName() string { return "payment.created" }

func NewCreatedEvent(p *Payment) CreatedEvent {
	return CreatedEvent{
		OrderID:       p.OrderID,
		PaymentID:     p.ID,
		ProductTotal:  p.ProductTotal,
		DeliveryTotal: p.DeliveryTotal,
		TotalPayment:  p.TotalPayment,
		OccurredAt:    time.Now().UTC(),
	}
}

type CompletedEvent struct {
	OrderID    string
	PaymentID  string
	OccurredAt time.Time
}

func (CompletedEvent) EventName() string { return "payment.completed" }

func NewCompletedEvent(p *Payment) CompletedEvent {
	return CompletedEvent{OrderID: p.OrderID, PaymentID: p.ID, OccurredAt: time.Now().UTC()}
}

type FailedEvent struct {
	OrderID    string
	PaymentID  string
	OccurredAt time.Time
}

func (FailedEvent) EventName() string { return "payment.failed" }

func NewFailedEvent(p *Payment) FailedEvent {
	return FailedEvent{OrderID: p.OrderID, PaymentID: p.ID, OccurredAt: time.Now().UTC()}
}
