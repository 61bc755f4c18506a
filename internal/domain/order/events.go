package order

import (
	"maps"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/booking"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/delivery"
	"github.com/shopspring/decimal"
)

// CreatedEvent asks Warehouse to assemble the cart's booking for the order.
type CreatedEvent struct {
	OrderID    string
	CartID     string
	Products   map[string]int
	Address    delivery.Address
	OccurredAt time.Time
}

func (CreatedEvent) EventName() string { return "order.created" }

func NewCreatedEvent(o *Order) CreatedEvent {
	return CreatedEvent{
		OrderID:    o.ID,
		CartID:     o.CartID,
		Products:   maps.Clone(o.Products),
		Address:    o.Address,
		OccurredAt: time.Now().UTC(),
	}
}

// AssembledEvent asks Delivery to plan and price the shipment.
type AssembledEvent struct {
	OrderID    string
	Address    delivery.Address
	Snapshot   booking.Snapshot
	OccurredAt time.Time
}

func (AssembledEvent) EventName() string { return "order.assembled" }

func NewAssembledEvent(o *Order) AssembledEvent {
	return AssembledEvent{
		OrderID:    o.ID,
		Address:    o.Address,
		Snapshot:   o.Snapshot,
		OccurredAt: time.Now().UTC(),
	}
}

// PaymentRequestedEvent asks Payment to open a payment for the order.
type PaymentRequestedEvent struct {
	OrderID       string
	Products      map[string]int
	DeliveryTotal decimal.Decimal
	OccurredAt    time.Time
}

func (PaymentRequestedEvent) EventName() string { return "order.payment_requested" }

func NewPaymentRequestedEvent(o *Order) PaymentRequestedEvent {
	return PaymentRequestedEvent{
		OrderID:       o.ID,
		Products:      maps.Clone(o.Products),
		DeliveryTotal: o.DeliveryPrice,
		OccurredAt:    time.Now().UTC(),
	}
}

// FailedEvent is the compensation request: Warehouse releases the cart's booking.
type FailedEvent struct {
	OrderID    string
	CartID     string
	Status     Status
	Reason     string
	OccurredAt time.Time
}

func (FailedEvent) EventName() string { return "order.failed" }

func NewFailedEvent(o *Order) FailedEvent {
	return FailedEvent{
		OrderID:    o.ID,
		CartID:     o.CartID,
		Status:     o.Status,
		Reason:     o.FailureReason,
		OccurredAt: time.Now().UTC(),
	}
}

type ReturnedEvent struct {
	OrderID    string
	CartID     string
	OccurredAt time.Time
}

func (ReturnedEvent) EventName() string { return "order.returned" }

func NewReturnedEvent(o *Order) ReturnedEvent {
	return ReturnedEvent{OrderID: o.ID, CartID: o.CartID, OccurredAt: time.Now().UTC()}
}
