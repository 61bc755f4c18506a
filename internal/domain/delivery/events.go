package delivery

import (
	"time"

	"github.com/shopspring/decimal"
)

// PlannedEvent carries the priced delivery back to Order.
type PlannedEvent struct {
	OrderID    string
	DeliveryID string
	Cost       decimal.Decimal
	OccurredAt time.Time
}

func (PlannedEvent) EventName() string { return "delivery.planned" }

func NewPlannedEvent(d *Delivery) PlannedEvent {
	return PlannedEvent{OrderID: d.OrderID, DeliveryID: d.ID, Cost: d.Cost, OccurredAt: time.Now().UTC()}
}

type PickedEvent struct {
	OrderID    string
	DeliveryID string
	OccurredAt time.Time
}

func (PickedEvent) EventName() string { return "delivery.picked" }

func NewPickedEvent(d *Delivery) PickedEvent {
	return PickedEvent{OrderID: d.OrderID, DeliveryID: d.ID, OccurredAt: time.Now().UTC()}
}

type DeliveredEvent struct {
	OrderID    string
	DeliveryID string
	OccurredAt time.Time
}

func (DeliveredEvent) EventName() string { return "delivery.delivered" }

func NewDeliveredEvent(d *Delivery) DeliveredEvent {
	return DeliveredEvent{OrderID: d.OrderID, DeliveryID: d.ID, OccurredAt: time.Now().UTC()}
}

type FailedEvent struct {
	OrderID    string
	DeliveryID string
	OccurredAt time.Time
}

func (FailedEvent) EventName() string { return "delivery.failed" }

func NewFailedEvent(d *Delivery) FailedEvent {
	return FailedEvent{OrderID: d.OrderID, DeliveryID: d.ID, OccurredAt: time.Now().UTC()}
}
