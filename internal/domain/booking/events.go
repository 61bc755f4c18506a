package booking

import "time"

// AssembledEvent tells Order that the booked products were assembled for it.
type AssembledEvent struct {
	OrderID    string
	CartID     string
	Snapshot   Snapshot
	OccurredAt time.Time
}

func (AssembledEvent) EventName() string { return "warehouse.assembled" }

func NewAssembledEvent(b *Booking) AssembledEvent {
	return AssembledEvent{
		OrderID:    b.OrderID,
		CartID:     b.CartID,
		Snapshot:   b.Snapshot,
		OccurredAt: time.Now().UTC(),
	}
}

type AssemblyFailedEvent struct {
	OrderID    string
	CartID     string
	Reason     string
	OccurredAt time.Time
}

func (AssemblyFailedEvent) EventName() string { return "warehouse.assembly_failed" }

func NewAssemblyFailedEvent(orderID, cartID, reason string) AssemblyFailedEvent {
	return AssemblyFailedEvent{
		OrderID:    orderID,
		CartID:     cartID,
		Reason:     reason,
		OccurredAt: time.Now().UTC(),
	}
}
