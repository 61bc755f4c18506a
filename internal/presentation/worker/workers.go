// Package workerpresentation connects the services to the event bus. Each worker turns the
// notifications its service cares about into application calls.
package workerpresentation

import (
	"context"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/booking"
	domdelivery "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/delivery"
	domorder "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/outbox"
	dompayment "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/shopspring/decimal"
)

type Warehouse interface {
	AssembleForOrder(ctx context.Context, cartID, orderID string) error
	ShippedToDelivery(ctx context.Context, orderID, deliveryID string) error
	ReleaseBooking(ctx context.Context, cartID string) (bool, error)
}

type Delivery interface {
	Prepare(ctx context.Context, orderID string, to domdelivery.Address, snap booking.Snapshot) error
	Cancel(ctx context.Context, orderID string) error
}

type Payment interface {
	Create(ctx context.Context, orderID string, products map[string]int, deliveryTotal decimal.Decimal) (*dompayment.Payment, error)
}

type Order interface {
	OnAssembled(ctx context.Context, orderID string, snap booking.Snapshot) error
	OnAssemblyFailed(ctx context.Context, orderID, reason string) error
	OnDeliveryPlanned(ctx context.Context, orderID, deliveryID string, cost decimal.Decimal) error
	OnPaymentCreated(ctx context.Context, orderID, paymentID string, product, total decimal.Decimal) error
	OnPaymentCompleted(ctx context.Context, orderID string) error
	OnPaymentFailed(ctx context.Context, orderID string) error
	OnDeliveryPicked(ctx context.Context, orderID string) error
	OnDelivered(ctx context.Context, orderID string) error
	OnDeliveryFailed(ctx context.Context, orderID string) error
}

func workerLogger(tel observability.Observability, worker string) observability.Logger {
	if tel == nil {
		tel = observability.Nop()
	}
	return tel.Logger().With(observability.F("service", worker))
}

type WarehouseWorker struct {
	svc        Warehouse
	subscriber domoutbox.Subscriber
	log        observability.Logger
}

func NewWarehouseWorker(svc Warehouse, subscriber domoutbox.Subscriber, tel observability.Observability) *WarehouseWorker {
	return &WarehouseWorker{svc: svc, subscriber: subscriber, log: workerLogger(tel, "warehouse-worker")}
}

// Start assembles bookings for new orders, records pickups and releases the stock of failed
// or returned orders.
func (w *WarehouseWorker) Start() {
	if w.subscriber == nil || w.svc == nil {
		return
	}
	const name = "warehouse-worker"
	on(w.subscriber, w.log, name, func(ctx context.Context, e domorder.CreatedEvent) error {
		return w.svc.AssembleForOrder(ctx, e.CartID, e.OrderID)
	})
	on(w.subscriber, w.log, name, func(ctx context.Context, e domdelivery.PickedEvent) error {
		return w.svc.ShippedToDelivery(ctx, e.OrderID, e.DeliveryID)
	})
	on(w.subscriber, w.log, name, func(ctx context.Context, e domorder.FailedEvent) error {
		_, err := w.svc.ReleaseBooking(ctx, e.CartID)
		return err
	})
	on(w.subscriber, w.log, name, func(ctx context.Context, e domorder.ReturnedEvent) error {
		_, err := w.svc.ReleaseBooking(ctx, e.CartID)
		return err
	})
}

type DeliveryWorker struct {
	svc        Delivery
	subscriber domoutbox.Subscriber
	log        observability.Logger
}

func NewDeliveryWorker(svc Delivery, subscriber domoutbox.Subscriber, tel observability.Observability) *DeliveryWorker {
	return &DeliveryWorker{svc: svc, subscriber: subscriber, log: workerLogger(tel, "delivery-worker")}
}

// Start plans deliveries for assembled orders and withdraws the ones a failed order no longer
// needs.
func (w *DeliveryWorker) Start() {
	if w.subscriber == nil || w.svc == nil {
		return
	}
	const name = "delivery-worker"
	on(w.subscriber, w.log, name, func(ctx context.Context, e domorder.AssembledEvent) error {
		return w.svc.Prepare(ctx, e.OrderID, e.Address, e.Snapshot)
	})
	on(w.subscriber, w.log, name, func(ctx context.Context, e domorder.FailedEvent) error {
		return w.svc.Cancel(ctx, e.OrderID)
	})
}

type PaymentWorker struct {
	svc        Payment
	subscriber domoutbox.Subscriber
	log        observability.Logger
}

func NewPaymentWorker(svc Payment, subscriber domoutbox.Subscriber, tel observability.Observability) *PaymentWorker {
	return &PaymentWorker{svc: svc, subscriber: subscriber, log: workerLogger(tel, "payment-worker")}
}

func (w *PaymentWorker) Start() {
	if w.subscriber == nil || w.svc == nil {
		return
	}
	on(w.subscriber, w.log, "payment-worker", func(ctx context.Context, e domorder.PaymentRequestedEvent) error {
		_, err := w.svc.Create(ctx, e.OrderID, e.Products, e.DeliveryTotal)
		return err
	})
}

type OrderWorker struct {
	svc        Order
	subscriber domoutbox.Subscriber
	log        observability.Logger
}

func NewOrderWorker(svc Order, subscriber domoutbox.Subscriber, tel observability.Observability) *OrderWorker {
	return &OrderWorker{svc: svc, subscriber: subscriber, log: workerLogger(tel, "order-worker")}
}

// Start follows every service's progress reports and moves the order along.
func (w *OrderWorker) Start() {
	if w.subscriber == nil || w.svc == nil {
		return
	}
	const name = "order-worker"
	on(w.subscriber, w.log, name, func(ctx context.Context, e booking.AssembledEvent) error {
		return w.svc.OnAssembled(ctx, e.OrderID, e.Snapshot)
	})
	on(w.subscriber, w.log, name, func(ctx context.Context, e booking.AssemblyFailedEvent) error {
		return w.svc.OnAssemblyFailed(ctx, e.OrderID, e.Reason)
	})
	on(w.subscriber, w.log, name, func(ctx context.Context, e domdelivery.PlannedEvent) error {
		return w.svc.OnDeliveryPlanned(ctx, e.OrderID, e.DeliveryID, e.Cost)
	})
	on(w.subscriber, w.log, name, func(ctx context.Context, e dompayment.CreatedEvent) error {
		return w.svc.OnPaymentCreated(ctx, e.OrderID, e.PaymentID, e.ProductTotal, e.TotalPayment)
	})
	on(w.subscriber, w.log, name, func(ctx context.Context, e dompayment.CompletedEvent) error {
		return w.svc.OnPaymentCompleted(ctx, e.OrderID)
	})
	on(w.subscriber, w.log, name, func(ctx context.Context, e dompayment.FailedEvent) error {
		return w.svc.OnPaymentFailed(ctx, e.OrderID)
	})
	on(w.subscriber, w.log, name, func(ctx context.Context, e domdelivery.PickedEvent) error {
		return w.svc.OnDeliveryPicked(ctx, e.OrderID)
	})
	on(w.subscriber, w.log, name, func(ctx context.Context, e domdelivery.DeliveredEvent) error {
		return w.svc.OnDelivered(ctx, e.OrderID)
	})
	on(w.subscriber, w.log, name, func(ctx context.Context, e domdelivery.FailedEvent) error {
		return w.svc.OnDeliveryFailed(ctx, e.OrderID)
	})
}
