package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/booking"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/delivery"
	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/shopspring/decimal"
)

const orderService = "order-service"

// Service owns the order fulfillment record. Its On* methods are the order's reactions to the
// other services' notifications; each one is safe to run twice for the same signal.
type Service struct {
	repo      domain.Repository
	ids       application.IDGenerator
	publisher domoutbox.Publisher
	in        application.Instrument
	entered   observability.Counter
}

func NewService(repo domain.Repository, ids application.IDGenerator, publisher domoutbox.Publisher, tel observability.Observability) *Service {
	in := application.NewInstrument(orderService, tel)
	return &Service{
		repo:      repo,
		ids:       ids,
		publisher: publisher,
		in:        in,
		entered:   in.Counter(observability.MOrderTransitions),
	}
}

type CreateOrderInput struct {
	IdempotencyKey string
	Username       string
	CartID         string
	Products       map[string]int
	Address        delivery.Address
}

// CreateOrder records a new order and starts fulfillment. A repeated idempotency key returns
// the order created the first time, announcing it again if that never happened.
func (s *Service) CreateOrder(ctx context.Context, input CreateOrderInput) (*domain.Order, error) {
	var out *domain.Order
	err := s.in.Run(ctx, "order.create", []observability.Field{
		observability.F("cart_id", input.CartID),
		observability.F("username", input.Username),
	}, func(ctx context.Context) error {
		if existing, err := s.repo.FindByIdempotency(ctx, input.Username, input.IdempotencyKey); err == nil {
			out = existing
			return s.resend(ctx, existing)
		} else if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("order: idempotency lookup: %w", err)
		}

		o, err := domain.New(s.ids.NewID(), input.IdempotencyKey, input.Username, input.CartID, input.Products, input.Address)
		if err != nil {
			return err
		}
		if err := s.repo.Insert(ctx, o); err != nil {
			if errors.Is(err, domain.ErrConflict) && input.IdempotencyKey != "" {
				if winner, ferr := s.repo.FindByIdempotency(ctx, input.Username, input.IdempotencyKey); ferr == nil {
					out = winner
					return nil
				}
			}
			return fmt.Errorf("order: save: %w", err)
		}
		out = o
		s.entered.Add(1, observability.L("status", string(o.Status)))
		return s.notify(ctx, o, domain.NewCreatedEvent(o))
	})
	return out, err
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Order, error) {
	return s.repo.Get(ctx, id)
}

// Return records that the customer sent the delivered products back; Warehouse restocks them.
func (s *Service) Return(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.apply(ctx, "order.return", orderID, func(o *domain.Order) (bool, error) {
		return o.Advance(domain.StatusProductReturned, "")
	})
}

func (s *Service) OnAssembled(ctx context.Context, orderID string, snap booking.Snapshot) error {
	_, err := s.apply(ctx, "order.on_assembled", orderID, func(o *domain.Order) (bool, error) {
		changed, err := o.Advance(domain.StatusAssembled, "")
		if changed {
			o.Snapshot = snap
		}
		return changed, err
	})
	return err
}

func (s *Service) OnAssemblyFailed(ctx context.Context, orderID, reason string) error {
	_, err := s.apply(ctx, "order.on_assembly_failed", orderID, func(o *domain.Order) (bool, error) {
		return o.Advance(domain.StatusAssemblyFailed, reason)
	})
	return err
}

func (s *Service) OnDeliveryPlanned(ctx context.Context, orderID, deliveryID string, cost decimal.Decimal) error {
	_, err := s.apply(ctx, "order.on_delivery_planned", orderID, func(o *domain.Order) (bool, error) {
		changed, err := o.Advance(domain.StatusOnPayment, "")
		if changed {
			o.DeliveryID = deliveryID
			o.DeliveryPrice = cost
		}
		return changed, err
	})
	return err
}

func (s *Service) OnPaymentCreated(ctx context.Context, orderID, paymentID string, product, total decimal.Decimal) error {
	_, err := s.apply(ctx, "order.on_payment_created", orderID, func(o *domain.Order) (bool, error) {
		return o.ApplyPayment(paymentID, product, total), nil
	})
	return err
}

func (s *Service) OnPaymentCompleted(ctx context.Context, orderID string) error {
	return s.advance(ctx, "order.on_payment_completed", orderID, domain.StatusPaid, "")
}

func (s *Service) OnPaymentFailed(ctx context.Context, orderID string) error {
	return s.advance(ctx, "order.on_payment_failed", orderID, domain.StatusPaymentFailed, "payment failed")
}

func (s *Service) OnDeliveryPicked(ctx context.Context, orderID string) error {
	return s.advance(ctx, "order.on_delivery_picked", orderID, domain.StatusOnDelivery, "")
}

func (s *Service) OnDelivered(ctx context.Context, orderID string) error {
	return s.advance(ctx, "order.on_delivered", orderID, domain.StatusDelivered, "")
}

func (s *Service) OnDeliveryFailed(ctx context.Context, orderID string) error {
	return s.advance(ctx, "order.on_delivery_failed", orderID, domain.StatusDeliveryFailed, "delivery failed")
}

func (s *Service) advance(ctx context.Context, useCase, orderID string, target domain.Status, reason string) error {
	_, err := s.apply(ctx, useCase, orderID, func(o *domain.Order) (bool, error) {
		return o.Advance(target, reason)
	})
	return err
}

// apply loads the order, mutates it, persists it when something changed and only then
// announces the status it is in, unless that status was already announced.
func (s *Service) apply(
	ctx context.Context,
	useCase, orderID string,
	mutate func(o *domain.Order) (bool, error),
) (*domain.Order, error) {
	var out *domain.Order
	err := s.in.Run(ctx, useCase, []observability.Field{
		observability.F("order_id", orderID),
	}, func(ctx context.Context) error {
		o, err := s.repo.Get(ctx, orderID)
		if err != nil {
			return err
		}
		before := o.Status
		changed, err := mutate(o)
		if err != nil {
			return err
		}
		out = o
		if !changed {
			return s.resend(ctx, o)
		}

		var e domoutbox.Event
		if o.Pending() {
			if e = notification(o); e == nil {
				o.MarkNotified()
			}
		}
		if err := s.repo.Update(ctx, o); err != nil {
			return fmt.Errorf("order: save: %w", err)
		}
		if o.Status != before {
			s.entered.Add(1, observability.L("status", string(o.Status)))
		}
		if e == nil {
			return nil
		}
		return s.notify(ctx, o, e)
	})
	return out, err
}

// resend announces the order's status if an earlier attempt persisted it but failed to publish.
func (s *Service) resend(ctx context.Context, o *domain.Order) error {
	if !o.Pending() {
		return nil
	}
	e := notification(o)
	if e == nil {
		o.MarkNotified()
		if err := s.repo.Update(ctx, o); err != nil {
			return fmt.Errorf("order: save: %w", err)
		}
		return nil
	}
	return s.notify(ctx, o, e)
}

// notify publishes e and then records that the current status has been announced.
func (s *Service) notify(ctx context.Context, o *domain.Order, e domoutbox.Event) error {
	if err := s.in.Publish(ctx, s.publisher, e); err != nil {
		return err
	}
	o.MarkNotified()
	if err := s.repo.Update(ctx, o); err != nil {
		return fmt.Errorf("order: save: %w", err)
	}
	return nil
}

// notification is the event other services wait for once the order enters its status. Entering
// a failure state requests compensation; statuses nobody reacts to have none.
func notification(o *domain.Order) domoutbox.Event {
	switch {
	case o.Status == domain.StatusNew:
		return domain.NewCreatedEvent(o)
	case o.Status == domain.StatusAssembled:
		return domain.NewAssembledEvent(o)
	case o.Status == domain.StatusOnPayment:
		return domain.NewPaymentRequestedEvent(o)
	case o.Status == domain.StatusProductReturned:
		return domain.NewReturnedEvent(o)
	case o.Status.Failed() && o.Status != domain.StatusAssemblyFailed:
		return domain.NewFailedEvent(o)
	}
	return nil
}
