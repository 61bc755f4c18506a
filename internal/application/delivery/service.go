package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/booking"
	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/delivery"
	domoutbox "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
)

const (
	deliveryService = "delivery-service"
	warehousePeer   = "warehouse"
	addressTimeout  = 2 * time.Second
)

type Service struct {
	repo      domain.Repository
	warehouse AddressSource
	params    domain.CostParams
	ids       application.IDGenerator
	publisher domoutbox.Publisher
	in        application.Instrument
}

func NewService(
	repo domain.Repository,
	warehouse AddressSource,
	params domain.CostParams,
	ids application.IDGenerator,
	publisher domoutbox.Publisher,
	tel observability.Observability,
) *Service {
	return &Service{
		repo:      repo,
		warehouse: warehouse,
		params:    params,
		ids:       ids,
		publisher: publisher,
		in:        application.NewInstrument(deliveryService, tel),
	}
}

// Plan opens a delivery for the order, or returns the order's delivery that is still active.
func (s *Service) Plan(ctx context.Context, orderID string, to domain.Address) (*domain.Delivery, error) {
	var out *domain.Delivery
	err := s.in.Run(ctx, "delivery.plan", []observability.Field{
		observability.F("order_id", orderID),
	}, func(ctx context.Context) error {
		d, err := s.plan(ctx, orderID, to)
		out = d
		return err
	})
	return out, err
}

func (s *Service) plan(ctx context.Context, orderID string, to domain.Address) (*domain.Delivery, error) {
	existing, err := s.repo.FindByOrderID(ctx, orderID)
	switch {
	case err == nil && existing.Active():
		return existing, nil
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	var from domain.Address
	err = s.in.Call(ctx, warehousePeer, "warehouse_address", addressTimeout, func(ctx context.Context) error {
		var aerr error
		from, aerr = s.warehouse.WarehouseAddress(ctx)
		return aerr
	})
	if err != nil {
		return nil, fmt.Errorf("delivery: warehouse address: %w", err)
	}

	d, err := domain.New(s.ids.NewID(), orderID, from, to)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Insert(ctx, d); err != nil {
		return nil, fmt.Errorf("delivery: save: %w", err)
	}
	return d, nil
}

// Cost prices the delivery from the booking snapshot and stores the result on the record.
func (s *Service) Cost(ctx context.Context, deliveryID string, snap booking.Snapshot) (domain.CostBreakdown, error) {
	var out domain.CostBreakdown
	err := s.in.Run(ctx, "delivery.cost", []observability.Field{
		observability.F("delivery_id", deliveryID),
	}, func(ctx context.Context) error {
		d, err := s.repo.Get(ctx, deliveryID)
		if err != nil {
			return err
		}
		out, err = s.cost(ctx, d, snap)
		return err
	})
	return out, err
}

func (s *Service) cost(ctx context.Context, d *domain.Delivery, snap booking.Snapshot) (domain.CostBreakdown, error) {
	b := s.params.Cost(d.From, d.To, snap)
	d.ApplyCost(snap, b.Total)
	if err := s.repo.Update(ctx, d); err != nil {
		return domain.CostBreakdown{}, fmt.Errorf("delivery: save: %w", err)
	}
	return b, nil
}

// Prepare is the reaction to an assembled order: plan, price and report the delivery. A
// redelivered order re-prices and re-reports a delivery whose plan was never announced.
func (s *Service) Prepare(ctx context.Context, orderID string, to domain.Address, snap booking.Snapshot) error {
	return s.in.Run(ctx, "delivery.prepare", []observability.Field{
		observability.F("order_id", orderID),
	}, func(ctx context.Context) error {
		d, err := s.plan(ctx, orderID, to)
		if err != nil {
			return err
		}
		if d.State != domain.StateCreated || !d.Pending() {
			return nil
		}
		if _, err := s.cost(ctx, d, snap); err != nil {
			return err
		}
		return s.notify(ctx, d, domain.NewPlannedEvent(d))
	})
}

// Cancel fails the order's delivery that has not been handed over yet, after the order itself
// failed. The order already knows, so nothing is published. No delivery is a no-op.
func (s *Service) Cancel(ctx context.Context, orderID string) error {
	return s.in.Run(ctx, "delivery.cancel", []observability.Field{
		observability.F("order_id", orderID),
	}, func(ctx context.Context) error {
		d, err := s.repo.FindByOrderID(ctx, orderID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if d.State != domain.StateCreated {
			return nil
		}
		if _, err := d.Transition(domain.StateFailed); err != nil {
			return err
		}
		d.MarkNotified()
		if err := s.repo.Update(ctx, d); err != nil {
			return fmt.Errorf("delivery: save: %w", err)
		}
		return nil
	})
}

// Picked marks the delivery as handed to the carrier.
func (s *Service) Picked(ctx context.Context, deliveryID string) error {
	return s.in.Run(ctx, "delivery.picked", []observability.Field{
		observability.F("delivery_id", deliveryID),
	}, func(ctx context.Context) error {
		d, err := s.repo.Get(ctx, deliveryID)
		if err != nil {
			return err
		}
		return s.transition(ctx, d, domain.StateInDelivery)
	})
}

// Delivered completes the order's delivery.
func (s *Service) Delivered(ctx context.Context, orderID string) error {
	return s.byOrder(ctx, "delivery.delivered", orderID, domain.StateDelivered)
}

// Failed marks the order's delivery as failed.
func (s *Service) Failed(ctx context.Context, orderID string) error {
	return s.byOrder(ctx, "delivery.failed", orderID, domain.StateFailed)
}

func (s *Service) Get(ctx context.Context, deliveryID string) (*domain.Delivery, error) {
	return s.repo.Get(ctx, deliveryID)
}

func (s *Service) byOrder(ctx context.Context, useCase, orderID string, target domain.State) error {
	return s.in.Run(ctx, useCase, []observability.Field{
		observability.F("order_id", orderID),
	}, func(ctx context.Context) error {
		d, err := s.repo.FindByOrderID(ctx, orderID)
		if err != nil {
			return err
		}
		return s.transition(ctx, d, target)
	})
}

// transition persists the new state, then sends the one notification that goes with it. A
// repeated signal re-sends the notification only if it never went out.
func (s *Service) transition(ctx context.Context, d *domain.Delivery, target domain.State) error {
	changed, err := d.Transition(target)
	if err != nil {
		return err
	}
	if !changed && !d.Pending() {
		return nil
	}
	if changed {
		if err := s.repo.Update(ctx, d); err != nil {
			return fmt.Errorf("delivery: save: %w", err)
		}
	}

	var e domoutbox.Event
	switch d.State {
	case domain.StateInDelivery:
		e = domain.NewPickedEvent(d)
	case domain.StateDelivered:
		e = domain.NewDeliveredEvent(d)
	case domain.StateFailed:
		e = domain.NewFailedEvent(d)
	}
	return s.notify(ctx, d, e)
}

// notify publishes e and then records that the current state has been announced.
func (s *Service) notify(ctx context.Context, d *domain.Delivery, e domoutbox.Event) error {
	if err := s.in.Publish(ctx, s.publisher, e); err != nil {
		return err
	}
	d.MarkNotified()
	if err := s.repo.Update(ctx, d); err != nil {
		return fmt.Errorf("delivery: save: %w", err)
	}
	return nil
}
