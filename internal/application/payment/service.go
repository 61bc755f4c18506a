package payment

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application"
	domoutbox "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/outbox"
	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/shopspring/decimal"
)

const (
	paymentService = "payment-service"
	catalogPeer    = "catalog"
	catalogTimeout = 2 * time.Second
)

type Service struct {
	repo      domain.Repository
	catalog   CatalogPort
	ids       application.IDGenerator
	publisher domoutbox.Publisher
	in        application.Instrument
}

func NewService(
	repo domain.Repository,
	catalog CatalogPort,
	ids application.IDGenerator,
	publisher domoutbox.Publisher,
	tel observability.Observability,
) *Service {
	return &Service{
		repo:      repo,
		catalog:   catalog,
		ids:       ids,
		publisher: publisher,
		in:        application.NewInstrument(paymentService, tel),
	}
}

// ProductCost prices the products at current catalog prices.
func (s *Service) ProductCost(ctx context.Context, products map[string]int) (decimal.Decimal, error) {
	var out decimal.Decimal
	err := s.in.Run(ctx, "payment.product_cost", []observability.Field{
		observability.F("lines", len(products)),
	}, func(ctx context.Context) error {
		catalog, err := s.lookup(ctx, products)
		if err != nil {
			return err
		}
		out, err = domain.ProductTotal(products, catalog)
		return err
	})
	return out, err
}

// TotalCost is the full bill: products, VAT and delivery.
func (s *Service) TotalCost(ctx context.Context, products map[string]int, deliveryTotal decimal.Decimal) (domain.Totals, error) {
	var out domain.Totals
	err := s.in.Run(ctx, "payment.total_cost", []observability.Field{
		observability.F("lines", len(products)),
	}, func(ctx context.Context) error {
		catalog, err := s.lookup(ctx, products)
		if err != nil {
			return err
		}
		out, err = domain.Compute(products, catalog, deliveryTotal)
		return err
	})
	return out, err
}

// Create opens a PENDING payment for the order. An order with an active payment gets that
// payment back; it is announced again only if its creation never was.
func (s *Service) Create(ctx context.Context, orderID string, products map[string]int, deliveryTotal decimal.Decimal) (*domain.Payment, error) {
	var out *domain.Payment
	err := s.in.Run(ctx, "payment.create", []observability.Field{
		observability.F("order_id", orderID),
	}, func(ctx context.Context) error {
		existing, err := s.repo.FindByOrderID(ctx, orderID)
		switch {
		case err == nil && existing.Active():
			out = existing
			if existing.Status == domain.StatusPending && existing.Pending() {
				return s.notify(ctx, existing, domain.NewCreatedEvent(existing))
			}
			return nil
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			return err
		}

		catalog, err := s.lookup(ctx, products)
		if err != nil {
			return err
		}
		totals, err := domain.Compute(products, catalog, deliveryTotal)
		if err != nil {
			return err
		}

		p := domain.New(s.ids.NewID(), orderID, totals)
		if err := s.repo.Insert(ctx, p); err != nil {
			return fmt.Errorf("payment: save: %w", err)
		}
		out = p
		return s.notify(ctx, p, domain.NewCreatedEvent(p))
	})
	return out, err
}

// Success settles the payment and tells Order.
func (s *Service) Success(ctx context.Context, paymentID string) error {
	return s.settle(ctx, "payment.success", paymentID, domain.StatusSuccess)
}

// Failed rejects the payment and tells Order.
func (s *Service) Failed(ctx context.Context, paymentID string) error {
	return s.settle(ctx, "payment.failed", paymentID, domain.StatusFailed)
}

func (s *Service) Get(ctx context.Context, paymentID string) (*domain.Payment, error) {
	return s.repo.Get(ctx, paymentID)
}

func (s *Service) settle(ctx context.Context, useCase, paymentID string, target domain.Status) error {
	return s.in.Run(ctx, useCase, []observability.Field{
		observability.F("payment_id", paymentID),
	}, func(ctx context.Context) error {
		p, err := s.repo.Get(ctx, paymentID)
		if err != nil {
			return err
		}
		changed, err := p.Transition(target)
		if err != nil {
			return err
		}
		if !changed && !p.Pending() {
			return nil
		}
		if changed {
			if err := s.repo.Update(ctx, p); err != nil {
				return fmt.Errorf("payment: save: %w", err)
			}
		}
		var e domoutbox.Event = domain.NewCompletedEvent(p)
		if target == domain.StatusFailed {
			e = domain.NewFailedEvent(p)
		}
		return s.notify(ctx, p, e)
	})
}

// notify publishes e and then records that the current status has been announced.
func (s *Service) notify(ctx context.Context, p *domain.Payment, e domoutbox.Event) error {
	if err := s.in.Publish(ctx, s.publisher, e); err != nil {
		return err
	}
	p.MarkNotified()
	if err := s.repo.Update(ctx, p); err != nil {
		return fmt.Errorf("payment: save: %w", err)
	}
	return nil
}

func (s *Service) lookup(ctx context.Context, products map[string]int) (map[string]domain.Product, error) {
	if len(products) == 0 {
		return nil, domain.ErrNoProducts
	}
	ids := slices.Sorted(maps.Keys(products))
	var catalog map[string]domain.Product
	err := s.in.Call(ctx, catalogPeer, "get_products_by_ids", catalogTimeout, func(ctx context.Context) error {
		var cerr error
		catalog, cerr = s.catalog.GetProductsByIDs(ctx, ids)
		return cerr
	})
	if err != nil {
		return nil, fmt.Errorf("payment: catalog lookup: %w", err)
	}
	return catalog, nil
}
