package warehouse

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/booking"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/delivery"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/fault"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/inventory"
	domoutbox "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/shopspring/decimal"
)

const (
	warehouseService = "warehouse-service"
	catalogPeer      = "catalog"
	catalogTimeout   = 2 * time.Second
)

var ErrCartRequired = fault.New(fault.ErrConflict, "warehouse: cart id is required")

type Service struct {
	items     inventory.Repository
	bookings  booking.Repository
	catalog   CatalogPort
	publisher domoutbox.Publisher
	address   delivery.Address
	in        application.Instrument
	units     observability.Counter
}

func NewService(
	items inventory.Repository,
	bookings booking.Repository,
	catalog CatalogPort,
	publisher domoutbox.Publisher,
	address delivery.Address,
	tel observability.Observability,
) *Service {
	in := application.NewInstrument(warehouseService, tel)
	return &Service{
		items:     items,
		bookings:  bookings,
		catalog:   catalog,
		publisher: publisher,
		address:   address,
		in:        in,
		units:     in.Counter(observability.MStockUnits),
	}
}

type NewProductInput struct {
	ProductID string
	Weight    decimal.Decimal
	Width     decimal.Decimal
	Height    decimal.Decimal
	Depth     decimal.Decimal
	Fragile   bool
}

// AddProduct starts tracking a product with zero stock.
func (s *Service) AddProduct(ctx context.Context, in NewProductInput) error {
	return s.in.Run(ctx, "warehouse.add_product", []observability.Field{
		observability.F("product_id", in.ProductID),
	}, func(ctx context.Context) error {
		item, err := inventory.NewItem(in.ProductID, in.Weight, inventory.Dimension{
			Width: in.Width, Height: in.Height, Depth: in.Depth,
		}, in.Fragile)
		if err != nil {
			return err
		}
		if err := s.items.Insert(ctx, item); err != nil {
			return fmt.Errorf("warehouse: add product: %w", err)
		}
		return nil
	})
}

// AddQuantity restocks a product and tells the catalog its new quantity state.
func (s *Service) AddQuantity(ctx context.Context, productID string, quantity int) (*inventory.Item, error) {
	var item *inventory.Item
	err := s.in.Run(ctx, "warehouse.add_quantity", []observability.Field{
		observability.F("product_id", productID),
		observability.F("quantity", quantity),
	}, func(ctx context.Context) error {
		items, err := s.release(ctx, []inventory.Line{{ProductID: productID, Quantity: quantity}})
		if err != nil {
			return err
		}
		item = items[0]
		return nil
	})
	return item, err
}

// ReserveCart reserves every line of the cart atomically and books it. Booking the same cart
// again with the same products returns the existing booking; different products conflict, and
// so does a booking whose stock has already been released.
func (s *Service) ReserveCart(ctx context.Context, cartID string, products map[string]int) (*booking.Booking, error) {
	var out *booking.Booking
	err := s.in.Run(ctx, "warehouse.reserve_cart", []observability.Field{
		observability.F("cart_id", cartID),
		observability.F("lines", len(products)),
	}, func(ctx context.Context) error {
		if cartID == "" {
			return ErrCartRequired
		}
		lines := inventory.LinesFrom(products)
		if len(lines) == 0 {
			return booking.ErrEmpty
		}
		if err := inventory.ValidateLines(lines); err != nil {
			return err
		}

		existing, err := s.bookings.Get(ctx, cartID)
		switch {
		case err == nil:
			if !existing.SameProducts(products) {
				return booking.ErrConflict
			}
			if existing.Released {
				return booking.ErrReleased
			}
			out = existing
			return nil
		case !errors.Is(err, booking.ErrNotFound):
			return fmt.Errorf("warehouse: load booking: %w", err)
		}

		reserved, err := s.items.ReserveBatch(ctx, lines)
		if err != nil {
			return fmt.Errorf("warehouse: reserve: %w", err)
		}
		s.units.Add(float64(totalUnits(lines)), observability.L("direction", "reserved"))
		byID := make(map[string]*inventory.Item, len(reserved))
		for _, it := range reserved {
			byID[it.ProductID] = it
		}

		b := booking.New(cartID, products, byID)
		if err := s.bookings.Insert(ctx, b); err != nil {
			if _, rerr := s.items.ReleaseBatch(ctx, lines); rerr != nil {
				s.in.Logger(ctx).Error("reservation_rollback_failed", observability.Err(rerr))
			} else {
				s.units.Add(float64(totalUnits(lines)), observability.L("direction", "released"))
			}
			if !errors.Is(err, booking.ErrAlreadyExists) {
				return fmt.Errorf("warehouse: save booking: %w", err)
			}
			winner, gerr := s.bookings.Get(ctx, cartID)
			if gerr != nil || !winner.SameProducts(products) {
				return booking.ErrConflict
			}
			if winner.Released {
				return booking.ErrReleased
			}
			out = winner
			return nil
		}

		s.notifyCatalog(ctx, reserved)
		out = b
		return nil
	})
	return out, err
}

// Assemble binds the cart's booking to the order and returns its reservation-time snapshot.
func (s *Service) Assemble(ctx context.Context, cartID, orderID string) (*booking.Booking, error) {
	var out *booking.Booking
	err := s.in.Run(ctx, "warehouse.assemble", []observability.Field{
		observability.F("cart_id", cartID),
		observability.F("order_id", orderID),
	}, func(ctx context.Context) error {
		b, _, err := s.assemble(ctx, cartID, orderID)
		out = b
		return err
	})
	return out, err
}

// AssembleForOrder is the reaction to a new order: it assembles the booking and tells Order
// how it went. Business failures are reported as an event, not returned. A redelivered order
// re-announces an assembly whose announcement never went out.
func (s *Service) AssembleForOrder(ctx context.Context, cartID, orderID string) error {
	return s.in.Run(ctx, "warehouse.assemble_for_order", []observability.Field{
		observability.F("cart_id", cartID),
		observability.F("order_id", orderID),
	}, func(ctx context.Context) error {
		b, changed, err := s.assemble(ctx, cartID, orderID)
		if err != nil {
			if fault.Kind(err) == fault.ErrInternal {
				return err
			}
			return s.in.Publish(ctx, s.publisher, booking.NewAssemblyFailedEvent(orderID, cartID, err.Error()))
		}
		if !changed && b.Assembled {
			return nil
		}
		if err := s.in.Publish(ctx, s.publisher, booking.NewAssembledEvent(b)); err != nil {
			return err
		}
		b.Assembled = true
		if err := s.bookings.Update(ctx, b); err != nil {
			return fmt.Errorf("warehouse: save booking: %w", err)
		}
		return nil
	})
}

func (s *Service) assemble(ctx context.Context, cartID, orderID string) (*booking.Booking, bool, error) {
	b, err := s.bookings.Get(ctx, cartID)
	if err != nil {
		return nil, false, err
	}
	if len(b.Products) == 0 {
		return nil, false, booking.ErrEmpty
	}
	changed, err := b.AttachOrder(orderID)
	if err != nil {
		return nil, false, err
	}
	if changed {
		if err := s.bookings.Update(ctx, b); err != nil {
			return nil, false, fmt.Errorf("warehouse: save booking: %w", err)
		}
	}
	return b, changed, nil
}

// ShippedToDelivery records which delivery picked up the order's products.
func (s *Service) ShippedToDelivery(ctx context.Context, orderID, deliveryID string) error {
	return s.in.Run(ctx, "warehouse.shipped_to_delivery", []observability.Field{
		observability.F("order_id", orderID),
		observability.F("delivery_id", deliveryID),
	}, func(ctx context.Context) error {
		b, err := s.bookings.FindByOrderID(ctx, orderID)
		if err != nil {
			return err
		}
		if !b.MarkShipped(deliveryID) {
			return nil
		}
		return s.bookings.Update(ctx, b)
	})
}

// ReleaseBooking puts a cart's booked quantities back into stock. It runs at most once per
// booking; a cart without a booking has nothing to release.
func (s *Service) ReleaseBooking(ctx context.Context, cartID string) (released bool, err error) {
	err = s.in.Run(ctx, "warehouse.release_booking", []observability.Field{
		observability.F("cart_id", cartID),
	}, func(ctx context.Context) error {
		b, err := s.bookings.Get(ctx, cartID)
		if errors.Is(err, booking.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		flipped, err := s.bookings.MarkReleased(ctx, cartID, true)
		if err != nil || !flipped {
			return err
		}
		if _, err := s.release(ctx, b.Lines()); err != nil {
			if _, uerr := s.bookings.MarkReleased(ctx, cartID, false); uerr != nil {
				s.in.Logger(ctx).Error("release_flag_revert_failed", observability.Err(uerr))
			}
			return err
		}
		released = true
		return nil
	})
	return released, err
}

// AcceptReturn puts returned products back into stock.
func (s *Service) AcceptReturn(ctx context.Context, products map[string]int) error {
	return s.in.Run(ctx, "warehouse.accept_return", []observability.Field{
		observability.F("lines", len(products)),
	}, func(ctx context.Context) error {
		lines := inventory.LinesFrom(products)
		if len(lines) == 0 {
			return booking.ErrEmpty
		}
		_, err := s.release(ctx, lines)
		return err
	})
}

// WarehouseAddress is the address deliveries start from.
func (s *Service) WarehouseAddress(context.Context) (delivery.Address, error) {
	return s.address, nil
}

func (s *Service) release(ctx context.Context, lines []inventory.Line) ([]*inventory.Item, error) {
	if err := inventory.ValidateLines(lines); err != nil {
		return nil, err
	}
	items, err := s.items.ReleaseBatch(ctx, lines)
	if err != nil {
		return nil, fmt.Errorf("warehouse: release: %w", err)
	}
	s.units.Add(float64(totalUnits(lines)), observability.L("direction", "released"))
	s.notifyCatalog(ctx, items)
	return items, nil
}

// notifyCatalog runs after the ledger change is committed; a failed notification is logged
// and counted, the stock change stands.
func (s *Service) notifyCatalog(ctx context.Context, items []*inventory.Item) {
	if s.catalog == nil {
		return
	}
	for _, it := range items {
		state := it.State()
		err := s.in.Call(ctx, catalogPeer, "set_quantity_state", catalogTimeout, func(ctx context.Context) error {
			return s.catalog.SetProductQuantityState(ctx, it.ProductID, state)
		})
		if err != nil {
			s.in.Logger(ctx).Warn("catalog_notify_failed",
				observability.F("product_id", it.ProductID),
				observability.F("quantity_state", string(state)),
				observability.Err(err),
			)
		}
	}
}

func totalUnits(lines []inventory.Line) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}
