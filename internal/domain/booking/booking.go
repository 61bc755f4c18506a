package booking

import (
	"maps"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/fault"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound      = fault.New(fault.ErrNotFound, "booking: not found")
	ErrEmpty         = fault.New(fault.ErrConflict, "booking: no products booked")
	ErrConflict      = fault.New(fault.ErrConflict, "booking: cart already booked with different products")
	ErrOrderMismatch = fault.New(fault.ErrConflict, "booking: already assembled for another order")
	ErrAlreadyExists = fault.New(fault.ErrConflict, "booking: already exists")
	ErrReleased      = fault.New(fault.ErrConflict, "booking: cart booking was released")
)

// Snapshot is the aggregate shipping attributes computed once at reservation time.
type Snapshot struct {
	Weight  decimal.Decimal
	Volume  decimal.Decimal
	Fragile bool
}

type Booking struct {
	CartID     string
	OrderID    string
	Products   map[string]int
	Snapshot   Snapshot
	DeliveryID string
	Released   bool
	// Assembled records that the assembly for OrderID has been announced.
	Assembled  bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// New books products for a cart, computing the snapshot from the reserved items.
func New(cartID string, products map[string]int, items map[string]*inventory.Item) *Booking {
	now := time.Now().UTC()
	return &Booking{
		CartID:    cartID,
		Products:  maps.Clone(products),
		Snapshot:  Aggregate(products, items),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Aggregate sums weight and volume per booked unit; fragile if any booked item is.
func Aggregate(products map[string]int, items map[string]*inventory.Item) Snapshot {
	snap := Snapshot{Weight: decimal.Zero, Volume: decimal.Zero}
	for id, qty := range products {
		item, ok := items[id]
		if !ok {
			continue
		}
		q := decimal.NewFromInt(int64(qty))
		snap.Weight = snap.Weight.Add(item.Weight.Mul(q))
		snap.Volume = snap.Volume.Add(item.Dimension.Volume().Mul(q))
		snap.Fragile = snap.Fragile || item.Fragile
	}
	return snap
}

// SameProducts reports whether the booking holds exactly the given product quantities.
func (b *Booking) SameProducts(products map[string]int) bool {
	return maps.Equal(b.Products, products)
}

// AttachOrder binds the booking to an order. Re-attaching the same order is a no-op.
func (b *Booking) AttachOrder(orderID string) (bool, error) {
	switch b.OrderID {
	case orderID:
		return false, nil
	case "":
		b.OrderID = orderID
		b.touch()
		return true, nil
	default:
		return false, ErrOrderMismatch
	}
}

// MarkShipped records the delivery that picked up the assembled products.
func (b *Booking) MarkShipped(deliveryID string) bool {
	if b.DeliveryID == deliveryID {
		return false
	}
	b.DeliveryID = deliveryID
	b.touch()
	return true
}

func (b *Booking) Lines() []inventory.Line {
	return inventory.LinesFrom(b.Products)
}

func (b *Booking) Clone() *Booking {
	if b == nil {
		return nil
	}
	c := *b
	c.Products = maps.Clone(b.Products)
	return &c
}

func (b *Booking) touch() {
	b.UpdatedAt = time.Now().UTC()
}
