package order

import (
	"maps"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/booking"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/delivery"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/fault"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound               = fault.New(fault.ErrNotFound, "order: not found")
	ErrConflict               = fault.New(fault.ErrConflict, "order: already exists")
	ErrInvalidQuantity        = fault.New(fault.ErrConflict, "order: quantity must be greater than zero")
	ErrNoProducts             = fault.New(fault.ErrConflict, "order: no products")
	ErrCartRequired           = fault.New(fault.ErrConflict, "order: cart id is required")
	ErrUnauthorized           = fault.New(fault.ErrUnauthorized, "order: username is required")
	ErrInvalidStateTransition = fault.New(fault.ErrConflict, "order: invalid state transition")
)

// Order is the fulfillment record Order keeps while the other services work on it.
type Order struct {
	ID             string
	IdempotencyKey string
	Username       string
	CartID         string
	Products       map[string]int
	Address        delivery.Address
	DeliveryID     string
	PaymentID      string
	Snapshot       booking.Snapshot
	DeliveryPrice  decimal.Decimal
	ProductPrice   decimal.Decimal
	TotalPrice     decimal.Decimal
	Status         Status
	Notified       Status
	FailureReason  string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func New(id, idempotencyKey, username, cartID string, products map[string]int, address delivery.Address) (*Order, error) {
	if username == "" {
		return nil, ErrUnauthorized
	}
	if cartID == "" {
		return nil, ErrCartRequired
	}
	if len(products) == 0 {
		return nil, ErrNoProducts
	}
	for _, qty := range products {
		if qty <= 0 {
			return nil, ErrInvalidQuantity
		}
	}
	if err := address.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Order{
		ID:             id,
		IdempotencyKey: idempotencyKey,
		Username:       username,
		CartID:         cartID,
		Products:       maps.Clone(products),
		Address:        address,
		Status:         StatusNew,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Advance applies a lifecycle signal; see Status for the ordering rules.
func (o *Order) Advance(target Status, reason string) (bool, error) {
	changed, err := o.Status.next(target)
	if err != nil || !changed {
		return false, err
	}
	o.Status = target
	if target.Failed() {
		o.FailureReason = reason
	}
	o.touch()
	return true, nil
}

// ApplyPayment stores the payment id and the prices the payment was created with.
func (o *Order) ApplyPayment(paymentID string, product, total decimal.Decimal) bool {
	if o.PaymentID == paymentID {
		return false
	}
	o.PaymentID = paymentID
	o.ProductPrice = product
	o.TotalPrice = total
	o.touch()
	return true
}

// Pending reports whether the current status has not been announced yet.
func (o *Order) Pending() bool { return o.Notified != o.Status }

func (o *Order) MarkNotified() { o.Notified = o.Status }

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	c.Products = maps.Clone(o.Products)
	return &c
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}
