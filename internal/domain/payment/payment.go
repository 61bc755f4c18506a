package payment

import (
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/fault"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound               = fault.New(fault.ErrNotFound, "payment: not found")
	ErrInvalidStateTransition = fault.New(fault.ErrConflict, "payment: invalid state transition")
	ErrIncompleteOrderData    = fault.New(fault.ErrIncompleteOrderData, "payment: product price unknown")
	ErrNoProducts             = fault.New(fault.ErrConflict, "payment: order has no products")
)

type Status string

const (
	StatusPending Status = "PENDING"
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

func (s Status) Terminal() bool { return s != StatusPending }

type Payment struct {
	ID            string
	OrderID       string
	ProductTotal  decimal.Decimal
	DeliveryTotal decimal.Decimal
	FeeTotal      decimal.Decimal
	TotalPayment  decimal.Decimal
	Status        Status
	Notified      Status
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func New(id, orderID string, t Totals) *Payment {
	now := time.Now().UTC()
	return &Payment{
		ID:            id,
		OrderID:       orderID,
		ProductTotal:  t.Product,
		DeliveryTotal: t.Delivery,
		FeeTotal:      t.VAT,
		TotalPayment:  t.Total,
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Transition settles a pending payment. Re-applying the current status is a no-op.
func (p *Payment) Transition(target Status) (changed bool, err error) {
	if p.Status == target {
		return false, nil
	}
	if p.Status.Terminal() || target == StatusPending {
		return false, ErrInvalidStateTransition
	}
	p.Status = target
	p.UpdatedAt = time.Now().UTC()
	return true, nil
}

// Pending reports whether the current status has not been announced yet.
func (p *Payment) Pending() bool { return p.Notified != p.Status }

func (p *Payment) MarkNotified() { p.Notified = p.Status }

// Active reports whether the payment still counts as the order's current payment.
func (p *Payment) Active() bool { return p.Status != StatusFailed }

func (p *Payment) Clone() *Payment {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
