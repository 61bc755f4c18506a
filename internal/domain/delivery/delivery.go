package delivery

import (
	"strings"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/booking"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/fault"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound               = fault.New(fault.ErrNotFound, "delivery: not found")
	ErrInvalidStateTransition = fault.New(fault.ErrConflict, "delivery: invalid state transition")
	ErrInvalidAddress         = fault.New(fault.ErrConflict, "delivery: address is incomplete")
)

type State string

const (
	StateCreated    State = "CREATED"
	StateInDelivery State = "IN_DELIVERY"
	StateDelivered  State = "DELIVERED"
	StateFailed     State = "FAILED"
)

func (s State) Terminal() bool { return s == StateDelivered || s == StateFailed }

// allowed lists the states each state may move to.
var allowed = map[State][]State{
	StateCreated:    {StateInDelivery, StateFailed},
	StateInDelivery: {StateDelivered, StateFailed},
}

type Address struct {
	Country string `json:"country"`
	City    string `json:"city"`
	Street  string `json:"street"`
	House   string `json:"house"`
	Flat    string `json:"flat,omitempty"`
}

func (a Address) Validate() error {
	if a.Country == "" || a.City == "" || a.Street == "" || a.House == "" {
		return ErrInvalidAddress
	}
	return nil
}

func (a Address) String() string {
	parts := []string{a.Country, a.City, a.Street, a.House}
	if a.Flat != "" {
		parts = append(parts, a.Flat)
	}
	return strings.Join(parts, ", ")
}

type Delivery struct {
	ID        string
	OrderID   string
	From      Address
	To        Address
	Snapshot  booking.Snapshot
	Cost      decimal.Decimal
	State     State
	// Notified is the state whose notification has been published.
	Notified  State
	CreatedAt time.Time
	UpdatedAt time.Time
}

func New(id, orderID string, from, to Address) (*Delivery, error) {
	if err := to.Validate(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &Delivery{
		ID:        id,
		OrderID:   orderID,
		From:      from,
		To:        to,
		State:     StateCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Transition moves the delivery to target. Repeating the current state is a no-op and reports
// changed=false; leaving a terminal state or skipping a step is ErrInvalidStateTransition.
func (d *Delivery) Transition(target State) (changed bool, err error) {
	if d.State == target {
		return false, nil
	}
	for _, next := range allowed[d.State] {
		if next == target {
			d.State = target
			d.touch()
			return true, nil
		}
	}
	return false, ErrInvalidStateTransition
}

// Pending reports whether the current state has not been announced yet.
func (d *Delivery) Pending() bool { return d.Notified != d.State }

func (d *Delivery) MarkNotified() { d.Notified = d.State }

// Active reports whether the delivery still counts as the order's current delivery.
func (d *Delivery) Active() bool { return d.State != StateFailed }

func (d *Delivery) ApplyCost(snap booking.Snapshot, cost decimal.Decimal) {
	d.Snapshot = snap
	d.Cost = cost
	d.touch()
}

func (d *Delivery) Clone() *Delivery {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}

func (d *Delivery) touch() {
	d.UpdatedAt = time.Now().UTC()
}
