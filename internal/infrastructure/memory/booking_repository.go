package memory

import (
	"context"
	"sync"

	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/booking"
)

type BookingRepository struct {
	mu       sync.RWMutex
	bookings map[string]*domain.Booking
	byOrder  map[string]string
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{
		bookings: make(map[string]*domain.Booking),
		byOrder:  make(map[string]string),
	}
}

func (r *BookingRepository) Insert(ctx context.Context, b *domain.Booking) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bookings[b.CartID]; exists {
		return domain.ErrAlreadyExists
	}
	r.bookings[b.CartID] = b.Clone()
	if b.OrderID != "" {
		r.byOrder[b.OrderID] = b.CartID
	}
	return nil
}

func (r *BookingRepository) Get(ctx context.Context, cartID string) (*domain.Booking, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bookings[cartID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return b.Clone(), nil
}

func (r *BookingRepository) FindByOrderID(ctx context.Context, orderID string) (*domain.Booking, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	cartID, ok := r.byOrder[orderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.bookings[cartID].Clone(), nil
}

// Update stores the order and delivery bindings. Released is only changed by MarkReleased.
func (r *BookingRepository) Update(ctx context.Context, b *domain.Booking) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	current, exists := r.bookings[b.CartID]
	if !exists {
		return domain.ErrNotFound
	}
	if cartID, bound := r.byOrder[b.OrderID]; bound && b.OrderID != "" && cartID != b.CartID {
		return domain.ErrOrderMismatch
	}
	next := b.Clone()
	next.Released = current.Released
	r.bookings[b.CartID] = next
	if b.OrderID != "" {
		r.byOrder[b.OrderID] = b.CartID
	}
	return nil
}

func (r *BookingRepository) MarkReleased(ctx context.Context, cartID string, released bool) (bool, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[cartID]
	if !ok {
		return false, domain.ErrNotFound
	}
	if b.Released == released {
		return false, nil
	}
	b.Released = released
	return true, nil
}
