package booking

import "context"

type Repository interface {
	// Insert fails with ErrAlreadyExists when the cart already has a booking.
	Insert(ctx context.Context, b *Booking) error
	Get(ctx context.Context, cartID string) (*Booking, error)
	FindByOrderID(ctx context.Context, orderID string) (*Booking, error)
	Update(ctx context.Context, b *Booking) error
	// MarkReleased flips Released from false to true and reports whether this call did it.
	MarkReleased(ctx context.Context, cartID string, released bool) (bool, error)
}
