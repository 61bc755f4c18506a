package delivery

import "context"

type Repository interface {
	Insert(ctx context.Context, d *Delivery) error
	Get(ctx context.Context, id string) (*Delivery, error)
	// FindByOrderID returns the order's delivery that is not FAILED, or the most recent
	// one when all have failed.
	FindByOrderID(ctx context.Context, orderID string) (*Delivery, error)
	Update(ctx context.Context, d *Delivery) error
}
