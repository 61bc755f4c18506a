package payment

import "context"

type Repository interface {
	Insert(ctx context.Context, p *Payment) error
	Get(ctx context.Context, id string) (*Payment, error)
	// FindByOrderID returns the order's payment that is not FAILED, or the most recent one.
	FindByOrderID(ctx context.Context, orderID string) (*Payment, error)
	Update(ctx context.Context, p *Payment) error
}
