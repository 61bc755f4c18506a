package inventory

import "context"

// Repository is the inventory ledger. ReserveBatch and ReleaseBatch apply all lines or none.
type Repository interface {
	Insert(ctx context.Context, item *Item) error
	Get(ctx context.Context, productID string) (*Item, error)
	GetMany(ctx context.Context, productIDs []string) (map[string]*Item, error)
	ReserveBatch(ctx context.Context, lines []Line) ([]*Item, error)
	ReleaseBatch(ctx context.Context, lines []Line) ([]*Item, error)
}
