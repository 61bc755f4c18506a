package warehouse

import (
	"context"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/inventory"
)

// CatalogPort is the slice of the shopping-store catalog Warehouse talks to.
type CatalogPort interface {
	SetProductQuantityState(ctx context.Context, productID string, state inventory.QuantityState) error
}
