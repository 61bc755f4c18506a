package payment

import (
	"context"

	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
)

// CatalogPort prices products. Products the catalog does not know are absent from the result.
type CatalogPort interface {
	GetProductsByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error)
}
