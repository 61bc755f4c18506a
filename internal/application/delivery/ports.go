package delivery

import (
	"context"

	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/delivery"
)

// AddressSource resolves the address deliveries leave from.
type AddressSource interface {
	WarehouseAddress(ctx context.Context) (domain.Address, error)
}
