package memory

import (
	"context"
	"sync"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
	"github.com/shopspring/decimal"
)

// Catalog stands in for the shopping-store service: it prices products and remembers the
// last quantity state Warehouse reported for each.
type Catalog struct {
	mu     sync.RWMutex
	prices map[string]decimal.Decimal
	states map[string]inventory.QuantityState
}

func NewCatalog() *Catalog {
	return &Catalog{
		prices: make(map[string]decimal.Decimal),
		states: make(map[string]inventory.QuantityState),
	}
}

func (c *Catalog) SetPrice(productID string, price decimal.Decimal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prices[productID] = price
}

func (c *Catalog) GetProductsByIDs(ctx context.Context, ids []string) (map[string]payment.Product, error) {
	_ = ctx
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]payment.Product, len(ids))
	for _, id := range ids {
		if price, ok := c.prices[id]; ok {
			out[id] = payment.Product{ID: id, Price: price}
		}
	}
	return out, nil
}

func (c *Catalog) SetProductQuantityState(ctx context.Context, productID string, state inventory.QuantityState) error {
	_ = ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states[productID] = state
	return nil
}

func (c *Catalog) QuantityState(productID string) (inventory.QuantityState, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.states[productID]
	return s, ok
}
