package memory

import (
	"context"
	"sync"

	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/inventory"
)

// InventoryRepository keeps the ledger in a map. One mutex serialises batch operations, so a
// batch is checked in full before any line is applied.
type InventoryRepository struct {
	mu    sync.RWMutex
	items map[string]*domain.Item
}

func NewInventoryRepository() *InventoryRepository {
	return &InventoryRepository{
		items: make(map[string]*domain.Item),
	}
}

func (r *InventoryRepository) Insert(ctx context.Context, item *domain.Item) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[item.ProductID]; exists {
		return domain.ErrAlreadyExists
	}
	r.items[item.ProductID] = cloneItem(item)
	return nil
}

func (r *InventoryRepository) Get(ctx context.Context, productID string) (*domain.Item, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[productID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneItem(item), nil
}

func (r *InventoryRepository) GetMany(ctx context.Context, productIDs []string) (map[string]*domain.Item, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]*domain.Item, len(productIDs))
	for _, id := range productIDs {
		if item, ok := r.items[id]; ok {
			out[id] = cloneItem(item)
		}
	}
	return out, nil
}

func (r *InventoryRepository) ReserveBatch(ctx context.Context, lines []domain.Line) ([]*domain.Item, error) {
	_ = ctx
	if err := domain.ValidateLines(lines); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	need := make(map[string]int, len(lines))
	for _, l := range lines {
		item, ok := r.items[l.ProductID]
		if !ok {
			return nil, domain.ErrNotFound
		}
		need[l.ProductID] += l.Quantity
		if need[l.ProductID] > item.Quantity {
			return nil, domain.ErrInsufficientStock
		}
	}

	out := make([]*domain.Item, 0, len(lines))
	for _, l := range lines {
		item := r.items[l.ProductID]
		if err := item.Deduct(l.Quantity); err != nil {
			return nil, err
		}
		out = append(out, cloneItem(item))
	}
	return out, nil
}

func (r *InventoryRepository) ReleaseBatch(ctx context.Context, lines []domain.Line) ([]*domain.Item, error) {
	_ = ctx
	if err := domain.ValidateLines(lines); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, l := range lines {
		if _, ok := r.items[l.ProductID]; !ok {
			return nil, domain.ErrNotFound
		}
	}
	out := make([]*domain.Item, 0, len(lines))
	for _, l := range lines {
		item := r.items[l.ProductID]
		if err := item.Restock(l.Quantity); err != nil {
			return nil, err
		}
		out = append(out, cloneItem(item))
	}
	return out, nil
}

func cloneItem(item *domain.Item) *domain.Item {
	if item == nil {
		return nil
	}
	clone := *item
	return &clone
}
