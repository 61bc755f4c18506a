package memory

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
)

type OrderRepository struct {
	mu          sync.RWMutex
	orders      map[string]*domain.Order
	idempotency map[string]string
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		orders:      make(map[string]*domain.Order),
		idempotency: make(map[string]string),
	}
}

func idempotencyKey(username, key string) string { return username + "\x00" + key }

func (r *OrderRepository) Insert(ctx context.Context, order *domain.Order) error {
	_ = ctx
	if order == nil || order.ID == "" {
		return fmt.Errorf("order repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[order.ID]; exists {
		return domain.ErrConflict
	}
	if order.IdempotencyKey != "" {
		if _, exists := r.idempotency[idempotencyKey(order.Username, order.IdempotencyKey)]; exists {
			return domain.ErrConflict
		}
		r.idempotency[idempotencyKey(order.Username, order.IdempotencyKey)] = order.ID
	}
	r.orders[order.ID] = order.Clone()
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return order.Clone(), nil
}

func (r *OrderRepository) Update(ctx context.Context, order *domain.Order) error {
	_ = ctx
	if order == nil || order.ID == "" {
		return fmt.Errorf("order repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[order.ID]; !exists {
		return domain.ErrNotFound
	}
	r.orders[order.ID] = order.Clone()
	return nil
}

func (r *OrderRepository) FindByIdempotency(ctx context.Context, username, key string) (*domain.Order, error) {
	_ = ctx
	if key == "" {
		return nil, domain.ErrNotFound
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	orderID, ok := r.idempotency[idempotencyKey(username, key)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	order, found := r.orders[orderID]
	if !found {
		return nil, domain.ErrNotFound
	}
	return order.Clone(), nil
}
