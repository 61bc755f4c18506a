package memory

import (
	"context"
	"sync"

	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/delivery"
)

type DeliveryRepository struct {
	mu         sync.RWMutex
	deliveries map[string]*domain.Delivery
	byOrder    map[string][]string
}

func NewDeliveryRepository() *DeliveryRepository {
	return &DeliveryRepository{
		deliveries: make(map[string]*domain.Delivery),
		byOrder:    make(map[string][]string),
	}
}

func (r *DeliveryRepository) Insert(ctx context.Context, d *domain.Delivery) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	r.deliveries[d.ID] = d.Clone()
	r.byOrder[d.OrderID] = append(r.byOrder[d.OrderID], d.ID)
	return nil
}

func (r *DeliveryRepository) Get(ctx context.Context, id string) (*domain.Delivery, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.deliveries[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return d.Clone(), nil
}

func (r *DeliveryRepository) FindByOrderID(ctx context.Context, orderID string) (*domain.Delivery, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.byOrder[orderID]
	if len(ids) == 0 {
		return nil, domain.ErrNotFound
	}
	for i := len(ids) - 1; i >= 0; i-- {
		if d := r.deliveries[ids[i]]; d.Active() {
			return d.Clone(), nil
		}
	}
	return r.deliveries[ids[len(ids)-1]].Clone(), nil
}

func (r *DeliveryRepository) Update(ctx context.Context, d *domain.Delivery) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.deliveries[d.ID]; !exists {
		return domain.ErrNotFound
	}
	r.deliveries[d.ID] = d.Clone()
	return nil
}
