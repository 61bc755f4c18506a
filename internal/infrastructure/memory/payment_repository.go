package memory

import (
	"context"
	"sync"

	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
)

type PaymentRepository struct {
	mu       sync.RWMutex
	payments map[string]*domain.Payment
	byOrder  map[string][]string
}

func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{
		payments: make(map[string]*domain.Payment),
		byOrder:  make(map[string][]string),
	}
}

func (r *PaymentRepository) Insert(ctx context.Context, p *domain.Payment) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	r.payments[p.ID] = p.Clone()
	r.byOrder[p.OrderID] = append(r.byOrder[p.OrderID], p.ID)
	return nil
}

func (r *PaymentRepository) Get(ctx context.Context, id string) (*domain.Payment, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.payments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p.Clone(), nil
}

func (r *PaymentRepository) FindByOrderID(ctx context.Context, orderID string) (*domain.Payment, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.byOrder[orderID]
	if len(ids) == 0 {
		return nil, domain.ErrNotFound
	}
	for i := len(ids) - 1; i >= 0; i-- {
		if p := r.payments[ids[i]]; p.Active() {
			return p.Clone(), nil
		}
	}
	return r.payments[ids[len(ids)-1]].Clone(), nil
}

func (r *PaymentRepository) Update(ctx context.Context, p *domain.Payment) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.payments[p.ID]; !exists {
		return domain.ErrNotFound
	}
	r.payments[p.ID] = p.Clone()
	return nil
}
