package orders

import (
	"context"
	"sync"
	"time"

	"github.com/remarkly/backend/internal/shared"
)

type MemoryRepository struct {
	mu     sync.Mutex
	orders map[string]*PendingOrder
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{orders: make(map[string]*PendingOrder)}
}

func (r *MemoryRepository) Create(ctx context.Context, order *PendingOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *order
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	r.orders[order.ID] = &stored
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, id string) (*PendingOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, shared.ErrorOrderNotFound
	}

	result := *order
	return &result, nil
}

func (r *MemoryRepository) MarkPaid(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return false, shared.ErrorOrderNotFound
	}

	if order.Status == StatusPaid {
		return false, nil
	}

	order.Status = StatusPaid
	return true, nil
}

func (r *MemoryRepository) DeleteStalePending(ctx context.Context, cutoff time.Time) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted []string
	for id, order := range r.orders {
		if order.Status == StatusPending && order.CreatedAt.Before(cutoff) {
			delete(r.orders, id)
			deleted = append(deleted, id)
		}
	}
	return deleted, nil
}
