package orders

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryRepository keeps snapshots in a mutex-guarded map. Reads hand back
// independent copies, so callers can never reach into the stored state.
type MemoryRepository struct {
	mu     sync.RWMutex
	orders map[OrderID]Snapshot
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{orders: make(map[OrderID]Snapshot)}
}

func (r *MemoryRepository) Save(_ context.Context, order *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.orders[order.ID()]; ok && stored.Version != order.Version() {
		return fmt.Errorf("%w: order %s at version %d, expected %d",
			ErrConcurrencyConflict, order.ID(), stored.Version, order.Version())
	}
	order.bumpVersion()
	r.orders[order.ID()] = order.Snapshot()
	return nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id OrderID) (*Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snapshot, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return Rehydrate(snapshot), nil
}

func (r *MemoryRepository) Delete(_ context.Context, id OrderID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(r.orders, id)
	return nil
}

func (r *MemoryRepository) FindByCustomer(_ context.Context, customerID CustomerID) ([]*Order, error) {
	return r.collect(func(s Snapshot) bool { return s.CustomerID == customerID }), nil
}

func (r *MemoryRepository) FindByStatus(_ context.Context, status Status) ([]*Order, error) {
	return r.collect(func(s Snapshot) bool { return s.Status == status }), nil
}

func (r *MemoryRepository) FindPending(ctx context.Context) ([]*Order, error) {
	return r.FindByStatus(ctx, StatusPlaced)
}

func (r *MemoryRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.orders), nil
}

func (r *MemoryRepository) CountByStatus(_ context.Context, status Status) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, s := range r.orders {
		if s.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) Exists(_ context.Context, id OrderID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.orders[id]
	return ok, nil
}

// Clear empties the store, for test cleanup.
func (r *MemoryRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = make(map[OrderID]Snapshot)
}

func (r *MemoryRepository) collect(match func(Snapshot) bool) []*Order {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Order
	for _, s := range r.orders {
		if match(s) {
			out = append(out, Rehydrate(s))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt().After(out[j].CreatedAt())
	})
	return out
}
