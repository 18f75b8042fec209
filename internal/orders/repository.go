package orders

import "context"

// Repository abstracts order persistence. Any store satisfying the contract
// is interchangeable: a no-op stub, the in-memory map, or Postgres.
//
// Save is an upsert keyed by the order id that overwrites the stored state
// in full, lines included. It is also the optimistic-concurrency gate: the
// stored version must match the version the caller read, otherwise Save
// fails with ErrConcurrencyConflict; on success the version is incremented.
//
// GetByID and Delete report absence as a wrapped ErrNotFound. The find
// queries return customer/status matches ordered by creation time,
// descending, and never fail on empty results.
type Repository interface {
	Save(ctx context.Context, order *Order) error
	GetByID(ctx context.Context, id OrderID) (*Order, error)
	Delete(ctx context.Context, id OrderID) error
	FindByCustomer(ctx context.Context, customerID CustomerID) ([]*Order, error)
	FindByStatus(ctx context.Context, status Status) ([]*Order, error)
	FindPending(ctx context.Context) ([]*Order, error)
	Count(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context, status Status) (int, error)
	Exists(ctx context.Context, id OrderID) (bool, error)
}
