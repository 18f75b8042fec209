package orders

import (
	"context"
	"fmt"
)

// NullRepository discards every write and reads back nothing. Used to switch
// persistence off in tests and benchmarks.
type NullRepository struct{}

func NewNullRepository() *NullRepository { return &NullRepository{} }

func (r *NullRepository) Save(_ context.Context, _ *Order) error { return nil }

func (r *NullRepository) GetByID(_ context.Context, id OrderID) (*Order, error) {
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

func (r *NullRepository) Delete(_ context.Context, id OrderID) error {
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

func (r *NullRepository) FindByCustomer(_ context.Context, _ CustomerID) ([]*Order, error) {
	return nil, nil
}

func (r *NullRepository) FindByStatus(_ context.Context, _ Status) ([]*Order, error) {
	return nil, nil
}

func (r *NullRepository) FindPending(_ context.Context) ([]*Order, error) {
	return nil, nil
}

func (r *NullRepository) Count(_ context.Context) (int, error) { return 0, nil }

func (r *NullRepository) CountByStatus(_ context.Context, _ Status) (int, error) { return 0, nil }

func (r *NullRepository) Exists(_ context.Context, _ OrderID) (bool, error) { return false, nil }
