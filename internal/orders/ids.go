package orders

import "fmt"

const maxOrderIDLength = 50

// OrderID identifies one order aggregate. Compared by value, used as the
// lookup key everywhere.
type OrderID string

func NewOrderID(value string) (OrderID, error) {
	if value == "" {
		return "", fmt.Errorf("%w: order id is empty", ErrInvalidID)
	}
	if len(value) > maxOrderIDLength {
		return "", fmt.Errorf("%w: order id longer than %d characters", ErrInvalidID, maxOrderIDLength)
	}
	return OrderID(value), nil
}

func (id OrderID) String() string { return string(id) }

// CustomerID identifies the customer an order belongs to.
type CustomerID string

func NewCustomerID(value string) (CustomerID, error) {
	if value == "" {
		return "", fmt.Errorf("%w: customer id is empty", ErrInvalidID)
	}
	return CustomerID(value), nil
}

func (id CustomerID) String() string { return string(id) }
