package orders

import "fmt"

// OrderLine associates a product with a quantity and a unit price. Lines are
// owned by their Order and never referenced independently.
type OrderLine struct {
	ProductID string
	Quantity  int
	UnitPrice Money
}

func NewOrderLine(productID string, quantity int, unitPrice Money) (OrderLine, error) {
	if productID == "" {
		return OrderLine{}, fmt.Errorf("%w: product id is empty", ErrInvalidID)
	}
	if quantity < 1 {
		return OrderLine{}, fmt.Errorf("%w: quantity must be at least 1, got %d", ErrInvalidQuantity, quantity)
	}
	return OrderLine{ProductID: productID, Quantity: quantity, UnitPrice: unitPrice}, nil
}

func (l OrderLine) Subtotal() (Money, error) {
	return l.UnitPrice.Multiply(float64(l.Quantity))
}
