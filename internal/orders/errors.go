package orders

import "errors"

// Closed set of domain error kinds. Handlers match with errors.Is and map
// each kind to a caller-facing failure; anything else is treated as a defect
// or infrastructure error and propagated.
var (
	ErrNotFound            = errors.New("order not found")
	ErrEmptyOrder          = errors.New("order has no lines")
	ErrAlreadyPlaced       = errors.New("order already placed")
	ErrInvalidState        = errors.New("invalid order state transition")
	ErrInvalidMoney        = errors.New("invalid money value")
	ErrCurrencyMismatch    = errors.New("currency mismatch")
	ErrDivideByZero        = errors.New("division by zero")
	ErrInvalidID           = errors.New("invalid identifier")
	ErrInvalidQuantity     = errors.New("invalid quantity")
	ErrConcurrencyConflict = errors.New("concurrent modification conflict")
)
