package orders

import "fmt"

// DefaultCurrency is used where no currency can be derived, e.g. the total
// of an order without lines.
const DefaultCurrency = "USD"

// Money is an amount in the smallest currency unit (cents) plus a 3-letter
// currency code. It has no identity: two values with equal fields are
// interchangeable. Every operation returns a new value, the receiver is
// never changed.
type Money struct {
	amount   int64
	currency string
}

// NewMoney validates at construction time; a Money that exists is valid.
func NewMoney(amount int64, currency string) (Money, error) {
	if amount < 0 {
		return Money{}, fmt.Errorf("%w: amount cannot be negative: %d", ErrInvalidMoney, amount)
	}
	if len(currency) != 3 {
		return Money{}, fmt.Errorf("%w: invalid currency code: %q", ErrInvalidMoney, currency)
	}
	return Money{amount: amount, currency: currency}, nil
}

// MoneyFromDecimal converts a major-unit amount (10.50) to minor units by
// multiplying by 100 and truncating toward zero. Sub-cent input is lost.
func MoneyFromDecimal(value float64, currency string) (Money, error) {
	return NewMoney(int64(value*100), currency)
}

func ZeroMoney(currency string) Money {
	return Money{amount: 0, currency: currency}
}

func (m Money) Amount() int64    { return m.amount }
func (m Money) Currency() string { return m.currency }

func (m Money) Add(other Money) (Money, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return Money{}, err
	}
	return NewMoney(m.amount+other.amount, m.currency)
}

// Subtract fails with ErrInvalidMoney when the result would be negative;
// the check happens where the result value is constructed, not up front.
func (m Money) Subtract(other Money) (Money, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return Money{}, err
	}
	return NewMoney(m.amount-other.amount, m.currency)
}

// Multiply computes in floating point and truncates toward zero.
func (m Money) Multiply(factor float64) (Money, error) {
	return NewMoney(int64(float64(m.amount)*factor), m.currency)
}

// Divide truncates toward zero. A zero divisor fails with ErrDivideByZero.
func (m Money) Divide(divisor float64) (Money, error) {
	if divisor == 0 {
		return Money{}, fmt.Errorf("%w: cannot divide money by zero", ErrDivideByZero)
	}
	return NewMoney(int64(float64(m.amount)/divisor), m.currency)
}

func (m Money) IsZero() bool { return m.amount == 0 }

func (m Money) GreaterThan(other Money) (bool, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return false, err
	}
	return m.amount > other.amount, nil
}

func (m Money) LessThan(other Money) (bool, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return false, err
	}
	return m.amount < other.amount, nil
}

// ToDecimal returns the amount in major units (1050 -> 10.50).
func (m Money) ToDecimal() float64 {
	return float64(m.amount) / 100
}

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
}

// Format renders the value for display, e.g. "$10.50". Unknown currencies
// fall back to the code itself.
func (m Money) Format() string {
	symbol, ok := currencySymbols[m.currency]
	if !ok {
		symbol = m.currency + " "
	}
	return fmt.Sprintf("%s%.2f", symbol, m.ToDecimal())
}

func (m Money) ensureSameCurrency(other Money) error {
	if m.currency != other.currency {
		return fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.currency, other.currency)
	}
	return nil
}
