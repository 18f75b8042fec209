package orders

import (
	"fmt"
	"time"
)

// Order is the aggregate root. All mutation of its line collection and
// status goes through its methods; no method leaves the aggregate in a state
// that violates an invariant, even transiently.
type Order struct {
	id         OrderID
	customerID CustomerID
	status     Status
	lines      []OrderLine
	createdAt  time.Time
	updatedAt  time.Time
	version    int64
	metadata   map[string]any
}

// NewOrder creates a fresh aggregate in DRAFT. This is the validating path
// for new orders; loading stored state goes through Rehydrate instead.
func NewOrder(id OrderID, customerID CustomerID) (*Order, error) {
	if _, err := NewOrderID(string(id)); err != nil {
		return nil, err
	}
	if _, err := NewCustomerID(string(customerID)); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &Order{
		id:         id,
		customerID: customerID,
		status:     StatusDraft,
		createdAt:  now,
		updatedAt:  now,
		metadata:   map[string]any{},
	}, nil
}

// Snapshot is the full stored representation of an order. Repositories copy
// through it in both directions so callers never share line slices or
// metadata maps with the store.
type Snapshot struct {
	ID         OrderID
	CustomerID CustomerID
	Status     Status
	Lines      []OrderLine
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Version    int64
	Metadata   map[string]any
}

// Rehydrate reconstructs an aggregate from stored state. It bypasses the
// invariant checks of the create path (the state was valid when written, and
// invariants may have tightened since) but populates every field, including
// the version counter.
func Rehydrate(s Snapshot) *Order {
	lines := make([]OrderLine, len(s.Lines))
	copy(lines, s.Lines)
	metadata := make(map[string]any, len(s.Metadata))
	for k, v := range s.Metadata {
		metadata[k] = v
	}
	return &Order{
		id:         s.ID,
		customerID: s.CustomerID,
		status:     s.Status,
		lines:      lines,
		createdAt:  s.CreatedAt,
		updatedAt:  s.UpdatedAt,
		version:    s.Version,
		metadata:   metadata,
	}
}

// Snapshot returns an independent copy of the aggregate's state.
func (o *Order) Snapshot() Snapshot {
	lines := make([]OrderLine, len(o.lines))
	copy(lines, o.lines)
	metadata := make(map[string]any, len(o.metadata))
	for k, v := range o.metadata {
		metadata[k] = v
	}
	return Snapshot{
		ID:         o.id,
		CustomerID: o.customerID,
		Status:     o.status,
		Lines:      lines,
		CreatedAt:  o.createdAt,
		UpdatedAt:  o.updatedAt,
		Version:    o.version,
		Metadata:   metadata,
	}
}

func (o *Order) ID() OrderID            { return o.id }
func (o *Order) CustomerID() CustomerID { return o.customerID }
func (o *Order) Status() Status         { return o.status }
func (o *Order) CreatedAt() time.Time   { return o.createdAt }
func (o *Order) UpdatedAt() time.Time   { return o.updatedAt }
func (o *Order) Version() int64         { return o.version }

func (o *Order) Lines() []OrderLine {
	out := make([]OrderLine, len(o.lines))
	copy(out, o.lines)
	return out
}

func (o *Order) SetMetadata(key string, value any) {
	o.metadata[key] = value
}

func (o *Order) Metadata() map[string]any {
	out := make(map[string]any, len(o.metadata))
	for k, v := range o.metadata {
		out[k] = v
	}
	return out
}

// AddLine appends a line while the order is still a draft. All lines of one
// order share a single currency; the first line fixes it.
func (o *Order) AddLine(productID string, quantity int, unitPrice Money) error {
	if err := o.ensureDraft(); err != nil {
		return err
	}
	line, err := NewOrderLine(productID, quantity, unitPrice)
	if err != nil {
		return err
	}
	if len(o.lines) > 0 && o.lines[0].UnitPrice.Currency() != unitPrice.Currency() {
		return fmt.Errorf("%w: order is priced in %s, line in %s",
			ErrCurrencyMismatch, o.lines[0].UnitPrice.Currency(), unitPrice.Currency())
	}
	o.lines = append(o.lines, line)
	o.touch()
	return nil
}

// RemoveLine drops every line for the given product. Removing a product that
// has no line is a no-op.
func (o *Order) RemoveLine(productID string) error {
	if err := o.ensureDraft(); err != nil {
		return err
	}
	kept := o.lines[:0]
	for _, line := range o.lines {
		if line.ProductID != productID {
			kept = append(kept, line)
		}
	}
	o.lines = kept
	o.touch()
	return nil
}

// Place transitions DRAFT -> PLACED. An order without lines cannot be placed.
func (o *Order) Place() error {
	if err := o.ensureDraft(); err != nil {
		return err
	}
	if len(o.lines) == 0 {
		return fmt.Errorf("%w: order %s", ErrEmptyOrder, o.id)
	}
	o.status = StatusPlaced
	o.touch()
	return nil
}

// Cancel is allowed from DRAFT and PLACED only.
func (o *Order) Cancel() error {
	if !CanTransition(o.status, StatusCancelled) {
		return fmt.Errorf("%w: cannot cancel order %s in status %s", ErrInvalidState, o.id, o.status)
	}
	o.status = StatusCancelled
	o.touch()
	return nil
}

// CalculateTotal sums the line subtotals. An order without lines totals to
// zero. Mixed currencies fail rather than producing a wrong sum; AddLine
// prevents them, but rehydrated state is taken as-is.
func (o *Order) CalculateTotal() (Money, error) {
	if len(o.lines) == 0 {
		return ZeroMoney(DefaultCurrency), nil
	}
	total := ZeroMoney(o.lines[0].UnitPrice.Currency())
	for _, line := range o.lines {
		subtotal, err := line.Subtotal()
		if err != nil {
			return Money{}, err
		}
		total, err = total.Add(subtotal)
		if err != nil {
			return Money{}, err
		}
	}
	return total, nil
}

func (o *Order) LineCount() int { return len(o.lines) }

func (o *Order) IsEmpty() bool { return len(o.lines) == 0 }

// IsPlaced reports whether the order has been placed or moved beyond.
func (o *Order) IsPlaced() bool {
	switch o.status {
	case StatusPlaced, StatusProcessing, StatusCompleted:
		return true
	}
	return false
}

func (o *Order) ensureDraft() error {
	if o.status != StatusDraft {
		return fmt.Errorf("%w: order %s is %s", ErrAlreadyPlaced, o.id, o.status)
	}
	return nil
}

func (o *Order) touch() {
	o.updatedAt = time.Now().UTC()
}

// bumpVersion is the repository-side half of the optimistic concurrency
// scheme: Save compares the stored version with the one the caller read and
// increments it on success.
func (o *Order) bumpVersion() {
	o.version++
}
