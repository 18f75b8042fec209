package orders

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// CustomerDirectory answers whether a customer exists. It is the only
// capability the order workflow needs from the customer side.
type CustomerDirectory interface {
	CustomerExists(ctx context.Context, id CustomerID) (bool, error)
}

// PlaceOrderCommand asks for an existing draft order to be placed.
type PlaceOrderCommand struct {
	OrderID     string
	RequestedBy string
}

// PlaceOrderResult is the tagged outcome handed back to the caller. Domain
// failures arrive here as ErrorMessage, never as an error value.
type PlaceOrderResult struct {
	Success      bool
	OrderID      string
	TotalAmount  int64
	ErrorMessage string
}

func placeOrderOK(orderID string, totalAmount int64) PlaceOrderResult {
	return PlaceOrderResult{Success: true, OrderID: orderID, TotalAmount: totalAmount}
}

func placeOrderFail(message string) PlaceOrderResult {
	return PlaceOrderResult{ErrorMessage: message}
}

// UnitOfWork scopes a save and its event staging to one commit. The
// Postgres implementation carries a transaction on the context; stores
// that resolve their connection from the context join it.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// NopUnitOfWork runs the function directly, for repositories that are
// atomic on their own.
type NopUnitOfWork struct{}

func (NopUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// PlaceOrderHandler sequences the place-order workflow: load, validate the
// customer, run the domain operation, persist and publish in one unit.
type PlaceOrderHandler struct {
	repo      Repository
	customers CustomerDirectory
	bus       EventBus
	uow       UnitOfWork
	log       *zap.SugaredLogger
}

func NewPlaceOrderHandler(repo Repository, customers CustomerDirectory, bus EventBus, uow UnitOfWork, log *zap.SugaredLogger) *PlaceOrderHandler {
	if uow == nil {
		uow = NopUnitOfWork{}
	}
	return &PlaceOrderHandler{repo: repo, customers: customers, bus: bus, uow: uow, log: log}
}

// Execute returns a result for every anticipated domain failure and reserves
// the error return for defects and infrastructure problems, which are logged
// with full context and passed up instead of being flattened into a message.
func (h *PlaceOrderHandler) Execute(ctx context.Context, cmd PlaceOrderCommand) (PlaceOrderResult, error) {
	h.log.Infow("placing order", "order_id", cmd.OrderID, "requested_by", cmd.RequestedBy)

	orderID, err := NewOrderID(cmd.OrderID)
	if err != nil {
		return placeOrderFail(fmt.Sprintf("Invalid order id %q", cmd.OrderID)), nil
	}

	order, err := h.repo.GetByID(ctx, orderID)
	if errors.Is(err, ErrNotFound) {
		h.log.Warnw("order not found", "order_id", cmd.OrderID)
		return placeOrderFail(fmt.Sprintf("Order %s not found", cmd.OrderID)), nil
	}
	if err != nil {
		h.log.Errorw("load order failed", "order_id", cmd.OrderID, "error", err)
		return PlaceOrderResult{}, fmt.Errorf("load order %s: %w", cmd.OrderID, err)
	}

	exists, err := h.customers.CustomerExists(ctx, order.CustomerID())
	if err != nil {
		h.log.Errorw("customer lookup failed",
			"order_id", cmd.OrderID, "customer_id", order.CustomerID().String(), "error", err)
		return PlaceOrderResult{}, fmt.Errorf("customer lookup for order %s: %w", cmd.OrderID, err)
	}
	if !exists {
		h.log.Warnw("customer not found",
			"order_id", cmd.OrderID, "customer_id", order.CustomerID().String())
		return placeOrderFail(fmt.Sprintf("Customer %s not found", order.CustomerID())), nil
	}

	if err := order.Place(); err != nil {
		switch {
		case errors.Is(err, ErrEmptyOrder):
			h.log.Warnw("cannot place empty order", "order_id", cmd.OrderID)
			return placeOrderFail("Cannot place order with no items"), nil
		case errors.Is(err, ErrAlreadyPlaced):
			h.log.Warnw("order already placed", "order_id", cmd.OrderID, "status", string(order.Status()))
			return placeOrderFail("Order has already been placed"), nil
		}
		h.log.Errorw("place failed", "order_id", cmd.OrderID, "error", err)
		return PlaceOrderResult{}, fmt.Errorf("place order %s: %w", cmd.OrderID, err)
	}

	total, err := order.CalculateTotal()
	if err != nil {
		if errors.Is(err, ErrCurrencyMismatch) {
			h.log.Warnw("order lines mix currencies", "order_id", cmd.OrderID)
			return placeOrderFail("Order lines use more than one currency"), nil
		}
		h.log.Errorw("total calculation failed", "order_id", cmd.OrderID, "error", err)
		return PlaceOrderResult{}, fmt.Errorf("calculate total for order %s: %w", cmd.OrderID, err)
	}

	// One unit: the status change and its event commit together or not
	// at all.
	err = h.uow.Do(ctx, func(ctx context.Context) error {
		if err := h.repo.Save(ctx, order); err != nil {
			return fmt.Errorf("save order %s: %w", cmd.OrderID, err)
		}
		err := h.bus.Publish(ctx, TopicOrderPlaced, OrderPlacedPayload{
			OrderID:     order.ID().String(),
			CustomerID:  order.CustomerID().String(),
			TotalAmount: total.Amount(),
		})
		if err != nil {
			return fmt.Errorf("publish %s for order %s: %w", TopicOrderPlaced, cmd.OrderID, err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrConcurrencyConflict) {
			h.log.Warnw("concurrent modification", "order_id", cmd.OrderID)
			return placeOrderFail("Order was modified concurrently, please retry"), nil
		}
		h.log.Errorw("finalize failed", "order_id", cmd.OrderID, "error", err)
		return PlaceOrderResult{}, err
	}

	h.log.Infow("order placed", "order_id", cmd.OrderID, "total_amount", total.Amount())
	return placeOrderOK(order.ID().String(), total.Amount()), nil
}
