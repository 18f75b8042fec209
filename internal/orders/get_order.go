package orders

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type GetOrderQuery struct {
	OrderID string
}

// OrderSummary is the read projection returned to callers. It carries no
// domain behavior.
type OrderSummary struct {
	ID          string    `json:"order_id"`
	CustomerID  string    `json:"customer_id"`
	Status      string    `json:"status"`
	TotalAmount int64     `json:"total_amount"`
	Currency    string    `json:"currency"`
	LineCount   int       `json:"line_count"`
	CreatedAt   time.Time `json:"created_at"`
	Version     int64     `json:"version"`
}

// Summarize projects an aggregate into its summary.
func Summarize(order *Order) (*OrderSummary, error) {
	total, err := order.CalculateTotal()
	if err != nil {
		return nil, err
	}
	return &OrderSummary{
		ID:          order.ID().String(),
		CustomerID:  order.CustomerID().String(),
		Status:      string(order.Status()),
		TotalAmount: total.Amount(),
		Currency:    total.Currency(),
		LineCount:   order.LineCount(),
		CreatedAt:   order.CreatedAt(),
		Version:     order.Version(),
	}, nil
}

// GetOrderHandler is a pure read: no mutation, no events.
type GetOrderHandler struct {
	repo Repository
	log  *zap.SugaredLogger
}

func NewGetOrderHandler(repo Repository, log *zap.SugaredLogger) *GetOrderHandler {
	return &GetOrderHandler{repo: repo, log: log}
}

// Execute reports absence as a wrapped ErrNotFound.
func (h *GetOrderHandler) Execute(ctx context.Context, query GetOrderQuery) (*OrderSummary, error) {
	orderID, err := NewOrderID(query.OrderID)
	if err != nil {
		return nil, err
	}
	order, err := h.repo.GetByID(ctx, orderID)
	if err != nil {
		h.log.Debugw("order lookup missed", "order_id", query.OrderID, "error", err)
		return nil, err
	}
	summary, err := Summarize(order)
	if err != nil {
		return nil, fmt.Errorf("summarize order %s: %w", query.OrderID, err)
	}
	return summary, nil
}
