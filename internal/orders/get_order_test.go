package orders_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-order-core/internal/logx"
	"github.com/ariefcatur/go-order-core/internal/orders"
)

func TestGetOrderHandler_Found(t *testing.T) {
	repo := orders.NewMemoryRepository()
	handler := orders.NewGetOrderHandler(repo, logx.Nop())
	ctx := context.Background()

	order := orderWithTwoLines(t)
	require.NoError(t, repo.Save(ctx, order))

	summary, err := handler.Execute(ctx, orders.GetOrderQuery{OrderID: "ord-1"})
	require.NoError(t, err)
	assert.Equal(t, "ord-1", summary.ID)
	assert.Equal(t, "cust-1", summary.CustomerID)
	assert.Equal(t, string(orders.StatusDraft), summary.Status)
	assert.Equal(t, int64(1300), summary.TotalAmount)
	assert.Equal(t, "USD", summary.Currency)
	assert.Equal(t, 2, summary.LineCount)
	assert.Equal(t, int64(1), summary.Version)
}

func TestGetOrderHandler_NotFound(t *testing.T) {
	handler := orders.NewGetOrderHandler(orders.NewMemoryRepository(), logx.Nop())

	_, err := handler.Execute(context.Background(), orders.GetOrderQuery{OrderID: "ord-missing"})
	assert.ErrorIs(t, err, orders.ErrNotFound)
}

func TestGetOrderHandler_InvalidID(t *testing.T) {
	handler := orders.NewGetOrderHandler(orders.NewMemoryRepository(), logx.Nop())

	_, err := handler.Execute(context.Background(), orders.GetOrderQuery{OrderID: ""})
	assert.ErrorIs(t, err, orders.ErrInvalidID)
}
