package orders_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-order-core/internal/orders"
)

func draftOrder(t *testing.T) *orders.Order {
	t.Helper()
	order, err := orders.NewOrder("ord-1", "cust-1")
	require.NoError(t, err)
	return order
}

func orderWithTwoLines(t *testing.T) *orders.Order {
	t.Helper()
	order := draftOrder(t)
	require.NoError(t, order.AddLine("productA", 2, mustMoney(t, 500, "USD")))
	require.NoError(t, order.AddLine("productB", 1, mustMoney(t, 300, "USD")))
	return order
}

func TestNewOrder(t *testing.T) {
	order := draftOrder(t)
	assert.Equal(t, orders.StatusDraft, order.Status())
	assert.True(t, order.IsEmpty())
	assert.False(t, order.IsPlaced())
	assert.Equal(t, int64(0), order.Version())
	assert.False(t, order.CreatedAt().IsZero())

	_, err := orders.NewOrder("", "cust-1")
	assert.ErrorIs(t, err, orders.ErrInvalidID)

	_, err = orders.NewOrder("ord-1", "")
	assert.ErrorIs(t, err, orders.ErrInvalidID)

	// conversion can't sneak past the id length cap
	long := orders.OrderID(strings.Repeat("x", 51))
	_, err = orders.NewOrder(long, "cust-1")
	assert.ErrorIs(t, err, orders.ErrInvalidID)
}

func TestOrder_PlaceEmptyFails(t *testing.T) {
	order := draftOrder(t)

	err := order.Place()
	assert.ErrorIs(t, err, orders.ErrEmptyOrder)
	assert.Equal(t, orders.StatusDraft, order.Status())
}

func TestOrder_CalculateTotal(t *testing.T) {
	order := orderWithTwoLines(t)

	total, err := order.CalculateTotal()
	require.NoError(t, err)
	assert.Equal(t, int64(1300), total.Amount())
	assert.Equal(t, "USD", total.Currency())
	assert.Equal(t, 2, order.LineCount())
}

func TestOrder_CalculateTotalEmpty(t *testing.T) {
	order := draftOrder(t)

	total, err := order.CalculateTotal()
	require.NoError(t, err)
	assert.True(t, total.IsZero())
}

func TestOrder_PlaceTwiceFails(t *testing.T) {
	order := orderWithTwoLines(t)

	require.NoError(t, order.Place())
	assert.Equal(t, orders.StatusPlaced, order.Status())
	assert.True(t, order.IsPlaced())

	err := order.Place()
	assert.ErrorIs(t, err, orders.ErrAlreadyPlaced)
}

func TestOrder_LineMutationAfterPlaceFails(t *testing.T) {
	order := orderWithTwoLines(t)
	require.NoError(t, order.Place())

	err := order.AddLine("productC", 1, mustMoney(t, 100, "USD"))
	assert.ErrorIs(t, err, orders.ErrAlreadyPlaced)

	err = order.RemoveLine("productA")
	assert.ErrorIs(t, err, orders.ErrAlreadyPlaced)
	assert.Equal(t, 2, order.LineCount())
}

func TestOrder_RemoveLine(t *testing.T) {
	order := orderWithTwoLines(t)
	require.NoError(t, order.AddLine("productA", 3, mustMoney(t, 500, "USD")))

	// removes every line for the product
	require.NoError(t, order.RemoveLine("productA"))
	assert.Equal(t, 1, order.LineCount())
	assert.Equal(t, "productB", order.Lines()[0].ProductID)

	// absent product is a no-op
	require.NoError(t, order.RemoveLine("productZ"))
	assert.Equal(t, 1, order.LineCount())
}

func TestOrder_AddLineValidation(t *testing.T) {
	order := draftOrder(t)

	err := order.AddLine("productA", 0, mustMoney(t, 500, "USD"))
	assert.ErrorIs(t, err, orders.ErrInvalidQuantity)

	err = order.AddLine("", 1, mustMoney(t, 500, "USD"))
	assert.ErrorIs(t, err, orders.ErrInvalidID)

	require.NoError(t, order.AddLine("productA", 1, mustMoney(t, 500, "USD")))
	err = order.AddLine("productB", 1, mustMoney(t, 300, "EUR"))
	assert.ErrorIs(t, err, orders.ErrCurrencyMismatch)
	assert.Equal(t, 1, order.LineCount())
}

func TestOrder_Cancel(t *testing.T) {
	t.Run("from_draft", func(t *testing.T) {
		order := draftOrder(t)
		require.NoError(t, order.Cancel())
		assert.Equal(t, orders.StatusCancelled, order.Status())
	})

	t.Run("from_placed", func(t *testing.T) {
		order := orderWithTwoLines(t)
		require.NoError(t, order.Place())
		require.NoError(t, order.Cancel())
		assert.Equal(t, orders.StatusCancelled, order.Status())
	})

	t.Run("from_completed", func(t *testing.T) {
		order := orders.Rehydrate(orders.Snapshot{
			ID:         "ord-done",
			CustomerID: "cust-1",
			Status:     orders.StatusCompleted,
			CreatedAt:  time.Now().UTC(),
		})
		err := order.Cancel()
		assert.ErrorIs(t, err, orders.ErrInvalidState)
		assert.Equal(t, orders.StatusCompleted, order.Status())
	})

	t.Run("twice", func(t *testing.T) {
		order := draftOrder(t)
		require.NoError(t, order.Cancel())
		assert.ErrorIs(t, order.Cancel(), orders.ErrInvalidState)
	})
}

func TestCanTransition(t *testing.T) {
	assert.True(t, orders.CanTransition(orders.StatusDraft, orders.StatusPlaced))
	assert.True(t, orders.CanTransition(orders.StatusPlaced, orders.StatusProcessing))
	assert.True(t, orders.CanTransition(orders.StatusProcessing, orders.StatusCompleted))
	assert.False(t, orders.CanTransition(orders.StatusDraft, orders.StatusCompleted))
	assert.False(t, orders.CanTransition(orders.StatusCompleted, orders.StatusCancelled))
	assert.False(t, orders.CanTransition(orders.StatusCancelled, orders.StatusDraft))
}

func TestOrder_Rehydrate(t *testing.T) {
	createdAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	snapshot := orders.Snapshot{
		ID:         "ord-42",
		CustomerID: "cust-9",
		Status:     orders.StatusPlaced,
		Lines: []orders.OrderLine{
			{ProductID: "productA", Quantity: 2, UnitPrice: mustMoney(t, 500, "USD")},
		},
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
		Version:   7,
		Metadata:  map[string]any{"channel": "web"},
	}
	order := orders.Rehydrate(snapshot)

	assert.Equal(t, orders.OrderID("ord-42"), order.ID())
	assert.Equal(t, orders.CustomerID("cust-9"), order.CustomerID())
	assert.Equal(t, orders.StatusPlaced, order.Status())
	assert.Equal(t, 1, order.LineCount())
	assert.Equal(t, createdAt, order.CreatedAt())
	assert.Equal(t, int64(7), order.Version())
	assert.Equal(t, map[string]any{"channel": "web"}, order.Metadata())
}

func TestOrder_RehydratedMixedCurrencyTotalFails(t *testing.T) {
	// AddLine blocks mixed currencies, but stored state is taken as-is;
	// the total must fail rather than sum across currencies.
	order := orders.Rehydrate(orders.Snapshot{
		ID:         "ord-mixed",
		CustomerID: "cust-1",
		Status:     orders.StatusDraft,
		Lines: []orders.OrderLine{
			{ProductID: "productA", Quantity: 1, UnitPrice: mustMoney(t, 500, "USD")},
			{ProductID: "productB", Quantity: 1, UnitPrice: mustMoney(t, 300, "EUR")},
		},
		CreatedAt: time.Now().UTC(),
	})

	_, err := order.CalculateTotal()
	assert.ErrorIs(t, err, orders.ErrCurrencyMismatch)
}

func TestOrder_SnapshotIsIndependent(t *testing.T) {
	order := orderWithTwoLines(t)
	snapshot := order.Snapshot()

	snapshot.Lines[0].ProductID = "mutated"
	snapshot.Metadata["k"] = "v"

	assert.Equal(t, "productA", order.Lines()[0].ProductID)
	assert.Empty(t, order.Metadata())
}

func TestOrder_Metadata(t *testing.T) {
	order := draftOrder(t)
	order.SetMetadata("source", "pos")

	meta := order.Metadata()
	assert.Equal(t, "pos", meta["source"])

	// accessor hands back a copy
	meta["source"] = "web"
	assert.Equal(t, "pos", order.Metadata()["source"])
}

func TestOrderLine_Subtotal(t *testing.T) {
	line, err := orders.NewOrderLine("productA", 3, mustMoney(t, 250, "USD"))
	require.NoError(t, err)

	subtotal, err := line.Subtotal()
	require.NoError(t, err)
	assert.Equal(t, int64(750), subtotal.Amount())
}
