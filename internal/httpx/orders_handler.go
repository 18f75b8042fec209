package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-order-core/internal/orders"
	"github.com/ariefcatur/go-order-core/internal/redisx"
)

// OrdersHandler frames the order workflows over HTTP. Draft mutation is
// orchestrated inline; placing and reading go through the dedicated
// handlers.
type OrdersHandler struct {
	Repo  orders.Repository
	Place *orders.PlaceOrderHandler
	Get   *orders.GetOrderHandler
	Bus   orders.EventBus
	UoW   orders.UnitOfWork
	Redis *redis.Client
	Log   *zap.SugaredLogger
}

func (h *OrdersHandler) unit() orders.UnitOfWork {
	if h.UoW == nil {
		return orders.NopUnitOfWork{}
	}
	return h.UoW
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Post("/orders", h.createOrder)
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{id}", h.getOrder)
	r.Post("/orders/{id}/lines", h.addLine)
	r.Delete("/orders/{id}/lines/{productID}", h.removeLine)
	r.Post("/orders/{id}/place", h.placeOrder)
	r.Post("/orders/{id}/cancel", h.cancelOrder)
}

type CreateOrderReq struct {
	OrderID    string `json:"order_id,omitempty"`
	CustomerID string `json:"customer_id"`
}

type AddLineReq struct {
	ProductID      string `json:"product_id"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Currency       string `json:"currency"`
}

type PlaceOrderResp struct {
	OrderID     string `json:"order_id"`
	TotalAmount int64  `json:"total_amount"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// statusFromErr maps the closed domain error set to HTTP codes. Anything
// outside the set is a 500 with a generic body.
func statusFromErr(err error) int {
	switch {
	case errors.Is(err, orders.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, orders.ErrInvalidID),
		errors.Is(err, orders.ErrInvalidMoney),
		errors.Is(err, orders.ErrInvalidQuantity),
		errors.Is(err, orders.ErrCurrencyMismatch):
		return http.StatusBadRequest
	case errors.Is(err, orders.ErrEmptyOrder),
		errors.Is(err, orders.ErrAlreadyPlaced),
		errors.Is(err, orders.ErrInvalidState),
		errors.Is(err, orders.ErrConcurrencyConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (h *OrdersHandler) writeDomainErr(w http.ResponseWriter, err error) {
	code := statusFromErr(err)
	if code == http.StatusInternalServerError {
		h.Log.Errorw("request failed", "error", err)
		writeError(w, code, "internal error")
		return
	}
	writeError(w, code, err.Error())
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.OrderID == "" {
		req.OrderID = uuid.NewString()
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	orderID, err := orders.NewOrderID(req.OrderID)
	if err != nil {
		h.writeDomainErr(w, err)
		return
	}
	customerID, err := orders.NewCustomerID(req.CustomerID)
	if err != nil {
		h.writeDomainErr(w, err)
		return
	}
	order, err := orders.NewOrder(orderID, customerID)
	if err != nil {
		h.writeDomainErr(w, err)
		return
	}
	if err := h.Repo.Save(ctx, order); err != nil {
		h.writeDomainErr(w, err)
		return
	}

	summary, err := orders.Summarize(order)
	if err != nil {
		h.writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, summary)
}

func (h *OrdersHandler) addLine(w http.ResponseWriter, r *http.Request) {
	var req AddLineReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	h.mutateOrder(ctx, w, chi.URLParam(r, "id"), func(order *orders.Order) error {
		price, err := orders.NewMoney(req.UnitPriceCents, req.Currency)
		if err != nil {
			return err
		}
		return order.AddLine(req.ProductID, req.Quantity, price)
	})
}

func (h *OrdersHandler) removeLine(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	productID := chi.URLParam(r, "productID")
	h.mutateOrder(ctx, w, chi.URLParam(r, "id"), func(order *orders.Order) error {
		return order.RemoveLine(productID)
	})
}

func (h *OrdersHandler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	orderID, err := orders.NewOrderID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainErr(w, err)
		return
	}
	order, err := h.Repo.GetByID(ctx, orderID)
	if err != nil {
		h.writeDomainErr(w, err)
		return
	}
	if err := order.Cancel(); err != nil {
		h.writeDomainErr(w, err)
		return
	}
	err = h.unit().Do(ctx, func(ctx context.Context) error {
		if err := h.Repo.Save(ctx, order); err != nil {
			return err
		}
		return h.Bus.Publish(ctx, orders.TopicOrderCancelled, orders.OrderCancelledPayload{
			OrderID:    order.ID().String(),
			CustomerID: order.CustomerID().String(),
		})
	})
	if err != nil {
		h.writeDomainErr(w, err)
		return
	}

	summary, err := orders.Summarize(order)
	if err != nil {
		h.writeDomainErr(w, err)
		return
	}
	h.cacheSummary(ctx, summary)
	writeJSON(w, http.StatusOK, summary)
}

// mutateOrder loads, applies the mutation, saves and refreshes the summary
// cache.
func (h *OrdersHandler) mutateOrder(ctx context.Context, w http.ResponseWriter, rawID string, mutate func(*orders.Order) error) {
	orderID, err := orders.NewOrderID(rawID)
	if err != nil {
		h.writeDomainErr(w, err)
		return
	}
	order, err := h.Repo.GetByID(ctx, orderID)
	if err != nil {
		h.writeDomainErr(w, err)
		return
	}
	if err := mutate(order); err != nil {
		h.writeDomainErr(w, err)
		return
	}
	if err := h.Repo.Save(ctx, order); err != nil {
		h.writeDomainErr(w, err)
		return
	}

	summary, err := orders.Summarize(order)
	if err != nil {
		h.writeDomainErr(w, err)
		return
	}
	h.cacheSummary(ctx, summary)
	writeJSON(w, http.StatusOK, summary)
}

func (h *OrdersHandler) placeOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	orderID := chi.URLParam(r, "id")
	result, err := h.Place.Execute(ctx, orders.PlaceOrderCommand{
		OrderID:     orderID,
		RequestedBy: r.Header.Get("X-Request-Id"),
	})
	if err != nil {
		h.Log.Errorw("place order failed", "order_id", orderID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !result.Success {
		h.invalidateSummary(ctx, orderID)
		writeError(w, http.StatusUnprocessableEntity, result.ErrorMessage)
		return
	}

	h.invalidateSummary(ctx, orderID)
	writeJSON(w, http.StatusOK, PlaceOrderResp{OrderID: result.OrderID, TotalAmount: result.TotalAmount})
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	orderID := chi.URLParam(r, "id")
	if h.Redis != nil {
		key := fmt.Sprintf(redisx.KeyOrderSummary, orderID)
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			writeJSON(w, http.StatusOK, json.RawMessage(s))
			return
		}
	}

	summary, err := h.Get.Execute(ctx, orders.GetOrderQuery{OrderID: orderID})
	if err != nil {
		h.writeDomainErr(w, err)
		return
	}
	h.cacheSummary(ctx, summary)
	writeJSON(w, http.StatusOK, summary)
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var (
		found []*orders.Order
		err   error
	)
	switch {
	case r.URL.Query().Get("customer_id") != "":
		customerID, idErr := orders.NewCustomerID(r.URL.Query().Get("customer_id"))
		if idErr != nil {
			h.writeDomainErr(w, idErr)
			return
		}
		found, err = h.Repo.FindByCustomer(ctx, customerID)
	case r.URL.Query().Get("status") != "":
		status, ok := orders.ParseStatus(r.URL.Query().Get("status"))
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown status")
			return
		}
		found, err = h.Repo.FindByStatus(ctx, status)
	default:
		found, err = h.Repo.FindPending(ctx)
	}
	if err != nil {
		h.writeDomainErr(w, err)
		return
	}

	summaries := make([]*orders.OrderSummary, 0, len(found))
	for _, order := range found {
		summary, err := orders.Summarize(order)
		if err != nil {
			h.writeDomainErr(w, err)
			return
		}
		summaries = append(summaries, summary)
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (h *OrdersHandler) cacheSummary(ctx context.Context, summary *orders.OrderSummary) {
	if h.Redis == nil {
		return
	}
	b, err := json.Marshal(summary)
	if err != nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyOrderSummary, summary.ID)
	if err := h.Redis.Set(ctx, key, b, redisx.TTLOrderSummary).Err(); err != nil {
		h.Log.Warnw("summary cache write failed", "order_id", summary.ID, "error", err)
	}
}

func (h *OrdersHandler) invalidateSummary(ctx context.Context, orderID string) {
	if h.Redis == nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyOrderSummary, orderID)
	if err := h.Redis.Del(ctx, key).Err(); err != nil {
		h.Log.Warnw("summary cache invalidation failed", "order_id", orderID, "error", err)
	}
}
