package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-order-core/internal/metrics"
)

func TestNewHTTPMetrics_SeparateRegistries(t *testing.T) {
	// two constructions in one process must not collide
	assert.NotPanics(t, func() {
		metrics.NewHTTPMetrics(prometheus.NewRegistry(), "api")
		metrics.NewHTTPMetrics(prometheus.NewRegistry(), "api")
	})
}

func TestMiddleware_CountsRequestsPerRoute(t *testing.T) {
	m := metrics.NewHTTPMetrics(prometheus.NewRegistry(), "api")

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/orders/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/orders/ord-1")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, float64(1), testutil.ToFloat64(m.Requests.WithLabelValues("/orders/{id}", "200")))
}
