// AngelaMos | 2026
// metrics_test.go

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := New()

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/orders/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, id := range []string{"1", "2", "3"} {
		req := httptest.NewRequest(http.MethodGet, "/orders/"+id, nil)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	got := testutil.ToFloat64(
		m.requestTotal.WithLabelValues(http.MethodGet, "/orders/{id}", "418"),
	)
	assert.Equal(t, float64(3), got)
}

func TestDomainCounters(t *testing.T) {
	m := New()

	m.OrderCreated()
	m.OrderCreated()
	m.StockRejected()
	m.StatusChanged("PENDING", "CANCELLED")
	m.RateLimited("auth")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.ordersCreated))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.stockRejections))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		m.statusTransitions.WithLabelValues("PENDING", "CANCELLED"),
	))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.rateLimited.WithLabelValues("auth")))
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.OrderCreated()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "recipe_shop_orders_created_total")
}
