// AngelaMos | 2026
// handler_test.go

package admin

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/recipe-shop/internal/order"
	"github.com/carterperez-dev/recipe-shop/internal/product"
)

type stubOrders struct {
	counts map[order.Status]int
	err    error
}

func (s stubOrders) StatusCounts(context.Context) (map[order.Status]int, error) {
	return s.counts, s.err
}

type stubCatalog []product.Product

func (s stubCatalog) LowStock(_ context.Context, threshold int) ([]product.Product, error) {
	var out []product.Product
	for _, p := range s {
		if p.Stock <= threshold {
			out = append(out, p)
		}
	}
	return out, nil
}

func passthrough(next http.Handler) http.Handler { return next }

func newRouter(cfg HandlerConfig) http.Handler {
	r := chi.NewRouter()
	NewHandler(cfg).RegisterRoutes(r, passthrough, passthrough)
	return r
}

func TestSystemStats(t *testing.T) {
	h := newRouter(HandlerConfig{
		DBStats: func() sql.DBStats { return sql.DBStats{OpenConnections: 3} },
		DBPing:  func(context.Context) error { return nil },
		RedisPing: func(context.Context) error {
			return errors.New("redis down")
		},
		Orders: stubOrders{counts: map[order.Status]int{
			order.StatusPending: 2,
			order.StatusPaid:    1,
		}},
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data OverviewResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.True(t, body.Data.Database.Healthy)
	require.NotNil(t, body.Data.Database.Pool)
	assert.Equal(t, 3, body.Data.Database.Pool.Open)
	assert.False(t, body.Data.Redis.Healthy)
	assert.Equal(t, "redis down", body.Data.Redis.Error)
	assert.Nil(t, body.Data.Redis.Pool)
	assert.Equal(t, 2, body.Data.Orders["PENDING"])
	assert.Equal(t, 1, body.Data.Orders["PAID"])
	assert.NotEmpty(t, body.Data.Runtime.GoVersion)
}

func TestOrderStatsError(t *testing.T) {
	h := newRouter(HandlerConfig{Orders: stubOrders{err: errors.New("boom")}})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/stats/orders", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestLowStock(t *testing.T) {
	h := newRouter(HandlerConfig{Catalog: stubCatalog{
		{ID: 1, Name: "Yeast", Stock: 0},
		{ID: 2, Name: "Flour", Stock: 4},
		{ID: 3, Name: "Sugar", Stock: 30},
	}})

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	var body struct {
		Data LowStockResponse `json:"data"`
	}

	rec := get("/admin/stats/low-stock")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 5, body.Data.Threshold)
	assert.Equal(t, 2, body.Data.Count)

	rec = get("/admin/stats/low-stock?threshold=0")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data.Items, 1)
	assert.Equal(t, "Yeast", body.Data.Items[0].Name)

	assert.Equal(t, http.StatusBadRequest, get("/admin/stats/low-stock?threshold=few").Code)
}
