// AngelaMos | 2026
// handler_test.go

package order

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/recipe-shop/internal/core"
	"github.com/carterperez-dev/recipe-shop/internal/middleware"
)

// asIdentity stands in for the token authenticator. The caller is read
// from X-Test-User as "<id>:<role>".
func asIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get("X-Test-User")
		if raw == "" {
			core.Unauthorized(w, "missing authorization token")
			return
		}
		idPart, rolePart, _ := strings.Cut(raw, ":")
		id, _ := strconv.ParseInt(idPart, 10, 64)
		role, _ := core.ParseRole(rolePart)
		ctx := middleware.WithIdentity(r.Context(), core.Identity{UserID: id, Role: role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func newTestRouter(f fixture) http.Handler {
	r := chi.NewRouter()
	NewHandler(f.svc).RegisterRoutes(r, asIdentity, middleware.RequireUser, middleware.RequireAdmin)
	return r
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
}

func do(t *testing.T, h http.Handler, method, path, user, body string) (int, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func TestHandlerCreateOrder(t *testing.T) {
	h := newTestRouter(newFixture())

	code, env := do(t, h, http.MethodPost, "/orders", "1:user",
		`{"items":[{"product_id":"1","quantity":3}]}`)

	require.Equal(t, http.StatusCreated, code)
	assert.True(t, env.Success)

	var got OrderResponse
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "7.50", got.TotalPrice)
	assert.Equal(t, StatusPending, got.Status)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "2.50", got.Items[0].PriceAtPurchase)
	assert.Equal(t, "Flour", got.Items[0].ProductName)
}

func TestHandlerCreateOrderErrors(t *testing.T) {
	h := newTestRouter(newFixture())

	code, env := do(t, h, http.MethodPost, "/orders", "", `{"items":[]}`)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, env.Success)

	code, env = do(t, h, http.MethodPost, "/orders", "9:admin",
		`{"items":[{"product_id":1,"quantity":1}]}`)
	assert.Equal(t, http.StatusForbidden, code)

	code, env = do(t, h, http.MethodPost, "/orders", "1:user", `{"items":[]}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "items must be a non-empty array", env.Error)

	code, env = do(t, h, http.MethodPost, "/orders", "1:user",
		`{"items":[{"product_id":1,"quantity":11}]}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INSUFFICIENT_STOCK", env.Code)

	code, env = do(t, h, http.MethodPost, "/orders", "1:user",
		`{"items":[{"product_id":1,"quantity":1},{"product_id":1,"quantity":1}]}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "duplicate product in order items is not allowed", env.Error)

	code, _ = do(t, h, http.MethodPost, "/orders", "1:user", `not json`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestHandlerOrderLifecycle(t *testing.T) {
	f := newFixture()
	h := newTestRouter(f)
	o := f.mustCreate(t, alice, line(1, 2))
	path := "/orders/" + strconv.FormatInt(o.ID, 10)

	code, _ := do(t, h, http.MethodGet, path, "2:user", "")
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = do(t, h, http.MethodGet, "/orders/999", "1:user", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = do(t, h, http.MethodPut, path+"/status", "1:user", `{"status":"PAID"}`)
	assert.Equal(t, http.StatusForbidden, code)

	code, env := do(t, h, http.MethodPut, path+"/status", "9:admin", `{"status":"paid"}`)
	require.Equal(t, http.StatusOK, code)
	var status StatusResponse
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.Equal(t, StatusPaid, status.Status)

	code, env = do(t, h, http.MethodPost, path+"/cancel", "1:user", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INVALID_TRANSITION", env.Code)
}

func TestHandlerListOrders(t *testing.T) {
	f := newFixture()
	h := newTestRouter(f)
	f.mustCreate(t, alice, line(1, 1))
	f.mustCreate(t, bob, line(2, 1))

	code, env := do(t, h, http.MethodGet, "/orders?sort=total_price&dir=asc", "1:user", "")
	require.Equal(t, http.StatusOK, code)

	var list OrderListResponse
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, 1, list.Count)
	assert.Equal(t, "total_price", list.Sort)
	assert.Equal(t, "asc", list.Dir)

	code, env = do(t, h, http.MethodGet, "/orders?userId=abc", "9:admin", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "userId must be an integer", env.Error)
}

func TestHandlerOrderItems(t *testing.T) {
	f := newFixture()
	h := newTestRouter(f)
	o := f.mustCreate(t, alice, line(1, 1))

	code, env := do(t, h, http.MethodGet, "/order-items", "1:user", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "orderId query param is required", env.Error)

	code, env = do(t, h, http.MethodGet,
		"/order-items?orderId="+strconv.FormatInt(o.ID, 10), "1:user", "")
	require.Equal(t, http.StatusOK, code)
	var list ItemListResponse
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, 1, list.Count)
	assert.Equal(t, o.ID, list.OrderID)

	itemPath := "/order-items/" + strconv.FormatInt(o.Items[0].ID, 10)

	code, env = do(t, h, http.MethodPut, itemPath, "1:user", `{}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "quantity is required", env.Error)

	code, env = do(t, h, http.MethodPut, itemPath, "1:user", `{"quantity":"5"}`)
	require.Equal(t, http.StatusOK, code)
	var item ItemResponse
	require.NoError(t, json.Unmarshal(env.Data, &item))
	assert.Equal(t, 5, item.Quantity)

	stored, err := f.repo.GetByID(t.Context(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, "12.50", stored.TotalPrice.StringFixed(2))
}
