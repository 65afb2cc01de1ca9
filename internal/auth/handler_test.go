// AngelaMos | 2026
// handler_test.go

package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/recipe-shop/internal/core"
)

func passthrough(next http.Handler) http.Handler { return next }

type envelope struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
}

func newAuthRouter(t *testing.T) http.Handler {
	t.Helper()
	svc, _ := newTestService(t)
	r := chi.NewRouter()
	NewHandler(svc).RegisterRoutes(r, passthrough, passthrough, passthrough)
	return r
}

func post(t *testing.T, h http.Handler, path, body string) (int, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec.Code, env
}

func TestRegisterHandler(t *testing.T) {
	h := newAuthRouter(t)

	code, env := post(t, h, "/auth/register",
		`{"email":" Chef@Example.COM ","password":"longenough","name":" Chef ","role":"admin"}`)
	require.Equal(t, http.StatusCreated, code)

	var resp AuthResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, "chef@example.com", resp.User.Email)
	assert.Equal(t, "Chef", resp.User.Name)
	assert.Equal(t, core.RoleAdmin, resp.User.Role)
	assert.NotEmpty(t, resp.Tokens.AccessToken)

	code, env = post(t, h, "/auth/register",
		`{"email":"chef@example.com","password":"longenough","name":"Chef"}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "CONFLICT", env.Code)

	code, env = post(t, h, "/auth/register", `{"email":"nope","password":"short","name":""}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, env.Success)
}

func TestLoginHandler(t *testing.T) {
	h := newAuthRouter(t)

	code, _ := post(t, h, "/auth/register",
		`{"email":"a@example.com","password":"longenough","name":"A"}`)
	require.Equal(t, http.StatusCreated, code)

	code, env := post(t, h, "/auth/login", `{"email":"A@example.com","password":"longenough"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)

	code, env = post(t, h, "/auth/login", `{"email":"a@example.com","password":"incorrect"}`)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "invalid email or password", env.Error)

	code, _ = post(t, h, "/auth/login", `not json`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestGetMeAnonymous(t *testing.T) {
	h := newAuthRouter(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/me", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":{"user":null}}`, rec.Body.String())
}
