// AngelaMos | 2026
// core_test.go

package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/argon2"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	require.NoError(t, err)

	ok, err := VerifyPassword("correct horse battery", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyPasswordWithRehashUpgradesOldParams(t *testing.T) {
	salt := []byte("0123456789abcdef")
	old := PasswordParams{Memory: 32 * 1024, Time: 1, Threads: 2, KeyLen: 32}
	legacy := passwordHash{
		params: old,
		salt:   salt,
		key:    argon2.IDKey([]byte("pw"), salt, old.Time, old.Memory, old.Threads, old.KeyLen),
	}.String()

	ok, upgraded, err := VerifyPasswordWithRehash("pw", legacy)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NotEmpty(t, upgraded)

	ok, again, err := VerifyPasswordWithRehash("pw", upgraded)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, again)
}

func TestVerifyPasswordMalformed(t *testing.T) {
	_, err := VerifyPassword("pw", "$bcrypt$nope")
	assert.ErrorIs(t, err, ErrMalformedHash)

	_, err = VerifyPassword("pw", "$argon2id$v=19$m=x$salt$key")
	assert.ErrorIs(t, err, ErrMalformedHash)
}

func TestVerifyPasswordTimingSafeMissingAccount(t *testing.T) {
	ok, upgraded, err := VerifyPasswordTimingSafe("anything", nil)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, upgraded)
}

func TestHashTokenIsStable(t *testing.T) {
	token, err := GenerateRefreshToken()
	require.NoError(t, err)

	assert.Equal(t, HashToken(token), HashToken(token))
	assert.Len(t, HashToken(token), 64)
	assert.NotEqual(t, HashToken(token), HashToken(token+"x"))
}

func TestClassifyError(t *testing.T) {
	dup := ClassifyError(&pgconn.PgError{Code: "23505", ConstraintName: "products_name_key"})
	assert.ErrorIs(t, dup, ErrDuplicateKey)
	assert.Contains(t, dup.Error(), "products_name_key")

	fk := ClassifyError(fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "23503"}))
	assert.ErrorIs(t, fk, ErrReferenced)

	other := errors.New("boom")
	assert.Equal(t, other, ClassifyError(other))
}

func TestParseRole(t *testing.T) {
	role, ok := ParseRole(" ADMIN ")
	assert.True(t, ok)
	assert.Equal(t, RoleAdmin, role)

	_, ok = ParseRole("superuser")
	assert.False(t, ok)
}

func TestIdentityCanAccessOwnedBy(t *testing.T) {
	user := Identity{UserID: 1, Role: RoleUser}
	admin := Identity{UserID: 2, Role: RoleAdmin}

	assert.True(t, user.CanAccessOwnedBy(1))
	assert.False(t, user.CanAccessOwnedBy(3))
	assert.True(t, admin.CanAccessOwnedBy(3))
}

func TestFlexInt(t *testing.T) {
	var v struct {
		A FlexInt  `json:"a"`
		B FlexInt  `json:"b"`
		C *FlexInt `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":7,"b":" 12 ","c":null}`), &v))
	assert.Equal(t, int64(7), v.A.Int64())
	assert.Equal(t, 12, v.B.Int())
	assert.Nil(t, v.C)

	assert.Error(t, json.Unmarshal([]byte(`{"a":"seven"}`), &v))
	assert.Error(t, json.Unmarshal([]byte(`{"a":1.5}`), &v))
}

func TestFlexIntCountBound(t *testing.T) {
	var v struct {
		N FlexInt `json:"n"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"n":"3000000000"}`), &v))
	assert.True(t, v.N.ExceedsCount())
	assert.False(t, FlexInt(MaxCount).ExceedsCount())

	err := CountTooLargeError("stock")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "stock must be <= 2147483647", err.Message)
}

func TestOptional(t *testing.T) {
	var v struct {
		Name Optional[string] `json:"name"`
		Unit Optional[string] `json:"unit"`
		Note Optional[string] `json:"note"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Flour","unit":null}`), &v))

	assert.True(t, v.Name.Set)
	require.NotNil(t, v.Name.Value)
	assert.Equal(t, "Flour", *v.Name.Value)

	assert.True(t, v.Unit.Set)
	assert.Nil(t, v.Unit.Value)

	assert.False(t, v.Note.Set)
}

func TestParseID(t *testing.T) {
	id, err := ParseID(" 42 ")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, raw := range []string{"", "0", "-1", "abc", "1.5"} {
		_, err := ParseID(raw)
		assert.ErrorIs(t, err, ErrInvalidInput, raw)
	}
}

func TestNormalizeSort(t *testing.T) {
	allowed := map[string]struct{}{"name": {}, "price": {}}

	key, dir := NormalizeSort("PRICE", "ASC", allowed, "name", "desc")
	assert.Equal(t, "price", key)
	assert.Equal(t, "asc", dir)

	key, dir = NormalizeSort("password; drop", "sideways", allowed, "name", "desc")
	assert.Equal(t, "name", key)
	assert.Equal(t, "desc", dir)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\%\_off\\`, EscapeLike(`50%_off\`))
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestWriteErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"app error", InsufficientStockError("Flour"), http.StatusBadRequest, "INSUFFICIENT_STOCK"},
		{"batch not found", ProductsNotFoundError(), http.StatusBadRequest, "PRODUCT_NOT_FOUND"},
		{"not found", fmt.Errorf("get: %w", ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"duplicate", fmt.Errorf("create: %w", ErrDuplicateKey), http.StatusConflict, "CONFLICT"},
		{"referenced", ErrReferenced, http.StatusConflict, "CONFLICT"},
		{"transition", ErrInvalidTransition, http.StatusBadRequest, "INVALID_TRANSITION"},
		{"forbidden", ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{"unknown", errors.New("db exploded"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, tt.err, "product")

			assert.Equal(t, tt.status, rec.Code)
			resp := decode(t, rec)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.code, resp.Code)
			assert.NotContains(t, resp.Error, "db exploded")
		})
	}
}

func TestNotFoundMessageNamesResource(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, ErrNotFound, "order")

	assert.Equal(t, "order not found", decode(t, rec).Error)
}

func TestMessageEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	Message(rec, http.StatusCreated, "product created", map[string]int{"id": 1})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	resp := decode(t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, "product created", resp.Message)
}

func TestPaginatedMeta(t *testing.T) {
	rec := httptest.NewRecorder()
	Paginated(rec, []int{}, 2, 20, 41)

	resp := decode(t, rec)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 3, resp.Meta.TotalPages)
	assert.Equal(t, 2, resp.Meta.Page)
}
