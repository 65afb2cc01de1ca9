// AngelaMos | 2026
// jwt_test.go

package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/recipe-shop/internal/config"
	"github.com/carterperez-dev/recipe-shop/internal/core"
)

func newTestJWTManager(t *testing.T, audience string) *JWTManager {
	t.Helper()

	dir := t.TempDir()
	cfg := config.JWTConfig{
		PrivateKeyPath:     filepath.Join(dir, "private.pem"),
		PublicKeyPath:      filepath.Join(dir, "public.pem"),
		AccessTokenExpire:  15 * time.Minute,
		RefreshTokenExpire: time.Hour,
		Issuer:             "recipe-shop",
		Audience:           audience,
	}
	require.NoError(t, GenerateKeyPair(cfg.PrivateKeyPath, cfg.PublicKeyPath))

	m, err := NewJWTManager(cfg)
	require.NoError(t, err)
	return m
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := newTestJWTManager(t, "recipe-shop-api")

	token, err := m.CreateAccessToken(AccessTokenClaims{UserID: 42, Role: core.RoleAdmin})
	require.NoError(t, err)

	claims, err := m.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, core.RoleAdmin, claims.Role)
	assert.NotEmpty(t, claims.JTI)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), claims.ExpiresAt, 5*time.Second)
}

func TestVerifyAccessTokenRejects(t *testing.T) {
	m := newTestJWTManager(t, "recipe-shop-api")
	other := newTestJWTManager(t, "recipe-shop-api")

	foreign, err := other.CreateAccessToken(AccessTokenClaims{UserID: 1, Role: core.RoleUser})
	require.NoError(t, err)

	_, err = m.VerifyAccessToken(foreign)
	assert.ErrorIs(t, err, core.ErrTokenInvalid)

	_, err = m.VerifyAccessToken("not.a.token")
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestVerifyAccessTokenAudience(t *testing.T) {
	m := newTestJWTManager(t, "recipe-shop-api")
	wrong := *m
	wrong.config.Audience = "someone-else"

	token, err := wrong.CreateAccessToken(AccessTokenClaims{UserID: 1, Role: core.RoleUser})
	require.NoError(t, err)

	_, err = m.VerifyAccessToken(token)
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestCreateRefreshToken(t *testing.T) {
	m := newTestJWTManager(t, "recipe-shop-api")

	fresh, err := m.CreateRefreshToken("")
	require.NoError(t, err)
	assert.NotEmpty(t, fresh.FamilyID)
	assert.Equal(t, core.HashToken(fresh.Token), fresh.Hash)

	rotated, err := m.CreateRefreshToken(fresh.FamilyID)
	require.NoError(t, err)
	assert.Equal(t, fresh.FamilyID, rotated.FamilyID)
	assert.NotEqual(t, fresh.Token, rotated.Token)
}

func TestJWKSHandler(t *testing.T) {
	m := newTestJWTManager(t, "recipe-shop-api")

	rec := httptest.NewRecorder()
	m.GetJWKSHandler()(rec, httptest.NewRequest(http.MethodGet, "/.well-known/jwks.json", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Keys []map[string]any `json:"keys"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Keys, 1)
	assert.Equal(t, m.GetKeyID(), body.Keys[0]["kid"])
	assert.Equal(t, "EC", body.Keys[0]["kty"])
	assert.NotContains(t, body.Keys[0], "d")
}

func TestKeyIDStableAcrossLoads(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "keys")
	cfg := config.JWTConfig{
		PrivateKeyPath: filepath.Join(dir, "private.pem"),
		PublicKeyPath:  filepath.Join(dir, "public.pem"),
		Issuer:         "recipe-shop",
		Audience:       "recipe-shop-api",
	}
	require.NoError(t, GenerateKeyPair(cfg.PrivateKeyPath, cfg.PublicKeyPath))

	a, err := NewJWTManager(cfg)
	require.NoError(t, err)
	b, err := NewJWTManager(cfg)
	require.NoError(t, err)

	assert.NotEmpty(t, a.GetKeyID())
	assert.Equal(t, a.GetKeyID(), b.GetKeyID())
	assert.FileExists(t, cfg.PublicKeyPath)
}
