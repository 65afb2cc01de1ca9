// AngelaMos | 2026
// ratelimit_test.go

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unreachableRedis forces every limiter onto the in-process fallback.
func unreachableRedis(t *testing.T) *redis.Client {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestRateLimiterFallbackLimits(t *testing.T) {
	var limited []string
	rl := NewRateLimiter(unreachableRedis(t), RateLimitConfig{
		Name:      "auth",
		Limit:     PerMinute(1, 1),
		OnLimited: func(policy string) { limited = append(limited, policy) },
	})
	t.Cleanup(rl.Stop)

	h := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	first := send("192.0.2.10:5000")
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Limit"))

	second := send("192.0.2.10:5001")
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
	assert.Equal(t, "RATE_LIMITED", errorCode(t, second))
	assert.Equal(t, []string{"auth"}, limited)

	other := send("192.0.2.99:5000")
	assert.Equal(t, http.StatusOK, other.Code)
}

func TestRateLimiterStopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(unreachableRedis(t), RateLimitConfig{Limit: PerMinute(5, 5)})
	rl.Stop()
	rl.Stop()
	assert.Equal(t, "global", rl.config.Name)
}

func TestNormalizeEndpoint(t *testing.T) {
	assert.Equal(t, "/api/orders/{id}/cancel", normalizeEndpoint("/api/orders/42/cancel"))
	assert.Equal(t, "/api/auth/login", normalizeEndpoint("/api/auth/login/"))
	assert.Equal(t, "/api/order-items/{id}", normalizeEndpoint("/api/order-items/7"))
}

func TestKeyByIPPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1"
	req.Header.Set("X-Forwarded-For", "198.51.100.1, 203.0.113.7")

	assert.Equal(t, "ratelimit:ip:203.0.113.7", KeyByIP(req))
}
