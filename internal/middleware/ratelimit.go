// AngelaMos | 2026
// ratelimit.go

package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/carterperez-dev/recipe-shop/internal/core"
)

// RateLimitConfig is one named limiting policy. Requests are bucketed by
// KeyFunc; when Redis cannot be reached the buckets live in process memory
// until it recovers.
type RateLimitConfig struct {
	Name      string
	Limit     redis_rate.Limit
	KeyFunc   func(*http.Request) string
	OnLimited func(policy string)
}

type RateLimiter struct {
	limiter  *redis_rate.Limiter
	fallback *localLimiter
	config   RateLimitConfig
	degraded atomic.Bool
}

func NewRateLimiter(rdb *redis.Client, cfg RateLimitConfig) *RateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = KeyByIP
	}
	if cfg.Name == "" {
		cfg.Name = "global"
	}

	return &RateLimiter{
		limiter:  redis_rate.NewLimiter(rdb),
		fallback: newLocalLimiter(cfg.Limit),
		config:   cfg,
	}
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res := rl.take(r.Context(), rl.config.KeyFunc(r))

		setRateLimitHeaders(w, res, rl.config.Limit)

		if res.Allowed == 0 {
			if rl.config.OnLimited != nil {
				rl.config.OnLimited(rl.config.Name)
			}
			writeRateLimitExceeded(w, res)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Stop ends the background sweep of the in-process buckets.
func (rl *RateLimiter) Stop() {
	rl.fallback.stop()
}

func (rl *RateLimiter) take(ctx context.Context, key string) *redis_rate.Result {
	key = rl.config.Name + ":" + key

	res, err := rl.limiter.Allow(ctx, key, rl.config.Limit)
	if err != nil {
		if rl.degraded.CompareAndSwap(false, true) {
			slog.WarnContext(ctx, "rate limiter using local buckets",
				"policy", rl.config.Name,
				"error", err,
			)
		}
		return rl.fallback.allow(key)
	}

	if rl.degraded.CompareAndSwap(true, false) {
		slog.InfoContext(ctx, "rate limiter back on redis", "policy", rl.config.Name)
	}
	return res
}

func KeyByIP(r *http.Request) string {
	return "ratelimit:ip:" + ClientIP(r)
}

// ClientIP trusts the last X-Forwarded-For hop, which is the one appended
// by our own proxy.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		return strings.TrimSpace(hops[len(hops)-1])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func KeyByUser(r *http.Request) string {
	if userID := GetUserID(r.Context()); userID != 0 {
		return "ratelimit:user:" + strconv.FormatInt(userID, 10)
	}
	return KeyByIP(r)
}

func KeyByUserAndEndpoint(r *http.Request) string {
	return KeyByUser(r) + ":endpoint:" + normalizeEndpoint(r.URL.Path)
}

// normalizeEndpoint folds numeric path segments so /orders/1 and /orders/2
// share a bucket.
func normalizeEndpoint(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, part := range parts {
		if _, err := strconv.ParseUint(part, 10, 64); err == nil {
			parts[i] = "{id}"
		}
	}
	return "/" + strings.Join(parts, "/")
}

func setRateLimitHeaders(
	w http.ResponseWriter,
	res *redis_rate.Result,
	limit redis_rate.Limit,
) {
	h := w.Header()

	h.Set("X-RateLimit-Limit", strconv.Itoa(limit.Rate))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(
		time.Now().Add(res.ResetAfter).Unix(), 10))
	h.Set("RateLimit-Policy", fmt.Sprintf("%d;w=%d", limit.Rate, int(limit.Period.Seconds())))
}

func writeRateLimitExceeded(w http.ResponseWriter, res *redis_rate.Result) {
	retryAfter := max(int(res.RetryAfter.Seconds()), 1)

	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

	core.JSONError(w, core.NewAppError(
		nil,
		fmt.Sprintf("rate limit exceeded, retry after %d seconds", retryAfter),
		http.StatusTooManyRequests,
		"RATE_LIMITED",
	))
}

const (
	sweepInterval = 5 * time.Minute
	bucketTTL     = 10 * time.Minute
)

type bucket struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

// localLimiter is the in-process stand-in used while Redis is down. Idle
// buckets are swept periodically.
type localLimiter struct {
	limit    redis_rate.Limit
	every    rate.Limit
	buckets  sync.Map
	done     chan struct{}
	stopOnce sync.Once
}

func newLocalLimiter(limit redis_rate.Limit) *localLimiter {
	l := &localLimiter{
		limit: limit,
		every: rate.Limit(float64(limit.Rate) / limit.Period.Seconds()),
		done:  make(chan struct{}),
	}
	go l.sweep()
	return l
}

func (l *localLimiter) stop() {
	l.stopOnce.Do(func() { close(l.done) })
}

func (l *localLimiter) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case now := <-ticker.C:
			cutoff := now.Add(-bucketTTL).Unix()
			l.buckets.Range(func(key, value any) bool {
				if b, ok := value.(*bucket); ok && b.lastSeen.Load() < cutoff {
					l.buckets.Delete(key)
				}
				return true
			})
		}
	}
}

func (l *localLimiter) bucketFor(key string) *bucket {
	if v, ok := l.buckets.Load(key); ok {
		return v.(*bucket)
	}
	v, _ := l.buckets.LoadOrStore(key, &bucket{
		limiter: rate.NewLimiter(l.every, l.limit.Burst),
	})
	return v.(*bucket)
}

func (l *localLimiter) allow(key string) *redis_rate.Result {
	now := time.Now()
	b := l.bucketFor(key)
	b.lastSeen.Store(now.Unix())

	res := &redis_rate.Result{
		Limit:      l.limit,
		ResetAfter: time.Duration(float64(time.Second) / float64(l.every)),
		RetryAfter: -1,
	}

	if b.limiter.AllowN(now, 1) {
		res.Allowed = 1
	} else {
		reservation := b.limiter.ReserveN(now, 1)
		res.RetryAfter = reservation.DelayFrom(now)
		reservation.CancelAt(now)
	}

	res.Remaining = max(int(b.limiter.TokensAt(now)), 0)
	return res
}

func PerMinute(rate, burst int) redis_rate.Limit {
	return PerWindow(rate, burst, time.Minute)
}

// PerWindow allows rate requests per window with bursts up to burst.
func PerWindow(rate, burst int, window time.Duration) redis_rate.Limit {
	return redis_rate.Limit{Rate: rate, Burst: burst, Period: window}
}
