// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"database/sql"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/recipe-shop/internal/core"
	"github.com/carterperez-dev/recipe-shop/internal/order"
	"github.com/carterperez-dev/recipe-shop/internal/product"
)

const defaultLowStockThreshold = 5

// OrderStats reports how many orders sit in each status.
type OrderStats interface {
	StatusCounts(ctx context.Context) (map[order.Status]int, error)
}

// Catalog reports products that are running out.
type Catalog interface {
	LowStock(ctx context.Context, threshold int) ([]product.Product, error)
}

// HandlerConfig wires the admin dashboard to its data sources. Any field
// left nil is reported as absent rather than failing the request.
type HandlerConfig struct {
	DBStats    func() sql.DBStats
	RedisStats func() *redis.PoolStats
	DBPing     func(ctx context.Context) error
	RedisPing  func(ctx context.Context) error
	Orders     OrderStats
	Catalog    Catalog
}

type Handler struct {
	cfg HandlerConfig
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{cfg: cfg}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/stats", h.Overview)
		r.Get("/stats/db", h.DatabaseStats)
		r.Get("/stats/redis", h.RedisStats)
		r.Get("/stats/runtime", h.RuntimeStats)
		r.Get("/stats/orders", h.OrderStats)
		r.Get("/stats/low-stock", h.LowStock)
	})
}

// Overview combines dependency health, order volume by status and the
// process runtime into one payload for the dashboard.
func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orders, err := h.orderCounts(ctx)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, OverviewResponse{
		Database: DatabaseStatus{
			Probe: probe(ctx, h.cfg.DBPing),
			Pool:  h.dbPool(),
		},
		Redis: RedisStatus{
			Probe: probe(ctx, h.cfg.RedisPing),
			Pool:  h.redisPool(),
		},
		Runtime: readRuntimeStats(),
		Orders:  orders,
	})
}

func (h *Handler) DatabaseStats(w http.ResponseWriter, _ *http.Request) {
	core.OK(w, h.dbPool())
}

func (h *Handler) RedisStats(w http.ResponseWriter, _ *http.Request) {
	core.OK(w, h.redisPool())
}

func (h *Handler) RuntimeStats(w http.ResponseWriter, _ *http.Request) {
	core.OK(w, readRuntimeStats())
}

func (h *Handler) OrderStats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.orderCounts(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}
	core.OK(w, counts)
}

// LowStock lists products at or below ?threshold= (default 5).
func (h *Handler) LowStock(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Catalog == nil {
		core.OK(w, LowStockResponse{Items: []LowStockItem{}})
		return
	}

	threshold := defaultLowStockThreshold
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			core.BadRequest(w, "threshold must be an integer")
			return
		}
		threshold = n
	}

	products, err := h.cfg.Catalog.LowStock(r.Context(), threshold)
	if err != nil {
		core.WriteError(w, err, "product")
		return
	}

	items := make([]LowStockItem, 0, len(products))
	for _, p := range products {
		items = append(items, LowStockItem{ID: p.ID, Name: p.Name, Stock: p.Stock})
	}

	core.OK(w, LowStockResponse{Threshold: threshold, Items: items, Count: len(items)})
}

func (h *Handler) orderCounts(ctx context.Context) (map[string]int, error) {
	if h.cfg.Orders == nil {
		return nil, nil
	}

	counts, err := h.cfg.Orders.StatusCounts(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string]int, len(counts))
	for status, n := range counts {
		out[status.String()] = n
	}
	return out, nil
}

// probe times a ping. A nil ping counts as healthy with no latency.
func probe(ctx context.Context, ping func(context.Context) error) Probe {
	if ping == nil {
		return Probe{Healthy: true}
	}

	start := time.Now()
	err := ping(ctx)
	p := Probe{
		Healthy:   err == nil,
		LatencyMS: time.Since(start).Milliseconds(),
	}
	if err != nil {
		p.Error = err.Error()
	}
	return p
}

func readRuntimeStats() RuntimeStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return RuntimeStats{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		HeapAlloc:    mem.HeapAlloc,
		Sys:          mem.Sys,
		NumGC:        mem.NumGC,
	}
}

func (h *Handler) dbPool() *DBPoolStats {
	if h.cfg.DBStats == nil {
		return nil
	}

	s := h.cfg.DBStats()
	return &DBPoolStats{
		MaxOpen:      s.MaxOpenConnections,
		Open:         s.OpenConnections,
		InUse:        s.InUse,
		Idle:         s.Idle,
		WaitCount:    s.WaitCount,
		WaitDuration: s.WaitDuration.String(),
	}
}

func (h *Handler) redisPool() *RedisPoolStats {
	if h.cfg.RedisStats == nil {
		return nil
	}

	s := h.cfg.RedisStats()
	return &RedisPoolStats{
		Hits:     s.Hits,
		Misses:   s.Misses,
		Timeouts: s.Timeouts,
		Total:    s.TotalConns,
		Idle:     s.IdleConns,
		Stale:    s.StaleConns,
	}
}

type OverviewResponse struct {
	Database DatabaseStatus `json:"database"`
	Redis    RedisStatus    `json:"redis"`
	Runtime  RuntimeStats   `json:"runtime"`
	Orders   map[string]int `json:"orders,omitempty"`
}

type Probe struct {
	Healthy   bool   `json:"healthy"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

type DatabaseStatus struct {
	Probe
	Pool *DBPoolStats `json:"pool,omitempty"`
}

type RedisStatus struct {
	Probe
	Pool *RedisPoolStats `json:"pool,omitempty"`
}

type DBPoolStats struct {
	MaxOpen      int    `json:"max_open"`
	Open         int    `json:"open"`
	InUse        int    `json:"in_use"`
	Idle         int    `json:"idle"`
	WaitCount    int64  `json:"wait_count"`
	WaitDuration string `json:"wait_duration"`
}

type RedisPoolStats struct {
	Hits     uint32 `json:"hits"`
	Misses   uint32 `json:"misses"`
	Timeouts uint32 `json:"timeouts"`
	Total    uint32 `json:"total_conns"`
	Idle     uint32 `json:"idle_conns"`
	Stale    uint32 `json:"stale_conns"`
}

type RuntimeStats struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	NumCPU       int    `json:"num_cpu"`
	HeapAlloc    uint64 `json:"heap_alloc_bytes"`
	Sys          uint64 `json:"sys_bytes"`
	NumGC        uint32 `json:"num_gc"`
}

type LowStockItem struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Stock int    `json:"stock"`
}

type LowStockResponse struct {
	Threshold int            `json:"threshold"`
	Items     []LowStockItem `json:"items"`
	Count     int            `json:"count"`
}
