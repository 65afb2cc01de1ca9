// AngelaMos | 2026
// handler.go

package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
)

const probeTimeout = 5 * time.Second

type Checker interface {
	Ping(ctx context.Context) error
}

type phase int32

const (
	phaseServing phase = iota
	phaseNotReady
	phaseDraining
)

type dependency struct {
	name    string
	checker Checker
}

// Handler answers liveness and readiness probes. Liveness never touches
// a dependency; readiness pings all of them concurrently.
type Handler struct {
	deps  []dependency
	phase atomic.Int32
}

// NewHandler probes the database and redis. A nil checker is skipped.
func NewHandler(db, redis Checker) *Handler {
	h := &Handler{}
	for _, d := range []dependency{{"database", db}, {"redis", redis}} {
		if d.checker != nil {
			h.deps = append(h.deps, d)
		}
	}
	return h
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.Liveness)
	r.Get("/livez", h.Liveness)
	r.Get("/health/db", h.Database)
	r.Get("/readyz", h.Readiness)
}

// SetReady toggles readiness. It has no effect once draining started.
func (h *Handler) SetReady(ready bool) {
	next := phaseNotReady
	if ready {
		next = phaseServing
	}
	for {
		cur := h.phase.Load()
		if phase(cur) == phaseDraining || h.phase.CompareAndSwap(cur, int32(next)) {
			return
		}
	}
}

// SetShutdown marks the process as draining so load balancers stop
// routing to it.
func (h *Handler) SetShutdown(draining bool) {
	if draining {
		h.phase.Store(int32(phaseDraining))
		return
	}
	h.phase.Store(int32(phaseServing))
}

func (h *Handler) Liveness(w http.ResponseWriter, _ *http.Request) {
	if phase(h.phase.Load()) == phaseDraining {
		write(w, http.StatusServiceUnavailable, Report{Status: "shutting_down"})
		return
	}
	write(w, http.StatusOK, Report{Status: "ok"})
}

// Database reports only the SQL store.
func (h *Handler) Database(w http.ResponseWriter, r *http.Request) {
	for _, d := range h.deps {
		if d.name == "database" {
			h.report(w, r, []dependency{d}, "unavailable")
			return
		}
	}
	write(w, http.StatusServiceUnavailable, Report{Status: "unavailable"})
}

func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	switch phase(h.phase.Load()) {
	case phaseDraining:
		write(w, http.StatusServiceUnavailable, Report{Status: "shutting_down"})
	case phaseNotReady:
		write(w, http.StatusServiceUnavailable, Report{Status: "not_ready"})
	default:
		h.report(w, r, h.deps, "degraded")
	}
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request, deps []dependency, failed string) {
	ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
	defer cancel()

	rep := Report{Status: "ok", Checks: probeAll(ctx, deps)}
	code := http.StatusOK
	for _, c := range rep.Checks {
		if !c.Healthy {
			rep.Status, code = failed, http.StatusServiceUnavailable
			break
		}
	}
	write(w, code, rep)
}

func probeAll(ctx context.Context, deps []dependency) []Check {
	checks := make([]Check, len(deps))

	var wg sync.WaitGroup
	for i, d := range deps {
		wg.Go(func() {
			start := time.Now()
			err := d.checker.Ping(ctx)
			checks[i] = Check{
				Name:      d.name,
				Healthy:   err == nil,
				LatencyMS: time.Since(start).Milliseconds(),
			}
			if err != nil {
				checks[i].Error = "ping failed"
			}
		})
	}
	wg.Wait()

	return checks
}

func write(w http.ResponseWriter, status int, body Report) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body) //nolint:errcheck // probe client went away
}

type Report struct {
	Status string  `json:"status"`
	Checks []Check `json:"checks,omitempty"`
}

type Check struct {
	Name      string `json:"name"`
	Healthy   bool   `json:"healthy"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}
