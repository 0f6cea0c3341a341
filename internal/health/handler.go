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

const probeTimeout = 2 * time.Second

const (
	StatusOK          = "ok"
	StatusDegraded    = "degraded"
	StatusUnavailable = "unavailable"
	StatusDraining    = "draining"
)

type Checker interface {
	Ping(ctx context.Context) error
}

// Dependency is a backing service probed by /readyz. An Optional dependency
// failing leaves the instance ready but degraded: the storefront runs without
// Redis (rate limits fall back in-process, the product cache is skipped) but
// not without MongoDB.
type Dependency struct {
	Name     string
	Checker  Checker
	Optional bool
}

type Handler struct {
	deps     []Dependency
	draining atomic.Bool
}

func NewHandler(deps ...Dependency) *Handler {
	return &Handler{deps: deps}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.Liveness)
	r.Get("/livez", h.Liveness)
	r.Get("/readyz", h.Readiness)
}

// Drain fails readiness so load balancers stop routing here. Liveness is
// unaffected.
func (h *Handler) Drain() {
	h.draining.Store(true)
}

func (h *Handler) Liveness(w http.ResponseWriter, _ *http.Request) {
	write(w, http.StatusOK, Report{Status: StatusOK})
}

func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.draining.Load() {
		write(w, http.StatusServiceUnavailable, Report{Status: StatusDraining})
		return
	}

	report := h.Check(r.Context())

	code := http.StatusOK
	if report.Status == StatusUnavailable {
		code = http.StatusServiceUnavailable
	}
	write(w, code, report)
}

// Check probes every dependency concurrently, each under its own timeout.
func (h *Handler) Check(ctx context.Context) Report {
	report := Report{
		Status: StatusOK,
		Checks: make([]Check, len(h.deps)),
	}

	var wg sync.WaitGroup
	for i, dep := range h.deps {
		wg.Go(func() {
			report.Checks[i] = probe(ctx, dep)
		})
	}
	wg.Wait()

	for i, c := range report.Checks {
		switch {
		case c.Healthy:
		case h.deps[i].Optional:
			if report.Status == StatusOK {
				report.Status = StatusDegraded
			}
		default:
			report.Status = StatusUnavailable
		}
	}

	return report
}

func probe(ctx context.Context, dep Dependency) Check {
	c := Check{Name: dep.Name, Optional: dep.Optional}

	if dep.Checker == nil {
		c.Message = "not configured"
		return c
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	start := time.Now()
	err := dep.Checker.Ping(ctx)
	c.Latency = time.Since(start).Round(time.Microsecond).String()

	if err != nil {
		c.Message = "ping failed"
		return c
	}

	c.Healthy = true
	return c
}

func write(w http.ResponseWriter, status int, body Report) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type Report struct {
	Status string  `json:"status"`
	Checks []Check `json:"checks,omitempty"`
}

type Check struct {
	Name     string `json:"name"`
	Healthy  bool   `json:"healthy"`
	Optional bool   `json:"optional,omitempty"`
	Latency  string `json:"latency,omitempty"`
	Message  string `json:"message,omitempty"`
}
