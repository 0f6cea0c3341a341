// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"net/http"
	"runtime"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/storefront/internal/audit"
	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/order"
)

type Counter interface {
	Count(ctx context.Context) (int64, error)
}

type OrderStats interface {
	Dashboard(ctx context.Context) (*order.Dashboard, error)
}

type LogLister interface {
	List(ctx context.Context, params audit.ListLogsParams) ([]audit.Log, int64, error)
}

type Handler struct {
	users      func(ctx context.Context) (int64, error)
	products   Counter
	orders     OrderStats
	logs       LogLister
	mongoStats func(ctx context.Context) (*core.MongoStats, error)
	mongoPing  func(ctx context.Context) error
	redisStats func() *redis.PoolStats
	redisPing  func(ctx context.Context) error
}

type HandlerConfig struct {
	CountUsers func(ctx context.Context) (int64, error)
	Products   Counter
	Orders     OrderStats
	Logs       LogLister
	MongoStats func(ctx context.Context) (*core.MongoStats, error)
	MongoPing  func(ctx context.Context) error
	RedisStats func() *redis.PoolStats
	RedisPing  func(ctx context.Context) error
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		users:      cfg.CountUsers,
		products:   cfg.Products,
		orders:     cfg.Orders,
		logs:       cfg.Logs,
		mongoStats: cfg.MongoStats,
		mongoPing:  cfg.MongoPing,
		redisStats: cfg.RedisStats,
		redisPing:  cfg.RedisPing,
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/dashboard", h.GetDashboard)
		r.Get("/logs", h.ListLogs)
		r.Get("/stats", h.GetSystemStats)
		r.Get("/stats/runtime", h.GetRuntimeStats)
	})
}

func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	users, err := h.users(ctx)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	products, err := h.products.Count(ctx)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	d, err := h.orders.Dashboard(ctx)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	byStatus := make(map[string]int64, len(order.Statuses))
	for _, s := range order.Statuses {
		byStatus[s] = 0
	}
	for _, sc := range d.ByStatus {
		byStatus[sc.Status] = sc.Count
	}

	core.OK(w, DashboardResponse{
		TotalUsers:     users,
		TotalProducts:  products,
		TotalOrders:    d.Count,
		TotalRevenue:   d.Revenue,
		OrdersByStatus: byStatus,
		RecentOrders:   order.ToOrderResponseList(d.Recent),
	})
}

func (h *Handler) ListLogs(w http.ResponseWriter, r *http.Request) {
	params := audit.ListLogsParams{
		Page:     core.QueryInt(r, "page", 1),
		PageSize: core.QueryInt(r, "page_size", 50),
		Type:     r.URL.Query().Get("type"),
		Email:    r.URL.Query().Get("email"),
	}
	params.Normalize()

	logs, total, err := h.logs.List(r.Context(), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(w, audit.ToLogResponseList(logs), params.Page, params.PageSize, total)
}

func (h *Handler) GetSystemStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	mongoStatus := DatabaseStatus{Healthy: true}
	if h.mongoPing != nil && h.mongoPing(ctx) != nil {
		mongoStatus.Healthy = false
	}
	if mongoStatus.Healthy && h.mongoStats != nil {
		if stats, err := h.mongoStats(ctx); err == nil {
			mongoStatus.Stats = stats
		}
	}

	redisHealthy := true
	if h.redisPing != nil && h.redisPing(ctx) != nil {
		redisHealthy = false
	}

	core.OK(w, SystemStatsResponse{
		Database: mongoStatus,
		Redis: RedisStatus{
			Healthy: redisHealthy,
			Stats:   h.getRedisStats(),
		},
		Runtime: readRuntimeStats(),
	})
}

func (h *Handler) GetRuntimeStats(w http.ResponseWriter, _ *http.Request) {
	core.OK(w, readRuntimeStats())
}

func (h *Handler) getRedisStats() *RedisPoolStats {
	if h.redisStats == nil {
		return nil
	}

	stats := h.redisStats()
	return &RedisPoolStats{
		Hits:       stats.Hits,
		Misses:     stats.Misses,
		Timeouts:   stats.Timeouts,
		TotalConns: stats.TotalConns,
		IdleConns:  stats.IdleConns,
		StaleConns: stats.StaleConns,
	}
}

func readRuntimeStats() RuntimeStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return RuntimeStats{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     memStats.Alloc,
		MemSys:       memStats.Sys,
		NumGC:        memStats.NumGC,
	}
}
