// AngelaMos | 2026
// handler_test.go

package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/storefront/internal/audit"
	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/order"
)

type countFunc func(ctx context.Context) (int64, error)

func (f countFunc) Count(ctx context.Context) (int64, error) { return f(ctx) }

type fakeOrders struct{ d *order.Dashboard }

func (f fakeOrders) Dashboard(context.Context) (*order.Dashboard, error) { return f.d, nil }

type fakeLogs struct{ got audit.ListLogsParams }

func (f *fakeLogs) List(_ context.Context, p audit.ListLogsParams) ([]audit.Log, int64, error) {
	f.got = p
	return []audit.Log{{ID: "l-1", Type: p.Type, UserEmail: p.Email}}, 1, nil
}

func newRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	passthrough := func(next http.Handler) http.Handler { return next }
	h.RegisterRoutes(r, passthrough, passthrough)
	return r
}

func TestDashboard(t *testing.T) {
	h := NewHandler(HandlerConfig{
		CountUsers: func(context.Context) (int64, error) { return 12, nil },
		Products:   countFunc(func(context.Context) (int64, error) { return 40, nil }),
		Orders: fakeOrders{d: &order.Dashboard{
			Count:    3,
			Revenue:  224.34,
			ByStatus: []order.StatusCount{{Status: order.StatusPending, Count: 2}, {Status: order.StatusShipped, Count: 1}},
			Recent:   []order.Order{{ID: "o-1", OrderNumber: "ORD-1"}},
		}},
	})

	rec := httptest.NewRecorder()
	newRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body DashboardResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))

	assert.Equal(t, int64(12), body.TotalUsers)
	assert.Equal(t, int64(40), body.TotalProducts)
	assert.Equal(t, int64(3), body.TotalOrders)
	assert.InDelta(t, 224.34, body.TotalRevenue, 1e-9)
	assert.Equal(t, int64(2), body.OrdersByStatus[order.StatusPending])
	assert.Equal(t, int64(0), body.OrdersByStatus[order.StatusDelivered])
	require.Len(t, body.RecentOrders, 1)
	assert.Equal(t, "ORD-1", body.RecentOrders[0].OrderNumber)
}

func TestDashboardError(t *testing.T) {
	h := NewHandler(HandlerConfig{
		CountUsers: func(context.Context) (int64, error) { return 0, errors.New("boom") },
	})

	rec := httptest.NewRecorder()
	newRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestListLogsFilters(t *testing.T) {
	logs := &fakeLogs{}
	h := NewHandler(HandlerConfig{Logs: logs})

	rec := httptest.NewRecorder()
	newRouter(h).ServeHTTP(rec, httptest.NewRequest(
		http.MethodGet,
		"/admin/logs?type=password_reset&email=ann@example.com&page_size=500",
		nil,
	))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, audit.TypePasswordReset, logs.got.Type)
	assert.Equal(t, "ann@example.com", logs.got.Email)
	assert.Equal(t, 100, logs.got.PageSize)
}

func TestSystemStatsReportsUnhealthyMongo(t *testing.T) {
	h := NewHandler(HandlerConfig{
		MongoPing: func(context.Context) error { return errors.New("down") },
		MongoStats: func(context.Context) (*core.MongoStats, error) {
			t.Fatal("stats should not be read when ping fails")
			return nil, nil
		},
	})

	rec := httptest.NewRecorder()
	newRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body SystemStatsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.False(t, body.Database.Healthy)
	assert.True(t, body.Redis.Healthy)
	assert.NotEmpty(t, body.Runtime.GoVersion)
}
