// AngelaMos | 2026
// ratelimit_test.go

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unreachableRedis forces every limiter call onto the in-process fallback.
func unreachableRedis(t *testing.T) *redis.Client {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{
		Addr:       "127.0.0.1:1",
		MaxRetries: -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestRateLimiterFallbackBlocksAfterBurst(t *testing.T) {
	var limited []string
	rl := NewRateLimiter(unreachableRedis(t), RateLimitConfig{
		Name:      "password_reset",
		Limit:     PerHour(2, 2),
		OnLimited: func(name string) { limited = append(limited, name) },
	})
	t.Cleanup(rl.Close)

	h := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/forgot-password", nil)
		req.RemoteAddr = "203.0.113.9:5000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send().Code)
	assert.Equal(t, http.StatusOK, send().Code)

	rec := send()
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "RATE_LIMITED", decodeError(t, rec).Code)
	assert.Equal(t, []string{"password_reset"}, limited)
}

func TestRateLimiterNamesSeparateBuckets(t *testing.T) {
	rdb := unreachableRedis(t)
	checkout := NewRateLimiter(rdb, RateLimitConfig{Name: "checkout", Limit: PerHour(1, 1)})
	intent := NewRateLimiter(rdb, RateLimitConfig{Name: "payment_intent", Limit: PerHour(1, 1)})
	t.Cleanup(checkout.Close)
	t.Cleanup(intent.Close)

	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	send := func(h http.Handler) int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = "203.0.113.7:4000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send(checkout.Handler(ok)))
	assert.Equal(t, http.StatusOK, send(intent.Handler(ok)))
	assert.Equal(t, http.StatusTooManyRequests, send(checkout.Handler(ok)))
}

func TestRateLimiterBypass(t *testing.T) {
	rl := NewRateLimiter(unreachableRedis(t), RateLimitConfig{
		Limit: PerHour(1, 1),
		Skip:  func(*http.Request) bool { return true },
	})
	t.Cleanup(rl.Close)

	h := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for range 3 {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestKeyFunctions(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/orders/3f1c2a9e-1111-4222-8333-444455556666", nil)
	req.Header.Set("X-Forwarded-For", "198.51.100.1, 10.0.0.2")

	assert.Equal(t, "10.0.0.2", ClientIP(req))
	assert.Equal(t, "ip:10.0.0.2", KeyByIP(req))
	assert.Equal(t, "ip:10.0.0.2:/v1/orders/{id}", KeyByIPAndEndpoint(req))
	assert.Equal(t, "ip:10.0.0.2", KeyByUser(req))

	req = req.WithContext(WithClaims(req.Context(), &AccessTokenClaims{UserID: "u-9"}))
	assert.Equal(t, "user:u-9", KeyByUser(req))

	assert.Equal(t, "/v1/products/{id}/reviews", endpointKey("/v1/products/42/reviews"))
}
