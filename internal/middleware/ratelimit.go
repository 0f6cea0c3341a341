// AngelaMos | 2026
// ratelimit.go

package middleware

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/carterperez-dev/storefront/internal/core"
)

// RateLimitConfig describes one named bucket family. Keys are stored as
// ratelimit:<Name>:<KeyFunc(r)> so limiters never share quota.
type RateLimitConfig struct {
	Name      string
	Limit     redis_rate.Limit
	KeyFunc   func(*http.Request) string
	FailOpen  bool
	Skip      func(*http.Request) bool
	OnLimited func(name string)
	Logger    *slog.Logger
}

// RateLimiter is a GCRA limiter backed by Redis. While Redis is unreachable
// it falls back to per-process token buckets.
type RateLimiter struct {
	cfg      RateLimitConfig
	redis    *redis_rate.Limiter
	fallback *localBuckets
}

func NewRateLimiter(rdb *redis.Client, cfg RateLimitConfig) *RateLimiter {
	if cfg.Name == "" {
		cfg.Name = "global"
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = KeyByIP
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &RateLimiter{
		cfg:      cfg,
		redis:    redis_rate.NewLimiter(rdb),
		fallback: newLocalBuckets(),
	}
}

// Close stops the fallback sweeper.
func (rl *RateLimiter) Close() {
	rl.fallback.close()
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.cfg.Skip != nil && rl.cfg.Skip(r) {
			next.ServeHTTP(w, r)
			return
		}

		key := "ratelimit:" + rl.cfg.Name + ":" + rl.cfg.KeyFunc(r)

		res, err := rl.redis.Allow(r.Context(), key, rl.cfg.Limit)
		if err != nil {
			res, err = rl.fallback.allow(key, rl.cfg.Limit)
		}
		if err != nil {
			if !rl.cfg.FailOpen {
				core.JSON(w, http.StatusServiceUnavailable, core.ErrorResponse{
					Error: "service unavailable",
					Code:  "UNAVAILABLE",
				})
				return
			}
			rl.cfg.Logger.Warn("rate limiter unavailable, allowing request",
				"limiter", rl.cfg.Name,
				"error", err,
			)
			next.ServeHTTP(w, r)
			return
		}

		writeLimitHeaders(w.Header(), rl.cfg.Limit, res)

		if res.Allowed > 0 {
			next.ServeHTTP(w, r)
			return
		}

		if rl.cfg.OnLimited != nil {
			rl.cfg.OnLimited(rl.cfg.Name)
		}

		retry := max(int(res.RetryAfter.Seconds()), 1)
		w.Header().Set("Retry-After", strconv.Itoa(retry))
		core.JSON(w, http.StatusTooManyRequests, core.ErrorResponse{
			Error: fmt.Sprintf("rate limit exceeded, retry after %d seconds", retry),
			Code:  "RATE_LIMITED",
		})
	})
}

func writeLimitHeaders(h http.Header, limit redis_rate.Limit, res *redis_rate.Result) {
	reset := int(res.ResetAfter.Seconds())

	h.Set("X-RateLimit-Limit", strconv.Itoa(limit.Rate))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(res.ResetAfter).Unix(), 10))
	h.Set("RateLimit-Policy", fmt.Sprintf("%d;w=%d", limit.Rate, int(limit.Period.Seconds())))
	h.Set("RateLimit", fmt.Sprintf("%d;t=%d", res.Remaining, reset))
}

// ClientIP trusts the last X-Forwarded-For hop, the one appended by our own
// proxy.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		return strings.TrimSpace(hops[len(hops)-1])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func KeyByIP(r *http.Request) string {
	return "ip:" + ClientIP(r)
}

// KeyByIPAndEndpoint buckets per client per route, with ids collapsed.
func KeyByIPAndEndpoint(r *http.Request) string {
	return KeyByIP(r) + ":" + endpointKey(r.URL.Path)
}

// KeyByUser buckets signed-in shoppers by account and everyone else by IP.
func KeyByUser(r *http.Request) string {
	if id := GetUserID(r.Context()); id != "" {
		return "user:" + id
	}
	return KeyByIP(r)
}

func endpointKey(path string) string {
	segs := strings.Split(strings.Trim(path, "/"), "/")
	for i, seg := range segs {
		if uuid.Validate(seg) == nil {
			segs[i] = "{id}"
			continue
		}
		if _, err := strconv.ParseUint(seg, 10, 64); err == nil {
			segs[i] = "{id}"
		}
	}
	return "/" + strings.Join(segs, "/")
}

const (
	sweepEvery = 5 * time.Minute
	idleAfter  = 10 * time.Minute
)

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

type localBuckets struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	stop    chan struct{}
	once    sync.Once
}

func newLocalBuckets() *localBuckets {
	l := &localBuckets{
		buckets: make(map[string]*bucket),
		stop:    make(chan struct{}),
	}
	go l.sweep()
	return l
}

func (l *localBuckets) close() {
	l.once.Do(func() { close(l.stop) })
}

func (l *localBuckets) sweep() {
	ticker := time.NewTicker(sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case now := <-ticker.C:
			l.mu.Lock()
			for key, b := range l.buckets {
				if now.Sub(b.lastSeen) > idleAfter {
					delete(l.buckets, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

func (l *localBuckets) allow(key string, limit redis_rate.Limit) (*redis_rate.Result, error) {
	if limit.Period <= 0 || limit.Rate <= 0 {
		return nil, fmt.Errorf("invalid limit %+v", limit)
	}

	perSec := float64(limit.Rate) / limit.Period.Seconds()
	interval := time.Duration(float64(time.Second) / perSec)
	now := time.Now()

	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rate.Limit(perSec), limit.Burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	allowed := b.lim.AllowN(now, 1)
	remaining := max(int(b.lim.TokensAt(now)), 0)
	l.mu.Unlock()

	res := &redis_rate.Result{
		Limit:      limit,
		Remaining:  remaining,
		RetryAfter: -1,
		ResetAfter: interval,
	}
	if allowed {
		res.Allowed = 1
	} else {
		res.RetryAfter = interval
	}

	return res, nil
}

func PerMinute(rate, burst int) redis_rate.Limit {
	return redis_rate.Limit{Rate: rate, Burst: burst, Period: time.Minute}
}

func PerHour(rate, burst int) redis_rate.Limit {
	return redis_rate.Limit{Rate: rate, Burst: burst, Period: time.Hour}
}
