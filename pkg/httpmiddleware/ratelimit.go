package httpmiddleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig configures the per-client token bucket limiter.
type RateLimitConfig struct {
	// Max is the number of requests a client may make per Window. It is
	// also the burst size. Zero or negative disables limiting.
	Max int
	// Window is the period over which Max requests are refilled.
	Window time.Duration
	// KeyFunc identifies the client. Defaults to the client IP.
	KeyFunc func(*http.Request) string
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type rateLimiter struct {
	cfg   RateLimitConfig
	limit rate.Limit

	mu       sync.Mutex
	visitors map[string]*visitor
}

func newRateLimiter(cfg RateLimitConfig) *rateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = clientIP
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	return &rateLimiter{
		cfg:      cfg,
		limit:    rate.Limit(float64(cfg.Max) / cfg.Window.Seconds()),
		visitors: make(map[string]*visitor),
	}
}

func (rl *rateLimiter) limiter(key string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.cfg.Max)}
		rl.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter
}

// allow consumes a token for key. When the bucket is empty it reports how
// long the client has to wait for the next one.
func (rl *rateLimiter) allow(key string, now time.Time) (remaining int, retryAfter time.Duration, ok bool) {
	lim := rl.limiter(key, now)

	res := lim.ReserveN(now, 1)
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return 0, delay, false
	}
	return max(int(lim.TokensAt(now)), 0), 0, true
}

// cleanup forgets clients idle for two windows; their buckets are full again.
func (rl *rateLimiter) cleanup(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, v := range rl.visitors {
		if now.Sub(v.lastSeen) >= 2*rl.cfg.Window {
			delete(rl.visitors, key)
		}
	}
}

func (rl *rateLimiter) runCleanup(ctx context.Context) {
	ticker := time.NewTicker(2 * rl.cfg.Window)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			rl.cleanup(now)
		}
	}
}

// RateLimit limits each client to cfg.Max requests per cfg.Window. Rejected
// requests get 429 with Retry-After; every response carries
// X-RateLimit-Limit and X-RateLimit-Remaining. Idle clients are evicted by a
// goroutine that stops with ctx.
func RateLimit(ctx context.Context, cfg RateLimitConfig) Middleware {
	rl := newRateLimiter(cfg)
	if cfg.Max > 0 {
		go rl.runCleanup(ctx)
	}
	return rateLimitMiddleware(rl)
}

var tooManyRequestsBody = []byte(`{"detail":"rate limit exceeded"}`)

func rateLimitMiddleware(rl *rateLimiter) Middleware {
	return func(next http.Handler) http.Handler {
		if rl.cfg.Max <= 0 {
			return next
		}
		limit := strconv.Itoa(rl.cfg.Max)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			remaining, retryAfter, ok := rl.allow(rl.cfg.KeyFunc(r), time.Now())

			h := w.Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if !ok {
				h.Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
				h.Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write(tooManyRequestsBody)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the
// connection's remote address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
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
