package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
	// IdleTTL is how long an idle client's limiter is kept.
	IdleTTL time.Duration
}

func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 50,
		BurstSize:         100,
		IdleTTL:           3 * time.Minute,
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipLimiter holds one token bucket per client IP.
type ipLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	cfg      RateLimitConfig
}

func newIPLimiter(cfg RateLimitConfig) *ipLimiter {
	return &ipLimiter{visitors: make(map[string]*visitor), cfg: cfg}
}

func (l *ipLimiter) get(ip string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(l.cfg.RequestsPerSecond), l.cfg.BurstSize)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

func (l *ipLimiter) sweep(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.cfg.IdleTTL {
			delete(l.visitors, ip)
		}
	}
}

// RateLimit applies a per-IP token bucket. Idle entries are swept on the
// request path, at most once per IdleTTL.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 3 * time.Minute
	}
	l := newIPLimiter(cfg)
	var sweepMu sync.Mutex
	lastSweep := time.Now()
	limit := strconv.FormatFloat(cfg.RequestsPerSecond, 'f', -1, 64)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			now := time.Now()

			sweepMu.Lock()
			if now.Sub(lastSweep) > cfg.IdleTTL {
				lastSweep = now
				sweepMu.Unlock()
				l.sweep(now)
			} else {
				sweepMu.Unlock()
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limit)

			if !l.get(c.RealIP(), now).AllowN(now, 1) {
				retry := 1
				if cfg.RequestsPerSecond > 0 {
					retry = int(1/cfg.RequestsPerSecond) + 1
				}
				h.Set("Retry-After", strconv.Itoa(retry))
				h.Set("X-RateLimit-Remaining", "0")
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
