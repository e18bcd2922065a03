package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/healthid/healthid/internal/platform/auth"
)

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
	// IdleTTL drops buckets that have not been touched for this long.
	IdleTTL time.Duration
}

func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 100,
		BurstSize:         200,
		IdleTTL:           15 * time.Minute,
	}
}

type tokenBucket struct {
	tokens   float64
	lastSeen time.Time
}

type limiter struct {
	mu        sync.Mutex
	cfg       RateLimitConfig
	buckets   map[string]*tokenBucket
	lastSweep time.Time
	now       func() time.Time
}

func newLimiter(cfg RateLimitConfig) *limiter {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultRateLimitConfig().IdleTTL
	}
	return &limiter{
		cfg:     cfg,
		buckets: make(map[string]*tokenBucket),
		now:     time.Now,
	}
}

// take spends one token for key. When the bucket is empty it returns the
// number of whole seconds until a token is available.
func (l *limiter) take(key string) (ok bool, retryAfter int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > l.cfg.IdleTTL {
		for k, b := range l.buckets {
			if now.Sub(b.lastSeen) > l.cfg.IdleTTL {
				delete(l.buckets, k)
			}
		}
		l.lastSweep = now
	}

	burst := float64(l.cfg.BurstSize)
	b, found := l.buckets[key]
	if !found {
		b = &tokenBucket{tokens: burst, lastSeen: now}
		l.buckets[key] = b
	}
	b.tokens = math.Min(burst, b.tokens+now.Sub(b.lastSeen).Seconds()*l.cfg.RequestsPerSecond)
	b.lastSeen = now

	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	if l.cfg.RequestsPerSecond <= 0 {
		return false, 1
	}
	return false, int(math.Ceil((1 - b.tokens) / l.cfg.RequestsPerSecond))
}

// RateLimit returns a token-bucket rate limiting middleware. Authenticated
// callers are limited per user id, everyone else per client IP.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	l := newLimiter(cfg)
	limitHeader := strconv.FormatFloat(cfg.RequestsPerSecond, 'f', 0, 64)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := "ip:" + c.RealIP()
			if uid := auth.UserIDFromContext(c.Request().Context()); uid != "" {
				key = "user:" + uid
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limitHeader)
			ok, retryAfter := l.take(key)
			if !ok {
				h.Set("Retry-After", strconv.Itoa(retryAfter))
				h.Set("X-RateLimit-Remaining", "0")
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
