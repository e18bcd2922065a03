package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

const healthTimeout = 3 * time.Second

// PoolStats is the pool snapshot reported by /health/db.
type PoolStats struct {
	TotalConns      int32  `json:"total_conns"`
	IdleConns       int32  `json:"idle_conns"`
	AcquiredConns   int32  `json:"acquired_conns"`
	MaxConns        int32  `json:"max_conns"`
	AcquireCount    int64  `json:"acquire_count"`
	AcquireDuration string `json:"acquire_duration"`
	Healthy         bool   `json:"healthy"`
}

func GetPoolStats(pool *pgxpool.Pool) *PoolStats {
	stat := pool.Stat()
	return &PoolStats{
		TotalConns:      stat.TotalConns(),
		IdleConns:       stat.IdleConns(),
		AcquiredConns:   stat.AcquiredConns(),
		MaxConns:        stat.MaxConns(),
		AcquireCount:    stat.AcquireCount(),
		AcquireDuration: stat.AcquireDuration().String(),
		Healthy:         stat.TotalConns() > 0,
	}
}

// Pinger is satisfied by *pgxpool.Pool and the Redis client wrapper.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports registry health. A nil pool means the service runs
// without a registry, which is reported as "disabled" rather than failing.
func HealthHandler(pool *pgxpool.Pool) echo.HandlerFunc {
	if pool == nil {
		return PingHandler(nil, nil)
	}
	return PingHandler(pool, func() *PoolStats { return GetPoolStats(pool) })
}

// PingHandler answers 200 when p responds within the health timeout and 503
// otherwise. stats may be nil.
func PingHandler(p Pinger, stats func() *PoolStats) echo.HandlerFunc {
	return func(c echo.Context) error {
		if p == nil {
			return c.JSON(http.StatusOK, map[string]interface{}{"status": "disabled"})
		}

		ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
		defer cancel()

		body := map[string]interface{}{"status": "healthy"}
		var ps *PoolStats
		if stats != nil {
			ps = stats()
			body["pool"] = ps
		}

		if err := p.Ping(ctx); err != nil {
			if ps != nil {
				ps.Healthy = false
			}
			body["status"] = "unhealthy"
			body["error"] = err.Error()
			return c.JSON(http.StatusServiceUnavailable, body)
		}
		return c.JSON(http.StatusOK, body)
	}
}

// PingFunc adapts a plain health function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }
