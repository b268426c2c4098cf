package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// PoolStats is the JSON view of pgxpool statistics.
type PoolStats struct {
	TotalConns    int32 `json:"total_conns"`
	IdleConns     int32 `json:"idle_conns"`
	AcquiredConns int32 `json:"acquired_conns"`
	MaxConns      int32 `json:"max_conns"`
	AcquireCount  int64 `json:"acquire_count"`
}

// HealthReport is the body of GET /health/db.
type HealthReport struct {
	Status    string    `json:"status"`
	LatencyMS int64     `json:"latency_ms"`
	CheckedAt time.Time `json:"checked_at"`
	Pool      PoolStats `json:"pool"`
}

// Checker is what the health endpoint needs from a pool.
type Checker interface {
	Ping(ctx context.Context) error
	Stats() PoolStats
}

type poolChecker struct {
	pool *pgxpool.Pool
}

func (p poolChecker) Ping(ctx context.Context) error { return p.pool.Ping(ctx) }

func (p poolChecker) Stats() PoolStats {
	s := p.pool.Stat()
	return PoolStats{
		TotalConns:    s.TotalConns(),
		IdleConns:     s.IdleConns(),
		AcquiredConns: s.AcquiredConns(),
		MaxConns:      s.MaxConns(),
		AcquireCount:  s.AcquireCount(),
	}
}

func HealthHandler(pool *pgxpool.Pool, logger zerolog.Logger) echo.HandlerFunc {
	return CheckHandler(poolChecker{pool: pool}, logger)
}

// CheckHandler answers 200 when the ping succeeds and 503 otherwise. The
// driver error only goes to the log.
func CheckHandler(checker Checker, logger zerolog.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		start := time.Now()
		err := checker.Ping(ctx)
		report := HealthReport{
			Status:    "healthy",
			LatencyMS: time.Since(start).Milliseconds(),
			CheckedAt: start.UTC(),
			Pool:      checker.Stats(),
		}
		if err != nil {
			logger.Warn().Err(err).Dur("latency", time.Since(start)).Msg("database ping failed")
			report.Status = "unhealthy"
			return c.JSON(http.StatusServiceUnavailable, report)
		}
		return c.JSON(http.StatusOK, report)
	}
}
