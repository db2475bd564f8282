package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const healthTimeout = 5 * time.Second

// PoolStats is the connection pool snapshot reported by the health endpoint.
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

// Dependency is a backend checked alongside the database, such as the Redis
// instance that holds leases.
type Dependency struct {
	Name string
	Ping func(ctx context.Context) error
}

// checkDependencies pings every dependency and reports "up" or "down" per
// name. Errors are logged, never returned to the caller.
func checkDependencies(ctx context.Context, deps []Dependency, logger zerolog.Logger) (map[string]string, bool) {
	out := make(map[string]string, len(deps))
	ok := true
	for _, d := range deps {
		if err := d.Ping(ctx); err != nil {
			logger.Warn().Err(err).Str("dependency", d.Name).Msg("health check failed")
			out[d.Name] = "down"
			ok = false
			continue
		}
		out[d.Name] = "up"
	}
	return out, ok
}

// HealthHandler reports database and dependency health. Any failure answers
// 503.
func HealthHandler(pool *pgxpool.Pool, logger zerolog.Logger, deps ...Dependency) echo.HandlerFunc {
	all := append([]Dependency{{Name: "postgres", Ping: pool.Ping}}, deps...)

	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
		defer cancel()

		states, healthy := checkDependencies(ctx, all, logger)
		stats := GetPoolStats(pool)
		stats.Healthy = stats.Healthy && healthy

		status, code := "healthy", http.StatusOK
		if !healthy {
			status, code = "unhealthy", http.StatusServiceUnavailable
		}
		return c.JSON(code, map[string]interface{}{
			"status":       status,
			"pool":         stats,
			"dependencies": states,
		})
	}
}
