package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"

	"github.com/jay270804/medical-claim-processing-server/internal/platform/envelope"
)

type PoolStats struct {
	TotalConns      int32  `json:"totalConns"`
	IdleConns       int32  `json:"idleConns"`
	AcquiredConns   int32  `json:"acquiredConns"`
	MaxConns        int32  `json:"maxConns"`
	AcquireCount    int64  `json:"acquireCount"`
	AcquireDuration string `json:"acquireDuration"`
}

// Health is the body of GET /health/db. SchemaVersion is the highest applied
// migration, nil when the migrations table cannot be read.
type Health struct {
	Status        string     `json:"status"`
	SchemaVersion *int       `json:"schemaVersion"`
	Pool          *PoolStats `json:"pool,omitempty"`
}

type healthDB interface {
	Ping(ctx context.Context) error
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
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
	}
}

// HealthHandler pings the database and reports the schema version and pool
// statistics. The ping error itself is not returned to the client.
func HealthHandler(pool *pgxpool.Pool) echo.HandlerFunc {
	return healthHandler(pool, func() *PoolStats { return GetPoolStats(pool) })
}

func healthHandler(db healthDB, stats func() *PoolStats) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		h := Health{Status: "healthy"}
		if stats != nil {
			h.Pool = stats()
		}
		if err := db.Ping(ctx); err != nil {
			c.Logger().Errorf("database health check: %v", err)
			h.Status = "unhealthy"
			return c.JSON(http.StatusServiceUnavailable, envelope.Success{Success: false, Data: h})
		}

		var version int
		if err := db.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM _migrations`).Scan(&version); err == nil {
			h.SchemaVersion = &version
		}
		return envelope.OK(c, http.StatusOK, h)
	}
}
