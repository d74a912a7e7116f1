package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"

	"stocktake/internal/caching"
	"stocktake/internal/services"
)

// HealthHandlers handles health check and monitoring endpoints
type HealthHandlers struct {
	db          *pgxpool.Pool
	cache       caching.CacheService
	objectStore services.ObjectStore
	bucket      string
	startedAt   time.Time
}

// NewHealthHandlers creates a new health handlers instance
func NewHealthHandlers(db *pgxpool.Pool, cache caching.CacheService, objectStore services.ObjectStore, bucket string) *HealthHandlers {
	return &HealthHandlers{
		db:          db,
		cache:       cache,
		objectStore: objectStore,
		bucket:      bucket,
		startedAt:   time.Now(),
	}
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services"`
	Uptime    string            `json:"uptime"`
}

// HealthCheck reports the health of the app and its backing services.
func (h *HealthHandlers) HealthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	health := &HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  make(map[string]string),
		Uptime:    time.Since(h.startedAt).Round(time.Second).String(),
	}

	if err := h.checkDatabase(ctx); err != nil {
		health.Services["database"] = "unhealthy"
		health.Status = "degraded"
	} else {
		health.Services["database"] = "healthy"
	}

	if err := h.checkCache(ctx); err != nil {
		health.Services["cache"] = "unhealthy"
		health.Status = "degraded"
	} else {
		health.Services["cache"] = "healthy"
	}

	if h.objectStore != nil {
		if err := h.objectStore.EnsureBucketExists(ctx, h.bucket); err != nil {
			health.Services["object_storage"] = "unhealthy"
			health.Status = "degraded"
		} else {
			health.Services["object_storage"] = "healthy"
		}
	}

	code := http.StatusOK
	if health.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, health)
}

// ReadinessCheck reports whether the app can serve traffic. Only the database
// is required; cache and object storage degrade gracefully.
func (h *HealthHandlers) ReadinessCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	if err := h.checkDatabase(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "database unreachable",
		})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
}

// DetailedHealth adds runtime statistics on top of the health report.
func (h *HealthHandlers) DetailedHealth(c echo.Context) error {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return c.JSON(http.StatusOK, map[string]interface{}{
		"goroutines":    runtime.NumGoroutine(),
		"heap_alloc_mb": mem.HeapAlloc / 1024 / 1024,
		"heap_sys_mb":   mem.HeapSys / 1024 / 1024,
		"num_gc":        mem.NumGC,
		"uptime":        time.Since(h.startedAt).Round(time.Second).String(),
		"go_version":    runtime.Version(),
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *HealthHandlers) checkDatabase(ctx context.Context) error {
	return h.db.Ping(ctx)
}

func (h *HealthHandlers) checkCache(ctx context.Context) error {
	return h.cache.SetString(ctx, "stocktake:healthcheck", "ok", 10*time.Second)
}
