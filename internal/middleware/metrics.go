package middleware

import (
	"context"
	"runtime"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/yourorg/daysync/internal/debug"
)

// DashboardLogger sends every request to the debug dashboard
func DashboardLogger(hub *debug.Hub) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !hub.Enabled() {
			return c.Next()
		}

		start := time.Now()
		err := c.Next()
		duration := time.Since(start)

		status := c.Response().StatusCode()
		level := "info"
		if status >= 500 {
			level = "error"
		} else if status >= 400 {
			level = "warn"
		}

		hub.SendLog("backend", level, c.Method()+" "+c.Path(), map[string]interface{}{
			"method":      c.Method(),
			"path":        c.Path(),
			"status":      status,
			"duration_ms": duration.Milliseconds(),
			"ip":          c.IP(),
		})
		return err
	}
}

// PeriodicMetricsCollector envía métricas periódicamente al dashboard
func PeriodicMetricsCollector(ctx context.Context, hub *debug.Hub, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !hub.Enabled() {
				continue
			}
			hub.LogDebug("System heartbeat", map[string]interface{}{
				"goroutines": runtime.NumGoroutine(),
			})
		}
	}
}
