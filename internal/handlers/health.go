package handlers

import (
	"context"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/yourorg/daysync/internal/debug"
)

// HealthResponse representa el estado de salud del sistema
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
	Version   string            `json:"version,omitempty"`
}

// HealthCheck probes one dependency. Optional checks never degrade the
// overall status.
type HealthCheck struct {
	Name     string
	Check    func(ctx context.Context) error
	Optional bool
}

// HealthHandler runs the configured checks
type HealthHandler struct {
	checks  []HealthCheck
	hub     *debug.Hub
	timeout time.Duration
}

func NewHealthHandler(hub *debug.Hub, checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks, hub: hub, timeout: 3 * time.Second}
}

// Health proporciona un health check completo del sistema
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	services := make(map[string]string, len(h.checks))
	overall := "healthy"

	for _, chk := range h.checks {
		if chk.Check == nil {
			services[chk.Name] = "not_initialized"
			continue
		}
		ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
		err := chk.Check(ctx)
		cancel()
		if err != nil {
			services[chk.Name] = "unhealthy: " + err.Error()
			if !chk.Optional {
				overall = "degraded"
			}
			continue
		}
		services[chk.Name] = "healthy"
	}

	if h.hub != nil {
		h.hub.SendStatus(services)
	}

	statusCode := fiber.StatusOK
	if overall == "degraded" {
		statusCode = fiber.StatusServiceUnavailable
	}

	return c.Status(statusCode).JSON(HealthResponse{
		Status:    overall,
		Timestamp: time.Now(),
		Services:  services,
		Version:   os.Getenv("APP_VERSION"),
	})
}
