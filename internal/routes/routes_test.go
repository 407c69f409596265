package routes

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/daysync/internal/debug"
	"github.com/yourorg/daysync/internal/geometry"
	"github.com/yourorg/daysync/internal/handlers"
)

func newApp(dashboard bool) *fiber.App {
	app := fiber.New()
	Register(app, Handlers{
		History: handlers.NewHistoryHandler(nil),
		Health:  handlers.NewHealthHandler(nil),
		Cache:   handlers.NewCacheHandler(handlers.NewResultCache(10, time.Minute), geometry.NewWalkingService(nil, 83.33, 0, 0)),
		Hub:     debug.NewHub(dashboard),
	})
	return app
}

func TestRegister(t *testing.T) {
	app := newApp(true)

	tests := []struct {
		method, path string
		code         int
	}{
		{"GET", "/api/health", fiber.StatusOK},
		{"GET", "/api/cache/stats", fiber.StatusOK},
		{"DELETE", "/api/cache", fiber.StatusOK},
		{"GET", "/api/searches/abc", fiber.StatusServiceUnavailable},
		{"GET", "/ws/debug", fiber.StatusUpgradeRequired},
	}
	for _, tt := range tests {
		resp, err := app.Test(httptest.NewRequest(tt.method, tt.path, nil))
		require.NoError(t, err)
		assert.Equal(t, tt.code, resp.StatusCode, "%s %s", tt.method, tt.path)
	}
}

func TestDebugSocketHiddenWhenDisabled(t *testing.T) {
	resp, err := newApp(false).Test(httptest.NewRequest("GET", "/ws/debug", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
