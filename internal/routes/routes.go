package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/yourorg/daysync/internal/debug"
	"github.com/yourorg/daysync/internal/handlers"
	"github.com/yourorg/daysync/internal/middleware"
)

// Handlers groups everything Register mounts
type Handlers struct {
	Itineraries *handlers.ItineraryHandler
	History     *handlers.HistoryHandler
	Transit     *handlers.TransitHandler
	Health      *handlers.HealthHandler
	Cache       *handlers.CacheHandler
	Hub         *debug.Hub

	// Searches per minute per IP; zero disables the limit.
	SearchRateLimit int
}

func Register(app *fiber.App, h Handlers) {
	// ============================================================================
	// API PÚBLICA
	// ============================================================================
	api := app.Group("/api")

	// Health check (sin rate limiting)
	api.Get("/health", h.Health.Health)

	limited := api.Group("", middleware.GlobalRateLimiter())

	// ============================================================================
	// ITINERARIOS
	// ============================================================================
	if h.Itineraries != nil {
		limited.Post("/itineraries", middleware.SearchRateLimiter(h.SearchRateLimit), h.Itineraries.Search)
	}
	limited.Get("/searches/:id", h.History.GetSearch)

	// ============================================================================
	// DIAGNÓSTICO DE DATOS UPSTREAM
	// ============================================================================
	if h.Transit != nil {
		limited.Get("/stops/nearby", h.Transit.GetNearbyStops)
		limited.Get("/stops/:city/:stopId/arrivals", h.Transit.GetBusArrivals)
		limited.Get("/lines/:city/:lineId/stations", h.Transit.GetLineStations)
	}

	// ============================================================================
	// CACHE
	// ============================================================================
	limited.Get("/cache/stats", h.Cache.GetCacheStats)
	limited.Delete("/cache", h.Cache.ClearCache)

	// ============================================================================
	// DEBUG DASHBOARD WEBSOCKET
	// ============================================================================
	app.Use("/ws/debug", func(c *fiber.Ctx) error {
		if !h.Hub.Enabled() {
			return fiber.ErrNotFound
		}
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/debug", websocket.New(h.Hub.HandleWebSocket))
}
