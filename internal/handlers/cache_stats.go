package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/yourorg/daysync/internal/geometry"
)

// ============================================================================
// CACHE STATISTICS ENDPOINT
// ============================================================================
// GET /api/cache/stats
// DELETE /api/cache

// CacheHandler reports and clears the process-wide caches. Per-search
// session caches are reported with each search instead.
type CacheHandler struct {
	results *ResultCache
	walking *geometry.WalkingService
}

func NewCacheHandler(results *ResultCache, walking *geometry.WalkingService) *CacheHandler {
	return &CacheHandler{results: results, walking: walking}
}

// GetCacheStats retorna estadísticas de todos los cachés activos
func (h *CacheHandler) GetCacheStats(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"caches": fiber.Map{
			"results": h.results.Stats(),
			"walking": h.walking.CacheStats(),
		},
	})
}

// ClearCache empties the result cache
func (h *CacheHandler) ClearCache(c *fiber.Ctx) error {
	h.results.Clear()
	return c.JSON(fiber.Map{
		"status":  "ok",
		"message": "Cache cleared",
	})
}
