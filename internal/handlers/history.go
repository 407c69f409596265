package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/yourorg/daysync/internal/db"
)

// HistoryHandler serves stored searches
type HistoryHandler struct {
	store SearchStore
}

// NewHistoryHandler creates the handler. store may be nil when the database is off.
func NewHistoryHandler(store SearchStore) *HistoryHandler {
	return &HistoryHandler{store: store}
}

// GetSearch maneja GET /api/searches/:id
func (h *HistoryHandler) GetSearch(c *fiber.Ctx) error {
	if h.store == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "search history is disabled",
		})
	}

	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "search id is required",
		})
	}

	rec, err := h.store.GetSearch(c.UserContext(), id)
	if errors.Is(err, db.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "search not found",
			"id":    id,
		})
	}
	if err != nil {
		log.Printf("❌ loading search %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load search",
		})
	}
	return c.JSON(rec)
}
