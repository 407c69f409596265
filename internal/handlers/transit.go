package handlers

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/yourorg/daysync/internal/arrivals"
	"github.com/yourorg/daysync/internal/direction"
	"github.com/yourorg/daysync/internal/models"
	"github.com/yourorg/daysync/internal/stations"
	"github.com/yourorg/daysync/internal/stops"
	"github.com/yourorg/daysync/internal/validation"
)

// TransitHandler exposes the individual lookup steps of a search, for
// checking upstream data by hand.
type TransitHandler struct {
	locator   *stops.Locator
	collector *arrivals.Collector
	fetcher   *stations.Fetcher
}

func NewTransitHandler(locator *stops.Locator, collector *arrivals.Collector, fetcher *stations.Fetcher) *TransitHandler {
	return &TransitHandler{locator: locator, collector: collector, fetcher: fetcher}
}

// GetNearbyStops maneja GET /api/stops/nearby?lat=X&lon=Y
func (h *TransitHandler) GetNearbyStops(c *fiber.Ctx) error {
	at := models.Coordinate{Lat: c.QueryFloat("lat"), Lon: c.QueryFloat("lon")}
	if err := validation.ValidateCoordinatePair(at.Lat, at.Lon, "location"); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	found := h.locator.Nearby(c.UserContext(), nil, at, "api")
	return c.JSON(fiber.Map{
		"stops": found,
		"count": len(found),
	})
}

// GetBusArrivals maneja GET /api/stops/:city/:stopId/arrivals
// Obtiene los buses próximos a llegar a un paradero específico
func (h *TransitHandler) GetBusArrivals(c *fiber.Ctx) error {
	city := strings.TrimSpace(c.Params("city"))
	stopID := strings.ToUpper(strings.TrimSpace(c.Params("stopId")))
	if city == "" || stopID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "city code and stop id are required",
		})
	}

	log.Printf("🚌 arrivals for stop %s (city %s)", stopID, city)

	found := h.collector.Collect(c.UserContext(), models.Stop{ID: stopID, CityCode: city})
	if len(found) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "No arrivals found",
			"stop_id": stopID,
		})
	}
	return c.JSON(fiber.Map{
		"stop_id":  stopID,
		"arrivals": found,
		"count":    len(found),
	})
}

// GetLineStations maneja GET /api/lines/:city/:lineId/stations
// Returns the ordered stations with the detected turnaround points.
func (h *TransitHandler) GetLineStations(c *fiber.Ctx) error {
	city := strings.TrimSpace(c.Params("city"))
	lineID := strings.ToUpper(strings.TrimSpace(c.Params("lineId")))
	if city == "" || lineID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "city code and line id are required",
		})
	}

	line, err := h.fetcher.Fetch(c.UserContext(), nil, city, lineID)
	if err != nil {
		log.Printf("❌ stations for %s: %v", lineID, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   "Failed to get line stations",
			"details": err.Error(),
		})
	}
	if len(line) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "No stations found",
			"line_id": lineID,
		})
	}

	return c.JSON(fiber.Map{
		"line_id":     lineID,
		"stations":    line,
		"turnarounds": direction.DetectTurnarounds(line),
		"count":       len(line),
	})
}
