package handlers

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/yourorg/daysync/internal/debug"
	"github.com/yourorg/daysync/internal/models"
	"github.com/yourorg/daysync/internal/search"
	"github.com/yourorg/daysync/internal/validation"
)

// Searcher runs itinerary searches
type Searcher interface {
	Search(ctx context.Context, origin, dest models.Coordinate) (*search.Result, error)
}

// SearchStore persists completed searches
type SearchStore interface {
	SaveSearch(ctx context.Context, rec models.SearchRecord) error
	GetSearch(ctx context.Context, id string) (*models.SearchRecord, error)
}

// ItineraryView is an itinerary with its human-readable summary
type ItineraryView struct {
	models.Itinerary
	Summary string `json:"summary"`
}

// ItineraryResponse is the body of POST /api/itineraries
type ItineraryResponse struct {
	SearchID    string          `json:"search_id"`
	Outcome     search.Outcome  `json:"outcome"`
	Itineraries []ItineraryView `json:"itineraries"`
	Stats       search.Stats    `json:"stats"`
	Cached      bool            `json:"cached"`
}

// ItineraryHandler serves itinerary searches
type ItineraryHandler struct {
	searcher Searcher
	cache    *ResultCache
	store    SearchStore
	hub      *debug.Hub
	validate *validator.Validate
	timeout  time.Duration
}

// NewItineraryHandler creates the handler. store may be nil when history is off.
func NewItineraryHandler(searcher Searcher, cache *ResultCache, store SearchStore, hub *debug.Hub, timeout time.Duration) *ItineraryHandler {
	return &ItineraryHandler{
		searcher: searcher,
		cache:    cache,
		store:    store,
		hub:      hub,
		validate: validator.New(),
		timeout:  timeout,
	}
}

// Search maneja POST /api/itineraries
func (h *ItineraryHandler) Search(c *fiber.Ctx) error {
	var req models.ItineraryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "invalid coordinates",
			"details": fieldErrors(err),
		})
	}

	origin := models.Coordinate{Lat: req.OriginLat, Lon: req.OriginLon}
	dest := models.Coordinate{Lat: req.DestLat, Lon: req.DestLon}

	if cached, ok := h.cache.Get(origin, dest); ok {
		return c.JSON(newItineraryResponse(cached, true))
	}

	ctx := c.UserContext()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	res, err := h.searcher.Search(ctx, origin, dest)
	if err != nil {
		var ce *validation.CoordinateError
		switch {
		case errors.As(err, &ce):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": ce.Error(),
				"field": ce.Field,
			})
		case errors.Is(err, context.DeadlineExceeded):
			return c.Status(fiber.StatusGatewayTimeout).JSON(fiber.Map{
				"error": "search timed out",
			})
		}
		log.Printf("❌ search failed: %v", err)
		h.hub.LogError("search failed", map[string]interface{}{
			"origin":      origin.String(),
			"destination": dest.String(),
			"error":       err.Error(),
		})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "search failed",
		})
	}

	h.cache.Set(origin, dest, res)
	h.record(res)
	h.publish(res)

	return c.JSON(newItineraryResponse(res, false))
}

func (h *ItineraryHandler) record(res *search.Result) {
	if h.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := h.store.SaveSearch(ctx, res.Record()); err != nil {
		log.Printf("[HISTORY] ⚠️  %v", err)
		h.hub.LogWarn("search history not saved", map[string]interface{}{"search_id": res.ID})
	}
}

func (h *ItineraryHandler) publish(res *search.Result) {
	if h.hub == nil {
		return
	}
	ev := debug.SearchEvent{
		ID:             res.ID,
		Outcome:        string(res.Outcome),
		Origin:         res.Origin.String(),
		Destination:    res.Destination.String(),
		Results:        len(res.Itineraries),
		LinesEvaluated: res.Stats.LinesEvaluated,
		Rejected:       res.Stats.Rejected,
		CacheHits:      res.Stats.Cache.Hits,
		DurationMillis: res.Stats.DurationMillis,
	}
	if len(res.Itineraries) > 0 {
		ev.BestMinutes = res.Itineraries[0].TotalMinutes
		ev.BestLine = res.Itineraries[0].LineNumber
	}
	h.hub.SendSearch(ev)
}

func newItineraryResponse(res *search.Result, cached bool) ItineraryResponse {
	views := make([]ItineraryView, len(res.Itineraries))
	for i, it := range res.Itineraries {
		views[i] = ItineraryView{Itinerary: it, Summary: it.Summary()}
	}
	return ItineraryResponse{
		SearchID:    res.ID,
		Outcome:     res.Outcome,
		Itineraries: views,
		Stats:       res.Stats,
		Cached:      cached,
	}
}

// fieldErrors flattens validator errors into field -> tag.
func fieldErrors(err error) map[string]string {
	out := map[string]string{}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			out[fe.Field()] = fe.Tag()
		}
	}
	return out
}
