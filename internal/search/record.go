package search

import "github.com/yourorg/daysync/internal/models"

// Record converts the result to its search_history row.
func (r *Result) Record() models.SearchRecord {
	rec := models.SearchRecord{
		ID:             r.ID,
		OriginLat:      r.Origin.Lat,
		OriginLon:      r.Origin.Lon,
		DestinationLat: r.Destination.Lat,
		DestinationLon: r.Destination.Lon,
		Outcome:        string(r.Outcome),
		ResultCount:    len(r.Itineraries),
		Itineraries:    r.Itineraries,
		DurationMillis: r.Stats.DurationMillis,
		CreatedAt:      r.StartedAt,
	}
	if len(r.Itineraries) > 0 {
		best := r.Itineraries[0].TotalMinutes
		rec.BestMinutes = &best
	}
	return rec
}
