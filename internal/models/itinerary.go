package models

import (
	"fmt"
	"strings"
	"time"
)

// ModeTransit labels a walk + bus + walk itinerary
const ModeTransit = "transit"

// Itinerary es una recomendación completa: caminar, esperar, viajar, caminar
type Itinerary struct {
	Mode         string `json:"mode"`
	TotalMinutes int    `json:"total_minutes"`
	WaitMinutes  int    `json:"wait_minutes"`
	LineNumber   string `json:"line_number"`
	LineID       string `json:"line_id"`

	BoardingStop    string `json:"boarding_stop"`
	AlightingStop   string `json:"alighting_stop"`
	BoardingStopID  string `json:"boarding_stop_id"`
	AlightingStopID string `json:"alighting_stop_id"`

	RideMinutes           int `json:"ride_minutes"`
	WalkToBoardMinutes    int `json:"walk_to_board_minutes"`
	WalkFromAlightMinutes int `json:"walk_from_alight_minutes"`
	StopCount             int `json:"stop_count"`

	Direction   string     `json:"direction"`
	Forward     bool       `json:"forward"`
	Boarding    Coordinate `json:"boarding"`
	Alighting   Coordinate `json:"alighting"`
	Destination Coordinate `json:"destination"`

	Expanded            bool `json:"expanded"`
	Confidence          int  `json:"confidence"`
	CoordinateEstimated bool `json:"coordinate_estimated"`
}

// DedupKey is (line number, boarding stop name, alighting stop name).
func (it Itinerary) DedupKey() string {
	return it.LineNumber + "|" + it.BoardingStop + "|" + it.AlightingStop
}

// Summary is a one-line description for lists.
func (it Itinerary) Summary() string {
	return fmt.Sprintf("Bus %s · %d min (walk %d, wait %d, ride %d, walk %d)",
		it.LineNumber, it.TotalMinutes, it.WalkToBoardMinutes, it.WaitMinutes,
		it.RideMinutes, it.WalkFromAlightMinutes)
}

// Detail is a multi-line, step-by-step description.
func (it Itinerary) Detail() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Bus %s, %s\n", it.LineNumber, it.Direction)
	fmt.Fprintf(&b, "1. Walk %d min to %s\n", it.WalkToBoardMinutes, it.BoardingStop)
	fmt.Fprintf(&b, "2. Wait %d min\n", it.WaitMinutes)
	fmt.Fprintf(&b, "3. Ride %d stops (%d min) to %s\n", it.StopCount, it.RideMinutes, it.AlightingStop)
	fmt.Fprintf(&b, "4. Walk %d min to destination\n", it.WalkFromAlightMinutes)
	fmt.Fprintf(&b, "Total: %d min", it.TotalMinutes)
	if it.CoordinateEstimated {
		b.WriteString(" (coordinate-estimated)")
	}
	return b.String()
}

// ============================================================================
// SEARCH HISTORY
// ============================================================================

// SearchRecord is a completed search as stored in search_history
type SearchRecord struct {
	ID             string      `json:"id" db:"id"`
	OriginLat      float64     `json:"origin_lat" db:"origin_lat"`
	OriginLon      float64     `json:"origin_lon" db:"origin_lon"`
	DestinationLat float64     `json:"destination_lat" db:"destination_lat"`
	DestinationLon float64     `json:"destination_lon" db:"destination_lon"`
	Outcome        string      `json:"outcome" db:"outcome"`
	ResultCount    int         `json:"result_count" db:"result_count"`
	BestMinutes    *int        `json:"best_minutes,omitempty" db:"best_minutes"`
	Itineraries    []Itinerary `json:"itineraries" db:"itineraries"` // JSON encoded
	DurationMillis int64       `json:"duration_ms" db:"duration_ms"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
}

// ItineraryRequest is the body of POST /api/itineraries
type ItineraryRequest struct {
	OriginLat float64 `json:"origin_lat" validate:"latitude"`
	OriginLon float64 `json:"origin_lon" validate:"longitude"`
	DestLat   float64 `json:"dest_lat" validate:"latitude"`
	DestLon   float64 `json:"dest_lon" validate:"longitude"`
}
