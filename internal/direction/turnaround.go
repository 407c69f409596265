package direction

import (
	"github.com/yourorg/daysync/internal/models"
)

// reliableCodes is true when at least half the stations carry a known direction.
func reliableCodes(stations []models.RouteStation) bool {
	known := 0
	for _, s := range stations {
		if s.Direction != models.DirectionUnknown {
			known++
		}
	}
	return known >= 2 && known*2 >= len(stations)
}

// DetectTurnarounds finds a line's interior turnaround points, in index order.
//
// Sources, first that yields anything wins:
//  1. transitions between normalized direction codes, when codes are reliable;
//     the point is the first station of the new direction
//  2. interior stations whose name carries a terminal keyword, one per name
//  3. for a loop (first name equals last name) the estimated midpoint
func DetectTurnarounds(stations []models.RouteStation) []models.TurnaroundPoint {
	n := len(stations)
	if n < 3 {
		return nil
	}

	var points []models.TurnaroundPoint

	if reliableCodes(stations) {
		prev := models.DirectionUnknown
		for i, s := range stations {
			if s.Direction == models.DirectionUnknown {
				continue
			}
			if prev != models.DirectionUnknown && s.Direction != prev {
				points = append(points, models.TurnaroundPoint{
					Name:   s.Name,
					Index:  i,
					Source: models.TurnaroundDirectionCode,
				})
			}
			prev = s.Direction
		}
		if len(points) > 0 {
			return points
		}
	}

	seen := make(map[string]bool)
	for i := 1; i < n-1; i++ {
		name := stations[i].Name
		if !IsTurnaroundName(name) {
			continue
		}
		key := NormalizeName(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		points = append(points, models.TurnaroundPoint{
			Name:   name,
			Index:  i,
			Source: models.TurnaroundKeyword,
		})
	}
	if len(points) > 0 {
		return points
	}

	if n >= 4 && NormalizeName(stations[0].Name) != "" &&
		NormalizeName(stations[0].Name) == NormalizeName(stations[n-1].Name) {
		mid := n / 2
		points = append(points, models.TurnaroundPoint{
			Name:   stations[mid].Name,
			Index:  mid,
			Source: models.TurnaroundEstimated,
		})
	}
	return points
}

// straddles reports whether any turnaround lies strictly between i and j.
func straddles(turnarounds []models.TurnaroundPoint, i, j int) bool {
	lo, hi := i, j
	if lo > hi {
		lo, hi = hi, lo
	}
	for _, t := range turnarounds {
		if t.Index > lo && t.Index < hi {
			return true
		}
	}
	return false
}

// realTurnarounds drops estimated points, which only serve straddle rejection.
func realTurnarounds(turnarounds []models.TurnaroundPoint) []models.TurnaroundPoint {
	out := make([]models.TurnaroundPoint, 0, len(turnarounds))
	for _, t := range turnarounds {
		if t.Source != models.TurnaroundEstimated {
			out = append(out, t)
		}
	}
	return out
}
