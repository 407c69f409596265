package direction

import (
	"github.com/yourorg/daysync/internal/geometry"
	"github.com/yourorg/daysync/internal/models"
)

// MatchTier records how a stop was located on a line
type MatchTier int

const (
	TierNone MatchTier = iota
	TierID
	TierName
	TierContains
	TierNearest
)

func (t MatchTier) String() string {
	switch t {
	case TierID:
		return "id"
	case TierName:
		return "name"
	case TierContains:
		return "contains"
	case TierNearest:
		return "nearest"
	}
	return "none"
}

// FindOccurrences returns every index of stations where stop appears, in
// ascending order, using the first tier that matches anything:
//
//	(a) identical stop ID
//	(b) equal normalized name, when the ID does not occur on the line
//	(c) normalized-name containment within maxNameDiff runes
//	(d) the single nearest station within matchMeters
func FindOccurrences(stations []models.RouteStation, stop models.Stop, maxNameDiff int, matchMeters float64) ([]int, MatchTier) {
	var idx []int

	if stop.ID != "" {
		for i, s := range stations {
			if s.ID == stop.ID {
				idx = append(idx, i)
			}
		}
		if len(idx) > 0 {
			return idx, TierID
		}
	}

	want := NormalizeName(stop.Name)
	if want != "" {
		for i, s := range stations {
			if NormalizeName(s.Name) == want {
				idx = append(idx, i)
			}
		}
		if len(idx) > 0 {
			return idx, TierName
		}

		for i, s := range stations {
			if looselyContains(NormalizeName(s.Name), want, maxNameDiff) {
				idx = append(idx, i)
			}
		}
		if len(idx) > 0 {
			return idx, TierContains
		}
	}

	if stop.Lat != 0 || stop.Lon != 0 {
		best, bestDist := -1, matchMeters
		for i, s := range stations {
			if !s.HasCoordinate() {
				continue
			}
			if d := geometry.Haversine(stop.Coordinate(), s.Coordinate()); d <= bestDist {
				if best == -1 || d < bestDist {
					best, bestDist = i, d
				}
			}
		}
		if best >= 0 {
			return []int{best}, TierNearest
		}
	}
	return nil, TierNone
}
