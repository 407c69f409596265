package geometry

import (
	"math"

	"github.com/yourorg/daysync/internal/models"
)

// ============================================================================
// UTILIDADES GEOMÉTRICAS
// ============================================================================

const earthRadius = 6371000 // metros

// Haversine returns the great-circle distance in meters
func Haversine(a, b models.Coordinate) float64 {
	return haversineDistance(a.Lat, a.Lon, b.Lat, b.Lon)
}

func haversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * c
}

// Offset moves a point by the given meters north and east.
// Accurate to well under a meter for offsets of a few kilometers.
func Offset(c models.Coordinate, northMeters, eastMeters float64) models.Coordinate {
	dLat := northMeters / earthRadius
	dLon := eastMeters / (earthRadius * math.Cos(toRadians(c.Lat)))
	return models.Coordinate{
		Lat: c.Lat + toDegrees(dLat),
		Lon: c.Lon + toDegrees(dLon),
	}
}

// Bearing is the initial compass bearing from a to b in [0, 360)
func Bearing(a, b models.Coordinate) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLon := toRadians(b.Lon - a.Lon)

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)

	deg := toDegrees(math.Atan2(y, x))
	return math.Mod(deg+360, 360)
}

// BearingDelta is the smallest angle between two bearings, in [0, 180]
func BearingDelta(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 360)
	if d > 180 {
		d = 360 - d
	}
	return d
}

// PathLength sums the leg distances along the given points
func PathLength(points []models.Coordinate) float64 {
	total := 0.0
	for i := 1; i < len(points); i++ {
		total += Haversine(points[i-1], points[i])
	}
	return total
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}

func toDegrees(radians float64) float64 {
	return radians * 180 / math.Pi
}
