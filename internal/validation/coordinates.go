package validation

import (
	"fmt"
	"math"

	"github.com/yourorg/daysync/internal/models"
)

// CoordinateError is returned for unusable input coordinates
type CoordinateError struct {
	Field   string
	Value   float64
	Message string
}

func (e *CoordinateError) Error() string {
	return fmt.Sprintf("%s: %s (value: %.6f)", e.Field, e.Message, e.Value)
}

// Region is an inclusive lat/lon bounding box
type Region struct {
	Name   string
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

// ValidateLatitude rejects NaN, infinities and values outside [-90, 90]
func ValidateLatitude(lat float64, fieldName string) error {
	return checkRange(lat, -90, 90, fieldName)
}

// ValidateLongitude rejects NaN, infinities and values outside [-180, 180]
func ValidateLongitude(lon float64, fieldName string) error {
	return checkRange(lon, -180, 180, fieldName)
}

func checkRange(v, min, max float64, fieldName string) error {
	if math.IsNaN(v) {
		return &CoordinateError{Field: fieldName, Value: v, Message: "NaN is not allowed"}
	}
	if math.IsInf(v, 0) {
		return &CoordinateError{Field: fieldName, Value: v, Message: "infinite value is not allowed"}
	}
	if v < min || v > max {
		return &CoordinateError{
			Field:   fieldName,
			Value:   v,
			Message: fmt.Sprintf("must be between %g and %g", min, max),
		}
	}
	return nil
}

// ValidateCoordinatePair validates (lat, lon) and rejects the (0, 0) placeholder
func ValidateCoordinatePair(lat, lon float64, prefix string) error {
	if err := ValidateLatitude(lat, prefix+"_lat"); err != nil {
		return err
	}
	if err := ValidateLongitude(lon, prefix+"_lon"); err != nil {
		return err
	}
	if IsZeroCoordinate(lat, lon) {
		return &CoordinateError{Field: prefix, Value: 0, Message: "(0, 0) is not a valid location"}
	}
	return nil
}

// ValidateCoordinate is ValidateCoordinatePair for a models.Coordinate
func ValidateCoordinate(c models.Coordinate, prefix string) error {
	return ValidateCoordinatePair(c.Lat, c.Lon, prefix)
}

// ValidateRegion checks that the point falls inside the service region
func ValidateRegion(c models.Coordinate, r Region, prefix string) error {
	if c.Lat < r.MinLat || c.Lat > r.MaxLat {
		return &CoordinateError{
			Field:   prefix + "_lat",
			Value:   c.Lat,
			Message: fmt.Sprintf("outside %s region (%.1f to %.1f)", r.Name, r.MinLat, r.MaxLat),
		}
	}
	if c.Lon < r.MinLon || c.Lon > r.MaxLon {
		return &CoordinateError{
			Field:   prefix + "_lon",
			Value:   c.Lon,
			Message: fmt.Sprintf("outside %s region (%.1f to %.1f)", r.Name, r.MinLon, r.MaxLon),
		}
	}
	return nil
}

// IsZeroCoordinate reports whether the point is (0, 0)
func IsZeroCoordinate(lat, lon float64) bool {
	return lat == 0 && lon == 0
}
