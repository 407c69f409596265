package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Coordinate is a WGS84 point
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lon)
}

// Stop representa una parada devuelta por el servicio de paradas cercanas
type Stop struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	CityCode string  `json:"city_code"`
	// Distance from the search center, filled by the locator.
	Distance float64 `json:"distance_meters,omitempty"`
}

func (s Stop) Coordinate() Coordinate {
	return Coordinate{Lat: s.Lat, Lon: s.Lon}
}

// Arrival is a live prediction for one line at one stop
type Arrival struct {
	LineID         string `json:"line_id"`
	LineNumber     string `json:"line_number"`
	ArrivalSeconds int    `json:"arrival_seconds"`
	StopsRemaining int    `json:"stops_remaining"`
	LineType       string `json:"line_type,omitempty"`
}

// DedupKey identifies an arrival across pages.
func (a Arrival) DedupKey() string {
	return a.LineNumber + "_" + a.LineID
}

// ============================================================================
// FLEXIBLE UPSTREAM SCALARS
// ============================================================================
// The transit API serializes the same field as a number on one call and as a
// string on the next. These types accept both.

// FlexString decodes a JSON string or number into its textual form
type FlexString string

func (fs *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*fs = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*fs = FlexString(strings.TrimSpace(s))
		return nil
	}
	*fs = FlexString(string(data))
	return nil
}

func (fs FlexString) String() string { return string(fs) }

// FlexFloat decodes a JSON number or numeric string; anything else is zero
type FlexFloat float64

func (ff *FlexFloat) UnmarshalJSON(data []byte) error {
	var s FlexString
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	if s == "" {
		*ff = 0
		return nil
	}
	f, err := strconv.ParseFloat(string(s), 64)
	if err != nil {
		*ff = 0
		return nil
	}
	*ff = FlexFloat(f)
	return nil
}

// FlexInt decodes a JSON number or numeric string; anything else is zero
type FlexInt int

func (fi *FlexInt) UnmarshalJSON(data []byte) error {
	var f FlexFloat
	if err := f.UnmarshalJSON(data); err != nil {
		return err
	}
	*fi = FlexInt(int(f))
	return nil
}
