package models

import (
	"strconv"
	"strings"
)

// Direction is the normalized travel direction of a station on its line
type Direction string

const (
	DirectionUp      Direction = "UP"
	DirectionDown    Direction = "DOWN"
	DirectionUnknown Direction = "UNKNOWN"
)

// StationOrder holds the raw sequence fields. Upstream fills at most a few.
type StationOrder struct {
	Ord        int    `json:"ord,omitempty"`
	Seq        int    `json:"seq,omitempty"`
	StationSeq int    `json:"station_seq,omitempty"`
	Sequence   int    `json:"sequence,omitempty"`
	RouteSeq   int    `json:"route_seq,omitempty"`
	StationOrd int    `json:"station_ord,omitempty"`
	ArrivalSeq int    `json:"arrival_seq,omitempty"`
	NodeOrd    string `json:"node_ord,omitempty"`
}

// DirectionCodes holds the raw direction fields as delivered.
type DirectionCodes struct {
	UpDown    string `json:"updown,omitempty"`
	UpDownCd  string `json:"updowncd,omitempty"`
	Direction string `json:"direction,omitempty"`
	DirectCd  string `json:"direct_cd,omitempty"`
}

// RouteStation is one entry of a line's ordered station list
type RouteStation struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	NodeNo string  `json:"node_no,omitempty"`

	Order StationOrder   `json:"order"`
	Codes DirectionCodes `json:"codes"`

	// Set by Normalize: position in the delivered list and direction.
	Index     int       `json:"index"`
	Direction Direction `json:"direction"`
}

func (rs RouteStation) Coordinate() Coordinate {
	return Coordinate{Lat: rs.Lat, Lon: rs.Lon}
}

// HasCoordinate is false for stations delivered without a usable position.
func (rs RouteStation) HasCoordinate() bool {
	return rs.Lat != 0 || rs.Lon != 0
}

// Normalize sets the station's index and its normalized direction.
// This is the only place direction codes are interpreted.
func (rs *RouteStation) Normalize(index int) {
	rs.Index = index
	rs.Direction = rs.Codes.Normalize()
}

// RawOrder returns the first positive upstream sequence value, or -1.
// Diagnostic only: list position is the source of truth for ordering.
func (rs RouteStation) RawOrder() int {
	o := rs.Order
	for _, v := range []int{o.Ord, o.Seq, o.StationSeq, o.Sequence, o.RouteSeq, o.StationOrd, o.ArrivalSeq} {
		if v > 0 {
			return v
		}
	}
	if n, err := strconv.Atoi(strings.TrimSpace(o.NodeOrd)); err == nil && n > 0 {
		return n
	}
	return -1
}

// Normalize maps the raw codes to a Direction.
// Priority: updown > updowncd > direction > directCd. A field that is present
// but unrecognized falls through to the next one.
func (dc DirectionCodes) Normalize() Direction {
	if d := fromUpDown(dc.UpDown); d != DirectionUnknown {
		return d
	}
	if d := fromUpDownCode(dc.UpDownCd); d != DirectionUnknown {
		return d
	}
	if d := fromDirectionText(dc.Direction); d != DirectionUnknown {
		return d
	}
	return fromDirectCode(dc.DirectCd)
}

func fromUpDown(v string) Direction {
	v = strings.ToLower(strings.TrimSpace(v))
	switch {
	case v == "":
		return DirectionUnknown
	case v == "1" || strings.Contains(v, "up") || strings.Contains(v, "상행"):
		return DirectionUp
	case v == "2" || strings.Contains(v, "down") || strings.Contains(v, "하행"):
		return DirectionDown
	}
	return DirectionUnknown
}

func fromUpDownCode(v string) Direction {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "1", "U", "UP":
		return DirectionUp
	case "2", "D", "DOWN":
		return DirectionDown
	}
	return DirectionUnknown
}

func fromDirectionText(v string) Direction {
	v = strings.ToLower(strings.TrimSpace(v))
	switch {
	case v == "":
		return DirectionUnknown
	case strings.Contains(v, "up") || strings.Contains(v, "상행") || strings.Contains(v, "정방향"):
		return DirectionUp
	case strings.Contains(v, "down") || strings.Contains(v, "하행") || strings.Contains(v, "역방향"):
		return DirectionDown
	}
	return DirectionUnknown
}

func fromDirectCode(v string) Direction {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "1", "A", "FWD":
		return DirectionUp
	case "2", "B", "BWD":
		return DirectionDown
	}
	return DirectionUnknown
}
