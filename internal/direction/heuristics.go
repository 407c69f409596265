package direction

import (
	"fmt"
	"math"

	"github.com/yourorg/daysync/internal/geometry"
	"github.com/yourorg/daysync/internal/models"
)

// Heuristic names as reported in DirectionVerdict.Signals
const (
	SignalBasicOrder       = "BASIC_ORDER"
	SignalTerminalPosition = "TERMINAL_POSITION"
	SignalStationOrder     = "STATION_ORDER"
	SignalCoordinates      = "COORDINATES"
)

// Stations ahead of boarding used for the bus heading.
const headingStations = 3

// pairContext is what every heuristic sees for one (boarding, alighting) pair.
type pairContext struct {
	stations    []models.RouteStation
	turnarounds []models.TurnaroundPoint
	reliable    bool
	boarding    models.Stop
	alighting   models.Stop
	origin      models.Coordinate
	destination models.Coordinate
	b, a        int
	opts        Options
}

// basicOrder: the alighting index must come after the boarding index.
func basicOrder(pc pairContext) models.Signal {
	if pc.b < pc.a {
		return models.Signal{Name: SignalBasicOrder, Valid: true, Confidence: 80,
			Detail: fmt.Sprintf("index %d before %d", pc.b, pc.a)}
	}
	return models.Signal{Name: SignalBasicOrder, Valid: false, Confidence: 10,
		Detail: fmt.Sprintf("index %d not before %d", pc.b, pc.a)}
}

// terminalPosition: both ends on the same segment between turnarounds and,
// when codes are reliable, carrying the same direction. Boarding exactly at a
// turnaround counts as the segment that continues from it.
func terminalPosition(pc pairContext) models.Signal {
	informed := pc.reliable || len(realTurnarounds(pc.turnarounds)) > 0
	validConf := 60
	if informed {
		validConf = 85
	}

	if pc.b >= pc.a {
		return models.Signal{Name: SignalTerminalPosition, Valid: false, Confidence: 5,
			Detail: "alighting precedes boarding"}
	}

	segB, segA := 0, 0
	for _, t := range pc.turnarounds {
		if t.Index <= pc.b {
			segB++
		}
		if t.Index < pc.a {
			segA++
		}
	}
	if segB != segA {
		return models.Signal{Name: SignalTerminalPosition, Valid: false, Confidence: 5,
			Detail: fmt.Sprintf("segments differ (%d vs %d)", segB, segA)}
	}

	if pc.reliable {
		db := pc.stations[pc.b].Direction
		da := pc.stations[pc.a].Direction
		if db != models.DirectionUnknown && da != models.DirectionUnknown && db != da {
			return models.Signal{Name: SignalTerminalPosition, Valid: false, Confidence: 5,
				Detail: fmt.Sprintf("direction codes differ (%s vs %s)", db, da)}
		}
	}
	return models.Signal{Name: SignalTerminalPosition, Valid: true, Confidence: validConf,
		Detail: fmt.Sprintf("segment %d", segB)}
}

// stationOrder: the span is plausible and the path along the line is not a
// long detour compared with the straight line between the two stations.
func stationOrder(pc pairContext) models.Signal {
	span := pc.a - pc.b
	if span <= 0 {
		return models.Signal{Name: SignalStationOrder, Valid: false, Confidence: 15,
			Detail: "no forward span"}
	}
	if span > pc.opts.MaxStopSpan {
		return models.Signal{Name: SignalStationOrder, Valid: false, Confidence: 15,
			Detail: fmt.Sprintf("%d stops exceeds %d", span, pc.opts.MaxStopSpan)}
	}

	path, ok := pathCoordinates(pc.stations, pc.b, pc.a)
	if !ok {
		return models.Signal{Name: SignalStationOrder, Valid: true, Confidence: 50,
			Detail: fmt.Sprintf("%d stops, no coordinates", span)}
	}
	along := geometry.PathLength(path)
	straight := geometry.Haversine(path[0], path[len(path)-1])
	if straight < 50 {
		return models.Signal{Name: SignalStationOrder, Valid: true, Confidence: 70,
			Detail: fmt.Sprintf("%d stops, endpoints adjacent", span)}
	}
	ratio := along / straight
	if ratio > pc.opts.MaxDistanceRatio {
		return models.Signal{Name: SignalStationOrder, Valid: false, Confidence: 15,
			Detail: fmt.Sprintf("detour ratio %.2f", ratio)}
	}
	return models.Signal{Name: SignalStationOrder, Valid: true, Confidence: 70,
		Detail: fmt.Sprintf("%d stops, detour ratio %.2f", span, ratio)}
}

// coordinates: the bus heading just after boarding points roughly the same
// way as the rider's trip. The heading is taken over at most three stations
// so that a line which leaves in the wrong direction and loops back disagrees.
// The rider's trip is origin→destination, or the stop pair when those two are
// too close to give a bearing.
func coordinates(pc pairContext) models.Signal {
	n := len(pc.stations)
	target := pc.b + headingStations
	if pc.a > pc.b && pc.a < target {
		target = pc.a
	}
	if target > n-1 {
		target = n - 1
	}
	from := pc.stations[pc.b]
	to := pc.stations[target]

	tripFrom, tripTo := pc.origin, pc.destination
	if geometry.Haversine(tripFrom, tripTo) < 20 {
		tripFrom, tripTo = pc.boarding.Coordinate(), pc.alighting.Coordinate()
	}

	if target == pc.b || !from.HasCoordinate() || !to.HasCoordinate() ||
		geometry.Haversine(from.Coordinate(), to.Coordinate()) < 20 ||
		geometry.Haversine(tripFrom, tripTo) < 20 {
		return models.Signal{Name: SignalCoordinates, Valid: false, Confidence: 0,
			Detail: "insufficient coordinates"}
	}

	busHeading := geometry.Bearing(from.Coordinate(), to.Coordinate())
	riderHeading := geometry.Bearing(tripFrom, tripTo)
	delta := geometry.BearingDelta(busHeading, riderHeading)

	if delta > 90 {
		return models.Signal{Name: SignalCoordinates, Valid: false, Confidence: 10,
			Detail: fmt.Sprintf("heading differs by %.0f°", delta)}
	}
	conf := 60 + int(math.Round(30*math.Cos(delta*math.Pi/180)))
	return models.Signal{Name: SignalCoordinates, Valid: true, Confidence: conf,
		Detail: fmt.Sprintf("heading differs by %.0f°", delta)}
}

// pathCoordinates returns the coordinates of stations b..a, skipping ones
// without a position. ok is false when fewer than two remain.
func pathCoordinates(stations []models.RouteStation, b, a int) ([]models.Coordinate, bool) {
	var path []models.Coordinate
	for i := b; i <= a && i < len(stations); i++ {
		if stations[i].HasCoordinate() {
			path = append(path, stations[i].Coordinate())
		}
	}
	return path, len(path) >= 2
}

// score runs all heuristics; validity needs a strict majority.
func score(pc pairContext) (valid bool, confidence int, signals []models.Signal) {
	signals = []models.Signal{
		basicOrder(pc),
		terminalPosition(pc),
		stationOrder(pc),
		coordinates(pc),
	}
	validCount, total := 0, 0
	for _, s := range signals {
		if s.Valid {
			validCount++
		}
		total += s.Confidence
	}
	// 2-2 ties fail closed
	valid = validCount*2 > len(signals)
	confidence = total / len(signals)
	return valid, confidence, signals
}
