package direction

import (
	"fmt"
	"sort"

	"github.com/yourorg/daysync/internal/cache"
	"github.com/yourorg/daysync/internal/geometry"
	"github.com/yourorg/daysync/internal/models"
)

// ============================================================================
// DIRECTION ANALYZER
// ============================================================================
// Decides whether riding a line from a boarding stop to an alighting stop
// travels the right way. Loop lines list the same stop name on both halves,
// so every occurrence pair is considered and pairs that cross a turnaround
// are discarded before any scoring.
// ============================================================================

// Options tune the analyzer. Zero values take the defaults.
type Options struct {
	AllowCoordinateEstimate bool
	MaxStopSpan             int
	MaxDistanceRatio        float64
	MaxNameDiff             int
	MatchMeters             float64
	EstimateMeters          float64
	HighConfidence          int
	MediumConfidence        int
	EstimatedConfidenceCap  int
	RouteDistanceFactor     float64
}

func (o Options) withDefaults() Options {
	if o.MaxStopSpan <= 0 {
		o.MaxStopSpan = 50
	}
	if o.MaxDistanceRatio <= 0 {
		o.MaxDistanceRatio = 3.0
	}
	if o.MaxNameDiff <= 0 {
		o.MaxNameDiff = 4
	}
	if o.MatchMeters <= 0 {
		o.MatchMeters = 50
	}
	if o.EstimateMeters <= 0 {
		o.EstimateMeters = 500
	}
	if o.HighConfidence <= 0 {
		o.HighConfidence = 70
	}
	if o.MediumConfidence <= 0 {
		o.MediumConfidence = 50
	}
	if o.EstimatedConfidenceCap <= 0 {
		o.EstimatedConfidenceCap = 30
	}
	if o.RouteDistanceFactor <= 0 {
		o.RouteDistanceFactor = 1.4
	}
	return o
}

// Request is one line evaluated for one boarding/alighting stop pair
type Request struct {
	LineID     string
	LineNumber string
	CityCode   string
	Stations   []models.RouteStation

	Boarding  models.Stop
	Alighting models.Stop

	// The rider's true origin and destination.
	Origin      models.Coordinate
	Destination models.Coordinate

	// Optional per-search memo for occurrence lookups.
	Session *cache.Session
}

// Analyzer is stateless and safe for concurrent use
type Analyzer struct {
	opts Options
}

func NewAnalyzer(opts Options) *Analyzer {
	return &Analyzer{opts: opts.withDefaults()}
}

type candidate struct {
	b, a       int
	valid      bool
	confidence int
	signals    []models.Signal
}

// Analyze returns the verdict for the best surviving occurrence pair.
func (an *Analyzer) Analyze(req Request) models.DirectionVerdict {
	v := models.DirectionVerdict{
		LineID:         req.LineID,
		LineNumber:     req.LineNumber,
		BoardingIndex:  -1,
		AlightingIndex: -1,
	}
	stations := req.Stations
	if len(stations) < 2 {
		v.Reason = models.ReasonEmptyLine
		v.Description = "line has no station data"
		return v
	}

	turnarounds := DetectTurnarounds(stations)
	v.Turnarounds = turnarounds

	boardIdx := an.occurrences(req, req.Boarding)
	if len(boardIdx) == 0 {
		v.Reason = models.ReasonBoardingNotOnLine
		v.Description = fmt.Sprintf("%s is not on line %s", req.Boarding.Name, req.LineNumber)
		return v
	}

	estimated := false
	var pairs [][2]int
	if alightIdx := an.occurrences(req, req.Alighting); len(alightIdx) > 0 {
		for _, b := range boardIdx {
			for _, a := range alightIdx {
				pairs = append(pairs, [2]int{b, a})
			}
		}
	} else if an.opts.AllowCoordinateEstimate {
		pairs = an.estimatePairs(stations, boardIdx, req.Alighting)
		estimated = true
	}
	if len(pairs) == 0 {
		v.Reason = models.ReasonAlightingNotOnLine
		v.Description = fmt.Sprintf("%s is not on line %s", req.Alighting.Name, req.LineNumber)
		return v
	}

	reliable := reliableCodes(stations)
	var candidates []candidate
	for _, p := range pairs {
		b, a := p[0], p[1]
		if b == a || straddles(turnarounds, b, a) {
			continue
		}
		valid, conf, signals := score(pairContext{
			stations:    stations,
			turnarounds: turnarounds,
			reliable:    reliable,
			boarding:    req.Boarding,
			alighting:   req.Alighting,
			origin:      req.Origin,
			destination: req.Destination,
			b:           b,
			a:           a,
			opts:        an.opts,
		})
		candidates = append(candidates, candidate{b: b, a: a, valid: valid, confidence: conf, signals: signals})
	}

	if len(candidates) == 0 {
		v.Valid = false
		v.Confidence = 0
		v.Reason = models.ReasonCrossesTurnaround
		v.Segment = "turnaround"
		v.Description = "every candidate pair crosses a turnaround"
		return v
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		ci, cj := candidates[i], candidates[j]
		if ci.confidence != cj.confidence {
			return ci.confidence > cj.confidence
		}
		if ci.valid != cj.valid {
			return ci.valid
		}
		if si, sj := abs(ci.a-ci.b), abs(cj.a-cj.b); si != sj {
			return si < sj
		}
		if ci.b != cj.b {
			return ci.b < cj.b
		}
		return ci.a < cj.a
	})
	best := candidates[0]

	actual := realTurnarounds(turnarounds)
	v.Valid = best.valid
	v.Confidence = best.confidence
	v.Signals = best.signals
	v.BoardingIndex = best.b
	v.AlightingIndex = best.a
	v.Forward = best.b < best.a
	v.Segment = segmentLabel(actual, best.b)
	v.Destination = destinationName(stations, actual, best.b)
	v.Description = "towards " + v.Destination
	if d := stations[best.b].Direction; d != models.DirectionUnknown {
		v.Description += fmt.Sprintf(" (%s)", d)
	}
	if !v.Valid {
		v.Reason = models.ReasonHeuristics
	}

	if estimated {
		v.CoordinateEstimated = true
		if v.Confidence > an.opts.EstimatedConfidenceCap {
			v.Confidence = an.opts.EstimatedConfidenceCap
		}
		v.Description += " (coordinate-estimated)"
	}
	return v
}

func (an *Analyzer) occurrences(req Request, stop models.Stop) []int {
	compute := func() []int {
		idx, _ := FindOccurrences(req.Stations, stop, an.opts.MaxNameDiff, an.opts.MatchMeters)
		return idx
	}
	if req.Session == nil {
		return compute()
	}
	return req.Session.Occurrences(cache.LineKey(req.CityCode, req.LineID), stop.ID+"|"+stop.Name, compute)
}

// estimatePairs pairs each boarding occurrence with the station after it
// nearest to the alighting stop, within EstimateMeters.
func (an *Analyzer) estimatePairs(stations []models.RouteStation, boardIdx []int, alighting models.Stop) [][2]int {
	if alighting.Lat == 0 && alighting.Lon == 0 {
		return nil
	}
	var pairs [][2]int
	for _, b := range boardIdx {
		best, bestDist := -1, an.opts.EstimateMeters
		for j := b + 1; j < len(stations); j++ {
			if !stations[j].HasCoordinate() {
				continue
			}
			if d := geometry.Haversine(stations[j].Coordinate(), alighting.Coordinate()); d <= bestDist {
				if best == -1 || d < bestDist {
					best, bestDist = j, d
				}
			}
		}
		if best >= 0 {
			pairs = append(pairs, [2]int{b, best})
		}
	}
	return pairs
}

func segmentLabel(actual []models.TurnaroundPoint, b int) string {
	if len(actual) == 0 {
		return "main"
	}
	seg := 0
	for _, t := range actual {
		if t.Index <= b {
			seg++
		}
	}
	switch seg {
	case 0:
		return "outbound"
	case 1:
		return "return"
	}
	return fmt.Sprintf("segment %d", seg+1)
}

// destinationName is the next turnaround after b, or the end terminal.
func destinationName(stations []models.RouteStation, actual []models.TurnaroundPoint, b int) string {
	for _, t := range actual {
		if t.Index > b {
			return terminalName(t.Name)
		}
	}
	return terminalName(stations[len(stations)-1].Name)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
