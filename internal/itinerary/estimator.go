package itinerary

import (
	"context"
	"errors"
	"log"
	"math"

	"github.com/yourorg/daysync/internal/geometry"
	"github.com/yourorg/daysync/internal/models"
)

var (
	// ErrInfeasible means the rider cannot reach the boarding stop before the bus.
	ErrInfeasible = errors.New("bus departs before the rider reaches the stop")
	// ErrInvalidVerdict means the direction verdict was not valid and forward.
	ErrInvalidVerdict = errors.New("itinerary requires a valid forward verdict")
)

// Walker returns walking minutes between two points and whether a router
// (rather than the straight-line fallback) produced them.
type Walker interface {
	Minutes(ctx context.Context, from, to models.Coordinate) (int, bool)
}

// Options holds the timing constants. Zero values take the defaults.
type Options struct {
	BusMetersPerMinute  float64
	DistanceMultiplier  float64
	MinutesPerStop      float64
	MaxStopSpan         int
	MaxStopBasedMinutes int
	MinRideMinutes      int
	MaxRideMinutes      int
}

func (o Options) withDefaults() Options {
	if o.BusMetersPerMinute <= 0 {
		o.BusMetersPerMinute = 200
	}
	if o.DistanceMultiplier <= 0 {
		o.DistanceMultiplier = 1.3
	}
	if o.MinutesPerStop <= 0 {
		o.MinutesPerStop = 1.8
	}
	if o.MaxStopSpan <= 0 {
		o.MaxStopSpan = 50
	}
	if o.MaxStopBasedMinutes <= 0 {
		o.MaxStopBasedMinutes = 60
	}
	if o.MinRideMinutes <= 0 {
		o.MinRideMinutes = 2
	}
	if o.MaxRideMinutes < o.MinRideMinutes {
		o.MaxRideMinutes = 50
	}
	return o
}

// Input is everything needed to time one accepted line
type Input struct {
	Origin      models.Coordinate
	Destination models.Coordinate
	Boarding    models.Stop
	Alighting   models.Stop
	Arrival     models.Arrival
	Verdict     models.DirectionVerdict
}

// Estimator builds itineraries from accepted verdicts
type Estimator struct {
	walker Walker
	opts   Options
}

func NewEstimator(walker Walker, opts Options) *Estimator {
	return &Estimator{walker: walker, opts: opts.withDefaults()}
}

// Estimate times walk, wait, ride and walk for one line.
func (e *Estimator) Estimate(ctx context.Context, in Input) (*models.Itinerary, error) {
	if !in.Verdict.Valid || !in.Verdict.Forward {
		return nil, ErrInvalidVerdict
	}

	walkTo, _ := e.walker.Minutes(ctx, in.Origin, in.Boarding.Coordinate())
	wait := WaitMinutes(in.Arrival.ArrivalSeconds)
	if wait < walkTo {
		return nil, ErrInfeasible
	}
	walkFrom, _ := e.walker.Minutes(ctx, in.Alighting.Coordinate(), in.Destination)

	stops := in.Verdict.StopCount()
	ride := e.RideMinutes(geometry.Haversine(in.Boarding.Coordinate(), in.Alighting.Coordinate()), stops)

	return &models.Itinerary{
		Mode:                  models.ModeTransit,
		TotalMinutes:          walkTo + wait + ride + walkFrom,
		WaitMinutes:           wait,
		LineNumber:            in.Arrival.LineNumber,
		LineID:                in.Arrival.LineID,
		BoardingStop:          in.Boarding.Name,
		AlightingStop:         in.Alighting.Name,
		BoardingStopID:        in.Boarding.ID,
		AlightingStopID:       in.Alighting.ID,
		RideMinutes:           ride,
		WalkToBoardMinutes:    walkTo,
		WalkFromAlightMinutes: walkFrom,
		StopCount:             stops,
		Direction:             in.Verdict.Description,
		Forward:               in.Verdict.Forward,
		Boarding:              in.Boarding.Coordinate(),
		Alighting:             in.Alighting.Coordinate(),
		Destination:           in.Destination,
		Confidence:            in.Verdict.Confidence,
		CoordinateEstimated:   in.Verdict.CoordinateEstimated,
	}, nil
}

// WaitMinutes is whole minutes until the bus, at least 1.
func WaitMinutes(arrivalSeconds int) int {
	if m := arrivalSeconds / 60; m > 1 {
		return m
	}
	return 1
}

// RideMinutes blends a distance-based and a stop-count-based estimate.
// The stop-based part is dropped when the span or the minutes look like a
// loop artifact.
func (e *Estimator) RideMinutes(meters float64, stops int) int {
	byDistance := int(math.Ceil(meters * e.opts.DistanceMultiplier / e.opts.BusMetersPerMinute))

	byStops := 0
	if stops > 0 && stops <= e.opts.MaxStopSpan {
		byStops = int(math.Ceil(float64(stops) * e.opts.MinutesPerStop))
		if byStops > e.opts.MaxStopBasedMinutes {
			log.Printf("[ESTIMATE] ⚠️  stop-based ride of %d min for %d stops looks like a loop, ignoring", byStops, stops)
			byStops = 0
		}
	}

	ride := byDistance
	if byStops > 0 {
		ride = int(float64(byDistance)*0.6 + float64(byStops)*0.4)
	}
	if ride < e.opts.MinRideMinutes {
		ride = e.opts.MinRideMinutes
	}
	if ride > e.opts.MaxRideMinutes {
		ride = e.opts.MaxRideMinutes
	}
	return ride
}
