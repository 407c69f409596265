package direction

import (
	"github.com/yourorg/daysync/internal/geometry"
	"github.com/yourorg/daysync/internal/models"
)

// Confidence bands used by Accept
const (
	BandHigh     = "high"
	BandMedium   = "medium"
	BandLow      = "low"
	BandRejected = "rejected"
)

// Decision is the acceptance outcome for a verdict
type Decision struct {
	Accepted bool   `json:"accepted"`
	Band     string `json:"band"`
	Reason   string `json:"reason,omitempty"`
}

// Accept applies the tiered policy:
//   - invalid, backwards or (unless allowed) coordinate-estimated: reject
//   - confidence >= HighConfidence: accept
//   - MediumConfidence..HighConfidence-1: order and heading must both agree
//   - below MediumConfidence: order, heading and the ride-distance ratio
func (an *Analyzer) Accept(v models.DirectionVerdict, req Request) Decision {
	if !v.Valid {
		return Decision{Band: BandRejected, Reason: "invalid verdict"}
	}
	if !v.Forward {
		return Decision{Band: BandRejected, Reason: "not forward"}
	}
	if v.CoordinateEstimated && !an.opts.AllowCoordinateEstimate {
		return Decision{Band: BandRejected, Reason: "coordinate-estimated"}
	}

	if v.Confidence >= an.opts.HighConfidence {
		return Decision{Accepted: true, Band: BandHigh}
	}

	strict := signalValid(v, SignalBasicOrder) && signalValid(v, SignalCoordinates)
	if v.Confidence >= an.opts.MediumConfidence {
		if !strict {
			return Decision{Band: BandMedium, Reason: "strict recheck failed"}
		}
		return Decision{Accepted: true, Band: BandMedium}
	}

	if !strict {
		return Decision{Band: BandLow, Reason: "strict recheck failed"}
	}
	if !an.rideDistanceSane(v, req) {
		return Decision{Band: BandLow, Reason: "ride distance too long for trip"}
	}
	return Decision{Accepted: true, Band: BandLow}
}

func signalValid(v models.DirectionVerdict, name string) bool {
	s, ok := v.Signal(name)
	return ok && s.Valid
}

// rideDistanceSane compares the distance ridden with the rider's straight
// origin→destination distance.
func (an *Analyzer) rideDistanceSane(v models.DirectionVerdict, req Request) bool {
	trip := geometry.Haversine(req.Origin, req.Destination)
	if trip < 1 {
		return false
	}
	var ride float64
	if path, ok := pathCoordinates(req.Stations, v.BoardingIndex, v.AlightingIndex); ok {
		ride = geometry.PathLength(path)
	} else {
		ride = geometry.Haversine(req.Boarding.Coordinate(), req.Alighting.Coordinate()) * an.opts.RouteDistanceFactor
	}
	return ride/trip <= an.opts.MaxDistanceRatio
}
