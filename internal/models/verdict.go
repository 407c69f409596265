package models

// TurnaroundSource tells how a turnaround point was found
type TurnaroundSource string

const (
	TurnaroundDirectionCode TurnaroundSource = "direction-code"
	TurnaroundKeyword       TurnaroundSource = "keyword"
	// Only used to reject straddling pairs, never to label segments.
	TurnaroundEstimated TurnaroundSource = "estimated-midpoint"
)

// TurnaroundPoint is an interior index where a line reverses
type TurnaroundPoint struct {
	Name   string           `json:"name"`
	Index  int              `json:"index"`
	Source TurnaroundSource `json:"source"`
}

// RejectReason explains an invalid verdict
type RejectReason string

const (
	ReasonNone               RejectReason = ""
	ReasonBoardingNotOnLine  RejectReason = "boarding-not-on-line"
	ReasonAlightingNotOnLine RejectReason = "alighting-not-on-line"
	ReasonCrossesTurnaround  RejectReason = "crosses-turnaround"
	ReasonHeuristics         RejectReason = "heuristics-disagree"
	ReasonEmptyLine          RejectReason = "empty-line"
)

// Signal is the outcome of one direction heuristic for one index pair
type Signal struct {
	Name       string `json:"name"`
	Valid      bool   `json:"valid"`
	Confidence int    `json:"confidence"`
	Detail     string `json:"detail,omitempty"`
}

// DirectionVerdict is the analyzer's decision for one line and stop pair
type DirectionVerdict struct {
	LineID     string `json:"line_id"`
	LineNumber string `json:"line_number"`

	Valid       bool   `json:"valid"`
	Segment     string `json:"segment"`
	Description string `json:"description"`
	Confidence  int    `json:"confidence"`
	Destination string `json:"destination"`
	Forward     bool   `json:"forward"`

	BoardingIndex  int `json:"boarding_index"`
	AlightingIndex int `json:"alighting_index"`

	CoordinateEstimated bool              `json:"coordinate_estimated"`
	Reason              RejectReason      `json:"reason,omitempty"`
	Signals             []Signal          `json:"signals,omitempty"`
	Turnarounds         []TurnaroundPoint `json:"turnarounds,omitempty"`
}

// StopCount is the number of stations ridden, zero when not forward.
func (v DirectionVerdict) StopCount() int {
	if n := v.AlightingIndex - v.BoardingIndex; n > 0 {
		return n
	}
	return 0
}

// Signal returns the named heuristic result.
func (v DirectionVerdict) Signal(name string) (Signal, bool) {
	for _, s := range v.Signals {
		if s.Name == name {
			return s, true
		}
	}
	return Signal{}, false
}
