package direction

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/daysync/internal/cache"
	"github.com/yourorg/daysync/internal/models"
)

const (
	baseLat = 36.6200
	baseLon = 127.4900
	step    = 0.002 // about 222 m of latitude
)

func station(i int, name string, lat, lon float64, dir models.Direction) models.RouteStation {
	return models.RouteStation{
		ID:        fmt.Sprintf("N%02d", i),
		Name:      name,
		Lat:       lat,
		Lon:       lon,
		Index:     i,
		Direction: dir,
	}
}

// loopLine builds 23 stations: 0..10 northbound (UP) on the east side of the
// road, 11..22 southbound (DOWN) on the west side. Station 19 shares its name
// with station 3; every other name is unique.
func loopLine() []models.RouteStation {
	var out []models.RouteStation
	for i := 0; i <= 22; i++ {
		name := fmt.Sprintf("S%02d", i)
		if i == 3 || i == 19 {
			name = "Sachang"
		}
		if i <= 10 {
			out = append(out, station(i, name, baseLat+float64(i)*step, baseLon+0.0005, models.DirectionUp))
		} else {
			out = append(out, station(i, name, baseLat+float64(22-i)*step, baseLon-0.0005, models.DirectionDown))
		}
	}
	return out
}

// straightLine builds n northbound stations with no direction codes.
func straightLine(n int) []models.RouteStation {
	out := make([]models.RouteStation, n)
	for i := range out {
		out[i] = station(i, fmt.Sprintf("L%02d", i), baseLat+float64(i)*step, baseLon, models.DirectionUnknown)
	}
	return out
}

func stopFor(rs models.RouteStation) models.Stop {
	return models.Stop{ID: rs.ID, Name: rs.Name, Lat: rs.Lat, Lon: rs.Lon, CityCode: "33010"}
}

func request(stations []models.RouteStation, boarding, alighting models.Stop) Request {
	return Request{
		LineID:      "CJB270000502",
		LineNumber:  "502",
		CityCode:    "33010",
		Stations:    stations,
		Boarding:    boarding,
		Alighting:   alighting,
		Origin:      boarding.Coordinate(),
		Destination: alighting.Coordinate(),
	}
}

func TestStraddlingPairIsRejected(t *testing.T) {
	line := loopLine()
	// boarding matched by ID, so only index 3
	v := NewAnalyzer(Options{}).Analyze(request(line, stopFor(line[3]), stopFor(line[15])))

	assert.False(t, v.Valid)
	assert.Equal(t, 0, v.Confidence)
	assert.Equal(t, models.ReasonCrossesTurnaround, v.Reason)
	require.Len(t, v.Turnarounds, 1)
	assert.Equal(t, 11, v.Turnarounds[0].Index)
	assert.Equal(t, models.TurnaroundDirectionCode, v.Turnarounds[0].Source)
}

// keywordLoopLine is loopLine without direction codes, turning at a station
// named as a turnaround.
func keywordLoopLine() []models.RouteStation {
	line := loopLine()
	for i := range line {
		line[i].Direction = models.DirectionUnknown
	}
	line[11].Name = "회차지"
	return line
}

func TestEveryStraddlingPairIsRejected(t *testing.T) {
	lines := []struct {
		name   string
		line   []models.RouteStation
		source models.TurnaroundSource
	}{
		{"direction codes", loopLine(), models.TurnaroundDirectionCode},
		{"keyword", keywordLoopLine(), models.TurnaroundKeyword},
	}
	an := NewAnalyzer(Options{})

	for _, tt := range lines {
		t.Run(tt.name, func(t *testing.T) {
			turnarounds := DetectTurnarounds(tt.line)
			require.Len(t, turnarounds, 1)
			require.Equal(t, 11, turnarounds[0].Index)
			require.Equal(t, tt.source, turnarounds[0].Source)

			checked := 0
			for b := range tt.line {
				for a := range tt.line {
					if !(b < 11 && 11 < a) && !(a < 11 && 11 < b) {
						continue
					}
					v := an.Analyze(request(tt.line, stopFor(tt.line[b]), stopFor(tt.line[a])))
					assert.False(t, v.Valid, "pair %d -> %d", b, a)
					assert.Equal(t, 0, v.Confidence, "pair %d -> %d", b, a)
					assert.Equal(t, models.ReasonCrossesTurnaround, v.Reason, "pair %d -> %d", b, a)
					checked++
				}
			}
			assert.Equal(t, 2*11*11, checked)
		})
	}
}

func TestForwardOnStraightLineIsValid(t *testing.T) {
	line := straightLine(10)
	an := NewAnalyzer(Options{})
	req := request(line, stopFor(line[2]), stopFor(line[7]))

	v := an.Analyze(req)
	assert.True(t, v.Valid)
	assert.True(t, v.Forward)
	assert.Equal(t, 2, v.BoardingIndex)
	assert.Equal(t, 7, v.AlightingIndex)
	assert.Equal(t, 5, v.StopCount())
	assert.Equal(t, "main", v.Segment)
	assert.Equal(t, "L09", v.Destination)
	assert.GreaterOrEqual(t, v.Confidence, 70)
	assert.Len(t, v.Signals, 4)

	d := an.Accept(v, req)
	assert.True(t, d.Accepted)
	assert.Equal(t, BandHigh, d.Band)
}

func TestBackwardOnStraightLineIsInvalid(t *testing.T) {
	line := straightLine(10)
	an := NewAnalyzer(Options{})
	req := request(line, stopFor(line[7]), stopFor(line[2]))

	v := an.Analyze(req)
	assert.False(t, v.Valid)
	assert.False(t, v.Forward)
	assert.Equal(t, models.ReasonHeuristics, v.Reason)
	assert.False(t, an.Accept(v, req).Accepted)
}

func TestDuplicateOccurrenceSelectsTheNonStraddlingOne(t *testing.T) {
	line := loopLine()
	// ID not on the line: matched by name at 3 and 19
	boarding := models.Stop{ID: "ELSEWHERE", Name: "Sachang", Lat: line[3].Lat, Lon: line[3].Lon}

	v := NewAnalyzer(Options{}).Analyze(request(line, boarding, stopFor(line[15])))

	// (3,15) crosses the turnaround at 11, only (19,15) is scored
	assert.Equal(t, 19, v.BoardingIndex)
	assert.Equal(t, 15, v.AlightingIndex)
	assert.False(t, v.Valid)
	assert.NotEqual(t, models.ReasonCrossesTurnaround, v.Reason)
}

func TestDuplicateOccurrenceAcceptsReturnHalf(t *testing.T) {
	line := loopLine()
	boarding := models.Stop{ID: "ELSEWHERE", Name: "Sachang", Lat: line[3].Lat, Lon: line[3].Lon}
	an := NewAnalyzer(Options{})
	req := request(line, boarding, stopFor(line[21]))

	v := an.Analyze(req)
	assert.True(t, v.Valid)
	assert.Equal(t, 19, v.BoardingIndex)
	assert.Equal(t, 21, v.AlightingIndex)
	assert.Equal(t, "return", v.Segment)
	assert.Contains(t, v.Description, "(DOWN)")
	assert.True(t, an.Accept(v, req).Accepted)
}

func TestOutboundHalfDestinationIsTurnaround(t *testing.T) {
	line := loopLine()
	line[11].Name = "회차지 종점"
	v := NewAnalyzer(Options{}).Analyze(request(line, stopFor(line[2]), stopFor(line[6])))

	assert.True(t, v.Valid)
	assert.Equal(t, "outbound", v.Segment)
	assert.Equal(t, "회차지", v.Destination)
	assert.Equal(t, "towards 회차지 (UP)", v.Description)
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	line := loopLine()
	boarding := models.Stop{ID: "ELSEWHERE", Name: "Sachang", Lat: line[3].Lat, Lon: line[3].Lon}
	an := NewAnalyzer(Options{})

	first := an.Analyze(request(line, boarding, stopFor(line[21])))
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, an.Analyze(request(line, boarding, stopFor(line[21]))))
	}
}

func TestEstimatedMidpointRejectsStraddle(t *testing.T) {
	line := straightLine(20)
	line[19].Name = line[0].Name // a loop without codes or keywords

	v := NewAnalyzer(Options{}).Analyze(request(line, stopFor(line[3]), stopFor(line[15])))
	assert.False(t, v.Valid)
	assert.Equal(t, models.ReasonCrossesTurnaround, v.Reason)
}

func TestCoordinatesFollowsHeadingAfterBoarding(t *testing.T) {
	// leaves southbound for three stations, then runs north past the start
	line := make([]models.RouteStation, 10)
	for i := range line {
		lat := baseLat - float64(i)*step
		if i > 3 {
			lat = baseLat - 3*step + float64(i-3)*step
		}
		line[i] = station(i, fmt.Sprintf("H%02d", i), lat, baseLon, models.DirectionUnknown)
	}
	require.Greater(t, line[8].Lat, line[0].Lat)

	v := NewAnalyzer(Options{}).Analyze(request(line, stopFor(line[0]), stopFor(line[8])))
	sig, ok := v.Signal(SignalCoordinates)
	require.True(t, ok)
	assert.False(t, sig.Valid)
	assert.Equal(t, 10, sig.Confidence)

	// same stops on a line that heads north straight away
	north := straightLine(10)
	v = NewAnalyzer(Options{}).Analyze(request(north, stopFor(north[0]), stopFor(north[8])))
	sig, ok = v.Signal(SignalCoordinates)
	require.True(t, ok)
	assert.True(t, sig.Valid)
}

func TestCoordinatesUsesRiderTrip(t *testing.T) {
	line := straightLine(10)
	req := request(line, stopFor(line[2]), stopFor(line[7]))
	// the rider actually wants to go south
	req.Origin = line[7].Coordinate()
	req.Destination = line[2].Coordinate()

	v := NewAnalyzer(Options{}).Analyze(req)
	sig, ok := v.Signal(SignalCoordinates)
	require.True(t, ok)
	assert.False(t, sig.Valid)
}

func TestStopNotOnLine(t *testing.T) {
	line := straightLine(10)
	far := models.Stop{ID: "X", Name: "Nowhere", Lat: 37.5, Lon: 127.0}

	v := NewAnalyzer(Options{}).Analyze(request(line, far, stopFor(line[5])))
	assert.Equal(t, models.ReasonBoardingNotOnLine, v.Reason)
	assert.False(t, v.Valid)

	v = NewAnalyzer(Options{}).Analyze(request(line, stopFor(line[1]), far))
	assert.Equal(t, models.ReasonAlightingNotOnLine, v.Reason)
}

func TestEmptyLine(t *testing.T) {
	v := NewAnalyzer(Options{}).Analyze(request(nil, models.Stop{ID: "A"}, models.Stop{ID: "B"}))
	assert.Equal(t, models.ReasonEmptyLine, v.Reason)
}

func TestCoordinateEstimate(t *testing.T) {
	line := straightLine(10)
	// 120 m east of station 7, not matched by id, name or the 50 m radius
	alighting := models.Stop{ID: "X", Name: "Market", Lat: line[7].Lat, Lon: line[7].Lon + 0.00135}

	strict := NewAnalyzer(Options{})
	v := strict.Analyze(request(line, stopFor(line[2]), alighting))
	assert.Equal(t, models.ReasonAlightingNotOnLine, v.Reason)

	lenient := NewAnalyzer(Options{AllowCoordinateEstimate: true})
	req := request(line, stopFor(line[2]), alighting)
	v = lenient.Analyze(req)
	assert.True(t, v.CoordinateEstimated)
	assert.Equal(t, 7, v.AlightingIndex)
	assert.LessOrEqual(t, v.Confidence, 30)
	assert.Contains(t, v.Description, "(coordinate-estimated)")

	// the default policy never accepts estimated verdicts
	assert.False(t, strict.Accept(v, req).Accepted)
}

func TestAnalyzeUsesSessionForOccurrences(t *testing.T) {
	line := straightLine(10)
	req := request(line, stopFor(line[2]), stopFor(line[7]))
	req.Session = cache.NewSession()

	an := NewAnalyzer(Options{})
	an.Analyze(req)
	an.Analyze(req)

	stats := req.Session.GetStats()
	assert.Equal(t, 2, stats.Indexes)
	assert.Equal(t, int64(2), stats.Hits)
}
