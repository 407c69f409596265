package search

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/daysync/internal/arrivals"
	"github.com/yourorg/daysync/internal/direction"
	"github.com/yourorg/daysync/internal/geometry"
	"github.com/yourorg/daysync/internal/itinerary"
	"github.com/yourorg/daysync/internal/models"
	"github.com/yourorg/daysync/internal/stations"
	"github.com/yourorg/daysync/internal/stops"
	"github.com/yourorg/daysync/internal/tago"
	"github.com/yourorg/daysync/internal/validation"
)

const cityCode = "33010"

var (
	origin      = models.Coordinate{Lat: 36.6357, Lon: 127.4912}
	destination = models.Coordinate{Lat: 36.6280, Lon: 127.4890}
)

// fakeUpstream answers every nearby query with all of its stops and lets the
// locator filter by radius.
type fakeUpstream struct {
	stops    []models.Stop
	arrivals map[string][]models.Arrival
	lines    map[string][]models.RouteStation

	stationCalls atomic.Int64
}

func (f *fakeUpstream) NearbyStops(_ context.Context, _ models.Coordinate, _, _ int) (*tago.Page[models.Stop], error) {
	if len(f.stops) == 0 {
		return &tago.Page[models.Stop]{Kind: tago.ItemsEmpty}, nil
	}
	return &tago.Page[models.Stop]{Items: f.stops, Kind: tago.ItemsPresent, TotalCount: len(f.stops)}, nil
}

func (f *fakeUpstream) Arrivals(_ context.Context, _, stopID string, _, _ int) (*tago.Page[models.Arrival], error) {
	items := f.arrivals[stopID]
	return &tago.Page[models.Arrival]{Items: items, Kind: tago.ItemsPresent, TotalCount: len(items)}, nil
}

func (f *fakeUpstream) RouteStations(_ context.Context, _, lineID string, _, _ int) (*tago.Page[models.RouteStation], error) {
	f.stationCalls.Add(1)
	items, ok := f.lines[lineID]
	if !ok {
		return nil, errors.New("unknown line")
	}
	return &tago.Page[models.RouteStation]{Items: items, Kind: tago.ItemsPresent, TotalCount: len(items)}, nil
}

type fixedRouter struct{ seconds int }

func (r fixedRouter) Name() string { return "fixed" }

func (r fixedRouter) WalkingRoute(_ context.Context, _, _ models.Coordinate) (*geometry.WalkingRoute, error) {
	return &geometry.WalkingRoute{Seconds: r.seconds, Provider: "fixed"}, nil
}

func newTestService(up *fakeUpstream, walkSeconds int) *Service {
	walker := geometry.NewWalkingService(fixedRouter{seconds: walkSeconds}, 83.33, 0, 0)
	return NewService(
		stops.NewLocator(up, stops.Options{}),
		arrivals.NewCollector(up, 0, 0),
		stations.NewFetcher(up, 0),
		direction.NewAnalyzer(direction.Options{}),
		itinerary.NewEstimator(walker, itinerary.Options{}),
		Options{Workers: 4},
	)
}

// interpolate returns n+1 stations evenly spaced from a to b.
func interpolate(a, b models.Coordinate, n int) []models.RouteStation {
	out := make([]models.RouteStation, n+1)
	for i := 0; i <= n; i++ {
		f := float64(i) / float64(n)
		out[i] = models.RouteStation{
			ID:   fmt.Sprintf("CJB2870%02d", i),
			Name: fmt.Sprintf("Stop %02d", i),
			Lat:  a.Lat + (b.Lat-a.Lat)*f,
			Lon:  a.Lon + (b.Lon-a.Lon)*f,
		}
	}
	return out
}

// cheongju is a single boarding stop 80 m from the origin, a single
// alighting stop 60 m from the destination and one line between them.
func cheongju(arrivalSeconds int) (*fakeUpstream, models.Stop, models.Stop) {
	bc := geometry.Offset(origin, -80, 0)
	ac := geometry.Offset(destination, 60, 0)
	boarding := models.Stop{ID: "CJB283000100", Name: "Sachang Crossroads", Lat: bc.Lat, Lon: bc.Lon, CityCode: cityCode}
	alighting := models.Stop{ID: "CJB283000200", Name: "Chungbuk Univ.", Lat: ac.Lat, Lon: ac.Lon, CityCode: cityCode}

	line := interpolate(bc, ac, 10)
	line[0].ID, line[0].Name = boarding.ID, boarding.Name
	line[10].ID, line[10].Name = alighting.ID, alighting.Name

	up := &fakeUpstream{
		stops: []models.Stop{boarding, alighting},
		arrivals: map[string][]models.Arrival{
			boarding.ID: {{LineID: "CJB270000502", LineNumber: "502", ArrivalSeconds: arrivalSeconds, StopsRemaining: 4}},
		},
		lines: map[string][]models.RouteStation{"CJB270000502": line},
	}
	return up, boarding, alighting
}

func TestSearchEndToEnd(t *testing.T) {
	up, boarding, alighting := cheongju(180)
	svc := newTestService(up, 120)

	res, err := svc.Search(context.Background(), origin, destination)
	require.NoError(t, err)

	assert.Equal(t, OutcomeOK, res.Outcome)
	assert.NotEmpty(t, res.ID)
	require.Len(t, res.Itineraries, 1)

	it := res.Itineraries[0]
	assert.Equal(t, "502", it.LineNumber)
	assert.Equal(t, boarding.Name, it.BoardingStop)
	assert.Equal(t, alighting.Name, it.AlightingStop)
	assert.Equal(t, 3, it.WaitMinutes)
	assert.Equal(t, 2, it.WalkToBoardMinutes)
	assert.Equal(t, 2, it.WalkFromAlightMinutes)
	assert.Equal(t, 10, it.StopCount)

	want := itinerary.NewEstimator(nil, itinerary.Options{}).
		RideMinutes(geometry.Haversine(boarding.Coordinate(), alighting.Coordinate()), 10)
	assert.Equal(t, want, it.RideMinutes)
	assert.Equal(t, it.WalkToBoardMinutes+it.WaitMinutes+it.RideMinutes+it.WalkFromAlightMinutes, it.TotalMinutes)
	assert.True(t, it.Expanded)
	assert.GreaterOrEqual(t, it.Confidence, 70)
	assert.Equal(t, "towards Chungbuk Univ.", it.Direction)
	assert.True(t, it.Forward)

	assert.Equal(t, 2, res.Stats.OriginStops)
	assert.Equal(t, 1, res.Stats.Arrivals)
	assert.Equal(t, 1, res.Stats.LinesEvaluated)
	assert.Equal(t, int64(1), up.stationCalls.Load())
}

// straightRun places boarding 80 m from the origin, a straight 10-stop line
// spanning 1500 m and alighting 60 m from the destination.
func straightRun(arrivalSeconds int) (*fakeUpstream, models.Coordinate) {
	bc := geometry.Offset(origin, -80, 0)
	ac := geometry.Offset(bc, -1500, 0)
	dest := geometry.Offset(ac, -60, 0)

	line := interpolate(bc, ac, 10)
	boarding := models.Stop{ID: line[0].ID, Name: line[0].Name, Lat: bc.Lat, Lon: bc.Lon, CityCode: cityCode}
	alighting := models.Stop{ID: line[10].ID, Name: line[10].Name, Lat: ac.Lat, Lon: ac.Lon, CityCode: cityCode}

	up := &fakeUpstream{
		stops: []models.Stop{boarding, alighting},
		arrivals: map[string][]models.Arrival{
			boarding.ID: {{LineID: "CJB270000811", LineNumber: "811", ArrivalSeconds: arrivalSeconds}},
		},
		lines: map[string][]models.RouteStation{"CJB270000811": line},
	}
	return up, dest
}

func TestSearchBlendsRideOverFifteenHundredMeters(t *testing.T) {
	up, dest := straightRun(180)
	res, err := newTestService(up, 120).Search(context.Background(), origin, dest)
	require.NoError(t, err)
	require.Len(t, res.Itineraries, 1)

	it := res.Itineraries[0]
	assert.Equal(t, 3, it.WaitMinutes)
	// distance part 10 min, stop part 18 min, 60/40 blend
	assert.Equal(t, 13, it.RideMinutes)
	assert.Equal(t, 10, it.StopCount)
	assert.Equal(t, 2, it.WalkToBoardMinutes)
	assert.Equal(t, 2, it.WalkFromAlightMinutes)
	assert.Equal(t, 20, it.TotalMinutes)
	assert.True(t, it.Forward)
}

func TestSearchDropsBusLeavingBeforeRiderArrives(t *testing.T) {
	// eight minutes to walk, bus in five
	up, dest := straightRun(300)
	res, err := newTestService(up, 480).Search(context.Background(), origin, dest)
	require.NoError(t, err)

	assert.Equal(t, OutcomeNoRouteFound, res.Outcome)
	assert.Empty(t, res.Itineraries)
	assert.Equal(t, 1, res.Stats.Infeasible)
	assert.Zero(t, res.Stats.Rejected)
}

func TestSearchDropsInfeasibleLine(t *testing.T) {
	up, _, _ := cheongju(60)
	// three minutes to walk, bus in one
	svc := newTestService(up, 180)

	res, err := svc.Search(context.Background(), origin, destination)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoRouteFound, res.Outcome)
	assert.Empty(t, res.Itineraries)
	assert.Equal(t, 1, res.Stats.Infeasible)
}

func TestSearchRejectsLoopThroughTurnaround(t *testing.T) {
	up, boarding, alighting := cheongju(300)

	// out north from the boarding stop, back south past it to the alighting stop
	north := geometry.Offset(boarding.Coordinate(), 1200, 0)
	out := interpolate(boarding.Coordinate(), north, 5)
	back := interpolate(north, alighting.Coordinate(), 5)[1:]
	line := append(out, back...)
	for i := range line {
		line[i].ID = fmt.Sprintf("CJB2875%02d", i)
		line[i].Codes.UpDownCd = "1"
		if i > 5 {
			line[i].Codes.UpDownCd = "2"
		}
	}
	line[0].ID, line[0].Name = boarding.ID, boarding.Name
	line[len(line)-1].ID, line[len(line)-1].Name = alighting.ID, alighting.Name
	up.lines["CJB270000502"] = line

	res, err := newTestService(up, 60).Search(context.Background(), origin, destination)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoRouteFound, res.Outcome)
	assert.Positive(t, res.Stats.Rejected)
}

func TestSearchOutcomes(t *testing.T) {
	t.Run("no stops", func(t *testing.T) {
		res, err := newTestService(&fakeUpstream{}, 60).Search(context.Background(), origin, destination)
		require.NoError(t, err)
		assert.Equal(t, OutcomeNoStopsFound, res.Outcome)
		assert.NotNil(t, res.Itineraries)
	})

	t.Run("no arrivals", func(t *testing.T) {
		up, _, _ := cheongju(180)
		up.arrivals = nil
		res, err := newTestService(up, 60).Search(context.Background(), origin, destination)
		require.NoError(t, err)
		assert.Equal(t, OutcomeNoArrivalsFound, res.Outcome)
	})

	t.Run("line fetch fails", func(t *testing.T) {
		up, _, _ := cheongju(180)
		up.lines = map[string][]models.RouteStation{}
		res, err := newTestService(up, 60).Search(context.Background(), origin, destination)
		require.NoError(t, err)
		assert.Equal(t, OutcomeNoRouteFound, res.Outcome)
		assert.Equal(t, 1, res.Stats.LinesSkipped)
	})
}

func TestSearchInvalidCoordinates(t *testing.T) {
	svc := newTestService(&fakeUpstream{}, 60)

	_, err := svc.Search(context.Background(), models.Coordinate{Lat: 91, Lon: 127}, destination)
	var ce *validation.CoordinateError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "origin_lat", ce.Field)

	_, err = svc.FindItineraries(context.Background(), origin, models.Coordinate{})
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "destination", ce.Field)
}

func TestSearchRegion(t *testing.T) {
	up, _, _ := cheongju(180)
	svc := newTestService(up, 60)
	svc.opts.Region = &validation.Region{Name: "Korea", MinLat: 33, MaxLat: 38.7, MinLon: 124.5, MaxLon: 132}

	_, err := svc.Search(context.Background(), models.Coordinate{Lat: 35.68, Lon: 139.76}, destination)
	var ce *validation.CoordinateError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "origin_lon", ce.Field)
}

func TestSearchCancelled(t *testing.T) {
	up, _, _ := cheongju(180)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestService(up, 60).Search(ctx, origin, destination)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRank(t *testing.T) {
	found := []models.Itinerary{
		{LineNumber: "502", LineID: "L2", BoardingStop: "A", AlightingStop: "B", TotalMinutes: 20},
		{LineNumber: "502", LineID: "L1", BoardingStop: "A", AlightingStop: "B", TotalMinutes: 18},
		{LineNumber: "105", BoardingStop: "A", AlightingStop: "B", TotalMinutes: 18},
		{LineNumber: "811", BoardingStop: "C", AlightingStop: "B", TotalMinutes: 30},
	}

	ranked := Rank(found, 10)
	require.Len(t, ranked, 3)
	assert.Equal(t, "105", ranked[0].LineNumber)
	assert.Equal(t, "502", ranked[1].LineNumber)
	assert.Equal(t, "L1", ranked[1].LineID)
	assert.Equal(t, "811", ranked[2].LineNumber)
	assert.True(t, ranked[0].Expanded)
	assert.False(t, ranked[1].Expanded)

	assert.Len(t, Rank(found, 2), 2)
	assert.Empty(t, Rank(nil, 10))
}

func TestRankIgnoresArrivalOrder(t *testing.T) {
	// Same name on both sides of the road, different stop IDs.
	north := models.Itinerary{LineNumber: "502", LineID: "L", BoardingStop: "Sachang", AlightingStop: "Terminal",
		BoardingStopID: "CJB100", AlightingStopID: "CJB900", TotalMinutes: 20, WalkToBoardMinutes: 2,
		Boarding: models.Coordinate{Lat: 1}}
	south := models.Itinerary{LineNumber: "502", LineID: "L", BoardingStop: "Sachang", AlightingStop: "Terminal",
		BoardingStopID: "CJB200", AlightingStopID: "CJB900", TotalMinutes: 20, WalkToBoardMinutes: 5,
		Boarding: models.Coordinate{Lat: 2}}

	first := Rank([]models.Itinerary{north, south}, 10)
	second := Rank([]models.Itinerary{south, north}, 10)

	require.Len(t, first, 1)
	assert.Equal(t, first, second)
	assert.Equal(t, "CJB100", first[0].BoardingStopID)
	assert.Equal(t, 2, first[0].WalkToBoardMinutes)
}

func TestRankSortOrderIsStable(t *testing.T) {
	found := []models.Itinerary{
		{LineNumber: "502", LineID: "L2", BoardingStop: "A", AlightingStop: "B", TotalMinutes: 15},
		{LineNumber: "502", LineID: "L1", BoardingStop: "A", AlightingStop: "C", TotalMinutes: 15},
		{LineNumber: "502", LineID: "L1", BoardingStop: "A", AlightingStop: "B", BoardingStopID: "X", TotalMinutes: 15},
	}
	reversed := []models.Itinerary{found[2], found[1], found[0]}

	assert.Equal(t, Rank(found, 10), Rank(reversed, 10))
}

func TestResultRecord(t *testing.T) {
	res := &Result{
		ID:          "5f0c6b8e-0000-4000-8000-000000000001",
		Outcome:     OutcomeOK,
		Origin:      origin,
		Destination: destination,
		Itineraries: []models.Itinerary{{LineNumber: "502", TotalMinutes: 17}, {LineNumber: "811", TotalMinutes: 25}},
		Stats:       Stats{DurationMillis: 420},
	}

	rec := res.Record()
	assert.Equal(t, "ok", rec.Outcome)
	assert.Equal(t, 2, rec.ResultCount)
	require.NotNil(t, rec.BestMinutes)
	assert.Equal(t, 17, *rec.BestMinutes)
	assert.Equal(t, origin.Lat, rec.OriginLat)
	assert.Equal(t, int64(420), rec.DurationMillis)

	empty := (&Result{Outcome: OutcomeNoRouteFound}).Record()
	assert.Nil(t, empty.BestMinutes)
}
