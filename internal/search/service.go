package search

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yourorg/daysync/internal/arrivals"
	"github.com/yourorg/daysync/internal/cache"
	"github.com/yourorg/daysync/internal/direction"
	"github.com/yourorg/daysync/internal/itinerary"
	"github.com/yourorg/daysync/internal/models"
	"github.com/yourorg/daysync/internal/stations"
	"github.com/yourorg/daysync/internal/stops"
	"github.com/yourorg/daysync/internal/validation"
)

// ============================================================================
// ROUTE SEARCH
// ============================================================================
// Flujo:
//   1. stops around origin and destination (concurrently)
//   2. arrivals at every origin stop (pool, phase 1)
//   3. one task per (origin stop, line): fetch stations, try destination
//      stops nearest first, the first accepted verdict becomes an itinerary
//      (pool, phase 2)
//   4. dedup, rank, truncate
// Every search owns its cache.Session; nothing is shared across searches.
// ============================================================================

// Outcome tells why a search returned what it did
type Outcome string

const (
	OutcomeOK              Outcome = "ok"
	OutcomeNoStopsFound    Outcome = "no-stops-found"
	OutcomeNoArrivalsFound Outcome = "no-arrivals-found"
	OutcomeNoRouteFound    Outcome = "no-route-found"
)

// Stats counts what one search did
type Stats struct {
	OriginStops      int                `json:"origin_stops"`
	DestinationStops int                `json:"destination_stops"`
	Arrivals         int                `json:"arrivals"`
	LinesEvaluated   int                `json:"lines_evaluated"`
	LinesSkipped     int                `json:"lines_skipped"`
	Rejected         int                `json:"verdicts_rejected"`
	Infeasible       int                `json:"infeasible"`
	Cache            cache.SessionStats `json:"cache"`
	DurationMillis   int64              `json:"duration_ms"`
}

// Result is a completed search
type Result struct {
	ID          string             `json:"search_id"`
	Outcome     Outcome            `json:"outcome"`
	Origin      models.Coordinate  `json:"origin"`
	Destination models.Coordinate  `json:"destination"`
	Itineraries []models.Itinerary `json:"itineraries"`
	Stats       Stats              `json:"stats"`
	StartedAt   time.Time          `json:"started_at"`
}

// Options configure the orchestration. Zero values take the defaults.
type Options struct {
	MaxResults int
	Workers    int
	// Region, when set, bounds accepted input coordinates.
	Region *validation.Region
}

// Service wires the pipeline components together
type Service struct {
	locator   *stops.Locator
	collector *arrivals.Collector
	fetcher   *stations.Fetcher
	analyzer  *direction.Analyzer
	estimator *itinerary.Estimator
	opts      Options
}

func NewService(
	locator *stops.Locator,
	collector *arrivals.Collector,
	fetcher *stations.Fetcher,
	analyzer *direction.Analyzer,
	estimator *itinerary.Estimator,
	opts Options,
) *Service {
	if opts.MaxResults <= 0 {
		opts.MaxResults = 10
	}
	if opts.Workers <= 0 {
		opts.Workers = 8
	}
	return &Service{
		locator:   locator,
		collector: collector,
		fetcher:   fetcher,
		analyzer:  analyzer,
		estimator: estimator,
		opts:      opts,
	}
}

// FindItineraries returns the ranked itineraries only.
func (s *Service) FindItineraries(ctx context.Context, origin, dest models.Coordinate) ([]models.Itinerary, error) {
	res, err := s.Search(ctx, origin, dest)
	if err != nil {
		return nil, err
	}
	return res.Itineraries, nil
}

// Search runs one itinerary search. Only invalid coordinates or a cancelled
// context produce an error; empty results are reported through Outcome.
func (s *Service) Search(ctx context.Context, origin, dest models.Coordinate) (*Result, error) {
	if err := s.validate(origin, dest); err != nil {
		return nil, err
	}

	start := time.Now()
	res := &Result{
		ID:          uuid.NewString(),
		Origin:      origin,
		Destination: dest,
		Itineraries: []models.Itinerary{},
		StartedAt:   start,
	}
	session := cache.NewSession()
	run := &searchRun{Service: s, session: session, origin: origin, dest: dest}

	defer func() {
		res.Stats.Cache = session.GetStats()
		res.Stats.DurationMillis = time.Since(start).Milliseconds()
	}()

	log.Printf("[SEARCH] 🔎 %s: %s -> %s", res.ID, origin, dest)

	originStops, destStops := run.locate(ctx)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	res.Stats.OriginStops = len(originStops)
	res.Stats.DestinationStops = len(destStops)
	if len(originStops) == 0 || len(destStops) == 0 {
		log.Printf("[SEARCH] ⚠️  %s: no stops (origin %d, destination %d)", res.ID, len(originStops), len(destStops))
		res.Outcome = OutcomeNoStopsFound
		return res, nil
	}

	byStop := run.collectArrivals(ctx, originStops)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	for _, arr := range byStop {
		res.Stats.Arrivals += len(arr)
	}
	if res.Stats.Arrivals == 0 {
		log.Printf("[SEARCH] ⚠️  %s: no arrivals at %d origin stops", res.ID, len(originStops))
		res.Outcome = OutcomeNoArrivalsFound
		return res, nil
	}

	found := run.evaluateLines(ctx, originStops, byStop, destStops)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	res.Stats.LinesEvaluated = int(run.evaluated.Load())
	res.Stats.LinesSkipped = int(run.skipped.Load())
	res.Stats.Rejected = int(run.rejected.Load())
	res.Stats.Infeasible = int(run.infeasible.Load())

	res.Itineraries = Rank(found, s.opts.MaxResults)
	if len(res.Itineraries) == 0 {
		res.Outcome = OutcomeNoRouteFound
		log.Printf("[SEARCH] ⚠️  %s: no route among %d lines", res.ID, res.Stats.LinesEvaluated)
		return res, nil
	}
	res.Outcome = OutcomeOK
	log.Printf("[SEARCH] ✅ %s: %d itineraries, best %d min", res.ID, len(res.Itineraries), res.Itineraries[0].TotalMinutes)
	return res, nil
}

func (s *Service) validate(origin, dest models.Coordinate) error {
	if err := validation.ValidateCoordinate(origin, "origin"); err != nil {
		return err
	}
	if err := validation.ValidateCoordinate(dest, "destination"); err != nil {
		return err
	}
	if s.opts.Region != nil {
		if err := validation.ValidateRegion(origin, *s.opts.Region, "origin"); err != nil {
			return err
		}
		if err := validation.ValidateRegion(dest, *s.opts.Region, "destination"); err != nil {
			return err
		}
	}
	return nil
}

// searchRun is the state of one Search call.
type searchRun struct {
	*Service
	session      *cache.Session
	origin, dest models.Coordinate

	evaluated  atomic.Int64
	skipped    atomic.Int64
	rejected   atomic.Int64
	infeasible atomic.Int64
}

func (r *searchRun) locate(ctx context.Context) (originStops, destStops []models.Stop) {
	var g errgroup.Group
	g.Go(func() error {
		originStops = r.locator.Nearby(ctx, r.session, r.origin, "origin")
		return nil
	})
	g.Go(func() error {
		destStops = r.locator.Nearby(ctx, r.session, r.dest, "destination")
		return nil
	})
	_ = g.Wait()
	return originStops, destStops
}

func (r *searchRun) collectArrivals(ctx context.Context, originStops []models.Stop) [][]models.Arrival {
	byStop := make([][]models.Arrival, len(originStops))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for i, stop := range originStops {
		g.Go(func() error {
			byStop[i] = r.collector.Collect(gctx, stop)
			return nil
		})
	}
	_ = g.Wait()
	return byStop
}

func (r *searchRun) evaluateLines(ctx context.Context, originStops []models.Stop, byStop [][]models.Arrival, destStops []models.Stop) []models.Itinerary {
	var (
		mu    sync.Mutex
		found []models.Itinerary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for i, stop := range originStops {
		for _, arrival := range byStop[i] {
			g.Go(func() error {
				it := r.evaluateLine(gctx, stop, arrival, destStops)
				if it != nil {
					mu.Lock()
					found = append(found, *it)
					mu.Unlock()
				}
				return nil
			})
		}
	}
	_ = g.Wait()
	return found
}

// evaluateLine tries destination stops nearest first; the first accepted
// verdict is timed. A rejected candidate does not end the line.
func (r *searchRun) evaluateLine(ctx context.Context, boarding models.Stop, arrival models.Arrival, destStops []models.Stop) *models.Itinerary {
	if ctx.Err() != nil {
		return nil
	}
	r.evaluated.Add(1)

	line, err := r.fetcher.Fetch(ctx, r.session, boarding.CityCode, arrival.LineID)
	if err != nil {
		log.Printf("[SEARCH] ⚠️  line %s (%s) skipped: %v", arrival.LineNumber, arrival.LineID, err)
		r.skipped.Add(1)
		return nil
	}
	if len(line) == 0 {
		r.skipped.Add(1)
		return nil
	}

	for _, alighting := range destStops {
		if ctx.Err() != nil {
			return nil
		}
		if alighting.ID == boarding.ID {
			continue
		}
		req := direction.Request{
			LineID:      arrival.LineID,
			LineNumber:  arrival.LineNumber,
			CityCode:    boarding.CityCode,
			Stations:    line,
			Boarding:    boarding,
			Alighting:   alighting,
			Origin:      r.origin,
			Destination: r.dest,
			Session:     r.session,
		}
		verdict := r.analyzer.Analyze(req)
		if d := r.analyzer.Accept(verdict, req); !d.Accepted {
			r.rejected.Add(1)
			continue
		}

		it, err := r.estimator.Estimate(ctx, itinerary.Input{
			Origin:      r.origin,
			Destination: r.dest,
			Boarding:    boarding,
			Alighting:   alighting,
			Arrival:     arrival,
			Verdict:     verdict,
		})
		switch {
		case errors.Is(err, itinerary.ErrInfeasible):
			// the bus leaves before the rider arrives, whatever the destination
			r.infeasible.Add(1)
			return nil
		case err != nil:
			r.rejected.Add(1)
			continue
		}
		return it
	}
	return nil
}

// Rank deduplicates by (line number, boarding stop, alighting stop) keeping
// the shortest, sorts by total minutes and keeps the first limit. The first
// result is marked expanded. The result does not depend on the order of found.
func Rank(found []models.Itinerary, limit int) []models.Itinerary {
	best := make(map[string]models.Itinerary, len(found))
	for _, it := range found {
		key := it.DedupKey()
		if prev, ok := best[key]; !ok || rankedBefore(it, prev) {
			best[key] = it
		}
	}

	out := make([]models.Itinerary, 0, len(best))
	for _, it := range best {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool {
		return rankedBefore(out[i], out[j])
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	for i := range out {
		out[i].Expanded = i == 0
	}
	return out
}

// rankedBefore is a total order over itineraries. Stop IDs break ties between
// same-named stops on opposite sides of a road.
func rankedBefore(a, b models.Itinerary) bool {
	switch {
	case a.TotalMinutes != b.TotalMinutes:
		return a.TotalMinutes < b.TotalMinutes
	case a.LineNumber != b.LineNumber:
		return a.LineNumber < b.LineNumber
	case a.LineID != b.LineID:
		return a.LineID < b.LineID
	case a.BoardingStop != b.BoardingStop:
		return a.BoardingStop < b.BoardingStop
	case a.AlightingStop != b.AlightingStop:
		return a.AlightingStop < b.AlightingStop
	case a.BoardingStopID != b.BoardingStopID:
		return a.BoardingStopID < b.BoardingStopID
	case a.AlightingStopID != b.AlightingStopID:
		return a.AlightingStopID < b.AlightingStopID
	}
	return a.WaitMinutes < b.WaitMinutes
}
