package stops

import (
	"context"
	"log"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/yourorg/daysync/internal/cache"
	"github.com/yourorg/daysync/internal/geometry"
	"github.com/yourorg/daysync/internal/models"
	"github.com/yourorg/daysync/internal/tago"
)

// Source is the nearby-stop endpoint
type Source interface {
	NearbyStops(ctx context.Context, at models.Coordinate, pageSize, pageNo int) (*tago.Page[models.Stop], error)
}

// Options tune the sampling. Zero values take the defaults.
type Options struct {
	RadiusMeters       float64
	SampleOffsetMeters float64
	MaxStops           int
	PageSize           int
}

func (o Options) withDefaults() Options {
	if o.RadiusMeters <= 0 {
		o.RadiusMeters = 1000
	}
	if o.SampleOffsetMeters <= 0 {
		o.SampleOffsetMeters = 500
	}
	if o.MaxStops <= 0 {
		o.MaxStops = 20
	}
	if o.PageSize <= 0 {
		o.PageSize = 100
	}
	return o
}

// Locator finds stops around a coordinate. The upstream nearby query is
// narrow, so the center and four points offset north, south, east and west
// are all queried and merged.
type Locator struct {
	source Source
	opts   Options
}

func NewLocator(source Source, opts Options) *Locator {
	return &Locator{source: source, opts: opts.withDefaults()}
}

// SamplePoints returns the center followed by the N, S, E, W offsets.
func (l *Locator) SamplePoints(center models.Coordinate) []models.Coordinate {
	d := l.opts.SampleOffsetMeters
	return []models.Coordinate{
		center,
		geometry.Offset(center, d, 0),
		geometry.Offset(center, -d, 0),
		geometry.Offset(center, 0, d),
		geometry.Offset(center, 0, -d),
	}
}

// Nearby returns distinct stops within the radius of center, nearest first,
// at most MaxStops. It never fails: sample points whose query fails are
// skipped and the result may be empty. session may be nil.
func (l *Locator) Nearby(ctx context.Context, session *cache.Session, center models.Coordinate, label string) []models.Stop {
	if session == nil {
		return l.locate(ctx, center, label)
	}
	found, _ := session.Stops(cache.CoordinateKey(center), func() ([]models.Stop, error) {
		return l.locate(ctx, center, label), nil
	})
	return found
}

func (l *Locator) locate(ctx context.Context, center models.Coordinate, label string) []models.Stop {
	points := l.SamplePoints(center)
	results := make([][]models.Stop, len(points))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range points {
		g.Go(func() error {
			page, err := l.source.NearbyStops(gctx, p, l.opts.PageSize, 1)
			if err != nil {
				log.Printf("[STOPS] ⚠️  %s sample %d (%s) failed: %v", label, i, p, err)
				return nil
			}
			results[i] = page.Items
			return nil
		})
	}
	_ = g.Wait()

	merged := make(map[string]models.Stop)
	for _, batch := range results {
		for _, s := range batch {
			if s.ID == "" {
				continue
			}
			if _, seen := merged[s.ID]; seen {
				continue
			}
			s.Distance = geometry.Haversine(center, s.Coordinate())
			if s.Distance > l.opts.RadiusMeters {
				continue
			}
			merged[s.ID] = s
		}
	}

	out := make([]models.Stop, 0, len(merged))
	for _, s := range merged {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > l.opts.MaxStops {
		out = out[:l.opts.MaxStops]
	}

	log.Printf("[STOPS] %s: %d stops within %.0fm of %s", label, len(out), l.opts.RadiusMeters, center)
	return out
}
