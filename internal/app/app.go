package app

import (
	"fmt"

	"github.com/yourorg/daysync/internal/arrivals"
	"github.com/yourorg/daysync/internal/config"
	"github.com/yourorg/daysync/internal/direction"
	"github.com/yourorg/daysync/internal/geometry"
	"github.com/yourorg/daysync/internal/graphhopper"
	"github.com/yourorg/daysync/internal/itinerary"
	"github.com/yourorg/daysync/internal/search"
	"github.com/yourorg/daysync/internal/stations"
	"github.com/yourorg/daysync/internal/stops"
	"github.com/yourorg/daysync/internal/tago"
	"github.com/yourorg/daysync/internal/tmap"
	"github.com/yourorg/daysync/internal/validation"
)

// Components is the search pipeline built from configuration, shared by the
// server and the CLI.
type Components struct {
	Tago        *tago.Client
	Router      geometry.PedestrianRouter // nil when walking is straight-line only
	GraphHopper *graphhopper.Client       // set when the provider is graphhopper
	Walking     *geometry.WalkingService
	Locator     *stops.Locator
	Collector   *arrivals.Collector
	Fetcher     *stations.Fetcher
	Analyzer    *direction.Analyzer
	Estimator   *itinerary.Estimator
	Search      *search.Service
}

// New wires every component from cfg.
func New(cfg *config.Config) (*Components, error) {
	c := &Components{
		Tago: tago.NewClient(cfg.Tago.BaseURL, cfg.Tago.ServiceKey, cfg.Tago.Timeout),
	}

	switch cfg.Pedestrian.Provider {
	case "tmap":
		c.Router = tmap.NewClient(cfg.Pedestrian.TmapURL, cfg.Pedestrian.TmapAppKey, cfg.Tago.Timeout)
	case "graphhopper":
		c.GraphHopper = graphhopper.NewClient(cfg.Pedestrian.GraphHopperURL, cfg.Tago.Timeout)
		c.Router = c.GraphHopper
	case "none", "":
	default:
		return nil, fmt.Errorf("unknown pedestrian provider %q", cfg.Pedestrian.Provider)
	}

	c.Walking = geometry.NewWalkingService(c.Router, cfg.Estimator.WalkingMetersPerMinute,
		cfg.Pedestrian.WalkCacheSize, cfg.Pedestrian.WalkCacheTTL)

	c.Locator = stops.NewLocator(c.Tago, stops.Options{
		RadiusMeters:       cfg.Search.RadiusMeters,
		SampleOffsetMeters: cfg.Search.SampleOffsetMeters,
		MaxStops:           cfg.Search.MaxStopsPerLocation,
		PageSize:           cfg.Search.StopPageSize,
	})
	c.Collector = arrivals.NewCollector(c.Tago, cfg.Search.ArrivalPageSize, cfg.Search.ArrivalMaxPages)
	c.Fetcher = stations.NewFetcher(c.Tago, cfg.Search.StationPageSize)
	c.Analyzer = direction.NewAnalyzer(direction.Options{
		AllowCoordinateEstimate: cfg.Search.AllowCoordinateEstimate,
		MaxStopSpan:             cfg.Estimator.MaxStopSpan,
	})
	c.Estimator = itinerary.NewEstimator(c.Walking, itinerary.Options{
		BusMetersPerMinute:  cfg.Estimator.BusMetersPerMinute,
		DistanceMultiplier:  cfg.Estimator.DistanceMultiplier,
		MinutesPerStop:      cfg.Estimator.MinutesPerStop,
		MaxStopSpan:         cfg.Estimator.MaxStopSpan,
		MaxStopBasedMinutes: cfg.Estimator.MaxStopBasedMinutes,
		MinRideMinutes:      cfg.Estimator.MinRideMinutes,
		MaxRideMinutes:      cfg.Estimator.MaxRideMinutes,
	})

	opts := search.Options{
		MaxResults: cfg.Search.MaxResults,
		Workers:    cfg.Search.Workers,
	}
	if cfg.Region.Enabled() {
		opts.Region = &validation.Region{
			Name:   cfg.Region.Name,
			MinLat: cfg.Region.MinLat,
			MaxLat: cfg.Region.MaxLat,
			MinLon: cfg.Region.MinLon,
			MaxLon: cfg.Region.MaxLon,
		}
	}
	c.Search = search.NewService(c.Locator, c.Collector, c.Fetcher, c.Analyzer, c.Estimator, opts)
	return c, nil
}
