package geometry

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/bluele/gcache"

	"github.com/yourorg/daysync/internal/models"
)

// WalkingRoute is a pedestrian router answer
type WalkingRoute struct {
	Seconds  int     `json:"seconds"`
	Meters   float64 `json:"meters"`
	Provider string  `json:"provider"`
}

// PedestrianRouter computes walking routes between two points
type PedestrianRouter interface {
	Name() string
	WalkingRoute(ctx context.Context, from, to models.Coordinate) (*WalkingRoute, error)
}

// WalkingService turns pedestrian routes into whole minutes, falling back to
// straight-line distance at a fixed walking speed when the router fails.
type WalkingService struct {
	router          PedestrianRouter
	cache           gcache.Cache
	metersPerMinute float64
}

// NewWalkingService creates the service. router may be nil (fallback only).
// A cacheSize of zero disables caching.
func NewWalkingService(router PedestrianRouter, metersPerMinute float64, cacheSize int, ttl time.Duration) *WalkingService {
	s := &WalkingService{router: router, metersPerMinute: metersPerMinute}
	if cacheSize > 0 {
		b := gcache.New(cacheSize).LRU()
		if ttl > 0 {
			b = b.Expiration(ttl)
		}
		s.cache = b.Build()
	}
	return s
}

// Provider names the router in use, or "straight-line".
func (s *WalkingService) Provider() string {
	if s.router == nil {
		return "straight-line"
	}
	return s.router.Name()
}

// Minutes returns walking minutes (at least 1) and whether the router answered.
func (s *WalkingService) Minutes(ctx context.Context, from, to models.Coordinate) (int, bool) {
	if s.router != nil {
		key := walkKey(from, to)
		if s.cache != nil {
			if cached, err := s.cache.Get(key); err == nil {
				if minutes, ok := cached.(int); ok {
					return minutes, true
				}
			}
		}

		route, err := s.router.WalkingRoute(ctx, from, to)
		if err == nil && route != nil && route.Seconds > 0 {
			minutes := int(math.Ceil(float64(route.Seconds) / 60))
			if minutes < 1 {
				minutes = 1
			}
			if s.cache != nil {
				_ = s.cache.Set(key, minutes)
			}
			return minutes, true
		}
		if err != nil {
			log.Printf("[WALK] ⚠️  %s failed, using straight-line estimate: %v", s.router.Name(), err)
		}
	}
	return s.StraightLineMinutes(from, to), false
}

// StraightLineMinutes is ceil(haversine / walking speed), at least 1.
func (s *WalkingService) StraightLineMinutes(from, to models.Coordinate) int {
	minutes := int(math.Ceil(Haversine(from, to) / s.metersPerMinute))
	if minutes < 1 {
		return 1
	}
	return minutes
}

func walkKey(from, to models.Coordinate) string {
	return fmt.Sprintf("%.5f,%.5f->%.5f,%.5f", from.Lat, from.Lon, to.Lat, to.Lon)
}

// WalkCacheStats describes the walking-time cache
type WalkCacheStats struct {
	Provider string  `json:"provider"`
	Entries  int     `json:"entries"`
	Hits     uint64  `json:"hits"`
	Misses   uint64  `json:"misses"`
	HitRate  float64 `json:"hit_rate"`
}

// CacheStats reports the walking-time cache counters.
func (s *WalkingService) CacheStats() WalkCacheStats {
	stats := WalkCacheStats{Provider: s.Provider()}
	if s.cache == nil {
		return stats
	}
	stats.Entries = s.cache.Len(true)
	stats.Hits = s.cache.HitCount()
	stats.Misses = s.cache.MissCount()
	stats.HitRate = s.cache.HitRate()
	return stats
}
