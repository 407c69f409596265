package cache

import (
	"fmt"
	"sync/atomic"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/yourorg/daysync/internal/models"
)

// ============================================================================
// SEARCH SESSION CACHE
// ============================================================================
// One Session per search. It memoizes the upstream lookups a search repeats:
//   - stops by rounded coordinate
//   - station lists by (city, line)
//   - occurrence indices by (line, stop)
// Entries never expire and there is no janitor goroutine: the session is
// dropped with the search. Concurrent misses on the same key are collapsed
// into one load. Failed loads are not cached.
//
// Uso:
//   session := cache.NewSession()
//   stops, err := session.Stops(cache.CoordinateKey(c), func() ([]models.Stop, error) { ... })
// ============================================================================

// Session is safe for concurrent use by the tasks of one search
type Session struct {
	stops    *gocache.Cache
	stations *gocache.Cache
	indexes  *gocache.Cache
	flight   singleflight.Group

	hits   atomic.Int64
	misses atomic.Int64
}

// NewSession creates an empty session cache
func NewSession() *Session {
	return &Session{
		stops:    gocache.New(gocache.NoExpiration, 0),
		stations: gocache.New(gocache.NoExpiration, 0),
		indexes:  gocache.New(gocache.NoExpiration, 0),
	}
}

// CoordinateKey rounds to 6 decimals (about 0.1 m)
func CoordinateKey(c models.Coordinate) string {
	return fmt.Sprintf("%.6f_%.6f", c.Lat, c.Lon)
}

// LineKey identifies a line within a city
func LineKey(cityCode, lineID string) string {
	return cityCode + "|" + lineID
}

// Stops returns the cached stops for key, calling load on a miss
func (s *Session) Stops(key string, load func() ([]models.Stop, error)) ([]models.Stop, error) {
	return getOrLoad(s, s.stops, "stops:"+key, load)
}

// Stations returns the cached station list for a line key, calling load on a miss
func (s *Session) Stations(lineKey string, load func() ([]models.RouteStation, error)) ([]models.RouteStation, error) {
	return getOrLoad(s, s.stations, "stations:"+lineKey, load)
}

// Occurrences returns the cached occurrence indices of a stop on a line
func (s *Session) Occurrences(lineKey, stopKey string, compute func() []int) []int {
	key := "idx:" + lineKey + "|" + stopKey
	if v, ok := s.indexes.Get(key); ok {
		s.hits.Add(1)
		return v.([]int)
	}
	s.misses.Add(1)
	v := compute()
	s.indexes.Set(key, v, gocache.NoExpiration)
	return v
}

func getOrLoad[T any](s *Session, c *gocache.Cache, key string, load func() (T, error)) (T, error) {
	if v, ok := c.Get(key); ok {
		s.hits.Add(1)
		return v.(T), nil
	}

	v, err, shared := s.flight.Do(key, func() (interface{}, error) {
		// a concurrent load may have finished between Get and Do
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		v, err := load()
		if err != nil {
			return nil, err
		}
		c.Set(key, v, gocache.NoExpiration)
		return v, nil
	})
	if shared {
		s.hits.Add(1)
	} else {
		s.misses.Add(1)
	}
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// SessionStats retorna estadísticas del caché de la búsqueda
type SessionStats struct {
	Stops    int   `json:"stops"`
	Stations int   `json:"stations"`
	Indexes  int   `json:"indexes"`
	Hits     int64 `json:"hits"`
	Misses   int64 `json:"misses"`
}

// GetStats retorna estadísticas actuales del caché
func (s *Session) GetStats() SessionStats {
	return SessionStats{
		Stops:    s.stops.ItemCount(),
		Stations: s.stations.ItemCount(),
		Indexes:  s.indexes.ItemCount(),
		Hits:     s.hits.Load(),
		Misses:   s.misses.Load(),
	}
}
