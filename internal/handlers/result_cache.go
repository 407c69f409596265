package handlers

import (
	"crypto/sha256"
	"fmt"
	"log"
	"time"

	"github.com/bluele/gcache"

	"github.com/yourorg/daysync/internal/models"
	"github.com/yourorg/daysync/internal/search"
)

// ResultCache keeps recent search results for identical origin/destination
// pairs. Arrivals are live data, so the TTL stays short.
type ResultCache struct {
	cache   gcache.Cache
	ttl     time.Duration
	maxSize int
}

// ResultCacheStats is reported by GET /api/cache/stats
type ResultCacheStats struct {
	Entries    int     `json:"entries"`
	MaxSize    int     `json:"max_size"`
	TTLSeconds float64 `json:"ttl_seconds"`
	Hits       uint64  `json:"hits"`
	Misses     uint64  `json:"misses"`
	HitRate    float64 `json:"hit_rate"`
}

// NewResultCache creates the cache; maxSize <= 0 or ttl <= 0 disables it.
func NewResultCache(maxSize int, ttl time.Duration) *ResultCache {
	rc := &ResultCache{ttl: ttl, maxSize: maxSize}
	if maxSize > 0 && ttl > 0 {
		rc.cache = gcache.New(maxSize).LRU().Expiration(ttl).Build()
	}
	return rc
}

// generateKey rounds to 4 decimals (~11 m) so small GPS jitter still hits,
// then hashes to keep keys short.
func generateKey(origin, dest models.Coordinate) string {
	key := fmt.Sprintf("%.4f,%.4f->%.4f,%.4f", origin.Lat, origin.Lon, dest.Lat, dest.Lon)
	hash := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", hash[:16])
}

// Get returns a cached result that has not expired
func (rc *ResultCache) Get(origin, dest models.Coordinate) (*search.Result, bool) {
	if rc.cache == nil {
		return nil, false
	}
	v, err := rc.cache.Get(generateKey(origin, dest))
	if err != nil {
		return nil, false
	}
	res, ok := v.(*search.Result)
	if ok {
		log.Printf("🎯 CACHE HIT: search %s (age %v)", res.ID, time.Since(res.StartedAt).Round(time.Millisecond))
	}
	return res, ok
}

// Set stores a result
func (rc *ResultCache) Set(origin, dest models.Coordinate, res *search.Result) {
	if rc.cache == nil || res == nil {
		return
	}
	if err := rc.cache.Set(generateKey(origin, dest), res); err != nil {
		log.Printf("[CACHE] ⚠️  storing search %s: %v", res.ID, err)
	}
}

// Clear limpia todo el caché
func (rc *ResultCache) Clear() {
	if rc.cache == nil {
		return
	}
	rc.cache.Purge()
	log.Printf("🗑️  CACHE CLEAR: result cache purged")
}

// Stats devuelve estadísticas del caché
func (rc *ResultCache) Stats() ResultCacheStats {
	stats := ResultCacheStats{MaxSize: rc.maxSize, TTLSeconds: rc.ttl.Seconds()}
	if rc.cache == nil {
		return stats
	}
	stats.Entries = rc.cache.Len(true)
	stats.Hits = rc.cache.HitCount()
	stats.Misses = rc.cache.MissCount()
	stats.HitRate = rc.cache.HitRate()
	return stats
}
