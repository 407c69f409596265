package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yourorg/daysync/internal/models"
)

func TestSessionStopsMemoized(t *testing.T) {
	session := NewSession()
	calls := 0
	load := func() ([]models.Stop, error) {
		calls++
		return []models.Stop{{ID: "A"}}, nil
	}

	key := CoordinateKey(models.Coordinate{Lat: 36.6357, Lon: 127.4912})
	for i := 0; i < 3; i++ {
		stops, err := session.Stops(key, load)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(stops) != 1 || stops[0].ID != "A" {
			t.Errorf("unexpected stops %v", stops)
		}
	}
	if calls != 1 {
		t.Errorf("Expected 1 load, got %d", calls)
	}

	stats := session.GetStats()
	if stats.Stops != 1 || stats.Hits != 2 || stats.Misses != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestSessionErrorsAreNotCached(t *testing.T) {
	session := NewSession()
	calls := 0
	failing := func() ([]models.RouteStation, error) {
		calls++
		return nil, errors.New("upstream down")
	}

	if _, err := session.Stations(LineKey("33010", "L1"), failing); err == nil {
		t.Error("Expected error from failing load")
	}
	if _, err := session.Stations(LineKey("33010", "L1"), failing); err == nil {
		t.Error("Expected error from failing load")
	}
	if calls != 2 {
		t.Errorf("Expected failed loads to be retried, got %d calls", calls)
	}
}

func TestSessionCollapsesConcurrentLoads(t *testing.T) {
	session := NewSession()
	var calls int32
	release := make(chan struct{})
	load := func() ([]models.RouteStation, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return []models.RouteStation{{ID: "S"}}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := session.Stations("33010|L1", load); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("Expected a single load, got %d", n)
	}
}

func TestSessionOccurrences(t *testing.T) {
	session := NewSession()
	calls := 0
	compute := func() []int {
		calls++
		return []int{3, 19}
	}

	first := session.Occurrences("33010|L1", "CJB1", compute)
	second := session.Occurrences("33010|L1", "CJB1", compute)
	if len(first) != 2 || len(second) != 2 || calls != 1 {
		t.Errorf("Expected memoized occurrences, got %v %v (%d calls)", first, second, calls)
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	a, b := NewSession(), NewSession()
	a.Stops("k", func() ([]models.Stop, error) { return []models.Stop{{ID: "A"}}, nil })

	if b.GetStats().Stops != 0 {
		t.Error("Expected a fresh session to be empty")
	}
}

func TestCoordinateKey(t *testing.T) {
	got := CoordinateKey(models.Coordinate{Lat: 36.63570004, Lon: 127.4912})
	if got != "36.635700_127.491200" {
		t.Errorf("unexpected key %s", got)
	}
}

func BenchmarkSessionHit(b *testing.B) {
	session := NewSession()
	load := func() ([]models.Stop, error) { return []models.Stop{{ID: "A"}}, nil }
	session.Stops("k", load)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		session.Stops("k", load)
	}
}
