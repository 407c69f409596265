package stations

import (
	"context"
	"fmt"
	"log"

	"github.com/yourorg/daysync/internal/cache"
	"github.com/yourorg/daysync/internal/models"
	"github.com/yourorg/daysync/internal/tago"
)

// Source is the line-stations endpoint
type Source interface {
	RouteStations(ctx context.Context, cityCode, lineID string, pageSize, pageNo int) (*tago.Page[models.RouteStation], error)
}

// Fetcher retrieves a line's ordered stations. Only one page is requested;
// lines longer than the page size are truncated.
type Fetcher struct {
	source   Source
	pageSize int
}

func NewFetcher(source Source, pageSize int) *Fetcher {
	if pageSize <= 0 {
		pageSize = 200
	}
	return &Fetcher{source: source, pageSize: pageSize}
}

// Fetch returns the stations in delivered order with Index and Direction set.
// An empty slice means the line has no usable station data. session may be nil.
func (f *Fetcher) Fetch(ctx context.Context, session *cache.Session, cityCode, lineID string) ([]models.RouteStation, error) {
	if session == nil {
		return f.fetch(ctx, cityCode, lineID)
	}
	return session.Stations(cache.LineKey(cityCode, lineID), func() ([]models.RouteStation, error) {
		return f.fetch(ctx, cityCode, lineID)
	})
}

func (f *Fetcher) fetch(ctx context.Context, cityCode, lineID string) ([]models.RouteStation, error) {
	page, err := f.source.RouteStations(ctx, cityCode, lineID, f.pageSize, 1)
	if err != nil {
		return nil, fmt.Errorf("fetching stations of %s: %w", lineID, err)
	}
	if page.Kind == tago.ItemsMalformed {
		log.Printf("[STATIONS] ⚠️  malformed station list for %s", lineID)
	}

	out := make([]models.RouteStation, len(page.Items))
	copy(out, page.Items)
	for i := range out {
		// position in the delivered list is the only ordering used
		out[i].Normalize(i)
	}
	if page.TotalCount > len(out) && len(out) == f.pageSize {
		log.Printf("[STATIONS] ⚠️  %s has %d stations, only %d fetched", lineID, page.TotalCount, len(out))
	}
	return out, nil
}
