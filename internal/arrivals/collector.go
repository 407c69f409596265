package arrivals

import (
	"context"
	"log"

	"github.com/yourorg/daysync/internal/models"
	"github.com/yourorg/daysync/internal/tago"
)

// Source is the arrivals endpoint
type Source interface {
	Arrivals(ctx context.Context, cityCode, stopID string, pageSize, pageNo int) (*tago.Page[models.Arrival], error)
}

// Collector pages through a stop's arrivals
type Collector struct {
	source   Source
	pageSize int
	maxPages int
}

// NewCollector creates a collector; zero values default to 200 rows and 2 pages
func NewCollector(source Source, pageSize, maxPages int) *Collector {
	if pageSize <= 0 {
		pageSize = 200
	}
	if maxPages <= 0 {
		maxPages = 2
	}
	return &Collector{source: source, pageSize: pageSize, maxPages: maxPages}
}

// Collect returns the distinct arrivals at stop, keyed by (line number, line id).
// Entries missing either are dropped. A short page ends paging. It never
// fails: on an upstream error what was collected so far is returned.
func (c *Collector) Collect(ctx context.Context, stop models.Stop) []models.Arrival {
	seen := make(map[string]bool)
	var out []models.Arrival

	for page := 1; page <= c.maxPages; page++ {
		if ctx.Err() != nil {
			break
		}
		p, err := c.source.Arrivals(ctx, stop.CityCode, stop.ID, c.pageSize, page)
		if err != nil {
			log.Printf("[ARRIVALS] ⚠️  %s (%s) page %d failed: %v", stop.Name, stop.ID, page, err)
			break
		}
		if p.Kind == tago.ItemsMalformed {
			log.Printf("[ARRIVALS] ⚠️  %s (%s) page %d malformed", stop.Name, stop.ID, page)
			break
		}

		for _, a := range p.Items {
			if a.LineID == "" || a.LineNumber == "" {
				continue
			}
			key := a.DedupKey()
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, a)
		}

		if len(p.Items) < c.pageSize {
			break
		}
	}
	return out
}
