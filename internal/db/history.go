package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/yourorg/daysync/internal/models"
)

// ErrNotFound is returned when a search id is unknown
var ErrNotFound = errors.New("search not found")

// SearchRepository persists completed searches in search_history
type SearchRepository struct {
	db *sql.DB
}

func NewSearchRepository(db *sql.DB) *SearchRepository {
	return &SearchRepository{db: db}
}

// SaveSearch stores one completed search with its itineraries as JSON.
func (r *SearchRepository) SaveSearch(ctx context.Context, rec models.SearchRecord) error {
	payload, err := encodeItineraries(rec.Itineraries)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO search_history (
			id, origin_lat, origin_lon,
			destination_lat, destination_lon,
			outcome, result_count, best_minutes,
			itineraries, duration_ms, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		rec.ID,
		rec.OriginLat,
		rec.OriginLon,
		rec.DestinationLat,
		rec.DestinationLon,
		rec.Outcome,
		rec.ResultCount,
		rec.BestMinutes,
		payload,
		rec.DurationMillis,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving search %s: %w", rec.ID, err)
	}
	return nil
}

// GetSearch loads one search by id.
func (r *SearchRepository) GetSearch(ctx context.Context, id string) (*models.SearchRecord, error) {
	query := `
		SELECT
			id, origin_lat, origin_lon,
			destination_lat, destination_lon,
			outcome, result_count, best_minutes,
			itineraries, duration_ms, created_at
		FROM search_history
		WHERE id = ?
	`

	var (
		rec     models.SearchRecord
		best    sql.NullInt64
		payload []byte
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&rec.ID,
		&rec.OriginLat,
		&rec.OriginLon,
		&rec.DestinationLat,
		&rec.DestinationLon,
		&rec.Outcome,
		&rec.ResultCount,
		&best,
		&payload,
		&rec.DurationMillis,
		&rec.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading search %s: %w", id, err)
	}

	if best.Valid {
		m := int(best.Int64)
		rec.BestMinutes = &m
	}
	if rec.Itineraries, err = decodeItineraries(payload); err != nil {
		return nil, fmt.Errorf("decoding search %s: %w", id, err)
	}
	return &rec, nil
}

// Ping checks the connection for health reporting.
func (r *SearchRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func encodeItineraries(its []models.Itinerary) ([]byte, error) {
	if its == nil {
		its = []models.Itinerary{}
	}
	return json.Marshal(its)
}

func decodeItineraries(payload []byte) ([]models.Itinerary, error) {
	its := []models.Itinerary{}
	if len(payload) == 0 {
		return its, nil
	}
	if err := json.Unmarshal(payload, &its); err != nil {
		return nil, err
	}
	return its, nil
}
