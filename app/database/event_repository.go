package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/explorenyc/eventcomb/app/events"
)

var _ EventRepository = (*SQLEventRepository)(nil)
var _ SourceRefreshRepository = (*SQLEventRepository)(nil)

// SQLEventRepository handles archive operations for normalized events.
type SQLEventRepository struct {
	db *DB
}

func NewEventRepository(db *DB) *SQLEventRepository {
	return &SQLEventRepository{db: db}
}

// UpsertEvent stores a normalized event snapshot. Re-ingestion is idempotent:
// a record with an unchanged raw_hash only bumps last_seen_at.
func (r *SQLEventRepository) UpsertEvent(e events.Event) error {
	accessibility, err := json.Marshal(e.Accessibility)
	if err != nil {
		return fmt.Errorf("failed to marshal accessibility flags: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO archived_events (
			id, source, title, description, category, start_time, end_time,
			venue_name, neighborhood, borough, latitude, longitude,
			price_min, price_max, accessibility, source_url, raw_hash,
			first_seen_at, last_seen_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT (id) DO UPDATE SET
			title = CASE WHEN excluded.raw_hash != archived_events.raw_hash THEN excluded.title ELSE archived_events.title END,
			description = CASE WHEN excluded.raw_hash != archived_events.raw_hash THEN excluded.description ELSE archived_events.description END,
			category = excluded.category,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			venue_name = excluded.venue_name,
			neighborhood = excluded.neighborhood,
			borough = excluded.borough,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			price_min = excluded.price_min,
			price_max = excluded.price_max,
			accessibility = excluded.accessibility,
			source_url = excluded.source_url,
			raw_hash = excluded.raw_hash,
			last_seen_at = CURRENT_TIMESTAMP
	`, e.ID, e.Source, e.Title, e.Description, string(e.Category),
		e.StartTime.UTC(), nullableTime(e.EndTime), e.VenueName, e.Neighborhood,
		e.Borough, e.Latitude, e.Longitude, e.PriceMin, e.PriceMax,
		string(accessibility), e.SourceURL, e.RawHash)

	if err != nil {
		return fmt.Errorf("failed to upsert event: %w", err)
	}
	return nil
}

func (r *SQLEventRepository) GetEventCount() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM archived_events`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}

// GetStats computes the aggregate counts served by /stats.
func (r *SQLEventRepository) GetStats(now time.Time) (*ArchiveStats, error) {
	stats := &ArchiveStats{
		ByCategory: make(map[string]int),
		ByBorough:  make(map[string]int),
	}

	if err := r.db.QueryRow(`SELECT COUNT(*) FROM archived_events`).Scan(&stats.TotalEvents); err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}

	rows, err := r.db.Query(`SELECT category, COUNT(*) FROM archived_events GROUP BY category`)
	if err != nil {
		return nil, fmt.Errorf("failed to count by category: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("failed to scan category count: %w", err)
		}
		stats.ByCategory[category] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading category counts: %w", err)
	}

	boroughRows, err := r.db.Query(`SELECT borough, COUNT(*) FROM archived_events WHERE borough != '' GROUP BY borough`)
	if err != nil {
		return nil, fmt.Errorf("failed to count by borough: %w", err)
	}
	defer boroughRows.Close()
	for boroughRows.Next() {
		var borough string
		var count int
		if err := boroughRows.Scan(&borough, &count); err != nil {
			return nil, fmt.Errorf("failed to scan borough count: %w", err)
		}
		stats.ByBorough[borough] = count
	}
	if err := boroughRows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading borough counts: %w", err)
	}

	err = r.db.QueryRow(`
		SELECT
			COUNT(CASE WHEN price_min IS NOT NULL AND price_min = 0 THEN 1 END),
			COUNT(CASE WHEN price_min IS NOT NULL AND price_min > 0 THEN 1 END),
			COUNT(CASE WHEN start_time >= ? THEN 1 END),
			COUNT(CASE WHEN start_time >= ? AND start_time < ? THEN 1 END)
		FROM archived_events
	`, now.UTC(), now.UTC(), now.UTC().Add(7*24*time.Hour)).Scan(
		&stats.FreeCount, &stats.PaidCount, &stats.UpcomingCount, &stats.ThisWeekCount)
	if err != nil {
		return nil, fmt.Errorf("failed to compute price and date stats: %w", err)
	}

	return stats, nil
}

// GetEventsForEnrichment returns archived events with a source URL but no
// description that have not been enriched yet.
func (r *SQLEventRepository) GetEventsForEnrichment(limit int) ([]ArchivedEvent, error) {
	rows, err := r.db.Query(`
		SELECT id, source, title, description, source_url
		FROM archived_events
		WHERE description = ''
		  AND source_url != ''
		  AND description_enriched_at IS NULL
		ORDER BY last_seen_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query events for enrichment: %w", err)
	}
	defer rows.Close()

	result := make([]ArchivedEvent, 0, limit)
	for rows.Next() {
		var e ArchivedEvent
		if err := rows.Scan(&e.ID, &e.Source, &e.Title, &e.Description, &e.SourceURL); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// UpdateDescription marks an event enriched even when the extracted text is
// empty, so failed pages are not retried forever.
func (r *SQLEventRepository) UpdateDescription(id string, description string, enrichedAt time.Time) error {
	_, err := r.db.Exec(`
		UPDATE archived_events
		SET description = CASE WHEN ? != '' THEN ? ELSE description END,
		    description_enriched_at = ?
		WHERE id = ?
	`, description, description, enrichedAt.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update description: %w", err)
	}
	return nil
}

// PruneBefore deletes events that ended before the cutoff.
func (r *SQLEventRepository) PruneBefore(cutoff time.Time) (int, error) {
	res, err := r.db.Exec(`
		DELETE FROM archived_events
		WHERE COALESCE(end_time, start_time) < ?
	`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune events: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read pruned row count: %w", err)
	}
	return int(n), nil
}

func (r *SQLEventRepository) UpsertRefresh(refresh SourceRefresh) error {
	_, err := r.db.Exec(`
		INSERT INTO source_refreshes (source, last_refreshed_at, last_ok, last_error, fetched_count, skipped_count)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (source) DO UPDATE SET
			last_refreshed_at = excluded.last_refreshed_at,
			last_ok = excluded.last_ok,
			last_error = excluded.last_error,
			fetched_count = excluded.fetched_count,
			skipped_count = excluded.skipped_count
	`, refresh.Source, nullableTime(refresh.LastRefreshed), refresh.LastOK,
		refresh.LastError, refresh.FetchedCount, refresh.SkippedCount)
	if err != nil {
		return fmt.Errorf("failed to upsert source refresh: %w", err)
	}
	return nil
}

func (r *SQLEventRepository) GetRefreshes() ([]SourceRefresh, error) {
	rows, err := r.db.Query(`
		SELECT source, last_refreshed_at, last_ok, last_error, fetched_count, skipped_count
		FROM source_refreshes
		ORDER BY source
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query source refreshes: %w", err)
	}
	defer rows.Close()

	result := make([]SourceRefresh, 0)
	for rows.Next() {
		var refresh SourceRefresh
		var refreshedAt sql.NullTime
		if err := rows.Scan(&refresh.Source, &refreshedAt, &refresh.LastOK,
			&refresh.LastError, &refresh.FetchedCount, &refresh.SkippedCount); err != nil {
			return nil, fmt.Errorf("failed to scan source refresh: %w", err)
		}
		if refreshedAt.Valid {
			refresh.LastRefreshed = &refreshedAt.Time
		}
		result = append(result, refresh)
	}
	return result, rows.Err()
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}
