package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/explorenyc/eventcomb/app/events"
)

func setupTestDB(t *testing.T) *SQLEventRepository {
	t.Helper()

	db, err := NewConnection(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := RunMigrations(db); err != nil {
		t.Fatal(err)
	}

	return NewEventRepository(db)
}

func archiveEvent(id string, start time.Time) events.Event {
	e := events.Event{
		ID:        id,
		Title:     "Jazz Night",
		Category:  events.CategoryMusic,
		StartTime: start,
		VenueName: "Blue Note",
		Borough:   "Manhattan",
		Source:    "official",
		SourceURL: "https://example.com/events/" + id,
	}
	e.RawHash = e.ContentHash()
	return e
}

func TestUpsertEventAndCount(t *testing.T) {
	repo := setupTestDB(t)
	start := time.Date(2026, 9, 5, 20, 0, 0, 0, time.UTC)

	if err := repo.UpsertEvent(archiveEvent("official:1", start)); err != nil {
		t.Fatal(err)
	}
	if err := repo.UpsertEvent(archiveEvent("official:2", start.Add(time.Hour))); err != nil {
		t.Fatal(err)
	}

	count, err := repo.GetEventCount()
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("Expected 2 events, got %d", count)
	}
}

func TestUpsertEventIdempotent(t *testing.T) {
	repo := setupTestDB(t)
	start := time.Date(2026, 9, 5, 20, 0, 0, 0, time.UTC)
	e := archiveEvent("official:1", start)

	if err := repo.UpsertEvent(e); err != nil {
		t.Fatal(err)
	}
	if err := repo.UpsertEvent(e); err != nil {
		t.Fatal(err)
	}

	count, err := repo.GetEventCount()
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("Expected re-ingestion to keep a single row, got %d", count)
	}
}

func TestGetStats(t *testing.T) {
	repo := setupTestDB(t)
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	free := archiveEvent("official:1", now.Add(24*time.Hour))
	zero := 0.0
	free.PriceMin = &zero

	paid := archiveEvent("eventbrite:1", now.Add(10*24*time.Hour))
	paid.Category = events.CategoryArt
	paid.Borough = "Brooklyn"
	price := 25.0
	paid.PriceMin = &price

	past := archiveEvent("official:2", now.Add(-48*time.Hour))

	for _, e := range []events.Event{free, paid, past} {
		if err := repo.UpsertEvent(e); err != nil {
			t.Fatal(err)
		}
	}

	stats, err := repo.GetStats(now)
	if err != nil {
		t.Fatal(err)
	}

	if stats.TotalEvents != 3 {
		t.Errorf("Expected 3 total events, got %d", stats.TotalEvents)
	}
	if stats.ByCategory["music"] != 2 || stats.ByCategory["art"] != 1 {
		t.Errorf("Unexpected category counts: %+v", stats.ByCategory)
	}
	if stats.ByBorough["Manhattan"] != 2 || stats.ByBorough["Brooklyn"] != 1 {
		t.Errorf("Unexpected borough counts: %+v", stats.ByBorough)
	}
	if stats.FreeCount != 1 {
		t.Errorf("Expected 1 free event, got %d", stats.FreeCount)
	}
	if stats.PaidCount != 1 {
		t.Errorf("Expected 1 paid event, got %d", stats.PaidCount)
	}
	if stats.UpcomingCount != 2 {
		t.Errorf("Expected 2 upcoming events, got %d", stats.UpcomingCount)
	}
	if stats.ThisWeekCount != 1 {
		t.Errorf("Expected 1 event this week, got %d", stats.ThisWeekCount)
	}
}

func TestEnrichmentFlow(t *testing.T) {
	repo := setupTestDB(t)
	start := time.Date(2026, 9, 5, 20, 0, 0, 0, time.UTC)

	bare := archiveEvent("official:1", start)
	bare.Description = ""

	described := archiveEvent("official:2", start)
	described.Description = "Already has one."

	if err := repo.UpsertEvent(bare); err != nil {
		t.Fatal(err)
	}
	if err := repo.UpsertEvent(described); err != nil {
		t.Fatal(err)
	}

	pending, err := repo.GetEventsForEnrichment(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].ID != "official:1" {
		t.Fatalf("Expected only the bare event pending, got %+v", pending)
	}

	if err := repo.UpdateDescription("official:1", "Extracted text.", time.Now()); err != nil {
		t.Fatal(err)
	}

	pending, err = repo.GetEventsForEnrichment(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Errorf("Expected no pending events after enrichment, got %d", len(pending))
	}
}

func TestUpdateDescriptionMarksFailedAttempts(t *testing.T) {
	repo := setupTestDB(t)
	start := time.Date(2026, 9, 5, 20, 0, 0, 0, time.UTC)

	if err := repo.UpsertEvent(archiveEvent("official:1", start)); err != nil {
		t.Fatal(err)
	}

	// Empty extraction still stamps the attempt so the event is not retried.
	if err := repo.UpdateDescription("official:1", "", time.Now()); err != nil {
		t.Fatal(err)
	}

	pending, err := repo.GetEventsForEnrichment(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Errorf("Expected failed attempt not to be retried, got %d pending", len(pending))
	}
}

func TestPruneBefore(t *testing.T) {
	repo := setupTestDB(t)
	now := time.Date(2026, 9, 10, 12, 0, 0, 0, time.UTC)

	old := archiveEvent("official:1", now.Add(-10*24*time.Hour))
	current := archiveEvent("official:2", now.Add(24*time.Hour))

	if err := repo.UpsertEvent(old); err != nil {
		t.Fatal(err)
	}
	if err := repo.UpsertEvent(current); err != nil {
		t.Fatal(err)
	}

	pruned, err := repo.PruneBefore(now.Add(-7 * 24 * time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if pruned != 1 {
		t.Errorf("Expected 1 pruned event, got %d", pruned)
	}

	count, err := repo.GetEventCount()
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("Expected 1 surviving event, got %d", count)
	}
}

func TestSourceRefreshRoundTrip(t *testing.T) {
	repo := setupTestDB(t)
	refreshedAt := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	refresh := SourceRefresh{
		Source:        "nyc_open_data",
		LastRefreshed: &refreshedAt,
		LastOK:        true,
		FetchedCount:  42,
		SkippedCount:  3,
	}
	if err := repo.UpsertRefresh(refresh); err != nil {
		t.Fatal(err)
	}

	// Second upsert overwrites rather than duplicating.
	refresh.LastOK = false
	refresh.LastError = "upstream failure"
	if err := repo.UpsertRefresh(refresh); err != nil {
		t.Fatal(err)
	}

	rows, err := repo.GetRefreshes()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("Expected 1 refresh row, got %d", len(rows))
	}

	got := rows[0]
	if got.Source != "nyc_open_data" || got.LastOK || got.LastError != "upstream failure" {
		t.Errorf("Unexpected refresh row: %+v", got)
	}
	if got.FetchedCount != 42 || got.SkippedCount != 3 {
		t.Errorf("Unexpected counts: %+v", got)
	}
	if got.LastRefreshed == nil {
		t.Error("Expected refresh timestamp to round-trip")
	}
}
