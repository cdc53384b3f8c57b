package source

import (
	"context"
	"testing"
	"time"

	"github.com/explorenyc/eventcomb/app/events"
)

func TestFallbackProjectsIntoWindow(t *testing.T) {
	from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	window := events.TimeWindow{From: from, To: from.Add(14 * 24 * time.Hour)}

	src := NewFallbackSource()
	result, status := src.Fetch(context.Background(), window, 100)

	if !status.OK {
		t.Fatalf("Expected OK status, got %+v", status)
	}
	if len(result) == 0 {
		t.Fatal("Expected fallback events for a two-week window")
	}

	for _, e := range result {
		if e.Source != FallbackName {
			t.Errorf("Expected fallback provenance, got %q", e.Source)
		}
		if !window.Contains(e.StartTime) {
			t.Errorf("Event %s starts outside the window: %v", e.ID, e.StartTime)
		}
		if e.Title == "" || e.Category == "" {
			t.Errorf("Event %s missing required fields", e.ID)
		}
	}
}

func TestFallbackNarrowWindow(t *testing.T) {
	from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	// One day only: seeds projected further out must be dropped.
	window := events.TimeWindow{From: from, To: from.Add(24 * time.Hour)}

	src := NewFallbackSource()
	result, _ := src.Fetch(context.Background(), window, 100)

	for _, e := range result {
		if !window.Contains(e.StartTime) {
			t.Errorf("Event %s starts outside the narrow window: %v", e.ID, e.StartTime)
		}
	}
}

func TestFallbackRespectsMaxResults(t *testing.T) {
	from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	window := events.TimeWindow{From: from, To: from.Add(14 * 24 * time.Hour)}

	result, _ := NewFallbackSource().Fetch(context.Background(), window, 2)
	if len(result) != 2 {
		t.Errorf("Expected result capped at 2, got %d", len(result))
	}
}
