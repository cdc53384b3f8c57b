package events

import (
	"errors"
	"testing"
	"time"
)

func scoredFixture() []ScoredEvent {
	base := time.Date(2026, 9, 5, 18, 0, 0, 0, time.UTC)
	return []ScoredEvent{
		{Event: Event{ID: "a:1", Title: "Beta", StartTime: base.Add(2 * time.Hour)}, Score: 0.9},
		{Event: Event{ID: "a:2", Title: "Alpha", StartTime: base.Add(2 * time.Hour)}, Score: 0.9},
		{Event: Event{ID: "a:3", Title: "Gamma", StartTime: base}, Score: 0.9},
		{Event: Event{ID: "a:4", Title: "Delta", StartTime: base}, Score: 0.5},
		{Event: Event{ID: "a:5", Title: "Epsilon", StartTime: base}, Score: 0.7},
	}
}

func TestRankerTotalOrder(t *testing.T) {
	out, total, err := NewRanker().Run(scoredFixture(), 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if total != 5 {
		t.Errorf("Expected total 5, got %d", total)
	}

	expected := []string{"a:3", "a:2", "a:1", "a:5", "a:4"}
	if len(out) != len(expected) {
		t.Fatalf("Expected %d events, got %d", len(expected), len(out))
	}
	for i, id := range expected {
		if out[i].ID != id {
			t.Errorf("Position %d: expected %s, got %s", i, id, out[i].ID)
		}
	}
}

func TestRankerPagination(t *testing.T) {
	r := NewRanker()

	first, total, err := r.Run(scoredFixture(), 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if total != 5 {
		t.Errorf("Expected total 5, got %d", total)
	}
	if len(first) != 2 {
		t.Errorf("Expected page of 2, got %d", len(first))
	}

	last, _, err := r.Run(scoredFixture(), 3, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(last) != 1 {
		t.Errorf("Expected final partial page of 1, got %d", len(last))
	}
}

func TestRankerPageBeyondRange(t *testing.T) {
	out, total, err := NewRanker().Run(scoredFixture(), 100, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 0 {
		t.Errorf("Expected empty page beyond range, got %d events", len(out))
	}
	if total != 5 {
		t.Errorf("Expected total 5 even for empty page, got %d", total)
	}
}

func TestRankerInvalidPaging(t *testing.T) {
	r := NewRanker()

	var verr *ValidationError
	if _, _, err := r.Run(scoredFixture(), 0, 10); !errors.As(err, &verr) {
		t.Errorf("Expected ValidationError for page 0, got %v", err)
	}
	if _, _, err := r.Run(scoredFixture(), 1, 0); !errors.As(err, &verr) {
		t.Errorf("Expected ValidationError for page_size 0, got %v", err)
	}
	if _, _, err := r.Run(scoredFixture(), -1, -5); !errors.As(err, &verr) {
		t.Errorf("Expected ValidationError for negative paging, got %v", err)
	}
}

func TestRankerDoesNotMutateInput(t *testing.T) {
	in := scoredFixture()
	firstID := in[0].ID

	if _, _, err := NewRanker().Run(in, 1, 10); err != nil {
		t.Fatal(err)
	}
	if in[0].ID != firstID {
		t.Errorf("Expected input order untouched, first is now %s", in[0].ID)
	}
}
