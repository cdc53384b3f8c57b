package events

import (
	"testing"
	"time"
)

func testEvent(id, title, venue, source string, start time.Time) Event {
	return Event{
		ID:        id,
		Title:     title,
		Category:  CategoryMusic,
		StartTime: start,
		VenueName: venue,
		Source:    source,
	}
}

func TestNormalizeText(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"Jazz Night!", "jazz night"},
		{"JAZZ   night", "jazz night"},
		{"Café Müller", "cafe muller"},
		{"Rock & Roll: Vol. 2", "rock roll vol 2"},
		{"", ""},
	}

	for _, c := range cases {
		if got := normalizeText(c.in); got != c.expected {
			t.Errorf("normalizeText(%q): expected %q, got %q", c.in, c.expected, got)
		}
	}
}

func TestTokenOverlap(t *testing.T) {
	cases := []struct {
		a, b     string
		expected float64
	}{
		{"jazz night", "jazz night", 1.0},
		{"jazz night live", "jazz night", 2.0 / 3.0},
		{"jazz", "rock", 0.0},
		{"", "", 1.0},
		{"jazz", "", 0.0},
	}

	for _, c := range cases {
		if got := tokenOverlap(c.a, c.b); got != c.expected {
			t.Errorf("tokenOverlap(%q, %q): expected %v, got %v", c.a, c.b, c.expected, got)
		}
	}
}

func TestFuzzyMatcherDetectsNearDuplicates(t *testing.T) {
	start := time.Date(2026, 9, 5, 20, 0, 0, 0, time.UTC)
	m := NewFuzzyMatcher(0.8, 7200)

	a := testEvent("official:1", "Jazz Night at the Blue Note", "Blue Note", "official", start)
	b := testEvent("commercial:9", "Jazz Night at The Blue Note!", "blue note", "commercial", start.Add(30*time.Minute))

	if !m.IsDuplicate(a, b) {
		t.Error("Expected near-identical events to match")
	}
}

func TestFuzzyMatcherRejectsDifferentVenue(t *testing.T) {
	start := time.Date(2026, 9, 5, 20, 0, 0, 0, time.UTC)
	m := NewFuzzyMatcher(0.8, 7200)

	a := testEvent("a:1", "Jazz Night", "Blue Note", "a", start)
	b := testEvent("b:1", "Jazz Night", "Smalls", "b", start)

	if m.IsDuplicate(a, b) {
		t.Error("Expected events at different venues not to match")
	}
}

func TestFuzzyMatcherRejectsDistantStartTimes(t *testing.T) {
	start := time.Date(2026, 9, 5, 20, 0, 0, 0, time.UTC)
	m := NewFuzzyMatcher(0.8, 7200)

	a := testEvent("a:1", "Jazz Night", "Blue Note", "a", start)
	b := testEvent("b:1", "Jazz Night", "Blue Note", "b", start.Add(3*time.Hour))

	if m.IsDuplicate(a, b) {
		t.Error("Expected events more than two hours apart not to match")
	}
}

func TestFuzzyMatcherRejectsLowTitleOverlap(t *testing.T) {
	start := time.Date(2026, 9, 5, 20, 0, 0, 0, time.UTC)
	m := NewFuzzyMatcher(0.8, 7200)

	a := testEvent("a:1", "Jazz Night", "Blue Note", "a", start)
	b := testEvent("b:1", "Salsa Social Dance Party", "Blue Note", "b", start)

	if m.IsDuplicate(a, b) {
		t.Error("Expected dissimilar titles not to match")
	}
}

func TestDeduperSurvivorByPriority(t *testing.T) {
	start := time.Date(2026, 9, 5, 20, 0, 0, 0, time.UTC)
	priorities := map[string]int{"official": 100, "commercial": 50}
	d := NewDeduper(nil, func(s string) int { return priorities[s] })

	official := testEvent("official:1", "Jazz Night", "Blue Note", "official", start)
	commercial := testEvent("commercial:9", "Jazz Night", "Blue Note", "commercial", start.Add(time.Hour))
	// Fuller record, but lower priority still loses.
	commercial.Description = "An evening of live jazz."
	commercial.Borough = "Manhattan"

	out := d.Run([]Event{commercial, official})
	if len(out) != 1 {
		t.Fatalf("Expected 1 survivor, got %d", len(out))
	}
	if out[0].ID != "official:1" {
		t.Errorf("Expected higher-priority source to survive, got %s", out[0].ID)
	}
}

func TestDeduperSurvivorByCompleteness(t *testing.T) {
	start := time.Date(2026, 9, 5, 20, 0, 0, 0, time.UTC)
	d := NewDeduper(nil, nil)

	sparse := testEvent("a:1", "Jazz Night", "Blue Note", "a", start)
	full := testEvent("b:1", "Jazz Night", "Blue Note", "b", start)
	full.Description = "An evening of live jazz."
	full.Neighborhood = "Greenwich Village"

	out := d.Run([]Event{sparse, full})
	if len(out) != 1 {
		t.Fatalf("Expected 1 survivor, got %d", len(out))
	}
	if out[0].ID != "b:1" {
		t.Errorf("Expected more complete record to survive, got %s", out[0].ID)
	}
}

func TestDeduperSurvivorBySmallerID(t *testing.T) {
	start := time.Date(2026, 9, 5, 20, 0, 0, 0, time.UTC)
	d := NewDeduper(nil, nil)

	a := testEvent("a:1", "Jazz Night", "Blue Note", "a", start)
	b := testEvent("b:1", "Jazz Night", "Blue Note", "b", start)

	out := d.Run([]Event{b, a})
	if len(out) != 1 {
		t.Fatalf("Expected 1 survivor, got %d", len(out))
	}
	if out[0].ID != "a:1" {
		t.Errorf("Expected lexicographically smaller ID to survive, got %s", out[0].ID)
	}
}

func TestDeduperOrderIndependent(t *testing.T) {
	start := time.Date(2026, 9, 5, 20, 0, 0, 0, time.UTC)
	d := NewDeduper(nil, nil)

	pool := []Event{
		testEvent("a:1", "Jazz Night", "Blue Note", "a", start),
		testEvent("b:1", "Jazz Night!", "Blue Note", "b", start.Add(time.Hour)),
		testEvent("c:1", "Salsa Social", "SOB's", "c", start),
		testEvent("d:1", "Poetry Slam", "Nuyorican", "d", start),
	}

	permutations := [][]int{
		{0, 1, 2, 3},
		{3, 2, 1, 0},
		{1, 3, 0, 2},
		{2, 0, 3, 1},
	}

	var reference []Event
	for _, perm := range permutations {
		shuffled := make([]Event, 0, len(pool))
		for _, i := range perm {
			shuffled = append(shuffled, pool[i])
		}

		out := d.Run(shuffled)
		if reference == nil {
			reference = out
			continue
		}
		if len(out) != len(reference) {
			t.Fatalf("Permutation changed survivor count: %d vs %d", len(out), len(reference))
		}
		for i := range out {
			if out[i].ID != reference[i].ID {
				t.Errorf("Permutation changed survivor set: %s vs %s", out[i].ID, reference[i].ID)
			}
		}
	}
}

func TestDeduperIdempotent(t *testing.T) {
	start := time.Date(2026, 9, 5, 20, 0, 0, 0, time.UTC)
	d := NewDeduper(nil, nil)

	pool := []Event{
		testEvent("a:1", "Jazz Night", "Blue Note", "a", start),
		testEvent("b:1", "Jazz Night", "Blue Note", "b", start),
		testEvent("c:1", "Salsa Social", "SOB's", "c", start),
	}

	once := d.Run(pool)
	twice := d.Run(once)

	if len(once) != len(twice) {
		t.Fatalf("Second pass changed count: %d vs %d", len(once), len(twice))
	}
	for i := range once {
		if once[i].ID != twice[i].ID {
			t.Errorf("Second pass changed survivors: %s vs %s", once[i].ID, twice[i].ID)
		}
	}
}

func TestDeduperCollapsesChainedNearMatches(t *testing.T) {
	start := time.Date(2026, 9, 5, 10, 0, 0, 0, time.UTC)
	priorities := map[string]int{"official": 100}
	d := NewDeduper(nil, func(s string) int { return priorities[s] })

	// The outer two are more than two hours apart and only linked through
	// the middle record, which outranks both.
	pool := []Event{
		testEvent("a:1", "Jazz Night", "Blue Note", "a", start.Add(3*time.Hour)),
		testEvent("b:1", "Jazz Night", "Blue Note", "b", start),
		testEvent("official:1", "Jazz Night", "Blue Note", "official", start.Add(90*time.Minute)),
	}

	once := d.Run(pool)
	if len(once) != 1 {
		t.Fatalf("Expected chain to collapse to 1 survivor, got %d", len(once))
	}
	if once[0].ID != "official:1" {
		t.Errorf("Expected official:1 to survive, got %s", once[0].ID)
	}

	twice := d.Run(once)
	if len(twice) != len(once) {
		t.Errorf("Second pass changed count: %d vs %d", len(once), len(twice))
	}
}

func TestDeduperKeepsDistinctEvents(t *testing.T) {
	start := time.Date(2026, 9, 5, 20, 0, 0, 0, time.UTC)
	d := NewDeduper(nil, nil)

	pool := []Event{
		testEvent("a:1", "Jazz Night", "Blue Note", "a", start),
		testEvent("a:2", "Jazz Night", "Blue Note", "a", start.Add(6*time.Hour)),
	}

	out := d.Run(pool)
	if len(out) != 2 {
		t.Errorf("Expected both events to survive, got %d", len(out))
	}
}
