package events

import (
	"strings"
	"time"
)

// Scoring factor weights. They form a fixed linear blend and sum to 1.0.
const (
	WeightCategory      = 0.35
	WeightBudget        = 0.25
	WeightNeighborhood  = 0.20
	WeightAccessibility = 0.10
	WeightRecency       = 0.10
)

const (
	recencyFullWindow  = 24 * time.Hour      // starts within a day: full marks
	recencyDecayWindow = 30 * 24 * time.Hour // linear decay to zero at 30 days out
)

// Scorer computes relevance scores for events against a preference profile.
// Scoring is deterministic: identical (event, profile, now) inputs always
// produce the identical score.
type Scorer struct{}

func NewScorer() *Scorer {
	return &Scorer{}
}

// MatchesAccessibility reports whether the event satisfies every required
// flag. A profile with requirements acts as a hard filter: events failing it
// are excluded from the pipeline, not merely scored low.
func (s *Scorer) MatchesAccessibility(e Event, p Profile) bool {
	for _, required := range p.AccessibilityRequired {
		if !e.HasFlag(required) {
			return false
		}
	}
	return true
}

// Run scores a single event. Callers must apply MatchesAccessibility first;
// events that fail it should never reach scoring.
func (s *Scorer) Run(e Event, p Profile, now time.Time) ScoredEvent {
	breakdown := map[string]FactorScore{
		"category_match":      factor(s.categoryMatch(e, p), WeightCategory),
		"budget_fit":          factor(s.budgetFit(e, p), WeightBudget),
		"neighborhood_match":  factor(s.neighborhoodMatch(e, p), WeightNeighborhood),
		"accessibility_match": factor(s.accessibilityMatch(e, p), WeightAccessibility),
		"recency":             factor(s.recency(e, now), WeightRecency),
	}

	// Sum in a fixed order: float addition is not associative, so map
	// iteration order would make the total nondeterministic.
	total := 0.0
	for _, name := range []string{
		"category_match",
		"budget_fit",
		"neighborhood_match",
		"accessibility_match",
		"recency",
	} {
		total += breakdown[name].Weighted
	}

	return ScoredEvent{Event: e, Score: total, Breakdown: breakdown}
}

func factor(raw, weight float64) FactorScore {
	return FactorScore{Raw: raw, Weighted: raw * weight}
}

func (s *Scorer) categoryMatch(e Event, p Profile) float64 {
	if len(p.Categories) == 0 {
		return 1.0
	}
	for _, c := range p.Categories {
		if e.Category == c {
			return 1.0
		}
	}
	return 0.0
}

// budgetFit is 1.0 for free or in-budget events, decaying linearly to zero
// at twice the budget ceiling.
func (s *Scorer) budgetFit(e Event, p Profile) float64 {
	if e.PriceMin == nil || *e.PriceMin == 0 {
		return 1.0
	}
	if p.BudgetMax == nil {
		return 1.0
	}
	price, budget := *e.PriceMin, *p.BudgetMax
	if price <= budget {
		return 1.0
	}
	if budget <= 0 {
		return 0.0
	}
	v := 1.0 - (price-budget)/budget
	if v < 0 {
		return 0.0
	}
	return v
}

// neighborhoodMatch gives non-matching events a 0.2 floor rather than zero:
// an adjacent neighborhood is still weakly relevant.
func (s *Scorer) neighborhoodMatch(e Event, p Profile) float64 {
	if len(p.Neighborhoods) == 0 {
		return 1.0
	}
	for _, n := range p.Neighborhoods {
		if strings.EqualFold(strings.TrimSpace(n), strings.TrimSpace(e.Neighborhood)) {
			return 1.0
		}
	}
	return 0.2
}

func (s *Scorer) accessibilityMatch(e Event, p Profile) float64 {
	if s.MatchesAccessibility(e, p) {
		return 1.0
	}
	return 0.0
}

func (s *Scorer) recency(e Event, now time.Time) float64 {
	until := e.StartTime.Sub(now)
	if until <= recencyFullWindow {
		return 1.0
	}
	if until >= recencyDecayWindow {
		return 0.0
	}
	return 1.0 - float64(until-recencyFullWindow)/float64(recencyDecayWindow-recencyFullWindow)
}
