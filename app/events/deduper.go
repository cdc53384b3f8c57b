package events

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// DefaultSimilarityThreshold is the token-overlap ratio above which two
	// titles are considered the same.
	DefaultSimilarityThreshold = 0.8
	// DefaultStartWindow is how far apart two start times may be while still
	// describing the same happening.
	DefaultStartWindow = 2 * 60 * 60 // seconds
)

// Matcher decides whether two events describe the same real-world happening.
// The matching rule is deliberately behind this interface so it can be
// swapped without touching the pipeline.
type Matcher interface {
	IsDuplicate(a, b Event) bool
}

// FuzzyMatcher matches on normalized title token overlap, normalized venue
// equality and start-time proximity.
type FuzzyMatcher struct {
	Threshold   float64 // token overlap ratio, [0,1]
	StartWindow int     // seconds
}

func NewFuzzyMatcher(threshold float64, startWindowSeconds int) *FuzzyMatcher {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultSimilarityThreshold
	}
	if startWindowSeconds <= 0 {
		startWindowSeconds = DefaultStartWindow
	}
	return &FuzzyMatcher{Threshold: threshold, StartWindow: startWindowSeconds}
}

func (m *FuzzyMatcher) IsDuplicate(a, b Event) bool {
	if normalizeText(a.VenueName) != normalizeText(b.VenueName) {
		return false
	}

	gap := a.StartTime.Sub(b.StartTime)
	if gap < 0 {
		gap = -gap
	}
	if gap.Seconds() > float64(m.StartWindow) {
		return false
	}

	return tokenOverlap(normalizeText(a.Title), normalizeText(b.Title)) >= m.Threshold
}

var stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalizeText lowercases, removes diacritics and replaces punctuation
// with spaces so "Jazz Night!" and "jazz night" compare equal.
func normalizeText(s string) string {
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// tokenOverlap returns |A∩B| / max(|A|,|B|) over the token sets of two
// normalized strings. Empty versus empty counts as identical.
func tokenOverlap(a, b string) float64 {
	ta := strings.Fields(a)
	tb := strings.Fields(b)
	if len(ta) == 0 && len(tb) == 0 {
		return 1.0
	}
	if len(ta) == 0 || len(tb) == 0 {
		return 0.0
	}

	set := make(map[string]bool, len(ta))
	for _, t := range ta {
		set[t] = true
	}
	seen := make(map[string]bool, len(tb))
	common := 0
	for _, t := range tb {
		if set[t] && !seen[t] {
			common++
			seen[t] = true
		}
	}

	larger := len(uniqueTokens(ta))
	if n := len(uniqueTokens(tb)); n > larger {
		larger = n
	}
	return float64(common) / float64(larger)
}

func uniqueTokens(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}

// Deduper collapses records referring to the same real-world event across
// sources. Output is independent of input order and stable across repeated
// application.
type Deduper struct {
	matcher  Matcher
	priority func(source string) int
}

// NewDeduper builds a Deduper. priority maps a source name to its rank;
// higher ranks survive duplicate collisions. A nil priority treats all
// sources equally.
func NewDeduper(matcher Matcher, priority func(source string) int) *Deduper {
	if matcher == nil {
		matcher = NewFuzzyMatcher(DefaultSimilarityThreshold, DefaultStartWindow)
	}
	if priority == nil {
		priority = func(string) int { return 0 }
	}
	return &Deduper{matcher: matcher, priority: priority}
}

// Run returns the deduplicated event list, sorted by ID. Input is sorted
// internally before comparison so the surviving ID set is identical for any
// permutation of the same records.
func (d *Deduper) Run(in []Event) []Event {
	survivors := make([]Event, len(in))
	copy(survivors, in)
	sort.Slice(survivors, func(i, j int) bool { return survivors[i].ID < survivors[j].ID })

	// A merge can swap in a winner that itself duplicates another survivor
	// (chained near-matches), so passes repeat until one merges nothing.
	for {
		next := d.pass(survivors)
		if len(next) == len(survivors) {
			break
		}
		survivors = next
	}

	sort.Slice(survivors, func(i, j int) bool { return survivors[i].ID < survivors[j].ID })
	return survivors
}

// pass does one collapse sweep. Every merge shortens the output by one, so a
// pass returning its input length is a fixed point.
func (d *Deduper) pass(in []Event) []Event {
	out := make([]Event, 0, len(in))
	for _, candidate := range in {
		merged := false
		for i, kept := range out {
			if kept.ID == candidate.ID || d.matcher.IsDuplicate(kept, candidate) {
				out[i] = d.pickSurvivor(kept, candidate)
				merged = true
				break
			}
		}
		if !merged {
			out = append(out, candidate)
		}
	}
	return out
}

// pickSurvivor resolves a duplicate pair: higher source priority wins, then
// the more complete record, then the lexicographically smaller ID.
func (d *Deduper) pickSurvivor(a, b Event) Event {
	pa, pb := d.priority(a.Source), d.priority(b.Source)
	if pa != pb {
		if pa > pb {
			return a
		}
		return b
	}

	ca, cb := a.Completeness(), b.Completeness()
	if ca != cb {
		if ca > cb {
			return a
		}
		return b
	}

	if a.ID <= b.ID {
		return a
	}
	return b
}
