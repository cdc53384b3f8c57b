package events

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Canonical event model shared by all source adapters.

type Category string

const (
	CategoryMusic     Category = "music"
	CategoryArt       Category = "art"
	CategoryFood      Category = "food"
	CategorySports    Category = "sports"
	CategoryCommunity Category = "community"
	CategoryFamily    Category = "family"
	CategoryOther     Category = "other"
)

var categories = map[Category]bool{
	CategoryMusic:     true,
	CategoryArt:       true,
	CategoryFood:      true,
	CategorySports:    true,
	CategoryCommunity: true,
	CategoryFamily:    true,
	CategoryOther:     true,
}

// ParseCategory validates a caller-supplied category value.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !categories[c] {
		return "", NewValidationError(fmt.Sprintf("unknown category: %q", s))
	}
	return c, nil
}

type AccessibilityFlag string

const (
	FlagWheelchair      AccessibilityFlag = "wheelchair"
	FlagASL             AccessibilityFlag = "asl"
	FlagSensoryFriendly AccessibilityFlag = "sensory_friendly"
	FlagAudioDescribed  AccessibilityFlag = "audio_described"
	FlagLargePrint      AccessibilityFlag = "large_print"
)

var accessibilityFlags = map[AccessibilityFlag]bool{
	FlagWheelchair:      true,
	FlagASL:             true,
	FlagSensoryFriendly: true,
	FlagAudioDescribed:  true,
	FlagLargePrint:      true,
}

// ParseAccessibilityFlag validates a caller-supplied accessibility flag.
func ParseAccessibilityFlag(s string) (AccessibilityFlag, error) {
	f := AccessibilityFlag(strings.ToLower(strings.TrimSpace(s)))
	if !accessibilityFlags[f] {
		return "", NewValidationError(fmt.Sprintf("unknown accessibility flag: %q", s))
	}
	return f, nil
}

// DefaultEventDuration is assumed when a source reports no end time.
const DefaultEventDuration = 3 * time.Hour

// Event is the canonical record describing one real-world happening.
// IDs are source-qualified ("source:local_id") so records from different
// providers never collide.
type Event struct {
	ID          string
	Title       string
	Description string
	Category    Category

	StartTime time.Time
	EndTime   *time.Time

	VenueName    string
	Neighborhood string
	Borough      string
	Latitude     *float64
	Longitude    *float64

	PriceMin *float64 // nil = unknown, 0 = free
	PriceMax *float64

	Accessibility []AccessibilityFlag

	Source    string
	SourceURL string

	RawHash string
}

// EventID builds a source-qualified identifier.
func EventID(source, localID string) string {
	return source + ":" + localID
}

// End returns the event's end time, assuming DefaultEventDuration when the
// source reported none.
func (e Event) End() time.Time {
	if e.EndTime != nil {
		return *e.EndTime
	}
	return e.StartTime.Add(DefaultEventDuration)
}

// HasFlag reports whether the event carries the given accessibility flag.
func (e Event) HasFlag(f AccessibilityFlag) bool {
	for _, have := range e.Accessibility {
		if have == f {
			return true
		}
	}
	return false
}

// Completeness counts populated optional fields. Used as a dedup tie-break:
// the fuller record survives.
func (e Event) Completeness() int {
	n := 0
	if e.Description != "" {
		n++
	}
	if e.EndTime != nil {
		n++
	}
	if e.VenueName != "" {
		n++
	}
	if e.Neighborhood != "" {
		n++
	}
	if e.Borough != "" {
		n++
	}
	if e.Latitude != nil && e.Longitude != nil {
		n++
	}
	if e.PriceMin != nil {
		n++
	}
	if e.PriceMax != nil {
		n++
	}
	if len(e.Accessibility) > 0 {
		n++
	}
	if e.SourceURL != "" {
		n++
	}
	return n
}

// ContentHash computes a stable hash over the normalized fields, used for
// idempotent re-ingestion into the archive.
func (e Event) ContentHash() string {
	content := fmt.Sprintf("%s|%s|%s|%s|%s",
		e.Title,
		string(e.Category),
		e.StartTime.UTC().Format(time.RFC3339),
		e.VenueName,
		e.SourceURL)

	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}

// TimeWindow is the half-open interval [From, To) an aggregation covers.
type TimeWindow struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls inside the window.
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.From) && t.Before(w.To)
}

// Profile carries the caller's filter and interest criteria. It is supplied
// per call and never persisted.
type Profile struct {
	Categories            []Category
	BudgetMax             *float64 // nil = unbounded
	Neighborhoods         []string
	AccessibilityRequired []AccessibilityFlag
	FreeTextInterest      string
}

// ScoredEvent is an Event annotated with its relevance score and the
// per-factor breakdown that produced it.
type ScoredEvent struct {
	Event
	Score     float64
	Breakdown map[string]FactorScore
}

// FactorScore records one scoring factor's raw value and its weighted
// contribution to the final score.
type FactorScore struct {
	Raw      float64
	Weighted float64
}

// AdapterStatus reports one source adapter's outcome for a single
// aggregation call.
type AdapterStatus struct {
	Source       string
	OK           bool
	ErrorKind    ErrorKind
	Message      string
	SkippedCount int
	FetchedCount int
	Duration     time.Duration
}
