package database

import (
	"time"
)

// ArchivedEvent is one normalized event snapshot kept by the background
// refresh tasks. The archive powers statistics and description enrichment;
// the live aggregation path never reads it.
type ArchivedEvent struct {
	ID            string
	Source        string
	Title         string
	Description   string
	Category      string
	StartTime     time.Time
	EndTime       *time.Time
	VenueName     string
	Neighborhood  string
	Borough       string
	Latitude      *float64
	Longitude     *float64
	PriceMin      *float64
	PriceMax      *float64
	Accessibility []string
	SourceURL     string
	RawHash       string
	EnrichedAt    *time.Time
	FirstSeenAt   time.Time
	LastSeenAt    time.Time
}

// SourceRefresh records a source's most recent background refresh outcome.
type SourceRefresh struct {
	Source        string
	LastRefreshed *time.Time
	LastOK        bool
	LastError     string
	FetchedCount  int
	SkippedCount  int
}

// ArchiveStats summarizes the archive for the /stats endpoint.
type ArchiveStats struct {
	TotalEvents    int
	ByCategory     map[string]int
	ByBorough      map[string]int
	FreeCount      int
	PaidCount      int
	UpcomingCount  int
	ThisWeekCount  int
}
