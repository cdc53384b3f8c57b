package database

import (
	"time"

	"github.com/explorenyc/eventcomb/app/events"
)

type EventRepository interface {
	UpsertEvent(e events.Event) error
	GetEventCount() (int, error)
	GetStats(now time.Time) (*ArchiveStats, error)

	GetEventsForEnrichment(limit int) ([]ArchivedEvent, error)
	UpdateDescription(id string, description string, enrichedAt time.Time) error

	PruneBefore(cutoff time.Time) (int, error)
}

type SourceRefreshRepository interface {
	UpsertRefresh(r SourceRefresh) error
	GetRefreshes() ([]SourceRefresh, error)
}
