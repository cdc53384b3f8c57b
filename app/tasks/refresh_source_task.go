package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/explorenyc/eventcomb/app/database"
	"github.com/explorenyc/eventcomb/app/events"
)

// refreshLookahead is how far into the future a background refresh reaches.
const refreshLookahead = 30 * 24 * time.Hour

// RefreshSourceTask re-fetches one source outside the request path and
// snapshots its normalized events into the archive.
type RefreshSourceTask struct {
	Task
	source      events.Source
	eventRepo   database.EventRepository
	refreshRepo database.SourceRefreshRepository
	maxResults  int
}

func NewRefreshSourceTask(sourceName string, source events.Source,
	eventRepo database.EventRepository, refreshRepo database.SourceRefreshRepository,
	maxResults int) *RefreshSourceTask {
	return &RefreshSourceTask{
		Task:        NewTask(TaskTypeRefreshSource, sourceName),
		source:      source,
		eventRepo:   eventRepo,
		refreshRepo: refreshRepo,
		maxResults:  maxResults,
	}
}

func (t *RefreshSourceTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	now := time.Now()
	window := events.TimeWindow{From: now, To: now.Add(refreshLookahead)}

	fetched, status := t.source.Fetch(ctx, window, t.maxResults)

	refreshedAt := now.UTC()
	refresh := database.SourceRefresh{
		Source:        t.SourceName,
		LastRefreshed: &refreshedAt,
		LastOK:        status.OK,
		LastError:     status.Message,
		FetchedCount:  status.FetchedCount,
		SkippedCount:  status.SkippedCount,
	}
	if err := t.refreshRepo.UpsertRefresh(refresh); err != nil {
		slog.Error("Failed to record source refresh", "source", t.SourceName, "error", err)
	}

	if !status.OK {
		// Rate-limited refreshes are expected pressure, not failures worth
		// the scheduler's retry budget.
		if status.ErrorKind == events.ErrorKindRateLimit {
			slog.Debug("Source refresh rate limited, will retry next interval", "source", t.SourceName)
			return nil
		}
		return fmt.Errorf("source fetch failed: %s", status.Message)
	}

	stored := 0
	for _, e := range fetched {
		if err := t.eventRepo.UpsertEvent(e); err != nil {
			return fmt.Errorf("failed to archive event %s: %w", e.ID, err)
		}
		stored++
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"source", t.SourceName,
		"duration", t.GetDuration(),
		"fetched", status.FetchedCount,
		"skipped", status.SkippedCount,
		"stored", stored)

	return nil
}
