package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/explorenyc/eventcomb/app/database"
)

// pruneRetention keeps recently-ended events around for statistics before
// they are dropped.
const pruneRetention = 7 * 24 * time.Hour

// PruneArchiveTask drops archived events that ended long ago.
type PruneArchiveTask struct {
	Task
	eventRepo database.EventRepository
}

func NewPruneArchiveTask(eventRepo database.EventRepository) *PruneArchiveTask {
	return &PruneArchiveTask{
		Task:      NewTask(TaskTypePruneArchive, ""),
		eventRepo: eventRepo,
	}
}

func (t *PruneArchiveTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	cutoff := time.Now().Add(-pruneRetention)
	pruned, err := t.eventRepo.PruneBefore(cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune archive: %w", err)
	}

	if pruned > 0 {
		slog.Info("Task completed",
			"type", t.GetType(),
			"duration", t.GetDuration(),
			"pruned", pruned)
	}

	return nil
}
