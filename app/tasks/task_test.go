package tasks

import (
	"testing"
	"time"
)

func TestNewTaskDefaults(t *testing.T) {
	task := NewTask(TaskTypeRefreshSource, "nyc_open_data")

	if task.ID == "" {
		t.Error("Expected a generated task ID")
	}
	if task.GetType() != TaskTypeRefreshSource {
		t.Errorf("Expected refresh_source type, got %q", task.GetType())
	}
	if task.GetSourceName() != "nyc_open_data" {
		t.Errorf("Expected source name preserved, got %q", task.GetSourceName())
	}
	if task.GetRetryCount() != 0 {
		t.Errorf("Expected zero retries on a new task, got %d", task.GetRetryCount())
	}
	if task.GetMaxRetries() != DefaultMaxRetries {
		t.Errorf("Expected default max retries %d, got %d", DefaultMaxRetries, task.GetMaxRetries())
	}
}

func TestTaskRetryBookkeeping(t *testing.T) {
	task := NewTask(TaskTypePruneArchive, "")

	for i := 0; i < DefaultMaxRetries; i++ {
		if !task.CanRetry() {
			t.Fatalf("Expected retry %d to be allowed", i+1)
		}
		task.IncrementRetryCount()
	}
	if task.CanRetry() {
		t.Error("Expected retries exhausted after reaching the maximum")
	}
	if task.GetRetryCount() != DefaultMaxRetries {
		t.Errorf("Expected retry count %d, got %d", DefaultMaxRetries, task.GetRetryCount())
	}
}

func TestTaskDuration(t *testing.T) {
	task := NewTask(TaskTypeEnrichDescription, "")

	if task.GetDuration() != 0 {
		t.Error("Expected zero duration before Start")
	}

	task.Start()
	time.Sleep(10 * time.Millisecond)
	if task.GetDuration() <= 0 {
		t.Error("Expected positive duration after Start")
	}
}

func TestTaskIDsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		task := NewTask(TaskTypeRefreshSource, "s")
		if seen[task.ID] {
			t.Fatalf("Duplicate task ID %q", task.ID)
		}
		seen[task.ID] = true
	}
}
