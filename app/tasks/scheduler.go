package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/explorenyc/eventcomb/app/cfg"
	"github.com/explorenyc/eventcomb/app/database"
	"github.com/explorenyc/eventcomb/app/events"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	sources     map[string]events.Source
	eventRepo   database.EventRepository
	refreshRepo database.SourceRefreshRepository
	httpClient  *http.Client
	extractor   *Extractor
	userAgent   string
	interval    time.Duration
	maxResults  int
	workerCount int
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface
}

func NewScheduler(sources map[string]events.Source, eventRepo database.EventRepository,
	refreshRepo database.SourceRefreshRepository, httpClient *http.Client,
	extractor *Extractor) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	c := cfg.Get()

	return &Scheduler{
		sources:     sources,
		eventRepo:   eventRepo,
		refreshRepo: refreshRepo,
		httpClient:  httpClient,
		extractor:   extractor,
		userAgent:   c.UserAgent,
		interval:    time.Duration(c.RefreshInterval) * time.Second,
		maxResults:  c.MaxResults,
		workerCount: c.WorkerCount,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, 100),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) enqueueTasks() {
	if len(s.sources) == 0 {
		slog.Debug("No sources configured, nothing to refresh")
		return
	}

	for name, src := range s.sources {
		refreshTask := NewRefreshSourceTask(name, src, s.eventRepo, s.refreshRepo, s.maxResults)
		if err := s.EnqueueTask(refreshTask); err != nil {
			slog.Warn("Failed to enqueue RefreshSourceTask", "source", name, "error", err)
		}
	}

	enrichTask := NewEnrichDescriptionTask(s.eventRepo, s.httpClient, s.extractor, s.userAgent)
	if err := s.EnqueueTask(enrichTask); err != nil {
		slog.Warn("Failed to enqueue EnrichDescriptionTask", "error", err)
	}

	pruneTask := NewPruneArchiveTask(s.eventRepo)
	if err := s.EnqueueTask(pruneTask); err != nil {
		slog.Warn("Failed to enqueue PruneArchiveTask", "error", err)
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "source", task.GetSourceName(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			go func() {
				time.Sleep(retryDelay)
				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
					return
				default:
					if retryErr := s.EnqueueTask(task); retryErr != nil {
						slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
					}
				}
			}()
		} else {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
	}
}
