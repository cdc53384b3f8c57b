package tasks

// TaskSchedulerInterface defines the interface for background task
// scheduling. The scheduler keeps the event archive fresh outside the
// request path: periodic source refreshes, description enrichment and
// archive pruning all run through its worker pool.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}
