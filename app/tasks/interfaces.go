package tasks

// TaskSchedulerInterface defines the interface for background task scheduling.
// Used by the main application and the HTTP API to run and trigger indexing
// cycles.
// Example usage:
//
//	scheduler := NewScheduler(finder, eventRepo, httpClient)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewIndexEventsTask(finder))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}
