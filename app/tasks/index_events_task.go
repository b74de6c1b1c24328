package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/donight/donight/app/finder"
)

type IndexEventsTask struct {
	Task
	finder *finder.EventFinder
}

func NewIndexEventsTask(f *finder.EventFinder) *IndexEventsTask {
	return &IndexEventsTask{
		Task:   NewTask(TaskTypeIndexEvents),
		finder: f,
	}
}

func (t *IndexEventsTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	result, err := t.finder.IndexEvents(ctx)
	if err != nil {
		return fmt.Errorf("indexing cycle failed: %w", err)
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"duration", t.GetDuration(),
		"scraped", result.Scraped,
		"created", result.Created,
		"updated", result.Updated,
		"skipped", result.Skipped,
		"failed_sources", result.Failed)

	return nil
}
