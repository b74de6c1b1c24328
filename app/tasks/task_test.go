package tasks

import (
	"testing"
	"time"
)

func TestTaskRetryBookkeeping(t *testing.T) {
	task := NewTask(TaskTypeIndexEvents)

	if task.GetType() != TaskTypeIndexEvents {
		t.Errorf("Unexpected type %q", task.GetType())
	}
	if task.GetID() == "" {
		t.Error("Expected a generated id")
	}
	if task.GetRetryCount() != 0 || task.GetMaxRetries() != DefaultMaxRetries {
		t.Errorf("Unexpected retry state: %d/%d", task.GetRetryCount(), task.GetMaxRetries())
	}

	for i := 0; i < DefaultMaxRetries; i++ {
		if !task.CanRetry() {
			t.Fatalf("Expected retry %d to be allowed", i)
		}
		task.IncrementRetryCount()
	}
	if task.CanRetry() {
		t.Error("Expected no retry after the maximum")
	}
}

func TestTaskIDsAreUnique(t *testing.T) {
	a := NewTask(TaskTypeIndexEvents)
	b := NewTask(TaskTypeIndexEvents)
	if a.GetID() == b.GetID() {
		t.Errorf("Expected distinct ids, both %q", a.GetID())
	}
}

func TestTaskDuration(t *testing.T) {
	task := NewTask(TaskTypeEnrichDescriptions)
	if task.GetDuration() != 0 {
		t.Error("Expected zero duration before start")
	}

	task.Start()
	time.Sleep(time.Millisecond)
	if task.GetDuration() <= 0 {
		t.Error("Expected a positive duration after start")
	}
}
