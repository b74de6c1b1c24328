package tasks

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/donight/donight/app/database"
)

const articlePage = `<!DOCTYPE html>
<html>
<head><title>Big show announcement</title></head>
<body>
	<article>
		<h1>Big show announcement</h1>
		<p>The venue is proud to host a very long night of music with several
		bands playing back to back until the early morning hours. Doors open
		at nine, first act at ten.</p>
		<p>Tickets are available at the door and online. Early arrivals get a
		discount on the first drink.</p>
	</article>
</body>
</html>`

type enrichRepo struct {
	mu      sync.Mutex
	missing []database.Event
	updates map[int64]string
}

func (r *enrichRepo) GetUpcomingEvents(from time.Time) ([]database.Event, error) { return nil, nil }
func (r *enrichRepo) GetAllEvents() ([]database.Event, error)                    { return nil, nil }
func (r *enrichRepo) GetEventCount() (int, error)                                { return 0, nil }

func (r *enrichRepo) GetEventsMissingDescription(limit int) ([]database.Event, error) {
	return r.missing, nil
}

func (r *enrichRepo) UpdateDescription(id int64, description string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updates == nil {
		r.updates = make(map[int64]string)
	}
	r.updates[id] = description
	return nil
}

func (r *enrichRepo) Batch(ctx context.Context, fn func(database.EventStore) error) error {
	return nil
}

func TestEnrichDescriptionsTask(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, articlePage)
	}))
	defer server.Close()

	repo := &enrichRepo{missing: []database.Event{
		{ID: 7, Title: "Big show", URL: server.URL + "/event/7"},
	}}

	task := NewEnrichDescriptionsTask(repo, &http.Client{}, "Test/1.0", 5*time.Second)
	task.Start()
	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	description, ok := repo.updates[7]
	if !ok {
		t.Fatal("Expected the event description to be updated")
	}
	if !strings.Contains(description, "night of music") {
		t.Errorf("Expected extracted article text, got %q", description)
	}
}

func TestEnrichDescriptionsTaskSkipsFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/bad") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, articlePage)
	}))
	defer server.Close()

	repo := &enrichRepo{missing: []database.Event{
		{ID: 1, URL: server.URL + "/bad"},
		{ID: 2, URL: server.URL + "/good"},
	}}

	task := NewEnrichDescriptionsTask(repo, &http.Client{}, "Test/1.0", 5*time.Second)
	task.Start()
	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Expected per-event failures to be tolerated, got %v", err)
	}

	if _, ok := repo.updates[1]; ok {
		t.Error("Expected the failing event to stay untouched")
	}
	if _, ok := repo.updates[2]; !ok {
		t.Error("Expected the healthy event to be updated")
	}
}

func TestEnrichDescriptionsTaskNothingToDo(t *testing.T) {
	repo := &enrichRepo{}
	task := NewEnrichDescriptionsTask(repo, &http.Client{}, "Test/1.0", time.Second)
	task.Start()
	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(repo.updates) != 0 {
		t.Errorf("Expected no updates, got %v", repo.updates)
	}
}

func TestEnrichDescriptionsTaskRejectsNonHTML(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"not":"html"}`)
	}))
	defer server.Close()

	repo := &enrichRepo{missing: []database.Event{
		{ID: 3, URL: server.URL + "/json"},
	}}

	task := NewEnrichDescriptionsTask(repo, &http.Client{}, "Test/1.0", time.Second)
	task.Start()
	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(repo.updates) != 0 {
		t.Errorf("Expected no update for non-HTML content, got %v", repo.updates)
	}
}
