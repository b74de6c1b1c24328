package tasks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"

	"github.com/donight/donight/app/database"
)

const enrichBatchSize = 20

// EnrichDescriptionsTask backfills descriptions for events whose source did
// not provide one, by fetching the event page and extracting its readable
// content.
type EnrichDescriptionsTask struct {
	Task
	eventRepo  database.EventRepository
	httpClient *http.Client
	userAgent  string
	timeout    time.Duration
}

func NewEnrichDescriptionsTask(eventRepo database.EventRepository, httpClient *http.Client, userAgent string, timeout time.Duration) *EnrichDescriptionsTask {
	return &EnrichDescriptionsTask{
		Task:       NewTask(TaskTypeEnrichDescriptions),
		eventRepo:  eventRepo,
		httpClient: httpClient,
		userAgent:  userAgent,
		timeout:    timeout,
	}
}

func (t *EnrichDescriptionsTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	events, err := t.eventRepo.GetEventsMissingDescription(enrichBatchSize)
	if err != nil {
		return fmt.Errorf("failed to get events missing a description: %w", err)
	}

	if len(events) == 0 {
		slog.Debug("No events need description enrichment")
		return nil
	}

	successCount := 0
	errorCount := 0

	for _, event := range events {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := t.enrichEvent(ctx, event); err != nil {
			slog.Error("Failed to enrich event description", "event_id", event.ID, "url", event.URL, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"duration", t.GetDuration(),
		"success", successCount,
		"errors", errorCount)

	return nil
}

func (t *EnrichDescriptionsTask) enrichEvent(ctx context.Context, event database.Event) error {
	data, err := t.fetchPage(ctx, event.URL)
	if err != nil {
		return fmt.Errorf("failed to fetch event page: %w", err)
	}

	article, err := readability.FromReader(strings.NewReader(string(data)), nil)
	if err != nil {
		return fmt.Errorf("failed to extract content: %w", err)
	}
	if article.TextContent == "" {
		return fmt.Errorf("no content extracted from event page")
	}

	if err := t.eventRepo.UpdateDescription(event.ID, strings.TrimSpace(article.TextContent)); err != nil {
		return fmt.Errorf("failed to update event description: %w", err)
	}

	slog.Debug("Description enriched", "event_id", event.ID, "url", event.URL, "content_length", len(article.TextContent))
	return nil
}

func (t *EnrichDescriptionsTask) fetchPage(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("event has no URL")
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(contentType), "text/html") {
		return nil, fmt.Errorf("content type is not HTML: %s", contentType)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
