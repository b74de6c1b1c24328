// Package finder runs all configured scrapers and reconciles what they
// produce into the events database, keeping it up to date across runs.
package finder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/donight/donight/app/database"
	"github.com/donight/donight/app/scraper"
)

// Result reports the outcome of one harvest-and-reconcile cycle.
type Result struct {
	Scraped int
	Created int
	Updated int
	Skipped int // events discarded for having no title
	Failed  int // scrapers whose whole batch was excluded
}

type EventFinder struct {
	scrapers   []scraper.Scraper
	reconciler *Reconciler
}

func NewEventFinder(scrapers []scraper.Scraper, repo database.EventRepository) *EventFinder {
	return &EventFinder{
		scrapers:   scrapers,
		reconciler: NewReconciler(repo),
	}
}

// IndexEvents runs every scraper to completion and upserts the aggregate
// batch. Scraper failures are isolated: a failed scraper is logged and its
// batch excluded, the cycle continues with the rest.
func (f *EventFinder) IndexEvents(ctx context.Context) (Result, error) {
	var result Result

	var all []scraper.Event
	for _, s := range f.scrapers {
		events, err := f.scrapeSource(ctx, s)
		if err != nil {
			slog.Error("Scraper failed, excluding its batch", "source", s.Name(), "type", string(s.Type()), "error", err)
			result.Failed++
			continue
		}

		kept := 0
		for _, event := range events {
			if event.Title == "" {
				result.Skipped++
				continue
			}
			all = append(all, event)
			kept++
		}
		slog.Info("Scraper finished", "source", s.Name(), "type", string(s.Type()), "events", kept)
	}

	result.Scraped = len(all)
	slog.Info("Harvest complete", "sources", len(f.scrapers), "failed", result.Failed, "total", result.Scraped, "skipped", result.Skipped)

	if len(all) == 0 {
		return result, nil
	}

	updated, err := f.reconciler.Upsert(ctx, all)
	if err != nil {
		return result, fmt.Errorf("failed to reconcile harvested events: %w", err)
	}
	result.Updated = updated
	result.Created = result.Scraped - updated

	slog.Info("Reconciliation complete", "created", result.Created, "updated", result.Updated)
	return result, nil
}

// scrapeSource drains one scraper's stream. A panicking scraper is reported
// as a failure of that scraper only.
func (f *EventFinder) scrapeSource(ctx context.Context, s scraper.Scraper) (events []scraper.Event, err error) {
	defer func() {
		if r := recover(); r != nil {
			events, err = nil, fmt.Errorf("scraper panicked: %v", r)
		}
	}()

	stream, err := s.Scrape(ctx)
	if err != nil {
		return nil, err
	}

	for {
		event, err := stream.Next(ctx)
		if errors.Is(err, io.EOF) {
			return events, nil
		}
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
}
