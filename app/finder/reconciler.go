package finder

import (
	"context"
	"fmt"

	"github.com/donight/donight/app/database"
	"github.com/donight/donight/app/scraper"
)

// Reconciler merges a harvested batch into the events table. An existing
// event with exactly the same title and location, starting on the same
// calendar day, counts as the same real-world event and is overwritten in
// place; everything else is inserted as new.
//
// The matching rule is deliberately loose string equality. Trivial title
// variations produce duplicates and a fuzzy distance would catch more of
// them, but downstream behavior is defined by this exact heuristic, so it
// stays as is.
type Reconciler struct {
	repo database.EventRepository
}

func NewReconciler(repo database.EventRepository) *Reconciler {
	return &Reconciler{repo: repo}
}

// Upsert reconciles one batch atomically and returns how many events were
// updates of existing rows (created = len(events) - updated). A failure
// rolls the whole batch back.
func (r *Reconciler) Upsert(ctx context.Context, events []scraper.Event) (int, error) {
	updated := 0

	err := r.repo.Batch(ctx, func(store database.EventStore) error {
		for _, event := range events {
			existing, err := store.FindSimilar(event.Title, event.Location, event.StartTime)
			if err != nil {
				return err
			}

			row := toRow(event)
			if existing != nil {
				if err := store.Update(existing.ID, row); err != nil {
					return err
				}
				updated++
				continue
			}
			if err := store.Insert(row); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("reconciliation batch failed: %w", err)
	}

	return updated, nil
}

func toRow(e scraper.Event) database.Event {
	return database.Event{
		SourceType:  string(e.Source),
		Title:       e.Title,
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,
		Location:    e.Location,
		Price:       e.Price,
		URL:         e.URL,
		Description: e.Description,
		ImageURL:    e.ImageURL,
		OwnerName:   e.Owner,
		OwnerURL:    e.OwnerURL,
		TicketURL:   e.TicketURL,
	}
}
