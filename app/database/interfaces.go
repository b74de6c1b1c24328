package database

import (
	"context"
	"time"
)

// EventStore is the write surface available inside one reconciliation batch.
// All writes through one store belong to a single transaction that commits
// when the Batch callback returns nil.
type EventStore interface {
	// FindSimilar returns a stored event with exactly the given title and
	// location whose start time falls on the given calendar day, or nil.
	FindSimilar(title, location string, day time.Time) (*Event, error)
	Insert(e Event) error
	// Update overwrites every mutable field of the row with the given id.
	Update(id int64, e Event) error
}

type EventRepository interface {
	GetUpcomingEvents(from time.Time) ([]Event, error)
	GetAllEvents() ([]Event, error)
	GetEventCount() (int, error)
	GetEventsMissingDescription(limit int) ([]Event, error)
	UpdateDescription(id int64, description string) error

	// Batch runs fn against a transactional EventStore, committing on nil
	// and rolling back on error.
	Batch(ctx context.Context, fn func(EventStore) error) error
}
