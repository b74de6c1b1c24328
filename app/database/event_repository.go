package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const eventColumns = `id, source_type, title, start_time, end_time, location, price, url,
       description, image_url, owner_name, owner_url, ticket_url, created_at, updated_at`

// EventRepositoryImpl handles database operations for events.
type EventRepositoryImpl struct {
	db *DB
}

var _ EventRepository = (*EventRepositoryImpl)(nil)

func NewEventRepository(db *DB) *EventRepositoryImpl {
	return &EventRepositoryImpl{db: db}
}

func (r *EventRepositoryImpl) GetUpcomingEvents(from time.Time) ([]Event, error) {
	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	rows, err := r.db.Query(`
		SELECT `+eventColumns+`
		FROM events
		WHERE start_time >= ?
		ORDER BY start_time
	`, day.Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to get upcoming events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func (r *EventRepositoryImpl) GetAllEvents() ([]Event, error) {
	rows, err := r.db.Query(`
		SELECT ` + eventColumns + `
		FROM events
		ORDER BY start_time
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func (r *EventRepositoryImpl) GetEventCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM events").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get event count: %w", err)
	}
	return count, nil
}

func (r *EventRepositoryImpl) GetEventsMissingDescription(limit int) ([]Event, error) {
	rows, err := r.db.Query(`
		SELECT `+eventColumns+`
		FROM events
		WHERE description = '' AND url != ''
		ORDER BY start_time
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get events missing a description: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func (r *EventRepositoryImpl) UpdateDescription(id int64, description string) error {
	_, err := r.db.Exec(`
		UPDATE events
		SET description = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, description, id)
	if err != nil {
		return fmt.Errorf("failed to update event description: %w", err)
	}
	return nil
}

// Batch wraps fn in a single transaction so a mid-batch failure leaves the
// store unchanged.
func (r *EventRepositoryImpl) Batch(ctx context.Context, fn func(EventStore) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(&txEventStore{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("failed to roll back after %w: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

type txEventStore struct {
	tx *sql.Tx
}

func (s *txEventStore) FindSimilar(title, location string, day time.Time) (*Event, error) {
	row := s.tx.QueryRow(`
		SELECT `+eventColumns+`
		FROM events
		WHERE title = ? AND location = ? AND date(start_time) = ?
		LIMIT 1
	`, title, location, day.Format("2006-01-02"))

	event, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find similar event: %w", err)
	}
	return event, nil
}

func (s *txEventStore) Insert(e Event) error {
	_, err := s.tx.Exec(`
		INSERT INTO events (
			source_type, title, start_time, end_time, location, price, url,
			description, image_url, owner_name, owner_url, ticket_url
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.SourceType, e.Title, e.StartTime.Format(timeLayout), formatNullableTime(e.EndTime),
		e.Location, e.Price, e.URL, e.Description, e.ImageURL,
		e.OwnerName, e.OwnerURL, e.TicketURL)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

func (s *txEventStore) Update(id int64, e Event) error {
	_, err := s.tx.Exec(`
		UPDATE events
		SET source_type = ?, title = ?, start_time = ?, end_time = ?, location = ?,
		    price = ?, url = ?, description = ?, image_url = ?, owner_name = ?,
		    owner_url = ?, ticket_url = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, e.SourceType, e.Title, e.StartTime.Format(timeLayout), formatNullableTime(e.EndTime),
		e.Location, e.Price, e.URL, e.Description, e.ImageURL,
		e.OwnerName, e.OwnerURL, e.TicketURL, id)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	return nil
}

func formatNullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(timeLayout)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*Event, error) {
	var event Event
	var startTime, createdAt, updatedAt string
	var endTime sql.NullString

	err := row.Scan(
		&event.ID, &event.SourceType, &event.Title, &startTime, &endTime,
		&event.Location, &event.Price, &event.URL, &event.Description,
		&event.ImageURL, &event.OwnerName, &event.OwnerURL, &event.TicketURL,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if event.StartTime, err = parseStoredTime(startTime); err != nil {
		return nil, fmt.Errorf("invalid start_time for event %d: %w", event.ID, err)
	}
	if endTime.Valid {
		parsed, err := parseStoredTime(endTime.String)
		if err != nil {
			return nil, fmt.Errorf("invalid end_time for event %d: %w", event.ID, err)
		}
		event.EndTime = &parsed
	}
	if event.CreatedAt, err = parseStoredTime(createdAt); err != nil {
		return nil, fmt.Errorf("invalid created_at for event %d: %w", event.ID, err)
	}
	if event.UpdatedAt, err = parseStoredTime(updatedAt); err != nil {
		return nil, fmt.Errorf("invalid updated_at for event %d: %w", event.ID, err)
	}

	return &event, nil
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	var events []Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		events = append(events, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event rows: %w", err)
	}
	return events, nil
}

func parseStoredTime(value string) (time.Time, error) {
	if t, err := time.ParseInLocation(timeLayout, value, time.Local); err == nil {
		return t, nil
	}
	// The sqlite driver converts TIMESTAMP columns to time.Time, which
	// database/sql renders as RFC 3339 when scanned into a string.
	return time.ParseInLocation(time.RFC3339Nano, value, time.Local)
}
