package scraper

import (
	"context"
	"io"
)

// Scraper produces events for a single source. Implementations own their
// parsing and normalization: a single malformed record is logged and skipped,
// only conditions that make the whole source unusable surface as errors.
type Scraper interface {
	Name() string
	Type() SourceType
	Scrape(ctx context.Context) (Stream, error)
}

// Stream is a pull-based sequence of events. Next returns io.EOF after the
// last event; any other error is fatal for the source and terminal for the
// stream.
type Stream interface {
	Next(ctx context.Context) (Event, error)
}

type sliceStream struct {
	events []Event
	pos    int
}

// NewSliceStream wraps an already materialized batch in a Stream. Adapters
// that fetch everything in one request use this to satisfy the Scraper
// contract.
func NewSliceStream(events []Event) Stream {
	return &sliceStream{events: events}
}

func (s *sliceStream) Next(ctx context.Context) (Event, error) {
	if err := ctx.Err(); err != nil {
		return Event{}, err
	}
	if s.pos >= len(s.events) {
		return Event{}, io.EOF
	}
	e := s.events[s.pos]
	s.pos++
	return e, nil
}

// Truncate applies a halt condition to a materialized batch: every event is
// evaluated in order and the batch is cut after the first one that signals
// stop. A nil condition returns the batch unchanged.
func Truncate(events []Event, cond HaltCondition) []Event {
	if cond == nil {
		return events
	}
	for i, e := range events {
		if signal := cond.ShouldStop(e); signal.Stop {
			return events[:i+1]
		}
	}
	return events
}
