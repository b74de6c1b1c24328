package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmcdole/gofeed"
)

// RSSScraper maps a venue's RSS/Atom feed to events. Venues that publish
// their program as a feed rarely carry structured times beyond the item
// publication date, so the published date doubles as the start time and the
// configured location applies to every item.
type RSSScraper struct {
	name     string
	url      string
	location string
	parser   *gofeed.Parser
	halt     HaltCondition
}

func NewRSSScraper(name, url, location string, halt HaltCondition) *RSSScraper {
	return &RSSScraper{
		name:     name,
		url:      url,
		location: location,
		parser:   gofeed.NewParser(),
		halt:     halt,
	}
}

func (s *RSSScraper) Name() string {
	return s.name
}

func (s *RSSScraper) Type() SourceType {
	return SourceRSS
}

func (s *RSSScraper) Scrape(ctx context.Context) (Stream, error) {
	feed, err := s.parser.ParseURLWithContext(s.url, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	events := make([]Event, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		if item.PublishedParsed == nil {
			slog.Warn("Skipping feed item without a date", "source", s.name, "title", item.Title)
			continue
		}

		event := Event{
			Title:       item.Title,
			StartTime:   item.PublishedParsed.In(time.Local),
			Location:    s.location,
			URL:         item.Link,
			Description: item.Description,
			Source:      SourceRSS,
		}
		if item.Image != nil {
			event.ImageURL = item.Image.URL
		}
		if len(item.Authors) > 0 && item.Authors[0] != nil {
			event.Owner = item.Authors[0].Name
		}

		events = append(events, event)
	}

	return NewSliceStream(Truncate(events, s.halt)), nil
}
