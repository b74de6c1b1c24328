package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const rssFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Venue program</title>
    <item>
      <title>Open mic</title>
      <link>https://venue.example.com/open-mic</link>
      <description>Bring your own songs</description>
      <pubDate>Fri, 10 Apr 2026 20:00:00 +0300</pubDate>
      <author>events@venue.example.com (The Venue)</author>
    </item>
    <item>
      <title>Dateless item</title>
      <link>https://venue.example.com/dateless</link>
    </item>
  </channel>
</rss>`

func TestRSSScrape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, rssFixture)
	}))
	defer server.Close()

	s := NewRSSScraper("venue-feed", server.URL, "The Venue, Tel Aviv", nil)
	stream, err := s.Scrape(context.Background())
	if err != nil {
		t.Fatalf("Scrape failed: %v", err)
	}
	events := drainStream(t, stream)

	// The item without a publication date is dropped.
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}

	event := events[0]
	if event.Title != "Open mic" {
		t.Errorf("Expected title 'Open mic', got %q", event.Title)
	}
	if event.Location != "The Venue, Tel Aviv" {
		t.Errorf("Expected configured location, got %q", event.Location)
	}
	if event.URL != "https://venue.example.com/open-mic" {
		t.Errorf("Unexpected URL %q", event.URL)
	}
	if event.Source != SourceRSS {
		t.Errorf("Unexpected source %q", event.Source)
	}

	published := time.Date(2026, 4, 10, 20, 0, 0, 0, time.FixedZone("", 3*3600))
	if !event.StartTime.Equal(published) {
		t.Errorf("Expected start time %v, got %v", published, event.StartTime)
	}
	if event.StartTime.Location() != time.Local {
		t.Error("Expected start time in local time")
	}
}

func TestRSSScrapeWithHalt(t *testing.T) {
	fixture := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Venue program</title>
    <item>
      <title>First</title>
      <pubDate>Fri, 10 Apr 2026 20:00:00 +0300</pubDate>
    </item>
    <item>
      <title>Second</title>
      <pubDate>Sat, 11 Apr 2026 20:00:00 +0300</pubDate>
    </item>
  </channel>
</rss>`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, fixture)
	}))
	defer server.Close()

	s := NewRSSScraper("venue-feed", server.URL, "", MaxCount(1))
	stream, err := s.Scrape(context.Background())
	if err != nil {
		t.Fatalf("Scrape failed: %v", err)
	}

	// The event that satisfies the condition is still included.
	events := drainStream(t, stream)
	if len(events) != 1 || events[0].Title != "First" {
		t.Fatalf("Expected only the first event, got %+v", events)
	}
}

func TestRSSScrapeFetchError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	s := NewRSSScraper("venue-feed", server.URL, "", nil)
	if _, err := s.Scrape(context.Background()); err == nil {
		t.Fatal("Expected an error for a missing feed")
	}
}
