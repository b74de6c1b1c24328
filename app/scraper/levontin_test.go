package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
)

func levontinBody(entries ...string) string {
	body := `{"EVENTS":[`
	for i, entry := range entries {
		if i > 0 {
			body += ","
		}
		body += entry
	}
	return body + `]}`
}

func TestLevontinScrape(t *testing.T) {
	var gotAction, gotStart, gotEnd string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAction = r.URL.Query().Get("rhc_action")
		r.ParseForm()
		gotStart = r.PostFormValue("start")
		gotEnd = r.PostFormValue("end")

		fmt.Fprint(w, levontinBody(
			`{"title":"Jazz night","start":"2026-04-10 21:00:00","end":"2026-04-10 23:30:00",`+
				`"description":"הכניסה 60 ₪ בערב","url":"https://levontin7.com/e/1","image":["https://img/1.jpg"]}`,
			`{"title":"Free jam","start":"2026-04-11 22:00:00","end":"",`+
				`"description":"כניסה חופשית","url":"https://levontin7.com/e/2","image":[]}`,
			`{"title":"Broken","start":"not a date","end":"","description":"","url":"","image":[]}`,
		))
	}))
	defer server.Close()

	s := NewLevontinScraper("levontin", server.URL, resty.New(), nil)
	stream, err := s.Scrape(context.Background())
	if err != nil {
		t.Fatalf("Scrape failed: %v", err)
	}

	events := drainStream(t, stream)

	if gotAction != "get_calendar_events" {
		t.Errorf("Expected rhc_action query param, got %q", gotAction)
	}
	if gotStart == "" || gotEnd == "" {
		t.Error("Expected epoch start and end form values")
	}

	// The malformed entry is dropped, not fatal.
	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}

	first := events[0]
	if first.Title != "Jazz night" {
		t.Errorf("Expected title 'Jazz night', got %q", first.Title)
	}
	if !first.StartTime.Equal(time.Date(2026, 4, 10, 21, 0, 0, 0, time.Local)) {
		t.Errorf("Unexpected start time %v", first.StartTime)
	}
	if first.EndTime == nil || !first.EndTime.Equal(time.Date(2026, 4, 10, 23, 30, 0, 0, time.Local)) {
		t.Errorf("Unexpected end time %v", first.EndTime)
	}
	if first.Location != levontinLocation {
		t.Errorf("Expected venue location, got %q", first.Location)
	}
	if first.Price != "60" {
		t.Errorf("Expected price 60, got %q", first.Price)
	}
	if first.ImageURL != "https://img/1.jpg" {
		t.Errorf("Unexpected image %q", first.ImageURL)
	}
	if first.Source != SourceLevontin {
		t.Errorf("Unexpected source %q", first.Source)
	}

	second := events[1]
	if second.Price != "0" {
		t.Errorf("Expected free admission price 0, got %q", second.Price)
	}
	if second.EndTime != nil {
		t.Errorf("Expected no end time, got %v", second.EndTime)
	}
}

func TestLevontinScrapeServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	s := NewLevontinScraper("levontin", server.URL, resty.New(), nil)
	if _, err := s.Scrape(context.Background()); err == nil {
		t.Fatal("Expected an error for HTTP 500")
	}
}

func TestPriceFromDescription(t *testing.T) {
	cases := []struct {
		description string
		price       string
	}{
		{"כניסה חופשית לכולם", "0"},
		{"הערב חינם", "0"},
		{"כרטיסים 50 ₪ בקופה", "50"},
		{"כרטיסים 50₪ בקופה", "50"},
		{"אין מחיר", ""},
		{"", ""},
	}

	for _, tc := range cases {
		if got := priceFromDescription(tc.description); got != tc.price {
			t.Errorf("priceFromDescription(%q) = %q, expected %q", tc.description, got, tc.price)
		}
	}
}

func TestStripLineBreaks(t *testing.T) {
	got := stripLineBreaks("line one<br>\nline two<br>end")
	if got != "line oneline twoend" {
		t.Errorf("Unexpected result %q", got)
	}
}
