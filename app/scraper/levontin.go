package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	levontinLocation   = "לבונטין 7"
	levontinTimeLayout = "2006-01-02 15:04:05"

	shekelSign = "₪"
)

// Phrases the venue uses for free admission.
var levontinFreeStrings = []string{
	"חינם",
	"כניסה חופשית",
}

type levontinEvent struct {
	Title       string   `json:"title"`
	Start       string   `json:"start"`
	End         string   `json:"end"`
	Description string   `json:"description"`
	URL         string   `json:"url"`
	Image       []string `json:"image"`
}

type levontinResponse struct {
	Events []json.RawMessage `json:"EVENTS"`
}

// LevontinScraper scrapes music shows from the Levontin 7 website, which
// exposes the JSON calendar endpoint its own client uses.
type LevontinScraper struct {
	name   string
	url    string
	client *resty.Client
	halt   HaltCondition
}

func NewLevontinScraper(name, url string, client *resty.Client, halt HaltCondition) *LevontinScraper {
	return &LevontinScraper{name: name, url: url, client: client, halt: halt}
}

func (s *LevontinScraper) Name() string {
	return s.name
}

func (s *LevontinScraper) Type() SourceType {
	return SourceLevontin
}

// Scrape requests the calendar window from three months back to a year ahead
// and normalizes each returned entry. A single malformed entry is logged and
// dropped; only a failed request or an unparseable envelope is fatal.
func (s *LevontinScraper) Scrape(ctx context.Context) (Stream, error) {
	now := time.Now()
	start := now.AddDate(0, -3, 0)
	end := now.AddDate(1, 0, 0)

	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"rhc_action": "get_calendar_events",
			"post_type":  "events",
		}).
		SetFormData(map[string]string{
			"start": strconv.FormatInt(start.Unix(), 10),
			"end":   strconv.FormatInt(end.Unix(), 10),
		}).
		Post(s.url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch calendar: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("calendar endpoint returned HTTP %d", resp.StatusCode())
	}

	var envelope levontinResponse
	if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse calendar response: %w", err)
	}

	events := make([]Event, 0, len(envelope.Events))
	for _, raw := range envelope.Events {
		event, err := s.normalize(raw)
		if err != nil {
			slog.Warn("Skipping unparseable calendar entry", "source", s.name, "error", err)
			continue
		}
		events = append(events, event)
	}

	return NewSliceStream(Truncate(events, s.halt)), nil
}

func (s *LevontinScraper) normalize(raw json.RawMessage) (Event, error) {
	var entry levontinEvent
	if err := json.Unmarshal(raw, &entry); err != nil {
		return Event{}, fmt.Errorf("failed to decode entry: %w", err)
	}

	startTime, err := time.ParseInLocation(levontinTimeLayout, entry.Start, time.Local)
	if err != nil {
		return Event{}, fmt.Errorf("failed to parse start time %q: %w", entry.Start, err)
	}

	var endTime *time.Time
	if parsed, err := time.ParseInLocation(levontinTimeLayout, entry.End, time.Local); err == nil {
		endTime = &parsed
	}

	description := stripLineBreaks(entry.Description)

	var image string
	if len(entry.Image) > 0 {
		image = entry.Image[0]
	}

	return Event{
		Title:       entry.Title,
		StartTime:   startTime,
		EndTime:     endTime,
		Location:    levontinLocation,
		Price:       priceFromDescription(description),
		URL:         entry.URL,
		Description: description,
		ImageURL:    image,
		Source:      SourceLevontin,
	}, nil
}

// stripLineBreaks removes HTML line breaks the venue embeds in descriptions
// meant to be rendered as HTML.
func stripLineBreaks(description string) string {
	description = strings.ReplaceAll(description, "<br>\n", "")
	return strings.ReplaceAll(description, "<br>", "")
}

// priceFromDescription guesses the admission price from free text. The
// calendar entries carry no price field, but most descriptions mention one
// next to a shekel sign.
func priceFromDescription(description string) string {
	for _, free := range levontinFreeStrings {
		if strings.Contains(description, free) {
			return "0"
		}
	}

	if !strings.Contains(description, shekelSign) {
		return ""
	}

	words := strings.Fields(description)
	for i, word := range words {
		if word == shekelSign {
			// The sign is its own word, the amount precedes it.
			if i > 0 {
				return words[i-1]
			}
			return ""
		}
	}
	for _, word := range words {
		if strings.Contains(word, shekelSign) {
			return strings.ReplaceAll(word, shekelSign, "")
		}
	}
	return ""
}
