package scraper

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

const ozenBarLocation = "OzenBar"

var (
	dayNumberRegex = regexp.MustCompile(`([0-9]+)`)
	hourRegex      = regexp.MustCompile(`([0-9]+):([0-9]+)`)
)

// OzenBarScraper scrapes music shows from the OzenBar website. The site
// exposes a view that receives a month and a year and returns an HTML list
// of that month's events; the scraper sweeps from three months back to a
// year ahead and parses each returned page.
type OzenBarScraper struct {
	name   string
	url    string
	client *resty.Client
	halt   HaltCondition
}

func NewOzenBarScraper(name, url string, client *resty.Client, halt HaltCondition) *OzenBarScraper {
	return &OzenBarScraper{name: name, url: url, client: client, halt: halt}
}

func (s *OzenBarScraper) Name() string {
	return s.name
}

func (s *OzenBarScraper) Type() SourceType {
	return SourceOzenBar
}

func (s *OzenBarScraper) Scrape(ctx context.Context) (Stream, error) {
	today := time.Now()

	var events []Event
	fetched := 0
	for diff := -3; diff <= 12; diff++ {
		date := today.AddDate(0, diff, 0)

		monthEvents, err := s.scrapeMonth(ctx, date.Year(), int(date.Month()))
		if err != nil {
			slog.Warn("Failed to scrape month page", "source", s.name, "year", date.Year(), "month", int(date.Month()), "error", err)
			continue
		}
		fetched++
		events = append(events, monthEvents...)
	}

	if fetched == 0 {
		return nil, fmt.Errorf("all month pages failed for %s", s.url)
	}

	return NewSliceStream(Truncate(events, s.halt)), nil
}

func (s *OzenBarScraper) scrapeMonth(ctx context.Context, year, month int) ([]Event, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"action": "get_event_showpage",
			"year":   strconv.Itoa(year),
			// The endpoint counts months from zero.
			"month": strconv.Itoa(month - 1),
		}).
		Post(s.url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch month page: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("month page returned HTTP %d", resp.StatusCode())
	}

	body, err := decodeCharset(resp.Body(), resp.Header().Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("failed to decode month page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse month page: %w", err)
	}

	var events []Event
	doc.Find("li").Each(func(i int, sel *goquery.Selection) {
		event, err := s.normalize(sel, year, month)
		if err != nil {
			slog.Warn("Skipping unparseable event element", "source", s.name, "index", i, "error", err)
			return
		}
		events = append(events, event)
	})

	return events, nil
}

func (s *OzenBarScraper) normalize(sel *goquery.Selection, year, month int) (Event, error) {
	title := strings.TrimSpace(sel.Find("h2").First().Text())
	if title == "" {
		return Event{}, fmt.Errorf("event element has no title")
	}

	startTime, err := parseOzenBarTime(sel, year, month)
	if err != nil {
		return Event{}, err
	}

	url, _ := sel.Find("a").First().Attr("href")
	image, _ := sel.Find("img").First().Attr("src")

	return Event{
		Title:       title,
		StartTime:   startTime,
		Location:    ozenBarLocation,
		Price:       strings.TrimSpace(sel.Find("b").First().Text()),
		URL:         url,
		Description: strings.TrimSpace(sel.Find("p").First().Text()),
		ImageURL:    image,
		Source:      SourceOzenBar,
	}, nil
}

// parseOzenBarTime assembles the event start time. The page never repeats
// the year and spells the month in Hebrew, so both come from the requested
// month; the day of month lives in the date element and the hour in the
// times element. Scoping matters because titles may carry digits too.
func parseOzenBarTime(sel *goquery.Selection, year, month int) (time.Time, error) {
	day := dayNumberRegex.FindString(sel.Find("div.date").First().Text())
	if day == "" {
		return time.Time{}, fmt.Errorf("no day of month in event element")
	}
	dayNum, err := strconv.Atoi(day)
	if err != nil || dayNum < 1 || dayNum > 31 {
		return time.Time{}, fmt.Errorf("invalid day of month %q", day)
	}

	hour, minute := 0, 0
	if match := hourRegex.FindStringSubmatch(sel.Find("div.times").First().Text()); match != nil {
		hour, _ = strconv.Atoi(match[1])
		minute, _ = strconv.Atoi(match[2])
	}

	return time.Date(year, time.Month(month), dayNum, hour, minute, 0, 0, time.Local), nil
}

// decodeCharset converts a response body to UTF-8. The venue serves
// windows-1255 pages; anything else is passed through untouched.
func decodeCharset(body []byte, contentType string) ([]byte, error) {
	if !strings.Contains(strings.ToLower(contentType), "windows-1255") {
		return body, nil
	}

	reader := transform.NewReader(bytes.NewReader(body), charmap.Windows1255.NewDecoder())
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
