package facebook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"time"

	"github.com/donight/donight/app/scraper"
)

var eventIDRegex = regexp.MustCompile(`/events/(?P<id>\d+)($|/|\?)`)

const (
	// Anchors are tagged once handled so re-scans never reprocess them.
	nextAnchorScript = `(function() {
	var anchor = document.querySelector('a[href*="/events/"]:not([data-already-handled])');
	if (anchor === null) { return ""; }
	anchor.setAttribute("data-already-handled", "true");
	return anchor.getAttribute("href") || "";
})()`

	loadingVisibleScript = `(function() {
	var loaders = document.getElementsByClassName("uiMorePagerLoader");
	if (loaders.length === 0) { return false; }
	var last = loaders[loaders.length - 1];
	return getComputedStyle(last).display !== "none";
})()`

	feedErrorVisibleScript = `(function() {
	return document.querySelector("div.uiErrorFrame") !== null;
})()`

	scrollPositionScript = `window.pageYOffset`
)

const (
	loadingPollInterval = 250 * time.Millisecond
	loadingWaitTimeout  = 10 * time.Second
)

// Config describes one scraped page. Authentication is either a directly
// supplied access token (no recovery possible when it expires) or an
// email/password pair used to drive the token tool.
type Config struct {
	Name        string
	PageURL     string
	AccessToken string
	Email       string
	Password    string
	Halt        scraper.HaltCondition
}

// Scraper walks a page's infinite-scroll feed, extracts event identifiers
// from anchors and resolves each one through the Graph API.
type Scraper struct {
	cfg      Config
	browsers BrowserProvider
	graph    *GraphClient
	tokens   *TokenCache
}

func New(cfg Config, browsers BrowserProvider, graph *GraphClient, tokens *TokenCache) (*Scraper, error) {
	if cfg.PageURL == "" {
		return nil, fmt.Errorf("page URL is required")
	}
	if cfg.AccessToken == "" && (cfg.Email == "" || cfg.Password == "") {
		return nil, fmt.Errorf("expecting an access token or email and password")
	}
	return &Scraper{cfg: cfg, browsers: browsers, graph: graph, tokens: tokens}, nil
}

func (s *Scraper) Name() string {
	return s.cfg.Name
}

func (s *Scraper) Type() scraper.SourceType {
	return scraper.SourceFacebook
}

// Scrape acquires a browser tab for this run and returns a lazy stream over
// the feed. The tab is released when the stream reaches a terminal state.
func (s *Scraper) Scrape(ctx context.Context) (scraper.Stream, error) {
	browser, release, err := s.browsers.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire browser: %w", err)
	}

	return &eventStream{
		cfg:     s.cfg,
		browser: browser,
		release: release,
		graph:   s.graph,
		tokens:  s.tokens,
		seen:    make(map[string]struct{}),
		state:   stateNavigating,
	}, nil
}

type streamState int

const (
	stateNavigating streamState = iota
	stateScanning
	stateLoadingMore
	stateStopped
	stateFailed
)

// eventStream is the pagination state machine, retained between Next calls.
type eventStream struct {
	cfg     Config
	browser Browser
	release func()
	graph   *GraphClient
	tokens  *TokenCache

	seen      map[string]struct{}
	token     string
	refreshed bool
	state     streamState
	err       error
}

func (s *eventStream) Next(ctx context.Context) (scraper.Event, error) {
	for {
		if s.state != stateStopped && s.state != stateFailed {
			if err := ctx.Err(); err != nil {
				return s.fail(err)
			}
		}

		switch s.state {
		case stateNavigating:
			if err := s.browser.Navigate(ctx, s.cfg.PageURL); err != nil {
				return s.fail(fmt.Errorf("failed to open feed page: %w", err))
			}
			s.state = stateScanning

		case stateScanning:
			href, err := s.nextAnchorHref(ctx)
			if err != nil {
				return s.fail(err)
			}
			if href == "" {
				s.state = stateLoadingMore
				continue
			}

			id, ok := parseEventID(href)
			if !ok {
				// Not really an event anchor.
				continue
			}
			if _, dup := s.seen[id]; dup {
				continue
			}
			// Marked before the resolution attempt: if resolving fails now,
			// it is assumed to fail for this id for the rest of the run.
			s.seen[id] = struct{}{}

			event, ok, err := s.resolve(ctx, id)
			if err != nil {
				return s.fail(err)
			}
			if !ok {
				continue
			}

			if s.cfg.Halt != nil {
				if signal := s.cfg.Halt.ShouldStop(event); signal.Stop {
					slog.Info("Halt condition met", "source", s.cfg.Name, "reason", signal.Reason)
					s.stop()
				}
			}
			return event, nil

		case stateLoadingMore:
			more, err := s.loadMore(ctx)
			if err != nil {
				return s.fail(err)
			}
			if !more {
				slog.Info("No more events to scrape", "source", s.cfg.Name, "page_url", s.cfg.PageURL)
				s.stop()
				continue
			}
			s.state = stateScanning

		case stateStopped:
			return scraper.Event{}, io.EOF

		case stateFailed:
			return scraper.Event{}, s.err
		}
	}
}

func (s *eventStream) stop() {
	if s.state != stateStopped {
		s.state = stateStopped
		s.release()
	}
}

func (s *eventStream) fail(err error) (scraper.Event, error) {
	if s.state != stateFailed {
		s.state = stateFailed
		s.err = err
		s.release()
	}
	return scraper.Event{}, s.err
}

func (s *eventStream) nextAnchorHref(ctx context.Context) (string, error) {
	var href string
	if err := s.browser.ExecuteScript(ctx, nextAnchorScript, &href); err != nil {
		return "", fmt.Errorf("failed to scan for event anchors: %w", err)
	}
	return href, nil
}

func parseEventID(href string) (string, bool) {
	match := eventIDRegex.FindStringSubmatch(href)
	if match == nil {
		return "", false
	}
	return match[1], true
}

// loadMore triggers infinite scroll and reports whether new content arrived.
// A "try refreshing" feed error and a load timeout are both transient:
// recovered with at most one automatic page refresh per run, fatal on the
// second occurrence.
func (s *eventStream) loadMore(ctx context.Context) (bool, error) {
	var before float64
	if err := s.browser.ExecuteScript(ctx, scrollPositionScript, &before); err != nil {
		return false, fmt.Errorf("failed to read scroll position: %w", err)
	}

	if err := s.browser.ScrollToBottom(ctx); err != nil {
		return false, fmt.Errorf("failed to scroll feed: %w", err)
	}

	var feedError bool
	if err := s.browser.ExecuteScript(ctx, feedErrorVisibleScript, &feedError); err != nil {
		return false, fmt.Errorf("failed to check feed state: %w", err)
	}
	if feedError {
		return true, s.recoverTransient(ctx, "feed asked for a refresh")
	}

	var loading bool
	if err := s.browser.ExecuteScript(ctx, loadingVisibleScript, &loading); err != nil {
		return false, fmt.Errorf("failed to check loading indicator: %w", err)
	}
	if !loading {
		var after float64
		if err := s.browser.ExecuteScript(ctx, scrollPositionScript, &after); err != nil {
			return false, fmt.Errorf("failed to read scroll position: %w", err)
		}
		// No indicator and no movement means the feed is exhausted.
		return after != before, nil
	}

	if err := s.waitLoadingGone(ctx); err != nil {
		return true, s.recoverTransient(ctx, "feed is taking too long to load new posts")
	}
	return true, nil
}

func (s *eventStream) recoverTransient(ctx context.Context, reason string) error {
	if s.refreshed {
		return fmt.Errorf("%s again after an automatic refresh", reason)
	}
	slog.Warn("Transient feed failure, refreshing page once", "source", s.cfg.Name, "reason", reason)
	s.refreshed = true
	if err := s.browser.Refresh(ctx); err != nil {
		return fmt.Errorf("failed to refresh feed page: %w", err)
	}
	return nil
}

func (s *eventStream) waitLoadingGone(ctx context.Context) error {
	deadline := time.Now().Add(loadingWaitTimeout)
	for {
		var loading bool
		if err := s.browser.ExecuteScript(ctx, loadingVisibleScript, &loading); err != nil {
			return err
		}
		if !loading {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("loading indicator still visible after %s", loadingWaitTimeout)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(loadingPollInterval):
		}
	}
}

// resolve materializes one identifier through the Graph API. The boolean
// reports whether an event was produced; identifier-level failures are
// logged and skipped, only unrecoverable authentication failures are
// returned as errors.
func (s *eventStream) resolve(ctx context.Context, id string) (scraper.Event, bool, error) {
	token, err := s.accessToken(ctx)
	if err != nil {
		return scraper.Event{}, false, err
	}

	raw, err := s.graph.Event(ctx, id, token)

	var authErr *AuthError
	if errors.As(err, &authErr) {
		if s.cfg.AccessToken != "" {
			// The token was supplied directly, there is nothing to recover with.
			return scraper.Event{}, false, fmt.Errorf("supplied access token rejected: %w", err)
		}

		slog.Warn("Access token rejected, re-acquiring credentials", "source", s.cfg.Name, "event_id", id)
		s.tokens.Invalidate(s.cfg.Email)
		s.token = ""

		token, err = s.accessToken(ctx)
		if err != nil {
			return scraper.Event{}, false, err
		}

		raw, err = s.graph.Event(ctx, id, token)
		if errors.As(err, &authErr) {
			// Recovery already happened once for this id; give up on it only.
			slog.Error("Event still unauthorized after credential recovery, skipping", "source", s.cfg.Name, "event_id", id)
			return scraper.Event{}, false, nil
		}
	}

	if err != nil {
		slog.Error("Error scraping event, skipping", "source", s.cfg.Name, "event_id", id, "error", err)
		return scraper.Event{}, false, nil
	}

	if raw.IsCanceled {
		slog.Debug("Skipping cancelled event", "source", s.cfg.Name, "event_id", id)
		return scraper.Event{}, false, nil
	}

	event, err := s.normalize(raw, id)
	if err != nil {
		slog.Error("Failed to normalize event, skipping", "source", s.cfg.Name, "event_id", id, "error", err)
		return scraper.Event{}, false, nil
	}
	return event, true, nil
}

// accessToken returns the token for this run: the directly supplied one,
// the run-local one, the process-wide cached one for this identity, or a
// freshly scraped one (which is then cached).
func (s *eventStream) accessToken(ctx context.Context) (string, error) {
	if s.cfg.AccessToken != "" {
		return s.cfg.AccessToken, nil
	}
	if s.token != "" {
		return s.token, nil
	}
	if token, ok := s.tokens.Get(s.cfg.Email); ok {
		s.token = token
		return token, nil
	}

	token, err := scrapeAccessToken(ctx, s.browser, s.cfg.Email, s.cfg.Password)
	if err != nil {
		return "", fmt.Errorf("failed to acquire access token: %w", err)
	}
	s.tokens.Put(s.cfg.Email, token)
	s.token = token

	// The token flow navigated away from the feed; go back to where the
	// pagination left off on the next scan.
	if err := s.browser.Navigate(ctx, s.cfg.PageURL); err != nil {
		return "", fmt.Errorf("failed to return to feed page: %w", err)
	}
	return token, nil
}

func (s *eventStream) normalize(raw *RawEvent, id string) (scraper.Event, error) {
	if raw.StartTime == "" {
		return scraper.Event{}, fmt.Errorf("event has no start time")
	}
	startTime, err := parseGraphTime(raw.StartTime)
	if err != nil {
		return scraper.Event{}, fmt.Errorf("failed to parse start time: %w", err)
	}

	var endTime *time.Time
	if raw.EndTime != "" {
		if parsed, err := parseGraphTime(raw.EndTime); err == nil {
			endTime = &parsed
		}
	}

	eventID := raw.ID
	if eventID == "" {
		eventID = id
	}

	event := scraper.Event{
		Title:       raw.Name,
		StartTime:   startTime,
		EndTime:     endTime,
		Location:    raw.Place.Name,
		URL:         "https://www.facebook.com/events/" + eventID,
		Description: raw.Description,
		ImageURL:    raw.Cover.Source,
		Owner:       raw.Owner.Name,
		TicketURL:   raw.TicketURI,
		Source:      scraper.SourceFacebook,
	}
	if raw.Owner.ID != "" {
		event.OwnerURL = "https://www.facebook.com/" + raw.Owner.ID
	}
	return event, nil
}
