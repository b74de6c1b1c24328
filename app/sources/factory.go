package sources

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/donight/donight/app/scraper"
	"github.com/donight/donight/app/scraper/facebook"
)

// Factory turns source configs into ready-to-run scrapers. The browser
// provider, Graph client and token cache are shared across every Facebook
// source so a scraped token is reused between runs.
type Factory struct {
	browsers  facebook.BrowserProvider
	graph     *facebook.GraphClient
	tokens    *facebook.TokenCache
	userAgent string
}

func NewFactory(browsers facebook.BrowserProvider, graph *facebook.GraphClient, tokens *facebook.TokenCache, userAgent string) *Factory {
	return &Factory{
		browsers:  browsers,
		graph:     graph,
		tokens:    tokens,
		userAgent: userAgent,
	}
}

// Build constructs one scraper from its config.
func (f *Factory) Build(config *Config) (scraper.Scraper, error) {
	halt, err := haltCondition(config)
	if err != nil {
		return nil, err
	}

	switch config.Type {
	case "facebook":
		return facebook.New(facebook.Config{
			Name:        config.Name,
			PageURL:     config.URL,
			AccessToken: config.Auth.AccessToken,
			Email:       config.Auth.Email,
			Password:    config.Auth.Password,
			Halt:        halt,
		}, f.browsers, f.graph, f.tokens)
	case "rss":
		return scraper.NewRSSScraper(config.Name, config.URL, config.Location, halt), nil
	case "levontin":
		return scraper.NewLevontinScraper(config.Name, config.URL, f.httpClient(config), halt), nil
	case "ozenbar":
		return scraper.NewOzenBarScraper(config.Name, config.URL, f.httpClient(config), halt), nil
	default:
		return nil, fmt.Errorf("unknown source type: %s", config.Type)
	}
}

// BuildEnabled constructs scrapers for every enabled config. A config that
// fails to build is returned in errs without blocking the rest.
func (f *Factory) BuildEnabled(configs map[string]*Config) ([]scraper.Scraper, []error) {
	var scrapers []scraper.Scraper
	var errs []error

	for _, config := range configs {
		s, err := f.Build(config)
		if err != nil {
			errs = append(errs, fmt.Errorf("source %s: %w", config.Name, err))
			continue
		}
		scrapers = append(scrapers, s)
	}
	return scrapers, errs
}

func (f *Factory) httpClient(config *Config) *resty.Client {
	return resty.New().
		SetTimeout(time.Duration(config.Settings.Timeout)*time.Second).
		SetHeader("User-Agent", f.userAgent)
}

func haltCondition(config *Config) (scraper.HaltCondition, error) {
	var conds []scraper.HaltCondition

	if config.Settings.MaxEvents > 0 {
		conds = append(conds, scraper.MaxCount(config.Settings.MaxEvents))
	}
	if config.Settings.MaxStartTime != "" {
		cutoff, err := time.Parse(time.RFC3339, config.Settings.MaxStartTime)
		if err != nil {
			return nil, fmt.Errorf("invalid max start time: %w", err)
		}
		conds = append(conds, scraper.MaxStartTime(cutoff))
	}

	return scraper.Union(conds...), nil
}
