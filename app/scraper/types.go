package scraper

import (
	"time"
)

type SourceType string

const (
	SourceFacebook SourceType = "facebook"
	SourceRSS      SourceType = "rss"
	SourceLevontin SourceType = "levontin"
	SourceOzenBar  SourceType = "ozenbar"
)

// Event is the normalized record every scraper produces, regardless of how
// the source publishes its data. Identity is not carried here: two events
// denote the same real-world event when title and location match exactly and
// the start time falls on the same calendar day (see finder.Reconciler).
type Event struct {
	Title       string
	StartTime   time.Time
	EndTime     *time.Time
	Location    string
	Price       string
	URL         string
	Description string
	ImageURL    string
	Owner       string
	OwnerURL    string
	TicketURL   string
	Source      SourceType
}
