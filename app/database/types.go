package database

import (
	"time"
)

// timeLayout is the timezone-naive representation events are stored in.
const timeLayout = "2006-01-02 15:04:05"

// Event is an event row. The db is the interface between scraping events
// and using the scraped information: scrapers only write, applications only
// read.
type Event struct {
	ID          int64
	SourceType  string
	Title       string
	StartTime   time.Time
	EndTime     *time.Time
	Location    string
	Price       string
	URL         string
	Description string
	ImageURL    string
	OwnerName   string
	OwnerURL    string
	TicketURL   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
