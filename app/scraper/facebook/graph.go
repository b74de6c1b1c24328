package facebook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultGraphURL is the production Graph API endpoint. Tests point the
// client at a local server instead.
const DefaultGraphURL = "https://graph.facebook.com/v2.5"

const graphEventFields = "place,name,description,start_time,end_time,ticket_uri,is_canceled,cover,owner"

// ErrEventNotFound is returned when the remote lookup cannot find the event.
var ErrEventNotFound = errors.New("event not found")

// AuthError reports that the Graph API rejected the supplied access token.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("access token rejected: %s", e.Message)
}

// RawEvent carries the fields the Graph API returns for one event, before
// normalization.
type RawEvent struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	TicketURI   string `json:"ticket_uri"`
	IsCanceled  bool   `json:"is_canceled"`
	Place       struct {
		Name string `json:"name"`
	} `json:"place"`
	Cover struct {
		Source string `json:"source"`
	} `json:"cover"`
	Owner struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"owner"`
}

type graphErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// GraphClient resolves event identifiers to raw event fields through the
// Graph API.
type GraphClient struct {
	client  *resty.Client
	baseURL string
}

func NewGraphClient(client *resty.Client, baseURL string) *GraphClient {
	if baseURL == "" {
		baseURL = DefaultGraphURL
	}
	return &GraphClient{client: client, baseURL: baseURL}
}

// Event fetches one event by identifier. A rejected token surfaces as
// *AuthError, an unknown identifier as ErrEventNotFound.
func (c *GraphClient) Event(ctx context.Context, id, accessToken string) (*RawEvent, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("fields", graphEventFields).
		SetQueryParam("access_token", accessToken).
		Get(c.baseURL + "/" + id)
	if err != nil {
		return nil, fmt.Errorf("graph request failed: %w", err)
	}

	if resp.StatusCode() != 200 {
		var graphErr graphErrorResponse
		if err := json.Unmarshal(resp.Body(), &graphErr); err == nil {
			if graphErr.Error.Type == "OAuthException" {
				return nil, &AuthError{Message: graphErr.Error.Message}
			}
			if resp.StatusCode() == 404 || graphErr.Error.Code == 100 {
				return nil, fmt.Errorf("event %s: %w", id, ErrEventNotFound)
			}
			return nil, fmt.Errorf("graph error for event %s: %s", id, graphErr.Error.Message)
		}
		return nil, fmt.Errorf("graph returned HTTP %d for event %s", resp.StatusCode(), id)
	}

	var event RawEvent
	if err := json.Unmarshal(resp.Body(), &event); err != nil {
		return nil, fmt.Errorf("failed to decode event %s: %w", id, err)
	}

	return &event, nil
}

var graphTimeLayouts = []string{
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseGraphTime parses a Graph API datetime and converts it to local time.
// The offset is dropped after conversion since downstream storage is
// timezone-naive.
func parseGraphTime(value string) (time.Time, error) {
	for _, layout := range graphTimeLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			local := t.In(time.Local)
			return time.Date(local.Year(), local.Month(), local.Day(),
				local.Hour(), local.Minute(), local.Second(), 0, time.Local), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized datetime %q", value)
}
