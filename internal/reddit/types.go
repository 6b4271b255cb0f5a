package reddit

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Credentials identify a Reddit script or installed app acting on behalf of a user
type Credentials struct {
	UserAgent    string
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// TimeWindow restricts a listing to posts from a recent period.
type TimeWindow string

const (
	TimeHour  TimeWindow = "hour"
	TimeDay   TimeWindow = "day"
	TimeWeek  TimeWindow = "week"
	TimeMonth TimeWindow = "month"
	TimeYear  TimeWindow = "year"
	TimeAll   TimeWindow = "all"
)

var timeWindows = []TimeWindow{TimeHour, TimeDay, TimeWeek, TimeMonth, TimeYear, TimeAll}

// ParseTimeWindow converts a case-insensitive name into a TimeWindow.
func ParseTimeWindow(s string) (TimeWindow, error) {
	value := TimeWindow(strings.ToLower(strings.TrimSpace(s)))
	for _, w := range timeWindows {
		if value == w {
			return w, nil
		}
	}
	return "", fmt.Errorf("unknown time window %q", s)
}

// ListingOptions are sent as query parameters of a listing request
type ListingOptions struct {
	Time  TimeWindow
	Limit int // 0 leaves the page size to Reddit
}

// Post is a submission as returned inside a listing
type Post struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	Author      string  `json:"author"`
	Subreddit   string  `json:"subreddit"`
	Permalink   string  `json:"permalink"`
	URL         string  `json:"url"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
}

type listingResponse struct {
	Kind string `json:"kind"`
	Data struct {
		After    string `json:"after"`
		Children []struct {
			Kind string `json:"kind"`
			Data Post   `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope"`
	Error       string `json:"error"`
}

// APIError is returned when Reddit answers with an unexpected status or payload.
type APIError struct {
	StatusCode int
	// Body holds the raw response body, truncated for long HTML error pages.
	Body string
	Err  error
}

func (e *APIError) Error() string {
	var sb strings.Builder
	sb.WriteString("reddit API error")

	if e.StatusCode != 0 {
		fmt.Fprintf(&sb, ": status %d", e.StatusCode)
	}
	if e.Body != "" {
		fmt.Fprintf(&sb, ", body: %q", e.Body)
	}
	if e.Err != nil {
		fmt.Fprintf(&sb, ", err: %v", e.Err)
	}

	return sb.String()
}

func (e *APIError) Unwrap() error { return e.Err }

const maxErrorBody = 300

func truncateBody(body []byte) string {
	if len(body) > maxErrorBody {
		cut := maxErrorBody
		for cut > 0 && !utf8.RuneStart(body[cut]) {
			cut--
		}
		return string(body[:cut]) + "..."
	}
	return string(body)
}
