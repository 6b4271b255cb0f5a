package models

import (
	"encoding/json"
	"time"
)

// PostSummary is the reduced view of a Reddit post that gets printed
type PostSummary struct {
	Title string `json:"title"`
	// Content is the selftext, empty for link posts.
	Content     string    `json:"content"`
	Score       int       `json:"score"`
	NumComments int       `json:"num_comments"`
	Date        time.Time `json:"date"`
}

// MarshalJSON writes Date as an RFC 3339 string. Unlike time.Time's own
// encoder it accepts years outside [0, 9999].
func (s PostSummary) MarshalJSON() ([]byte, error) {
	type summary PostSummary
	return json.Marshal(struct {
		summary
		Date string `json:"date"`
	}{
		summary: summary(s),
		Date:    s.Date.Format(time.RFC3339Nano),
	})
}
