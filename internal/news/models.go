package news

import (
	"strings"
	"time"
)

// Fallback text used when the API omits optional fields.
const (
	NoTitle       = "No title"
	NoDescription = "No description"
)

type SourceRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Article is one headline as delivered by the API. URL is the identity key.
// Absent text fields are empty strings; use the Display helpers for fallbacks.
type Article struct {
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Author      string    `json:"author"`
	ImageURL    string    `json:"urlToImage"`
	PublishedAt string    `json:"publishedAt"`
	Content     string    `json:"content"`
	Source      SourceRef `json:"source"`
}

func (a Article) DisplayTitle() string {
	if t := strings.TrimSpace(a.Title); t != "" {
		return t
	}
	return NoTitle
}

func (a Article) DisplayDescription() string {
	if d := strings.TrimSpace(a.Description); d != "" {
		return d
	}
	return NoDescription
}

// SourceName returns the publisher name, falling back to the source id.
func (a Article) SourceName() string {
	if a.Source.Name != "" {
		return a.Source.Name
	}
	return a.Source.ID
}

// Published parses PublishedAt. The zero time is returned when the API sent
// nothing usable.
func (a Article) Published() time.Time {
	s := strings.TrimSpace(a.PublishedAt)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
