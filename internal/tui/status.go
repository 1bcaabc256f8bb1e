package tui

import (
	"fmt"
	"time"
)

// Canonical short status messages used across the app.
const (
	MsgRefreshing      = "Refreshing…"
	MsgRetrying        = "Retrying…"
	MsgNothingToRetry  = "Nothing to retry"
	MsgLoadingHeadline = "Loading headlines…"
	MsgLoadingMore     = "Loading more…"
	MsgLoadingArticle  = "Loading article…"
	MsgEndOfFeed       = "End of feed"
	MsgNoResults       = "No results"
	MsgNoLink          = "Article has no link"
)

// statusTTL is how long a transient status stays visible.
const statusTTL = 4 * time.Second

func MsgResultsCount(n int) string {
	if n == 1 {
		return "1 result"
	}
	return fmt.Sprintf("%d results", n)
}

func MsgIndexedCount(n int) string {
	return fmt.Sprintf("%d headlines indexed", n)
}

func MsgLoadedCount(n int, country string) string {
	if country == "" {
		return fmt.Sprintf("%d loaded", n)
	}
	return fmt.Sprintf("%d loaded • %s", n, country)
}

type status struct {
	text string
	kind StatusKind
	id   int
}

func (s status) render() string {
	switch s.kind {
	case StatusSuccess:
		return StatusSuccessStyle.Render(s.text)
	case StatusWarn:
		return StatusWarnStyle.Render(s.text)
	case StatusError:
		return StatusErrorStyle.Render("✗ " + s.text)
	default:
		return StatusInfoStyle.Render(s.text)
	}
}
