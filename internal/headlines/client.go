// Package headlines talks to the remote headline providers. Every client
// returns articles in provider order, and every failure is either a
// *NetworkError or an *HTTPError.
package headlines

import (
	"context"

	"github.com/pders01/headlines/internal/news"
)

// Request is forwarded verbatim to the provider.
type Request struct {
	Country  string
	APIKey   string
	Page     int
	PageSize int
}

// Client fetches one page of headlines.
type Client interface {
	FetchHeadlines(ctx context.Context, req Request) ([]news.Article, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, req Request) ([]news.Article, error)

func (f ClientFunc) FetchHeadlines(ctx context.Context, req Request) ([]news.Article, error) {
	return f(ctx, req)
}
