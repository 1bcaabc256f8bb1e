package headlines

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/pders01/headlines/internal/config"
	"github.com/pders01/headlines/internal/news"
)

// FeedClient serves headline pages out of a single RSS, Atom or JSON feed.
// Page 1 downloads and parses the feed; later pages slice that same parse,
// so a feed that changes mid-scroll cannot shift items between pages. Page N
// is the Nth PageSize slice, and paging ends naturally with an empty page.
type FeedClient struct {
	client    *http.Client
	url       string
	userAgent string
	parser    *gofeed.Parser

	mu    sync.Mutex
	items []news.Article
}

func NewFeedClient(cfg *config.Config) *FeedClient {
	return &FeedClient{
		client:    &http.Client{Timeout: cfg.API.HTTPTimeout},
		url:       cfg.Source.FeedURL,
		userAgent: cfg.API.UserAgent,
		parser:    gofeed.NewParser(),
	}
}

func (c *FeedClient) FetchHeadlines(ctx context.Context, r Request) ([]news.Article, error) {
	c.mu.Lock()
	items := c.items
	c.mu.Unlock()

	if r.Page <= 1 || items == nil {
		fetched, err := c.fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.items = fetched
		c.mu.Unlock()
		items = fetched
	}

	page := pageOf(items, r.Page, r.PageSize)
	out := make([]news.Article, len(page))
	copy(out, page)
	return out, nil
}

func (c *FeedClient) fetch(ctx context.Context) ([]news.Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, &NetworkError{Op: "creating request", Err: err}
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/feed+json, application/xml, text/xml")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: "fetching feed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{Status: resp.StatusCode}
	}

	feed, err := c.parser.Parse(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &NetworkError{Op: "parsing feed", Err: err}
	}

	articles := make([]news.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		articles = append(articles, convertItem(feed, item))
	}

	return articles, nil
}

func convertItem(feed *gofeed.Feed, item *gofeed.Item) news.Article {
	a := news.Article{
		URL:         item.Link,
		Title:       item.Title,
		Description: item.Description,
		Content:     item.Content,
		Source:      news.SourceRef{Name: feed.Title},
	}
	if item.Author != nil {
		a.Author = item.Author.Name
	} else if len(item.Authors) > 0 && item.Authors[0] != nil {
		a.Author = item.Authors[0].Name
	}
	if item.Image != nil {
		a.ImageURL = item.Image.URL
	} else {
		for _, enc := range item.Enclosures {
			if enc != nil && strings.HasPrefix(enc.Type, "image/") {
				a.ImageURL = enc.URL
				break
			}
		}
	}
	switch {
	case item.PublishedParsed != nil:
		a.PublishedAt = item.PublishedParsed.UTC().Format(time.RFC3339)
	case item.UpdatedParsed != nil:
		a.PublishedAt = item.UpdatedParsed.UTC().Format(time.RFC3339)
	}
	return a
}

func pageOf(items []news.Article, page, size int) []news.Article {
	if page < 1 || size <= 0 {
		return []news.Article{}
	}
	start := (page - 1) * size
	if start >= len(items) {
		return []news.Article{}
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
