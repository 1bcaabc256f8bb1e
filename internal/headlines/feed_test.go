package headlines

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/pders01/headlines/internal/config"
	"github.com/pders01/headlines/internal/news"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rssWithItems(n int) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?><rss version="2.0"><channel><title>Wire</title>`)
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, `<item><title>Story %d</title><link>https://wire.test/%d</link>`+
			`<description>Desc %d</description><pubDate>Fri, 16 Oct 2026 08:00:00 GMT</pubDate></item>`, i, i, i)
	}
	b.WriteString(`</channel></rss>`)
	return b.String()
}

func newTestFeedClient(t *testing.T, handler http.HandlerFunc) *FeedClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.TestConfig()
	cfg.Source.Kind = config.SourceFeed
	cfg.Source.FeedURL = server.URL + "/rss.xml"
	return NewFeedClient(cfg)
}

func TestFeedClient_Pages(t *testing.T) {
	client := newTestFeedClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(rssWithItems(5)))
	})

	first, err := client.FetchHeadlines(context.Background(), Request{Page: 1, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "Story 1", first[0].Title)
	assert.Equal(t, "Wire", first[0].SourceName())
	assert.Equal(t, "2026-10-16T08:00:00Z", first[0].PublishedAt)

	last, err := client.FetchHeadlines(context.Background(), Request{Page: 3, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, "https://wire.test/5", last[0].URL)

	past, err := client.FetchHeadlines(context.Background(), Request{Page: 4, PageSize: 2})
	require.NoError(t, err)
	assert.Empty(t, past)
}

func TestFeedClient_LaterPagesKeepFirstParse(t *testing.T) {
	var hits atomic.Int32
	client := newTestFeedClient(t, func(w http.ResponseWriter, r *http.Request) {
		// Each download carries one more story, as if the feed grew.
		n := int(hits.Add(1)) + 3
		_, _ = w.Write([]byte(rssWithItems(n)))
	})

	first, err := client.FetchHeadlines(context.Background(), Request{Page: 1, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := client.FetchHeadlines(context.Background(), Request{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, "https://wire.test/3", second[0].URL)
	assert.Equal(t, int32(1), hits.Load(), "later pages reuse the first download")

	past, err := client.FetchHeadlines(context.Background(), Request{Page: 3, PageSize: 2})
	require.NoError(t, err)
	assert.Empty(t, past)

	_, err = client.FetchHeadlines(context.Background(), Request{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load(), "page 1 downloads again")

	grown, err := client.FetchHeadlines(context.Background(), Request{Page: 3, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, grown, 1)
	assert.Equal(t, "https://wire.test/5", grown[0].URL)
}

func TestFeedClient_LaterPageWithoutFirst(t *testing.T) {
	client := newTestFeedClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(rssWithItems(5)))
	})

	page, err := client.FetchHeadlines(context.Background(), Request{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "https://wire.test/3", page[0].URL)
}

func TestFeedClient_Errors(t *testing.T) {
	t.Run("non-2xx", func(t *testing.T) {
		client := newTestFeedClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
		_, err := client.FetchHeadlines(context.Background(), Request{Page: 1, PageSize: 20})

		var herr *HTTPError
		require.True(t, errors.As(err, &herr))
		assert.Equal(t, http.StatusNotFound, herr.Status)
	})

	t.Run("unparseable", func(t *testing.T) {
		client := newTestFeedClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("definitely not a feed"))
		})
		_, err := client.FetchHeadlines(context.Background(), Request{Page: 1, PageSize: 20})

		var nerr *NetworkError
		require.True(t, errors.As(err, &nerr))
		assert.Equal(t, "parsing feed", nerr.Op)
	})
}

func TestPageOf(t *testing.T) {
	items := []news.Article{{URL: "a"}, {URL: "b"}, {URL: "c"}}

	tests := []struct {
		name       string
		page, size int
		want       []string
	}{
		{"first page", 1, 2, []string{"a", "b"}},
		{"short last page", 2, 2, []string{"c"}},
		{"past the end", 3, 2, nil},
		{"page zero", 0, 2, nil},
		{"zero size", 1, 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pageOf(items, tt.page, tt.size)
			require.NotNil(t, got)
			urls := make([]string, 0, len(got))
			for _, a := range got {
				urls = append(urls, a.URL)
			}
			if tt.want == nil {
				assert.Empty(t, urls)
				return
			}
			assert.Equal(t, tt.want, urls)
		})
	}
}

func TestHTTPError_Retryable(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{400, false},
		{401, false},
		{404, false},
		{408, true},
		{429, true},
		{500, true},
		{503, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, (&HTTPError{Status: tt.status}).Retryable(), "status %d", tt.status)
	}
}

func TestClientFunc(t *testing.T) {
	var got Request
	c := ClientFunc(func(ctx context.Context, r Request) ([]news.Article, error) {
		got = r
		return nil, nil
	})
	_, err := c.FetchHeadlines(context.Background(), Request{Page: 7})
	require.NoError(t, err)
	assert.Equal(t, 7, got.Page)
}
