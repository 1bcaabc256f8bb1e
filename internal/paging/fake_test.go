package paging

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pders01/headlines/internal/headlines"
	"github.com/pders01/headlines/internal/news"
)

const testTimeout = 2 * time.Second

type reply struct {
	items []news.Article
	err   error
}

type pendingCall struct {
	req   headlines.Request
	reply chan reply
}

func (c *pendingCall) respond(items []news.Article, err error) {
	c.reply <- reply{items: items, err: err}
}

// gatedClient parks every request until the test answers it.
type gatedClient struct {
	calls chan *pendingCall
}

func newGatedClient() *gatedClient {
	return &gatedClient{calls: make(chan *pendingCall, 16)}
}

func (g *gatedClient) FetchHeadlines(ctx context.Context, req headlines.Request) ([]news.Article, error) {
	c := &pendingCall{req: req, reply: make(chan reply, 1)}
	g.calls <- c
	select {
	case r := <-c.reply:
		return r.items, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (g *gatedClient) next(t *testing.T) *pendingCall {
	t.Helper()
	select {
	case c := <-g.calls:
		return c
	case <-time.After(testTimeout):
		t.Fatal("timed out waiting for a request")
		return nil
	}
}

func (g *gatedClient) assertIdle(t *testing.T) {
	t.Helper()
	select {
	case c := <-g.calls:
		t.Fatalf("unexpected request for page %d", c.req.Page)
	case <-time.After(20 * time.Millisecond):
	}
}

func articles(prefix string, n int) []news.Article {
	out := make([]news.Article, n)
	for i := range out {
		out[i] = news.Article{
			URL:   fmt.Sprintf("https://news.test/%s/%d", prefix, i),
			Title: fmt.Sprintf("%s %d", prefix, i),
		}
	}
	return out
}

func wait(t *testing.T, op *Op) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()
	err := op.Wait(ctx)
	if err == context.DeadlineExceeded {
		t.Fatal("timed out waiting for op")
	}
	return err
}
