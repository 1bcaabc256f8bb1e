// Package paging turns a headline client into a forward-only, key based
// pager: PageSource computes page keys for a single request and Loader
// accumulates pages for one session.
package paging

import (
	"context"
	"errors"
	"fmt"

	"github.com/pders01/headlines/internal/config"
	"github.com/pders01/headlines/internal/headlines"
	"github.com/pders01/headlines/internal/news"
)

// Key is a 1-based page index. NoKey marks an absent key.
type Key int

const (
	NoKey    Key = 0
	FirstKey Key = 1
)

// NetworkPageSize is the unit used for next-key arithmetic.
const NetworkPageSize = config.NetworkPageSize

// Page is one successful response. PrevKey is NoKey only for the first page
// and NextKey is NoKey exactly when Items is empty.
type Page struct {
	Items   []news.Article
	PrevKey Key
	NextKey Key
}

// Kind classifies a failed load.
type Kind int

const (
	// KindNetwork means no usable response arrived.
	KindNetwork Kind = iota
	// KindHTTP means the server answered with a non-2xx status.
	KindHTTP
	// KindCanceled means the load was abandoned by its caller.
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindHTTP:
		return "http"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// LoadError is the only error type PageSource returns.
type LoadError struct {
	Kind   Kind
	Key    Key
	Status int
	Err    error
}

func (e *LoadError) Error() string {
	switch e.Kind {
	case KindHTTP:
		return e.Err.Error()
	case KindCanceled:
		return "request canceled"
	default:
		return fmt.Sprintf("network error: %v", e.Err)
	}
}

func (e *LoadError) Unwrap() error { return e.Err }

// Retryable reports whether retrying the same request can succeed.
func (e *LoadError) Retryable() bool {
	switch e.Kind {
	case KindCanceled:
		return false
	case KindHTTP:
		var herr *headlines.HTTPError
		if errors.As(e.Err, &herr) {
			return herr.Retryable()
		}
		return true
	default:
		return true
	}
}

func classify(key Key, err error) *LoadError {
	var lerr *LoadError
	if errors.As(err, &lerr) {
		return lerr
	}
	if errors.Is(err, context.Canceled) {
		return &LoadError{Kind: KindCanceled, Key: key, Err: err}
	}
	var herr *headlines.HTTPError
	if errors.As(err, &herr) {
		return &LoadError{Kind: KindHTTP, Key: key, Status: herr.Status, Err: err}
	}
	return &LoadError{Kind: KindNetwork, Key: key, Err: err}
}

// FetchConfig is what a session pages over. It is comparable so it can key
// the session registry.
type FetchConfig struct {
	Country  string
	APIKey   string
	PageSize int
}

func FetchConfigFrom(cfg *config.Config) FetchConfig {
	return FetchConfig{
		Country:  cfg.API.Country,
		APIKey:   cfg.API.Key,
		PageSize: cfg.API.PageSize,
	}
}

// Source loads one page for a key.
type Source interface {
	Load(ctx context.Context, key Key, requestedSize int) (Page, error)
}

// PageSource maps keys onto headline client requests. It holds no per-call
// state and performs no retries.
type PageSource struct {
	client headlines.Client
	fc     FetchConfig
}

func NewPageSource(client headlines.Client, fc FetchConfig) *PageSource {
	if fc.PageSize <= 0 {
		fc.PageSize = NetworkPageSize
	}
	return &PageSource{client: client, fc: fc}
}

// Load fetches the page at key. NoKey loads the first page and a
// requestedSize of zero or less uses the configured page size. A non-nil
// error is always a *LoadError.
func (s *PageSource) Load(ctx context.Context, key Key, requestedSize int) (Page, error) {
	if key == NoKey {
		key = FirstKey
	}
	if requestedSize <= 0 {
		requestedSize = s.fc.PageSize
	}

	items, err := s.client.FetchHeadlines(ctx, headlines.Request{
		Country:  s.fc.Country,
		APIKey:   s.fc.APIKey,
		Page:     int(key),
		PageSize: requestedSize,
	})
	if err != nil {
		return Page{}, classify(key, err)
	}
	if items == nil {
		items = []news.Article{}
	}

	page := Page{Items: items, PrevKey: key - 1}
	if key == FirstKey {
		page.PrevKey = NoKey
	}
	if len(items) > 0 {
		page.NextKey = key + keyStep(requestedSize)
	}
	return page, nil
}

// keyStep is how many network pages one request spans. Requests smaller
// than a network page still advance by one so keys are never reused.
func keyStep(requestedSize int) Key {
	if step := Key(requestedSize / NetworkPageSize); step > 0 {
		return step
	}
	return 1
}
