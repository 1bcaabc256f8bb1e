package headlines

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pders01/headlines/internal/config"
	"github.com/pders01/headlines/internal/debuglog"
	"github.com/pders01/headlines/internal/news"
	"golang.org/x/time/rate"
)

const maxBodyBytes = 8 << 20

type newsAPIResponse struct {
	Status       string         `json:"status"`
	TotalResults int            `json:"totalResults"`
	Articles     []news.Article `json:"articles"`
	Code         string         `json:"code"`
	Message      string         `json:"message"`
}

// NewsAPIClient calls a NewsAPI compatible top-headlines endpoint.
type NewsAPIClient struct {
	client    *http.Client
	endpoint  string
	userAgent string
	limiter   *rate.Limiter
}

func NewNewsAPIClient(cfg *config.Config) *NewsAPIClient {
	limit := rate.Inf
	if cfg.API.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.API.RequestsPerSecond)
	}
	return &NewsAPIClient{
		client:    &http.Client{Timeout: cfg.API.HTTPTimeout},
		endpoint:  strings.TrimRight(cfg.API.BaseURL, "/") + "/top-headlines",
		userAgent: cfg.API.UserAgent,
		limiter:   rate.NewLimiter(limit, 1),
	}
}

func (c *NewsAPIClient) FetchHeadlines(ctx context.Context, r Request) ([]news.Article, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &NetworkError{Op: "rate limiter", Err: err}
	}

	q := url.Values{}
	if r.Country != "" {
		q.Set("country", r.Country)
	}
	q.Set("apiKey", r.APIKey)
	q.Set("page", strconv.Itoa(r.Page))
	q.Set("pageSize", strconv.Itoa(r.PageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, &NetworkError{Op: "creating request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	debuglog.WithFields(map[string]any{"page": r.Page, "page_size": r.PageSize, "country": r.Country}).
		Debugf("requesting headlines")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: "fetching headlines", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &NetworkError{Op: "reading response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		herr := &HTTPError{Status: resp.StatusCode}
		var payload newsAPIResponse
		if json.Unmarshal(body, &payload) == nil {
			herr.Code = payload.Code
			herr.Message = payload.Message
		}
		debuglog.Warnf("headline request rejected: %v", herr)
		return nil, herr
	}

	var payload newsAPIResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &NetworkError{Op: "decoding response", Err: err}
	}
	if payload.Status == "error" {
		return nil, &HTTPError{Status: resp.StatusCode, Code: payload.Code, Message: payload.Message}
	}

	if payload.Articles == nil {
		return []news.Article{}, nil
	}
	return payload.Articles, nil
}

// String identifies the endpoint in logs.
func (c *NewsAPIClient) String() string {
	return fmt.Sprintf("newsapi(%s)", c.endpoint)
}
