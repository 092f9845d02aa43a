package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"talk-less/internal/ingest"
	"talk-less/internal/resilience/circuitbreaker"
	"talk-less/internal/resilience/retry"
)

// APIFetcher implements ingest.Fetcher over a generic JSON HTTP API,
// translating the response into FeedItems using the source's configured
// APIFieldMapping. Unlike RSS feeds, an API source has no fixed schema, so
// the mapping is the only thing that tells the fetcher where each article
// attribute lives in the response body.
type APIFetcher struct {
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// NewAPIFetcher builds an APIFetcher around the given HTTP client.
func NewAPIFetcher(client *http.Client) *APIFetcher {
	return &APIFetcher{
		client:         client,
		circuitBreaker: circuitbreaker.New(circuitbreaker.FeedFetchConfig()),
		retryConfig:    retry.FeedFetchConfig(),
	}
}

// Fetch retrieves and maps the JSON response at source.Endpoint.
func (f *APIFetcher) Fetch(ctx context.Context, source ingest.SourceRef) ([]ingest.FeedItem, error) {
	if source.APIMapping == nil {
		return nil, fmt.Errorf("api source %s has no field mapping configured", source.Endpoint)
	}

	var items []ingest.FeedItem
	retryErr := retry.WithBackoff(ctx, f.retryConfig, func() error {
		cbResult, err := f.circuitBreaker.Execute(func() (interface{}, error) {
			return f.doFetch(ctx, source)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("api fetch circuit breaker open, request rejected",
					slog.String("url", source.Endpoint),
					slog.String("state", f.circuitBreaker.State().String()))
			}
			return err
		}
		items = cbResult.([]ingest.FeedItem)
		return nil
	})
	if retryErr != nil {
		return nil, retryErr
	}
	return items, nil
}

func (f *APIFetcher) doFetch(ctx context.Context, source ingest.SourceRef) ([]ingest.FeedItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source.Endpoint, nil)
	if err != nil {
		return nil, err
	}
	if source.Credential != "" {
		req.Header.Set("Authorization", "Bearer "+source.Credential)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, &retry.HTTPError{StatusCode: resp.StatusCode, Message: resp.Status}
	}

	var body interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode api response: %w", err)
	}

	m := source.APIMapping
	rawArray := lookupPath(body, m.ArrayField)
	arr, ok := rawArray.([]interface{})
	if !ok {
		return nil, fmt.Errorf("api response field %q is not an array", m.ArrayField)
	}

	items := make([]ingest.FeedItem, 0, len(arr))
	for _, raw := range arr {
		items = append(items, ingest.FeedItem{
			Title:       lookupString(raw, m.TitleField),
			URL:         lookupString(raw, m.URLField),
			Author:      lookupString(raw, m.AuthorField),
			Content:     lookupString(raw, m.ContentField),
			PublishedAt: parsePublished(lookupString(raw, m.PublishedField)),
		})
	}
	return items, nil
}

// lookupPath walks a dot-separated path through decoded JSON, returning nil
// if any segment is missing or not an object.
func lookupPath(v interface{}, path string) interface{} {
	if path == "" {
		return v
	}
	cur := v
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil
		}
		cur = m[part]
	}
	return cur
}

func lookupString(v interface{}, path string) string {
	s, _ := lookupPath(v, path).(string)
	return s
}

func parsePublished(s string) time.Time {
	if s == "" {
		return time.Now()
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Now()
}
