package ingest

import (
	"context"
	"time"
)

// FeedItem is a single raw item surfaced by a feed or API fetcher, before it
// is normalized into an entity.Article.
type FeedItem struct {
	Title       string
	URL         string
	Author      string
	Content     string
	PublishedAt time.Time
}

// Fetcher retrieves the current set of items published by one source.
type Fetcher interface {
	Fetch(ctx context.Context, source SourceRef) ([]FeedItem, error)
}

// SourceRef is the subset of entity.Source a Fetcher needs to do its job.
type SourceRef struct {
	ID         string
	Endpoint   string
	APIMapping *APIFieldMapping
	Credential string
}

// APIFieldMapping mirrors entity.APIFieldMapping; duplicated here so this
// package does not need to import entity just to describe a fetch contract.
type APIFieldMapping struct {
	ArrayField     string
	TitleField     string
	URLField       string
	ContentField   string
	PublishedField string
	AuthorField    string
}

// ContentFetcher fetches and extracts full article content from a URL, for
// feeds whose item content is too short to summarize well.
type ContentFetcher interface {
	FetchContent(ctx context.Context, url string) (string, error)
}

// ContentCache stores previously fetched full-article content keyed by URL,
// so repeated runs do not re-fetch content for articles already seen.
type ContentCache interface {
	Get(ctx context.Context, url string) (content string, ok bool)
	Set(ctx context.Context, url, content string, ttl time.Duration)
}
