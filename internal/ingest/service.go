// Package ingest implements the Ingestor: it polls configured sources,
// normalizes their items into entity.Article, enhances thin content, and
// reports per-source failures without aborting the run (§4.1).
package ingest

import (
	"context"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"talk-less/internal/domain/entity"
	"talk-less/internal/infra/ratelimit"
	"talk-less/internal/observability/metrics"
)

// Config bounds the Ingestor's behavior, sourced from PipelineConfig.
type Config struct {
	MaxConcurrentFetches       int
	FetchTimeout               time.Duration
	MaxArticleAge              time.Duration
	ContentEnhancementMinChars int
	CacheTTL                   time.Duration
}

// Service is the Ingestor. It fans a fetch out across sources concurrently,
// bounded by Config.MaxConcurrentFetches and paced per-source by a
// ratelimit.Registry.
type Service struct {
	rssFetcher     Fetcher
	apiFetcher     Fetcher
	contentFetcher ContentFetcher
	cache          ContentCache
	limiters       *ratelimit.Registry
	config         Config
}

// NewService builds an Ingestor service from its collaborators.
func NewService(rssFetcher, apiFetcher Fetcher, contentFetcher ContentFetcher, cache ContentCache, limiters *ratelimit.Registry, config Config) *Service {
	return &Service{
		rssFetcher:     rssFetcher,
		apiFetcher:     apiFetcher,
		contentFetcher: contentFetcher,
		cache:          cache,
		limiters:       limiters,
		config:         config,
	}
}

// SourceOutcome reports what happened fetching one source, for the run
// report's degraded-mode accounting (§3 RunReport, §7 error taxonomy).
type SourceOutcome struct {
	SourceID string
	Fetched  int
	Filtered int
	Err      error
}

// FetchAll polls every enabled source concurrently and returns the
// normalized, deduplicated articles along with a per-source outcome list.
// A single source's failure never aborts the run: it is recorded in the
// returned outcomes and the Ingestor continues with the rest (§4.1).
func (s *Service) FetchAll(ctx context.Context, sources []entity.Source) ([]entity.Article, []SourceOutcome, error) {
	sem := make(chan struct{}, s.config.MaxConcurrentFetches)
	eg, egCtx := errgroup.WithContext(ctx)

	articlesCh := make(chan entity.Article, 256)
	outcomesCh := make(chan SourceOutcome, len(sources))

	for _, src := range sources {
		src := src
		if !src.Enabled {
			continue
		}

		eg.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()

			outcome := s.fetchSource(egCtx, src, articlesCh)
			outcomesCh <- outcome
			return nil
		})
	}

	go func() {
		_ = eg.Wait()
		close(articlesCh)
		close(outcomesCh)
	}()

	var articles []entity.Article
	seen := make(map[string]struct{})
	for a := range articlesCh {
		if _, dup := seen[a.ID]; dup {
			continue
		}
		seen[a.ID] = struct{}{}
		articles = append(articles, a)
	}

	var outcomes []SourceOutcome
	for o := range outcomesCh {
		outcomes = append(outcomes, o)
	}

	if err := ctx.Err(); err != nil {
		return articles, outcomes, err
	}

	return articles, outcomes, nil
}

func (s *Service) fetchSource(ctx context.Context, src entity.Source, out chan<- entity.Article) SourceOutcome {
	outcome := SourceOutcome{SourceID: src.ID}

	if err := s.limiters.Wait(ctx, src.ID); err != nil {
		outcome.Err = err
		return outcome
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.config.FetchTimeout)
	defer cancel()

	start := time.Now()
	items, err := s.fetcherFor(src).Fetch(fetchCtx, toSourceRef(src))
	metrics.RecordFeedFetch(src.ID, time.Since(start))
	if err != nil {
		metrics.RecordFeedFetchError(src.ID, classifyFetchError(err))
		slog.Warn("feed fetch failed, skipping source",
			slog.String("source_id", src.ID), slog.Any("error", err))
		outcome.Err = err
		return outcome
	}
	metrics.RecordArticlesFetched(src.ID, len(items))

	now := time.Now()
	for _, item := range items {
		article := s.normalize(fetchCtx, src, item)

		if s.config.MaxArticleAge > 0 && now.Sub(article.PublishedAt) > s.config.MaxArticleAge {
			outcome.Filtered++
			metrics.RecordArticleFiltered("too_old")
			continue
		}
		if article.URL == "" || article.Title == "" {
			outcome.Filtered++
			metrics.RecordArticleFiltered("missing_required_field")
			continue
		}

		outcome.Fetched++
		out <- article
	}

	return outcome
}

func (s *Service) fetcherFor(src entity.Source) Fetcher {
	if src.Kind == entity.KindAPI {
		return s.apiFetcher
	}
	return s.rssFetcher
}

func (s *Service) normalize(ctx context.Context, src entity.Source, item FeedItem) entity.Article {
	id := entity.ArticleID(item.URL)
	if item.URL == "" {
		id = entity.ArticleIDFallback(src.ID, item.Title, item.PublishedAt.Format(time.RFC3339))
	}

	return entity.Article{
		ID:          id,
		SourceID:    src.ID,
		Title:       item.Title,
		URL:         item.URL,
		Author:      item.Author,
		PublishedAt: item.PublishedAt,
		Content:     s.enhanceContent(ctx, item),
		FetchedAt:   time.Now(),
	}
}

// enhanceContent fetches full article text for thin feed content, checking
// the cache first and falling back to the feed-provided content on any
// failure. It never returns an error — content enhancement degrading to the
// feed summary is expected, not exceptional (§4.1).
func (s *Service) enhanceContent(ctx context.Context, item FeedItem) string {
	if s.contentFetcher == nil || len(item.Content) >= s.config.ContentEnhancementMinChars {
		return item.Content
	}
	if item.URL == "" {
		return item.Content
	}

	if cached, ok := s.cache.Get(ctx, item.URL); ok {
		metrics.RecordContentCacheHit()
		return pickLonger(cached, item.Content)
	}
	metrics.RecordContentCacheMiss()

	start := time.Now()
	fetched, err := s.contentFetcher.FetchContent(ctx, item.URL)
	if err != nil {
		metrics.RecordContentFetchFailed(time.Since(start))
		slog.Debug("content enhancement failed, using feed content",
			slog.String("url", item.URL), slog.Any("error", err))
		return item.Content
	}
	metrics.RecordContentFetchSuccess(time.Since(start))

	s.cache.Set(ctx, item.URL, fetched, s.config.CacheTTL)
	return pickLonger(fetched, item.Content)
}

func pickLonger(fetched, fallback string) string {
	if len(fetched) > len(fallback) {
		return fetched
	}
	return fallback
}

func toSourceRef(src entity.Source) SourceRef {
	ref := SourceRef{ID: src.ID, Endpoint: src.Endpoint}
	if src.CredentialEnv != "" {
		ref.Credential = os.Getenv(src.CredentialEnv)
	}
	if src.APIMapping != nil {
		ref.APIMapping = &APIFieldMapping{
			ArrayField:     src.APIMapping.ArrayField,
			TitleField:     src.APIMapping.TitleField,
			URLField:       src.APIMapping.URLField,
			ContentField:   src.APIMapping.ContentField,
			PublishedField: src.APIMapping.PublishedField,
			AuthorField:    src.APIMapping.AuthorField,
		}
	}
	return ref
}

func classifyFetchError(err error) string {
	switch {
	case err == context.DeadlineExceeded:
		return "timeout"
	case err == context.Canceled:
		return "canceled"
	default:
		return "fetch_failed"
	}
}
