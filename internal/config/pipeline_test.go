package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePipelineFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadPipelineConfig_FullDocument(t *testing.T) {
	path := writePipelineFile(t, `
max_article_age: 24h
max_concurrent_fetches: 4
fetch_timeout: 10s
cache_ttl: 1h
grouping:
  similarity_threshold: 0.8
  min_articles_per_group: 3
  max_articles_per_group: 10
summarization:
  provider: claude
  model: claude-sonnet
  temperature: 0.2
  min_summary_length: 300
  max_summary_length: 900
  max_retries: 1
  required_citation_coverage: 3
  max_concurrent_summaries: 2
`)

	cfg, err := LoadPipelineConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 24*time.Hour, cfg.MaxArticleAge)
	assert.Equal(t, 4, cfg.MaxConcurrentFetches)
	assert.Equal(t, 0.8, cfg.Grouping.SimilarityThreshold)
	assert.Equal(t, 3, cfg.Grouping.MinArticlesPerGroup)
	assert.Equal(t, "claude", cfg.Summarization.Provider)
	assert.Equal(t, 3, cfg.Summarization.RequiredCitationCoverage)
}

func TestLoadPipelineConfig_AppliesDefaultsForOmittedFields(t *testing.T) {
	path := writePipelineFile(t, `
summarization:
  provider: openai
  model: gpt-test
`)

	cfg, err := LoadPipelineConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 48*time.Hour, cfg.MaxArticleAge)
	assert.Equal(t, 8, cfg.MaxConcurrentFetches)
	assert.Equal(t, 15*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 6*time.Hour, cfg.CacheTTL)
	assert.Equal(t, 0.7, cfg.Grouping.SimilarityThreshold)
	assert.Equal(t, 2, cfg.Grouping.MinArticlesPerGroup)
	assert.Equal(t, 25, cfg.Grouping.MaxArticlesPerGroup)
	assert.Equal(t, 0.3, cfg.Summarization.Temperature)
	assert.Equal(t, 400, cfg.Summarization.MinSummaryLength)
	assert.Equal(t, 1200, cfg.Summarization.MaxSummaryLength)
	assert.Equal(t, "v1", cfg.Summarization.PromptVersion)
	assert.Equal(t, 2.0, cfg.BiasDetection.PerArticleScoreThreshold)
}

func TestLoadPipelineConfig_StrictConfigFlagRejectsUnknownKeys(t *testing.T) {
	path := writePipelineFile(t, `
strict_config: true
max_article_age: 24h
bogus_top_level: yes
`)

	_, err := LoadPipelineConfig(path)
	assert.Error(t, err)
}

func TestLoadPipelineConfig_NonStrictIgnoresUnknownKeys(t *testing.T) {
	path := writePipelineFile(t, `
max_article_age: 24h
bogus_top_level: yes
`)

	cfg, err := LoadPipelineConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, cfg.MaxArticleAge)
}

func TestLoadPipelineConfig_CacheURLEnvOverlay(t *testing.T) {
	t.Setenv("CACHE_URL", "redis://cache.internal:6379")

	path := writePipelineFile(t, `
cache_endpoint: redis://placeholder:6379
`)

	cfg, err := LoadPipelineConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "redis://cache.internal:6379", cfg.CacheEndpoint)
}

func TestLoadPipelineConfig_MissingFile(t *testing.T) {
	_, err := LoadPipelineConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
