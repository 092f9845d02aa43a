package config

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	pkgconfig "talk-less/pkg/config"
)

// PipelineConfig is the typed decoding of the pipeline config file (§6): run
// thresholds, timeouts, and the grouping/summarization sub-documents.
type PipelineConfig struct {
	MaxArticleAge        time.Duration `yaml:"max_article_age"`
	MaxConcurrentFetches int           `yaml:"max_concurrent_fetches"`
	FetchTimeout         time.Duration `yaml:"fetch_timeout"`
	CacheTTL             time.Duration `yaml:"cache_ttl"`
	CacheEndpoint        string        `yaml:"cache_endpoint,omitempty"`

	ContentEnhancementThreshold int `yaml:"content_enhancement_threshold,omitempty"`

	Grouping      GroupingConfig      `yaml:"grouping"`
	Summarization SummarizationConfig `yaml:"summarization"`
	BiasDetection BiasDetectionConfig `yaml:"bias_detection,omitempty"`

	RunDeadline time.Duration `yaml:"run_deadline,omitempty"`

	// StrictConfig controls whether unknown YAML keys across all three
	// config files are a hard decode error (true) or silently ignored
	// (false), per §9's "Dynamic config → static" design note.
	StrictConfig bool `yaml:"strict_config,omitempty"`
}

// GroupingConfig is §6's `grouping` sub-document.
type GroupingConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	MinArticlesPerGroup int     `yaml:"min_articles_per_group"`
	MaxArticlesPerGroup int     `yaml:"max_articles_per_group"`
	EmbeddingDimensions int     `yaml:"embedding_dimensions,omitempty"`
	EmbeddingTokens     int     `yaml:"embedding_tokens,omitempty"`
}

// SummarizationConfig is §6's `summarization` sub-document.
type SummarizationConfig struct {
	Provider                 string        `yaml:"provider"`
	Model                    string        `yaml:"model"`
	Temperature              float64       `yaml:"temperature"`
	MaxTemperature           float64       `yaml:"max_temperature,omitempty"`
	MinSummaryLength         int           `yaml:"min_summary_length"`
	MaxSummaryLength         int           `yaml:"max_summary_length"`
	MaxRetries               int           `yaml:"max_retries"`
	RequiredCitationCoverage int           `yaml:"required_citation_coverage"`
	MaxConcurrentSummaries   int           `yaml:"max_concurrent_summaries"`
	MinDistinctSources       int           `yaml:"min_distinct_sources,omitempty"`
	MinCopiedSpan            int           `yaml:"min_copied_span,omitempty"`
	PerArticleTokenBudget    int           `yaml:"per_article_token_budget,omitempty"`
	LLMTimeout               time.Duration `yaml:"llm_timeout,omitempty"`
	PromptVersion            string        `yaml:"prompt_version,omitempty"`
}

// BiasDetectionConfig carries the per-article reporting threshold that
// governs the transparency report (§4.4); the rule families themselves live
// in BiasRulesConfig.
type BiasDetectionConfig struct {
	PerArticleScoreThreshold float64 `yaml:"per_article_score_threshold,omitempty"`
}

// defaults applied per §6/§4 when the pipeline config omits a field,
// mirroring the fail-open posture of internal/pkg/config's env loaders.
func (c *PipelineConfig) applyDefaults() []string {
	var warnings []string
	note := func(field string) {
		warnings = append(warnings, fmt.Sprintf("pipeline config: %s not set, using default", field))
	}

	if c.MaxArticleAge <= 0 {
		c.MaxArticleAge = 48 * time.Hour
		note("max_article_age")
	}
	if c.MaxConcurrentFetches <= 0 {
		c.MaxConcurrentFetches = 8
		note("max_concurrent_fetches")
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 15 * time.Second
		note("fetch_timeout")
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 6 * time.Hour
		note("cache_ttl")
	}
	if c.ContentEnhancementThreshold <= 0 {
		c.ContentEnhancementThreshold = 500
	}
	if c.RunDeadline <= 0 {
		c.RunDeadline = 20 * time.Minute
	}

	if c.Grouping.SimilarityThreshold <= 0 {
		c.Grouping.SimilarityThreshold = 0.7
		note("grouping.similarity_threshold")
	}
	if c.Grouping.MinArticlesPerGroup <= 0 {
		c.Grouping.MinArticlesPerGroup = 2
		note("grouping.min_articles_per_group")
	}
	if c.Grouping.MaxArticlesPerGroup <= 0 {
		c.Grouping.MaxArticlesPerGroup = 25
		note("grouping.max_articles_per_group")
	}
	if c.Grouping.EmbeddingDimensions <= 0 {
		c.Grouping.EmbeddingDimensions = 384
	}
	if c.Grouping.EmbeddingTokens <= 0 {
		c.Grouping.EmbeddingTokens = 256
	}

	if c.Summarization.Temperature <= 0 {
		c.Summarization.Temperature = 0.3
		note("summarization.temperature")
	}
	if c.Summarization.MaxTemperature <= 0 {
		c.Summarization.MaxTemperature = 0.3
	}
	if c.Summarization.MinSummaryLength <= 0 {
		c.Summarization.MinSummaryLength = 400
		note("summarization.min_summary_length")
	}
	if c.Summarization.MaxSummaryLength <= 0 {
		c.Summarization.MaxSummaryLength = 1200
		note("summarization.max_summary_length")
	}
	if c.Summarization.MaxRetries <= 0 {
		c.Summarization.MaxRetries = 2
		note("summarization.max_retries")
	}
	if c.Summarization.RequiredCitationCoverage <= 0 {
		c.Summarization.RequiredCitationCoverage = 2
		note("summarization.required_citation_coverage")
	}
	if c.Summarization.MaxConcurrentSummaries <= 0 {
		c.Summarization.MaxConcurrentSummaries = 4
		note("summarization.max_concurrent_summaries")
	}
	if c.Summarization.MinDistinctSources <= 0 {
		c.Summarization.MinDistinctSources = 2
	}
	if c.Summarization.MinCopiedSpan <= 0 {
		c.Summarization.MinCopiedSpan = 10
	}
	if c.Summarization.PerArticleTokenBudget <= 0 {
		c.Summarization.PerArticleTokenBudget = 400
	}
	if c.Summarization.LLMTimeout <= 0 {
		c.Summarization.LLMTimeout = 60 * time.Second
	}
	if c.Summarization.PromptVersion == "" {
		c.Summarization.PromptVersion = "v1"
	}

	if c.BiasDetection.PerArticleScoreThreshold <= 0 {
		c.BiasDetection.PerArticleScoreThreshold = 2.0
	}

	return warnings
}

// LoadPipelineConfig reads and decodes the pipeline config file, applies
// defaults to unset fields, and overlays a small set of environment
// variables honored per §6 (CACHE_URL). Missing optional fields never
// fail the load; they are filled in with the defaults above, and each
// default applied through note() is logged as a warning.
func LoadPipelineConfig(path string) (*PipelineConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pipeline config %s: %w", path, err)
	}

	var cfg PipelineConfig
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	// StrictConfig is read from the document itself first so we know
	// whether to reject unknown keys before decoding strictly.
	var probe struct {
		StrictConfig bool `yaml:"strict_config"`
	}
	_ = yaml.NewDecoder(bytes.NewReader(raw)).Decode(&probe)
	dec.KnownFields(probe.StrictConfig)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode pipeline config %s: %w", path, err)
	}

	if cacheURL := pkgconfig.GetEnvString("CACHE_URL", ""); cacheURL != "" {
		cfg.CacheEndpoint = cacheURL
	}

	for _, warning := range cfg.applyDefaults() {
		slog.Warn(warning)
	}

	return &cfg, nil
}
