package main

import (
	"context"
	"crypto/tls"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"talk-less/internal/biasdetector"
	"talk-less/internal/config"
	"talk-less/internal/domain/entity"
	"talk-less/internal/grouper"
	"talk-less/internal/infra/feed"
	"talk-less/internal/infra/fetcher"
	"talk-less/internal/infra/ratelimit"
	"talk-less/internal/ingest"
	"talk-less/internal/observability/logging"
	"talk-less/internal/orchestrator"
	"talk-less/internal/summarizer"
	pkgconfig "talk-less/pkg/config"

	cfgvalidate "talk-less/internal/pkg/config"
)

// runtime is every long-lived dependency main wires up once, before either
// a single run or the cron loop begins.
type runtime struct {
	orchestrator *orchestrator.Service
	sources      []entity.Source
	logger       *slog.Logger
	cronSchedule string
	healthPort   int
}

func main() {
	configDir := flag.String("config", "", "directory containing sources.yaml, pipeline.yaml and bias_rules.yaml")
	once := flag.Bool("once", false, "run the pipeline exactly once and exit")
	scheduled := flag.Bool("scheduled", false, "run the pipeline on the configured cron schedule until terminated")
	flag.Parse()

	logger := logging.NewLogger()
	slog.SetDefault(logger)

	if *configDir == "" {
		logger.Error("--config is required")
		os.Exit(1)
	}
	if *once == *scheduled {
		logger.Error("exactly one of --once or --scheduled must be set")
		os.Exit(1)
	}

	rt, err := setup(logger, *configDir)
	if err != nil {
		logger.Error("setup failed", slog.Any("error", err))
		os.Exit(1)
	}

	if *once {
		result := rt.orchestrator.Run(context.Background(), newRunID())
		logRunResult(logger, result)
		if result.Report.Degraded {
			os.Exit(1)
		}
		return
	}

	runScheduled(rt)
}

// setup loads the three config files and builds the full component graph:
// ratelimit registry, ingestor, grouper, summarizer, bias detector and the
// orchestrator that sequences them.
func setup(logger *slog.Logger, configDir string) (*runtime, error) {
	sourcesPath := filepath.Join(configDir, "sources.yaml")
	pipelinePath := filepath.Join(configDir, "pipeline.yaml")
	biasRulesPath := filepath.Join(configDir, "bias_rules.yaml")

	pipelineCfg, err := config.LoadPipelineConfig(pipelinePath)
	if err != nil {
		return nil, fmt.Errorf("load pipeline config: %w", err)
	}

	sources, err := config.LoadSourcesConfig(sourcesPath, pipelineCfg.StrictConfig)
	if err != nil {
		return nil, fmt.Errorf("load sources config: %w", err)
	}

	biasRulesCfg, err := config.LoadBiasRulesConfig(biasRulesPath, pipelineCfg.StrictConfig)
	if err != nil {
		return nil, fmt.Errorf("load bias rules config: %w", err)
	}

	limiters := ratelimit.NewRegistry(sources)

	httpClient := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
		},
	}

	rssFetcher := feed.NewRSSFetcher(httpClient)
	apiFetcher := feed.NewAPIFetcher(httpClient)

	contentFetchConfig, err := fetcher.LoadConfigFromEnv()
	if err != nil {
		logger.Warn("content fetch configuration invalid, content enhancement disabled", slog.Any("error", err))
		contentFetchConfig = fetcher.DefaultConfig()
		contentFetchConfig.Enabled = false
	}

	var contentFetcher ingest.ContentFetcher
	if contentFetchConfig.Enabled {
		contentFetcher = fetcher.NewReadabilityFetcher(contentFetchConfig)
	}

	var cache ingest.ContentCache
	if pipelineCfg.CacheEndpoint != "" {
		cache = ingest.NewRedisContentCache(pipelineCfg.CacheEndpoint)
	} else {
		cache = noopCache{}
	}

	ingestSvc := ingest.NewService(rssFetcher, apiFetcher, contentFetcher, cache, limiters, ingest.Config{
		MaxConcurrentFetches:       pipelineCfg.MaxConcurrentFetches,
		FetchTimeout:               pipelineCfg.FetchTimeout,
		MaxArticleAge:              pipelineCfg.MaxArticleAge,
		ContentEnhancementMinChars: pipelineCfg.ContentEnhancementThreshold,
		CacheTTL:                   pipelineCfg.CacheTTL,
	})

	grouperSvc := grouper.NewService(
		grouper.NewHashEmbedder(pipelineCfg.Grouping.EmbeddingDimensions, pipelineCfg.Grouping.EmbeddingTokens),
		grouper.Config{
			SimilarityThreshold: pipelineCfg.Grouping.SimilarityThreshold,
			MinArticlesPerGroup: pipelineCfg.Grouping.MinArticlesPerGroup,
			MaxArticlesPerGroup: pipelineCfg.Grouping.MaxArticlesPerGroup,
		},
	)

	provider, err := buildProvider(pipelineCfg.Summarization)
	if err != nil {
		return nil, fmt.Errorf("build summarization provider: %w", err)
	}

	summarizerSvc := summarizer.NewService(provider, summarizer.Config{
		Model:                    pipelineCfg.Summarization.Model,
		Temperature:              pipelineCfg.Summarization.Temperature,
		MaxTemperature:           pipelineCfg.Summarization.MaxTemperature,
		MinSummaryLength:         pipelineCfg.Summarization.MinSummaryLength,
		MaxSummaryLength:         pipelineCfg.Summarization.MaxSummaryLength,
		MaxRetries:               pipelineCfg.Summarization.MaxRetries,
		RequiredCitationCoverage: pipelineCfg.Summarization.RequiredCitationCoverage,
		MinDistinctSources:       pipelineCfg.Summarization.MinDistinctSources,
		MinCopiedSpan:            pipelineCfg.Summarization.MinCopiedSpan,
		PerArticleTokenBudget:    pipelineCfg.Summarization.PerArticleTokenBudget,
		MaxConcurrentSummaries:   pipelineCfg.Summarization.MaxConcurrentSummaries,
		LLMTimeout:               pipelineCfg.Summarization.LLMTimeout,
	})

	rules, err := biasdetector.Compile(biasRulesCfg)
	if err != nil {
		return nil, fmt.Errorf("compile bias rules: %w", err)
	}
	biasSvc := biasdetector.NewService(rules, pipelineCfg.BiasDetection.PerArticleScoreThreshold)

	orchestratorSvc := orchestrator.NewService(
		ingestSvc, grouperSvc, summarizerSvc, biasSvc,
		sources, pipelineCfg.RunDeadline,
		0.3, // below this Diversity, a group's low-perspective-spread is a warning
	)

	cronSchedule := pkgconfig.GetEnvString("CRON_SCHEDULE", "0 */6 * * *")
	if err := cfgvalidate.ValidateCronSchedule(cronSchedule); err != nil {
		logger.Warn("invalid CRON_SCHEDULE, falling back to default", slog.String("value", cronSchedule), slog.Any("error", err))
		cronSchedule = "0 */6 * * *"
	}

	return &runtime{
		orchestrator: orchestratorSvc,
		sources:      sources,
		logger:       logger,
		cronSchedule: cronSchedule,
		healthPort:   pkgconfig.GetEnvInt("HEALTH_PORT", 9091),
	}, nil
}

// buildProvider selects the configured LLM backend. Credentials are
// resolved via environment indirection per §4.1, never embedded in config.
func buildProvider(cfg config.SummarizationConfig) (summarizer.Provider, error) {
	providers := config.LoadProvidersConfig()

	switch cfg.Provider {
	case "", "claude":
		key, err := providers.Claude.ResolveCredential()
		if err != nil {
			return nil, err
		}
		return summarizer.NewClaudeProvider(key, 4096), nil
	case "openai":
		key, err := providers.OpenAI.ResolveCredential()
		if err != nil {
			return nil, err
		}
		return summarizer.NewOpenAIProvider(key, 2048), nil
	default:
		return nil, fmt.Errorf("unknown summarization provider %q: must be claude or openai", cfg.Provider)
	}
}

// runScheduled starts the cron loop and the health/metrics servers, then
// blocks until a termination signal arrives.
func runScheduled(rt *runtime) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	isReady := startHealthServer(ctx, rt.logger, rt.healthPort)
	startMetricsServer(ctx, rt.logger)

	c := cron.New()
	_, err := c.AddFunc(rt.cronSchedule, func() {
		result := rt.orchestrator.Run(ctx, newRunID())
		logRunResult(rt.logger, result)
	})
	if err != nil {
		rt.logger.Error("failed to schedule pipeline run", slog.Any("error", err))
		os.Exit(1)
	}
	c.Start()
	defer c.Stop()

	isReady(true)
	rt.logger.Info("talkless worker started", slog.String("schedule", rt.cronSchedule), slog.Int("sources", len(rt.sources)))

	<-ctx.Done()
	rt.logger.Info("shutdown signal received, stopping")
}

func logRunResult(logger *slog.Logger, result orchestrator.Result) {
	logger.Info("run completed",
		slog.String("run_id", result.Report.RunID),
		slog.Int("articles_fetched", result.Report.ArticlesFetched),
		slog.Int("groups", result.Report.Groups),
		slog.Int("summaries_generated", result.Report.SummariesGenerated),
		slog.Int("bias_indicators", result.Report.BiasIndicators),
		slog.Bool("degraded", result.Report.Degraded),
	)
	for _, w := range result.Report.Warnings {
		logger.Warn("run warning", slog.String("run_id", result.Report.RunID), slog.String("message", w))
	}
}

func newRunID() string {
	return "run-" + uuid.NewString()
}

type noopCache struct{}

func (noopCache) Get(ctx context.Context, url string) (string, bool) { return "", false }
func (noopCache) Set(ctx context.Context, url, content string, ttl time.Duration) {}
