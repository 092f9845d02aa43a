package summarizer

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"talk-less/internal/domain/entity"
	"talk-less/internal/observability/metrics"
	"talk-less/internal/resilience/retry"
)

// Config bounds the Summarizer's behavior, sourced from PipelineConfig's
// summarization sub-document (§4.3, §6).
type Config struct {
	Model                    string
	Temperature              float64
	MaxTemperature           float64
	MinSummaryLength         int
	MaxSummaryLength         int
	MaxRetries               int
	RequiredCitationCoverage int
	MinDistinctSources       int
	MinCopiedSpan            int
	PerArticleTokenBudget    int
	MaxConcurrentSummaries   int
	LLMTimeout               time.Duration
}

// Service is the Summarizer. It produces one validated Summary per eligible
// Group, retrying with a refined prompt on validation failure up to
// Config.MaxRetries times.
type Service struct {
	provider Provider
	config   Config
}

// NewService builds a Summarizer from a configured LLM Provider.
func NewService(provider Provider, config Config) *Service {
	return &Service{provider: provider, config: config}
}

// Failure records a group that never produced an accepted summary.
type Failure struct {
	GroupID string
	Reason  string
}

// Summarize produces a Summary for every eligible group, running up to
// Config.MaxConcurrentSummaries in parallel. Output order is sorted by
// group id, independent of completion order (§4.3 concurrency clause).
func (s *Service) Summarize(ctx context.Context, groups []entity.Group, articlesByID map[string]entity.Article, sources []entity.Source) ([]entity.Summary, []Failure, error) {
	sourceNames := make(map[string]string, len(sources))
	var knownNames []string
	for _, src := range sources {
		sourceNames[src.ID] = src.Name
		knownNames = append(knownNames, src.Name)
	}

	type result struct {
		summary *entity.Summary
		failure *Failure
	}

	sem := make(chan struct{}, s.config.MaxConcurrentSummaries)
	eg, egCtx := errgroup.WithContext(ctx)
	results := make([]result, len(groups))

	for i, g := range groups {
		i, g := i, g
		if !s.eligible(g) {
			metrics.RecordGroupIneligible()
			continue
		}

		eg.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()

			summary, failure := s.summarizeGroup(egCtx, g, articlesByID, sourceNames, knownNames)
			results[i] = result{summary: summary, failure: failure}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}

	var summaries []entity.Summary
	var failures []Failure
	for _, r := range results {
		switch {
		case r.summary != nil:
			summaries = append(summaries, *r.summary)
		case r.failure != nil:
			failures = append(failures, *r.failure)
		}
	}

	sort.Slice(summaries, func(i, j int) bool { return summaries[i].GroupID < summaries[j].GroupID })
	sort.Slice(failures, func(i, j int) bool { return failures[i].GroupID < failures[j].GroupID })

	return summaries, failures, nil
}

// eligible applies §4.3's eligibility filter: a group must carry enough
// members and distinct sources to be worth synthesizing.
func (s *Service) eligible(g entity.Group) bool {
	minSources := s.config.MinDistinctSources
	if minSources <= 0 {
		minSources = 2
	}
	return g.DistinctSources() >= minSources
}

func (s *Service) summarizeGroup(ctx context.Context, g entity.Group, articlesByID map[string]entity.Article, sourceNames map[string]string, knownNames []string) (*entity.Summary, *Failure) {
	start := time.Now()

	members := make([]entity.Article, 0, len(g.MemberIDs))
	for _, id := range g.MemberIDs {
		if a, ok := articlesByID[id]; ok {
			members = append(members, a)
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })

	refs := make([]articleRef, 0, len(members))
	var sourceBodies []string
	for _, a := range members {
		refs = append(refs, articleRef{ID: a.ID, SourceName: sourceNames[a.SourceID]})
		sourceBodies = append(sourceBodies, a.Content)
	}

	payloads := payloadsForGroup(members, sourceNames)
	basePrompt := buildPrompt(payloads, s.config.MinSummaryLength, s.config.MaxSummaryLength, s.config.PerArticleTokenBudget)

	temperature := s.config.Temperature
	if temperature > s.config.MaxTemperature {
		temperature = s.config.MaxTemperature
	}

	params := validationParams{
		minLength:                s.config.MinSummaryLength,
		maxLength:                s.config.MaxSummaryLength,
		requiredCitationCoverage: s.config.RequiredCitationCoverage,
		minCopiedSpan:            s.config.MinCopiedSpan,
		temperature:              temperature,
		maxTemperature:           s.config.MaxTemperature,
	}

	prompt := basePrompt
	maxAttempts := s.config.MaxRetries + 1
	var lastReason string

	for attempt := 0; attempt < maxAttempts; attempt++ {
		text, err := s.callProvider(ctx, prompt, temperature)
		if err != nil {
			// Permanent failures will never succeed on replay; quota
			// failures will not resolve within this run's retry budget.
			// Both abort the group immediately rather than spend the
			// remaining attempts on a refined prompt that was never the
			// problem.
			if class := classify(err); class == ClassPermanent || class == ClassQuota {
				metrics.RecordSummaryOutcome(false, s.config.Model, time.Since(start))
				return nil, &Failure{GroupID: g.ID, Reason: fmt.Sprintf("provider error: %v", err)}
			}
			lastReason = fmt.Sprintf("provider error: %v", err)
			metrics.RecordSummaryRetry("provider_error")
			continue
		}

		cited := extractCitedSourceNames(text, knownNames)
		verdict := validate(text, len(cited), g.DistinctSources(), sourceBodies, params)
		if verdict.ok {
			metrics.RecordSummaryOutcome(true, s.config.Model, time.Since(start))
			return &entity.Summary{
				ID:          entity.SummaryID(g.ID, fmt.Sprintf("%s-%d", PromptVersion, attempt)),
				GroupID:     g.ID,
				Text:        text,
				Citations:   buildCitationMap(cited, refs),
				Model:       s.config.Model,
				Temperature: temperature,
				CreatedAt:   time.Now(),
				Validation:  entity.ValidationStatus{Accepted: true},
				Retries:     attempt,
			}, nil
		}

		lastReason = fmt.Sprintf("%s: %s", verdict.reason, verdict.detail)
		metrics.RecordSummaryRetry(verdict.reason)
		slog.WarnContext(ctx, "summary rejected by validation",
			slog.String("group_id", g.ID),
			slog.String("reason", verdict.reason),
			slog.Int("attempt", attempt))

		prompt = refinePrompt(basePrompt, verdict.reason, verdict.detail)
	}

	metrics.RecordSummaryOutcome(false, s.config.Model, time.Since(start))
	return nil, &Failure{GroupID: g.ID, Reason: lastReason}
}

// callProvider invokes the configured Provider, retrying with exponential
// backoff only on ClassTransient errors; permanent and quota errors return
// immediately so the caller can abort the group without burning its
// validation-retry budget on a call that will never succeed (§4.3 LLM call
// contract).
func (s *Service) callProvider(ctx context.Context, prompt string, temperature float64) (string, error) {
	timeout := s.config.LLMTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cfg := retry.AIAPIConfig()
	delay := cfg.InitialDelay
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		text, err := s.provider.Complete(callCtx, s.config.Model, temperature, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if classify(err) != ClassTransient || attempt == cfg.MaxAttempts {
			break
		}

		select {
		case <-time.After(delay):
		case <-callCtx.Done():
			return "", callCtx.Err()
		}
		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	return "", lastErr
}
