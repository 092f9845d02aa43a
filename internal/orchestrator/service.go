// Package orchestrator drives the seven-stage run (fetch, detect, group,
// perspective, summarize, report, emit) across the four processing
// components. It owns no domain logic of its own: every decision about
// what an Article, Group, or Summary means is made by the component that
// produced it; the Orchestrator only sequences calls, tracks the deadline,
// and assembles the RunReport (§2, §5).
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"talk-less/internal/biasdetector"
	"talk-less/internal/domain/entity"
	"talk-less/internal/grouper"
	"talk-less/internal/ingest"
	"talk-less/internal/observability/metrics"
	"talk-less/internal/summarizer"
)

// Result is everything the Orchestrator hands off downstream after a run
// (§6's "downstream interface"): the external API/persistence collaborator
// reads from this, not from internal component state.
type Result struct {
	Articles  []entity.Article
	Groups    []entity.Group
	Summaries []entity.Summary
	Report    *entity.RunReport
}

// Service wires the four components together behind a single Run entry
// point.
type Service struct {
	ingestor     *ingest.Service
	grouper      *grouper.Service
	summarizer   *summarizer.Service
	biasDetector *biasdetector.Service

	sources     []entity.Source
	runDeadline time.Duration

	perspectiveDiversityFloor float64 // below this, a formed group's coverage gap is logged as a warning
}

// NewService builds an Orchestrator from its four collaborators, the
// configured source list, the run's overall deadline, and the diversity
// floor used in the perspective stage.
func NewService(
	ingestor *ingest.Service,
	grouperSvc *grouper.Service,
	summarizerSvc *summarizer.Service,
	biasDetectorSvc *biasdetector.Service,
	sources []entity.Source,
	runDeadline time.Duration,
	perspectiveDiversityFloor float64,
) *Service {
	return &Service{
		ingestor:                  ingestor,
		grouper:                   grouperSvc,
		summarizer:                summarizerSvc,
		biasDetector:              biasDetectorSvc,
		sources:                   sources,
		runDeadline:               runDeadline,
		perspectiveDiversityFloor: perspectiveDiversityFloor,
	}
}

// Run executes one full pipeline invocation. It never returns an error for
// anything short of a configuration failure upstream of this call (§7):
// every stage's own failures are captured in the returned RunReport, and a
// deadline expiring mid-run yields a partial, degraded report rather than
// an error.
func (s *Service) Run(ctx context.Context, runID string) Result {
	start := time.Now()
	report := entity.NewRunReport(runID, start)
	report.SourcesConfigured = len(s.sources)

	runCtx := ctx
	var cancel context.CancelFunc
	if s.runDeadline > 0 {
		runCtx, cancel = context.WithTimeout(ctx, s.runDeadline)
		defer cancel()
	}

	// Stage 1: fetch.
	articles := s.fetch(runCtx, report)

	// Stage 2: detect. Bias scanning only needs article text and has no
	// dependency on grouping, so it runs before clustering and its
	// indicator counts land in the report independent of what groups form.
	_, biasReport := s.biasDetector.Detect(articles)
	report.BiasIndicators = biasReport.TotalIndicators
	for _, agg := range biasReport.SourceAggregate {
		report.BiasBySource[agg.SourceID] = agg.MeanIndicators
	}

	// Stage 3: group.
	groups := s.group(runCtx, articles, report)

	// Stage 4: perspective.
	s.perspective(groups, report)

	// Stage 5: summarize.
	articlesByID := indexArticles(articles)
	summaries := s.summarize(runCtx, groups, articlesByID, report)

	// Stage 6: report.
	report.Degraded = report.Degraded || runCtx.Err() != nil
	report.Finish(time.Now())
	metrics.RecordRun(report.Degraded, time.Since(start))

	// Stage 7: emit.
	return Result{
		Articles:  articles,
		Groups:    groups,
		Summaries: summaries,
		Report:    report,
	}
}

func (s *Service) fetch(ctx context.Context, report *entity.RunReport) []entity.Article {
	articles, outcomes, err := s.ingestor.FetchAll(ctx, s.sources)
	if err != nil {
		report.AddWarning("fetch stage ended early: " + err.Error())
	}

	filtered := 0
	for _, o := range outcomes {
		filtered += o.Filtered
		if o.Err != nil {
			report.SourcesFailed = append(report.SourcesFailed, o.SourceID)
			report.AddWarning("source " + o.SourceID + " failed: " + o.Err.Error())
		}
	}
	report.ArticlesFetched = len(articles)
	report.ArticlesFiltered = filtered

	return articles
}

func (s *Service) group(ctx context.Context, articles []entity.Article, report *entity.RunReport) []entity.Group {
	enabledSourceIDs := make([]string, 0, len(s.sources))
	for _, src := range s.sources {
		if src.Enabled {
			enabledSourceIDs = append(enabledSourceIDs, src.ID)
		}
	}

	groups, err := s.grouper.Group(ctx, articles, enabledSourceIDs)
	if err != nil {
		report.AddWarning("group stage ended early: " + err.Error())
	}
	report.Groups = len(groups)
	return groups
}

// perspective surfaces groups whose source diversity falls below the
// configured floor as RunReport warnings — a thin, non-domain-owning pass
// over what the Grouper already computed, distinct from clustering itself.
func (s *Service) perspective(groups []entity.Group, report *entity.RunReport) {
	for _, g := range groups {
		if g.Diversity < s.perspectiveDiversityFloor {
			report.AddWarning(fmt.Sprintf("group %s has low source diversity: %.2f", g.ID, g.Diversity))
		}
		if len(g.CoverageGaps) > 0 {
			slog.Debug("group has coverage gaps", slog.String("group_id", g.ID), slog.Any("gaps", g.CoverageGaps))
		}
	}
}

func (s *Service) summarize(ctx context.Context, groups []entity.Group, articlesByID map[string]entity.Article, report *entity.RunReport) []entity.Summary {
	summaries, failures, err := s.summarizer.Summarize(ctx, groups, articlesByID, s.sources)
	if err != nil {
		report.AddWarning("summarize stage ended early: " + err.Error())
	}

	report.GroupsIneligible = len(groups) - (len(summaries) + len(failures))
	report.SummariesGenerated = len(summaries)
	for _, f := range failures {
		report.SummaryFailures[f.GroupID] = f.Reason
	}

	return summaries
}

func indexArticles(articles []entity.Article) map[string]entity.Article {
	byID := make(map[string]entity.Article, len(articles))
	for _, a := range articles {
		byID[a.ID] = a
	}
	return byID
}
