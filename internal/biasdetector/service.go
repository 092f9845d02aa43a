package biasdetector

import (
	"sort"

	"talk-less/internal/domain/entity"
	"talk-less/internal/observability/metrics"
)

// Service is the BiasDetector. It scans every article against a compiled
// Ruleset and assembles the run's transparency report.
type Service struct {
	rules     *Ruleset
	threshold float64
}

// NewService builds a BiasDetector from a compiled Ruleset and the
// per-article score threshold that drives the transparency report's
// flagged-articles list.
func NewService(rules *Ruleset, perArticleScoreThreshold float64) *Service {
	return &Service{rules: rules, threshold: perArticleScoreThreshold}
}

// Detect scans every article and returns its per-article findings (sorted
// by article id for deterministic output) alongside the aggregate report.
func (s *Service) Detect(articles []entity.Article) ([]ArticleFindings, Report) {
	findings := make([]ArticleFindings, 0, len(articles))

	for _, a := range articles {
		indicators := s.rules.Scan(a.Title, a.Content)
		for _, ind := range indicators {
			metrics.RecordBiasIndicator(string(ind.Kind))
		}
		findings = append(findings, ArticleFindings{
			ArticleID:  a.ID,
			SourceID:   a.SourceID,
			Indicators: indicators,
			Score:      Score(indicators, len([]rune(a.Content))),
		})
	}

	sort.Slice(findings, func(i, j int) bool { return findings[i].ArticleID < findings[j].ArticleID })

	report := BuildReport(findings, s.rules.minConfidence, s.threshold)
	return findings, report
}
