package biasdetector

import (
	"testing"

	"talk-less/internal/domain/entity"
)

func TestBuildReport_FiltersBreakdownByMinConfidenceNotRawIndicators(t *testing.T) {
	findings := []ArticleFindings{
		{
			ArticleID: "a1",
			SourceID:  "bbc",
			Indicators: []entity.BiasIndicator{
				{Kind: entity.BiasLoadedLanguage, Match: "slammed", Confidence: entity.ConfidenceLow, Weight: 1},
				{Kind: entity.BiasAttribution, Match: "sources say", Confidence: entity.ConfidenceMedium, Weight: 1},
			},
		},
	}

	report := BuildReport(findings, entity.ConfidenceMedium, 100)
	if report.TotalIndicators != 1 {
		t.Fatalf("expected only the medium-confidence indicator counted in the report, got %d", report.TotalIndicators)
	}
	if len(findings[0].Indicators) != 2 {
		t.Fatalf("raw indicators must remain unfiltered, got %d", len(findings[0].Indicators))
	}
}

func TestBuildReport_FlagsArticlesAboveThreshold(t *testing.T) {
	findings := []ArticleFindings{
		{ArticleID: "a1", SourceID: "bbc", Score: 5.0},
		{ArticleID: "a2", SourceID: "bbc", Score: 0.5},
	}
	report := BuildReport(findings, entity.ConfidenceLow, 2.0)
	if len(report.FlaggedArticles) != 1 || report.FlaggedArticles[0] != "a1" {
		t.Fatalf("expected only a1 flagged, got %v", report.FlaggedArticles)
	}
}

func TestBuildReport_SourceAggregateComputesMeanAndTopTokens(t *testing.T) {
	findings := []ArticleFindings{
		{ArticleID: "a1", SourceID: "bbc", Indicators: []entity.BiasIndicator{
			{Kind: entity.BiasLoadedLanguage, Match: "slammed", Confidence: entity.ConfidenceMedium, Weight: 1},
		}},
		{ArticleID: "a2", SourceID: "bbc", Indicators: []entity.BiasIndicator{
			{Kind: entity.BiasLoadedLanguage, Match: "slammed", Confidence: entity.ConfidenceMedium, Weight: 1},
			{Kind: entity.BiasLoadedLanguage, Match: "blasted", Confidence: entity.ConfidenceMedium, Weight: 1},
		}},
	}
	report := BuildReport(findings, entity.ConfidenceLow, 100)
	if len(report.SourceAggregate) != 1 {
		t.Fatalf("expected 1 source aggregate, got %d", len(report.SourceAggregate))
	}
	agg := report.SourceAggregate[0]
	if agg.MeanIndicators != 1.5 {
		t.Errorf("expected mean 1.5, got %v", agg.MeanIndicators)
	}
	if agg.TopMatchedTokens[0] != "slammed" {
		t.Errorf("expected slammed as top token (2 occurrences), got %v", agg.TopMatchedTokens)
	}
}

func TestScore_NormalizesByBodyLength(t *testing.T) {
	indicators := []entity.BiasIndicator{{Weight: 2}}
	shortScore := Score(indicators, 100)
	longScore := Score(indicators, 1000)
	if shortScore <= longScore {
		t.Errorf("expected shorter article to score higher for the same indicator weight, got short=%v long=%v", shortScore, longScore)
	}
}
