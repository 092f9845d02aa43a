package summarizer

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"talk-less/internal/domain/entity"
)

type fakeProvider struct {
	calls     int32
	responses []func(call int32) (string, error)
}

func (f *fakeProvider) Complete(ctx context.Context, model string, temperature float64, prompt string) (string, error) {
	n := atomic.AddInt32(&f.calls, 1)
	idx := n - 1
	if int(idx) >= len(f.responses) {
		idx = int32(len(f.responses) - 1)
	}
	return f.responses[idx](n)
}

func testSources() []entity.Source {
	return []entity.Source{
		{ID: "bbc", Name: "BBC News"},
		{ID: "cnn", Name: "CNN"},
	}
}

func testArticles() map[string]entity.Article {
	return map[string]entity.Article{
		"1": {ID: "1", SourceID: "bbc", Title: "Storm hits coast", Content: "Heavy rain battered the coastline overnight near the harbor."},
		"2": {ID: "2", SourceID: "cnn", Title: "Coastal storm", Content: "Flooding was reported in several towns along the shore."},
	}
}

func testConfig() Config {
	return Config{
		Model:                    "test-model",
		Temperature:              0.3,
		MaxTemperature:           0.3,
		MinSummaryLength:         30,
		MaxSummaryLength:         500,
		MaxRetries:               1,
		RequiredCitationCoverage: 2,
		MinDistinctSources:       2,
		MinCopiedSpan:            10,
		PerArticleTokenBudget:    200,
		MaxConcurrentSummaries:   2,
		LLMTimeout:               time.Second,
	}
}

func TestService_Summarize_AcceptsOnFirstAttempt(t *testing.T) {
	group := entity.Group{ID: "g1", MemberIDs: []string{"1", "2"}, Sources: map[string]int{"bbc": 1, "cnn": 1}}
	provider := &fakeProvider{responses: []func(int32) (string, error){
		func(int32) (string, error) {
			return "A synthesized account of the coastal storm drawing on several outlets about the flooding and damage. [Source: BBC News] [Source: CNN]", nil
		},
	}}

	svc := NewService(provider, testConfig())
	summaries, failures, err := svc.Summarize(context.Background(), []entity.Group{group}, testArticles(), testSources())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(failures) != 0 {
		t.Fatalf("expected no failures, got %v", failures)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(summaries))
	}
	if summaries[0].Retries != 0 {
		t.Errorf("expected 0 retries, got %d", summaries[0].Retries)
	}
	if len(summaries[0].Citations) != 2 {
		t.Errorf("expected citations for both sources, got %v", summaries[0].Citations)
	}
}

func TestService_Summarize_RetriesThenSucceeds(t *testing.T) {
	group := entity.Group{ID: "g1", MemberIDs: []string{"1", "2"}, Sources: map[string]int{"bbc": 1, "cnn": 1}}
	provider := &fakeProvider{responses: []func(int32) (string, error){
		func(int32) (string, error) {
			return "A summary citing only one outlet about the coastal storm and the damage it caused overnight. [Source: BBC News]", nil
		},
		func(int32) (string, error) {
			return "A revised summary now citing both outlets about the coastal storm and flooding damage overnight. [Source: BBC News] [Source: CNN]", nil
		},
	}}

	svc := NewService(provider, testConfig())
	summaries, failures, err := svc.Summarize(context.Background(), []entity.Group{group}, testArticles(), testSources())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(failures) != 0 {
		t.Fatalf("expected no failures, got %v", failures)
	}
	if len(summaries) != 1 || summaries[0].Retries != 1 {
		t.Fatalf("expected 1 summary accepted after 1 retry, got %+v", summaries)
	}
}

func TestService_Summarize_FailsAfterExhaustingRetries(t *testing.T) {
	group := entity.Group{ID: "g1", MemberIDs: []string{"1", "2"}, Sources: map[string]int{"bbc": 1, "cnn": 1}}
	alwaysOneCitation := func(int32) (string, error) {
		return "A summary citing only one outlet repeatedly about the coastal storm and the damage it caused overnight. [Source: BBC News]", nil
	}
	provider := &fakeProvider{responses: []func(int32) (string, error){alwaysOneCitation, alwaysOneCitation}}

	svc := NewService(provider, testConfig())
	summaries, failures, err := svc.Summarize(context.Background(), []entity.Group{group}, testArticles(), testSources())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(summaries) != 0 {
		t.Fatalf("expected no accepted summaries, got %v", summaries)
	}
	if len(failures) != 1 || failures[0].GroupID != "g1" {
		t.Fatalf("expected 1 recorded failure for g1, got %v", failures)
	}
}

func TestService_Summarize_AbortsImmediatelyOnPermanentProviderError(t *testing.T) {
	group := entity.Group{ID: "g1", MemberIDs: []string{"1", "2"}, Sources: map[string]int{"bbc": 1, "cnn": 1}}
	provider := &fakeProvider{responses: []func(int32) (string, error){
		func(int32) (string, error) {
			return "", &ProviderError{Class: ClassPermanent, Err: errors.New("invalid api key")}
		},
	}}

	svc := NewService(provider, testConfig())
	_, failures, err := svc.Summarize(context.Background(), []entity.Group{group}, testArticles(), testSources())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(failures) != 1 {
		t.Fatalf("expected 1 failure, got %v", failures)
	}
	if atomic.LoadInt32(&provider.calls) != 1 {
		t.Errorf("expected exactly 1 provider call on permanent error, got %d", provider.calls)
	}
}

func TestService_Summarize_SkipsGroupsBelowMinDistinctSources(t *testing.T) {
	eligible := entity.Group{ID: "g1", MemberIDs: []string{"1", "2"}, Sources: map[string]int{"bbc": 1, "cnn": 1}}
	ineligible := entity.Group{ID: "g2", MemberIDs: []string{"1"}, Sources: map[string]int{"bbc": 1}}

	provider := &fakeProvider{responses: []func(int32) (string, error){
		func(int32) (string, error) {
			return "A synthesized account of the coastal storm drawing on several outlets about the flooding and damage. [Source: BBC News] [Source: CNN]", nil
		},
	}}

	svc := NewService(provider, testConfig())
	summaries, failures, err := svc.Summarize(context.Background(), []entity.Group{eligible, ineligible}, testArticles(), testSources())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(summaries) != 1 || summaries[0].GroupID != "g1" {
		t.Fatalf("expected only g1 summarized, got %v", summaries)
	}
	for _, f := range failures {
		if f.GroupID == "g2" {
			t.Fatalf("ineligible group should not be recorded as a failure either, got %v", failures)
		}
	}
}
