package biasdetector

import (
	"sort"

	"talk-less/internal/domain/entity"
)

// ArticleFindings is one article's raw indicators plus its normalized
// aggregate score.
type ArticleFindings struct {
	ArticleID  string
	SourceID   string
	Indicators []entity.BiasIndicator
	Score      float64 // sum(weights) normalized by body length, per §4.4
}

// Report is the run's transparency report (§4.4): deterministic from its
// inputs, it never depends on wall-clock time or map iteration order.
type Report struct {
	TotalIndicators int
	ByKind          map[entity.BiasIndicatorKind]int
	SourceAggregate []SourceAggregate
	FlaggedArticles []string // article ids exceeding PerArticleScoreThreshold, sorted
}

// SourceAggregate summarizes one source's indicator load across the run.
type SourceAggregate struct {
	SourceID         string
	ArticleCount     int
	MeanIndicators   float64
	TopMatchedTokens []string // up to 5, most frequent first, ties broken alphabetically
}

// Score computes an article's aggregate bias score: the sum of its
// indicator weights, normalized by body length (in runes) so a longer
// article isn't penalized merely for having more words to match against.
func Score(indicators []entity.BiasIndicator, bodyLength int) float64 {
	if bodyLength <= 0 {
		bodyLength = 1
	}
	var sum float64
	for _, ind := range indicators {
		sum += ind.Weight
	}
	return sum / float64(bodyLength) * 1000 // per-thousand-characters, a readable unit
}

// BuildReport aggregates per-article findings into the run's transparency
// report, applying minConfidence to the breakdown counts (raw indicators on
// each ArticleFindings are never filtered; only the report is) (§4.4).
func BuildReport(findings []ArticleFindings, minConfidence entity.Confidence, threshold float64) Report {
	report := Report{ByKind: make(map[entity.BiasIndicatorKind]int)}

	tokensBySource := make(map[string]map[string]int)
	articlesBySource := make(map[string]int)

	for _, f := range findings {
		articlesBySource[f.SourceID]++

		for _, ind := range f.Indicators {
			if !ind.MeetsThreshold(minConfidence) {
				continue
			}
			report.TotalIndicators++
			report.ByKind[ind.Kind]++

			if tokensBySource[f.SourceID] == nil {
				tokensBySource[f.SourceID] = make(map[string]int)
			}
			tokensBySource[f.SourceID][ind.Match]++
		}

		if f.Score > threshold {
			report.FlaggedArticles = append(report.FlaggedArticles, f.ArticleID)
		}
	}

	for sourceID, articleCount := range articlesBySource {
		indicatorCount := 0
		for _, f := range findings {
			if f.SourceID != sourceID {
				continue
			}
			for _, ind := range f.Indicators {
				if ind.MeetsThreshold(minConfidence) {
					indicatorCount++
				}
			}
		}
		agg := SourceAggregate{
			SourceID:         sourceID,
			ArticleCount:     articleCount,
			MeanIndicators:   float64(indicatorCount) / float64(articleCount),
			TopMatchedTokens: topTokens(tokensBySource[sourceID], 5),
		}
		report.SourceAggregate = append(report.SourceAggregate, agg)
	}

	sort.Slice(report.SourceAggregate, func(i, j int) bool {
		return report.SourceAggregate[i].SourceID < report.SourceAggregate[j].SourceID
	})
	sort.Strings(report.FlaggedArticles)

	return report
}

func topTokens(counts map[string]int, n int) []string {
	type kv struct {
		token string
		count int
	}
	kvs := make([]kv, 0, len(counts))
	for tok, c := range counts {
		kvs = append(kvs, kv{tok, c})
	}
	sort.Slice(kvs, func(i, j int) bool {
		if kvs[i].count != kvs[j].count {
			return kvs[i].count > kvs[j].count
		}
		return kvs[i].token < kvs[j].token
	})
	if len(kvs) > n {
		kvs = kvs[:n]
	}
	tokens := make([]string, len(kvs))
	for i, e := range kvs {
		tokens[i] = e.token
	}
	return tokens
}
