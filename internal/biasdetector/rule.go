// Package biasdetector implements the BiasDetector: an auditable, rule-only
// scan over article text that produces typed BiasIndicator values and an
// aggregate transparency report, with no learned component (§4.4).
package biasdetector

import (
	"fmt"
	"regexp"
	"strings"

	"talk-less/internal/config"
	"talk-less/internal/domain/entity"
)

// scope names from the rule file, matching entity's title/body/any split.
const (
	scopeTitle = "title"
	scopeBody  = "body"
	scopeAny   = "any"
)

// compiledRule is one loaded_words/attribution_patterns/framing_patterns
// entry, pre-compiled so scanning an article never re-parses a pattern.
type compiledRule struct {
	kind       entity.BiasIndicatorKind
	pattern    *regexp.Regexp
	scope      string
	confidence entity.Confidence
	weight     float64
}

// Ruleset is the compiled form of a BiasRulesConfig, ready to scan articles.
type Ruleset struct {
	rules         []compiledRule
	minConfidence entity.Confidence
}

// Compile turns a loaded BiasRulesConfig into a Ruleset. A malformed pattern
// is a configuration error per §4.4's "rule-file parse errors abort the
// run": compilation happens once at load time, not per-article, so any
// error here is fatal to the run rather than merely logged.
func Compile(cfg *config.BiasRulesConfig) (*Ruleset, error) {
	rs := &Ruleset{minConfidence: cfg.MinConfidenceLevel()}

	families := []struct {
		kind    entity.BiasIndicatorKind
		entries []config.RuleEntry
	}{
		{entity.BiasLoadedLanguage, cfg.LoadedWords},
		{entity.BiasAttribution, cfg.AttributionPatterns},
		{entity.BiasFraming, cfg.FramingPatterns},
	}

	for _, fam := range families {
		for _, entry := range fam.entries {
			rule, err := compileRule(fam.kind, entry)
			if err != nil {
				return nil, err
			}
			rs.rules = append(rs.rules, rule)
		}
	}

	return rs, nil
}

func compileRule(kind entity.BiasIndicatorKind, entry config.RuleEntry) (compiledRule, error) {
	scope := entry.Scope
	if scope == "" {
		scope = scopeAny
	}
	confidence := entity.Confidence(entry.Confidence)
	if confidence == "" {
		confidence = defaultConfidence(kind)
	}
	weight := entry.Weight
	if weight <= 0 {
		weight = 1.0
	}

	pattern, err := compilePattern(kind, entry.Pattern)
	if err != nil {
		return compiledRule{}, fmt.Errorf("bias rule %q (%s): %w", entry.Pattern, kind, err)
	}

	return compiledRule{kind: kind, pattern: pattern, scope: scope, confidence: confidence, weight: weight}, nil
}

// compilePattern builds a word-boundary, case-insensitive matcher for
// loaded-language phrases (literal tokens), and treats attribution/framing
// patterns as regexes as-is, per §4.4's rule-shape table.
func compilePattern(kind entity.BiasIndicatorKind, pattern string) (*regexp.Regexp, error) {
	if kind == entity.BiasLoadedLanguage {
		escaped := regexp.QuoteMeta(strings.TrimSpace(pattern))
		return regexp.Compile(`(?i)\b` + escaped + `\b`)
	}
	return regexp.Compile(`(?i)` + pattern)
}

// defaultConfidence mirrors §4.4's table when a rule entry omits one.
func defaultConfidence(kind entity.BiasIndicatorKind) entity.Confidence {
	if kind == entity.BiasFraming {
		return entity.ConfidenceLow
	}
	return entity.ConfidenceMedium
}
