package biasdetector

import (
	"talk-less/internal/domain/entity"
)

const maxContextSpan = 120

// Scan applies every compiled rule to an article and returns the indicators
// it produced. Indicators are returned regardless of the ruleset's
// min_confidence floor — that threshold only filters what appears in the
// aggregate report (§4.4).
func (rs *Ruleset) Scan(title, body string) []entity.BiasIndicator {
	var indicators []entity.BiasIndicator
	for _, rule := range rs.rules {
		if rule.kind == entity.BiasFraming {
			if ind, ok := scanFraming(rule, title, body); ok {
				indicators = append(indicators, ind)
			}
			continue
		}
		indicators = append(indicators, scanScoped(rule, title, body)...)
	}
	return indicators
}

// scanScoped matches a loaded-language or attribution rule against the
// scopes its configuration names (title, body, or any/both).
func scanScoped(rule compiledRule, title, body string) []entity.BiasIndicator {
	var indicators []entity.BiasIndicator
	if rule.scope == scopeTitle || rule.scope == scopeAny {
		indicators = append(indicators, matchAll(rule, title)...)
	}
	if rule.scope == scopeBody || rule.scope == scopeAny {
		indicators = append(indicators, matchAll(rule, body)...)
	}
	return indicators
}

func matchAll(rule compiledRule, text string) []entity.BiasIndicator {
	var indicators []entity.BiasIndicator
	for _, loc := range rule.pattern.FindAllStringIndex(text, -1) {
		indicators = append(indicators, entity.BiasIndicator{
			Kind:       rule.kind,
			Match:      text[loc[0]:loc[1]],
			Context:    contextSpan(text, loc[0], loc[1]),
			Confidence: rule.confidence,
			Weight:     rule.weight,
		})
	}
	return indicators
}

// scanFraming implements §4.4's headline-vs-body comparison: a framing rule
// fires when its pattern matches the headline but the same claim is absent
// from the body, the signature of a headline-only superlative or framing
// device unsupported by the story itself.
func scanFraming(rule compiledRule, title, body string) (entity.BiasIndicator, bool) {
	loc := rule.pattern.FindStringIndex(title)
	if loc == nil {
		return entity.BiasIndicator{}, false
	}
	if rule.pattern.MatchString(body) {
		return entity.BiasIndicator{}, false
	}
	return entity.BiasIndicator{
		Kind:       rule.kind,
		Match:      title[loc[0]:loc[1]],
		Context:    contextSpan(title, loc[0], loc[1]),
		Confidence: rule.confidence,
		Weight:     rule.weight,
	}, true
}

// contextSpan returns up to maxContextSpan characters of text surrounding
// [start, end), centered on the match.
func contextSpan(text string, start, end int) string {
	pad := (maxContextSpan - (end - start)) / 2
	if pad < 0 {
		pad = 0
	}
	from := start - pad
	if from < 0 {
		from = 0
	}
	to := end + pad
	if to > len(text) {
		to = len(text)
	}
	if to-from > maxContextSpan {
		to = from + maxContextSpan
	}
	return text[from:to]
}
