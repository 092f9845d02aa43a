package summarizer

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"talk-less/internal/utils/text"
)

// validationResult carries the pass/fail verdict plus enough detail to
// refine the prompt on retry (§4.3).
type validationResult struct {
	ok     bool
	reason string // "length" | "citation_coverage" | "copied_span" | "temperature"
	detail string
}

func accepted() validationResult { return validationResult{ok: true} }

// validate runs all four rules from §4.3 in order and returns on the first
// failure, since a retry addresses one problem at a time.
func validate(summaryText string, citedCount int, distinctGroupSources int, sourceBodies []string, params validationParams) validationResult {
	length := text.CountRunes(summaryText)
	if length < params.minLength || length > params.maxLength {
		return validationResult{
			reason: "length",
			detail: fmt.Sprintf("got %d characters, want %d-%d", length, params.minLength, params.maxLength),
		}
	}

	requiredCoverage := params.requiredCitationCoverage
	if distinctGroupSources < requiredCoverage {
		requiredCoverage = distinctGroupSources
	}
	if citedCount < requiredCoverage {
		return validationResult{
			reason: "citation_coverage",
			detail: fmt.Sprintf("cited %d distinct sources, need %d", citedCount, requiredCoverage),
		}
	}

	if span, ok := copiedSpan(summaryText, sourceBodies, params.minCopiedSpan); ok {
		return validationResult{reason: "copied_span", detail: span}
	}

	if params.temperature > params.maxTemperature {
		return validationResult{
			reason: "temperature",
			detail: fmt.Sprintf("used %.2f, max %.2f", params.temperature, params.maxTemperature),
		}
	}

	return accepted()
}

type validationParams struct {
	minLength                int
	maxLength                int
	requiredCitationCoverage int
	minCopiedSpan            int
	temperature              float64
	maxTemperature           float64
}

// copiedSpan looks for a run of minSpan or more consecutive whitespace-
// normalized, case-insensitive tokens shared between summaryText and any
// source body. It returns the first such span found, for use in the
// refined retry prompt.
func copiedSpan(summaryText string, sourceBodies []string, minSpan int) (string, bool) {
	if minSpan <= 0 {
		minSpan = 10
	}
	summaryTokens := normalizeTokens(summaryText)
	if len(summaryTokens) < minSpan {
		return "", false
	}

	for _, body := range sourceBodies {
		bodyTokens := normalizeTokens(body)
		if span, ok := longestSharedSpan(summaryTokens, bodyTokens, minSpan); ok {
			return span, true
		}
	}
	return "", false
}

// normalizeTokens lowercases and splits on whitespace after NFC-normalizing
// the input, so a copied span isn't missed just because the model or a
// source used a different Unicode representation of the same characters
// (e.g. a precomposed accented letter vs. a base letter plus combining mark).
func normalizeTokens(s string) []string {
	return strings.Fields(strings.ToLower(norm.NFC.String(s)))
}

// longestSharedSpan finds a run of minSpan consecutive tokens appearing
// identically, in order, in both a and b.
func longestSharedSpan(a, b []string, minSpan int) (string, bool) {
	if len(a) < minSpan || len(b) < minSpan {
		return "", false
	}

	bIndex := make(map[string][]int)
	for j, tok := range b {
		bIndex[tok] = append(bIndex[tok], j)
	}

	for i := 0; i+minSpan <= len(a); i++ {
		for _, j := range bIndex[a[i]] {
			if j+minSpan > len(b) {
				continue
			}
			matched := true
			for k := 1; k < minSpan; k++ {
				if a[i+k] != b[j+k] {
					matched = false
					break
				}
			}
			if matched {
				return strings.Join(a[i:i+minSpan], " "), true
			}
		}
	}
	return "", false
}
