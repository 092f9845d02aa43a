package summarizer

import (
	"regexp"
	"strings"
)

// citationPattern matches the bracket token literally; the source name
// inside is matched case-insensitively against known source names (§4.3).
var citationPattern = regexp.MustCompile(`\[Source:\s*([^\]]+)\]`)

// extractCitedSourceNames parses every `[Source: <name>]` occurrence in text
// and returns the set of known source names it names, each normalized to
// the canonical capitalization from knownNames. A name not present in
// knownNames (case-insensitively) is dropped: a hallucinated source is a
// validation failure, not a parse error.
func extractCitedSourceNames(text string, knownNames []string) []string {
	byLower := make(map[string]string, len(knownNames))
	for _, n := range knownNames {
		byLower[strings.ToLower(n)] = n
	}

	seen := make(map[string]bool)
	var cited []string
	for _, match := range citationPattern.FindAllStringSubmatch(text, -1) {
		raw := strings.ToLower(strings.TrimSpace(match[1]))
		canonical, ok := byLower[raw]
		if !ok || seen[canonical] {
			continue
		}
		seen[canonical] = true
		cited = append(cited, canonical)
	}
	return cited
}

// buildCitationMap resolves cited source names into the Summary.Citations
// shape: source name -> ids of the group's member articles from that source.
func buildCitationMap(citedNames []string, members []articleRef) map[string][]string {
	citations := make(map[string][]string, len(citedNames))
	for _, name := range citedNames {
		var ids []string
		for _, m := range members {
			if m.SourceName == name {
				ids = append(ids, m.ID)
			}
		}
		if len(ids) > 0 {
			citations[name] = ids
		}
	}
	return citations
}

// articleRef is the minimal per-article projection citation mapping needs.
type articleRef struct {
	ID         string
	SourceName string
}
