package summarizer

import (
	"fmt"
	"strings"

	"talk-less/internal/domain/entity"
)

// PromptVersion identifies the fixed template below; it is logged with
// every summary so a later audit can reconstruct exactly what the model
// was asked to do (§4.3).
const PromptVersion = "v1"

// articlePayload is one source article as rendered into the prompt.
type articlePayload struct {
	SourceName string
	Title      string
	Body       string
}

// buildPrompt renders the fixed summarization template for a group. perArticleTokenBudget
// bounds each article's body by rune count (a token is approximated as 4 runes,
// matching the conservative ratio the Ingestor already assumes for readability payloads).
func buildPrompt(articles []articlePayload, minLen, maxLen, perArticleTokenBudget int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are a news synthesis assistant. Using only the source articles below, "+
		"write a single transformative summary of %d to %d characters that covers the "+
		"perspectives present across all sources.\n\n", minLen, maxLen)
	b.WriteString("Rules:\n")
	b.WriteString("- Do not copy sentences or long phrases verbatim from any source; rewrite in your own words.\n")
	b.WriteString("- Cite every substantive claim with the source it came from, using the exact form [Source: <source name>].\n")
	b.WriteString("- Cite at least one distinct source for each source listed below.\n")
	b.WriteString("- Do not invent sources or facts not present below.\n\n")

	b.WriteString("Source articles:\n")
	budget := perArticleTokenBudget * 4
	for i, a := range articles {
		body := truncateRunes(a.Body, budget)
		fmt.Fprintf(&b, "%d. Source: %s\n   Title: %s\n   Body: %s\n\n", i+1, a.SourceName, a.Title, body)
	}

	return b.String()
}

// refinePrompt appends a correction instruction describing the specific
// validation failure from the previous attempt (§4.3).
func refinePrompt(base string, reason string, detail string) string {
	var b strings.Builder
	b.WriteString(base)
	b.WriteString("\nThe previous attempt was rejected: ")
	switch reason {
	case "copied_span":
		fmt.Fprintf(&b, "it copied the phrase %q verbatim. Rewrite that passage entirely in your own words.\n", detail)
	case "length":
		fmt.Fprintf(&b, "its length was out of bounds (%s). Adjust the length to fit the requirement above.\n", detail)
	case "citation_coverage":
		fmt.Fprintf(&b, "it did not cite enough distinct sources (%s). Add citations covering more sources.\n", detail)
	case "temperature":
		b.WriteString("the generation temperature exceeded the configured maximum. This will be corrected automatically.\n")
	default:
		fmt.Fprintf(&b, "%s. Address this in the rewrite.\n", detail)
	}
	return b.String()
}

func truncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= maxRunes {
		return s
	}
	return string(r[:maxRunes]) + "..."
}

// payloadsForGroup resolves a group's member articles into prompt payloads,
// keeping the order of members; summarizeGroup passes them sorted by article
// id, which keeps the prompt text deterministic across runs.
func payloadsForGroup(members []entity.Article, sourceNames map[string]string) []articlePayload {
	payloads := make([]articlePayload, 0, len(members))
	for _, a := range members {
		name := sourceNames[a.SourceID]
		if name == "" {
			name = a.SourceID
		}
		payloads = append(payloads, articlePayload{SourceName: name, Title: a.Title, Body: a.Content})
	}
	return payloads
}
