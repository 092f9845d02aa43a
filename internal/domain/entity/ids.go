package entity

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ArticleID derives a deterministic, collision-resistant article id from a
// canonical URL. When the URL is unavailable, callers fall back to
// ArticleIDFallback.
func ArticleID(canonicalURL string) string {
	return hashHex(canonicalURL)
}

// ArticleIDFallback derives an article id from (source id, title, published
// timestamp) when no canonical URL is available, per §4.1.
func ArticleIDFallback(sourceID, title, publishedAt string) string {
	return hashHex(sourceID + "|" + title + "|" + publishedAt)
}

// GroupID derives a deterministic group id from the set of member article
// ids. The id is invariant under permutation of the input order because the
// ids are sorted before hashing (§8 invariant 4).
func GroupID(memberIDs []string) string {
	sorted := append([]string(nil), memberIDs...)
	sort.Strings(sorted)
	return hashHex(strings.Join(sorted, ","))
}

// SummaryID derives a deterministic summary id from a group id and a
// generation salt (e.g. the prompt template version and retry attempt),
// so re-running the pipeline with identical salts reproduces the same id.
func SummaryID(groupID, salt string) string {
	return hashHex(groupID + "|" + salt)
}

func hashHex(s string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(s))
}
