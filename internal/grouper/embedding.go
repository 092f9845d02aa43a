// Package grouper implements the Grouper: it embeds articles into a shared
// vector space, clusters them by semantic similarity, and annotates each
// resulting Group with perspective and coverage metrics (§4.2).
package grouper

import (
	"context"
	"math"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// EmbeddingModel maps article text to a unit-normalized vector. The only
// contract callers may rely on is dimensionality and unit length; the
// clustering code compares vectors by cosine distance regardless of which
// implementation produced them.
type EmbeddingModel interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// HashEmbedder is the default EmbeddingModel: a deterministic, dependency-free
// bag-of-words projection via feature hashing (the "hashing trick"). Each
// token votes on a pseudo-random dimension determined by xxhash of the
// token, and the resulting vector is L2-normalized. It has none of a trained
// model's semantic nuance, but it is stable, fast, and requires no external
// service — callers needing real semantic embeddings swap in a different
// EmbeddingModel (e.g. backed by an LLM provider's embeddings endpoint).
type HashEmbedder struct {
	dimensions int
	maxTokens  int
}

// NewHashEmbedder builds a HashEmbedder with the given vector dimensionality
// and the maximum number of leading tokens considered per document.
func NewHashEmbedder(dimensions, maxTokens int) *HashEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	if maxTokens <= 0 {
		maxTokens = 256
	}
	return &HashEmbedder{dimensions: dimensions, maxTokens: maxTokens}
}

// Dimensions returns the embedder's fixed vector size.
func (h *HashEmbedder) Dimensions() int { return h.dimensions }

// Embed tokenizes text, hashes each of the first maxTokens tokens into a
// dimension (with a sign derived from a second hash bit), accumulates votes,
// and L2-normalizes the result.
func (h *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float64, h.dimensions)

	tokens := strings.Fields(strings.ToLower(text))
	if len(tokens) > h.maxTokens {
		tokens = tokens[:h.maxTokens]
	}

	for _, tok := range tokens {
		sum := xxhash.Sum64String(tok)
		dim := int(sum % uint64(h.dimensions))
		sign := 1.0
		if (sum>>1)&1 == 1 {
			sign = -1.0
		}
		vec[dim] += sign
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	out := make([]float32, h.dimensions)
	if norm == 0 {
		return out, nil
	}
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out, nil
}

// CosineDistance computes 1 - cos(u, v) for two equal-length vectors. Both
// u and v are assumed unit-normalized, per the EmbeddingModel contract.
func CosineDistance(u, v []float32) float64 {
	var dot float64
	for i := range u {
		dot += float64(u[i]) * float64(v[i])
	}
	return 1 - dot
}
