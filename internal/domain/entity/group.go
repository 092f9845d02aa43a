package entity

import "github.com/pgvector/pgvector-go"

// Group is a set of Articles judged to cover the same story, produced by
// density clustering over embedding space. Groups are ephemeral: they exist
// only for the duration of a single run and are identified by a hash of
// their sorted member article ids, so identity is stable across re-runs on
// identical input.
type Group struct {
	ID           string
	MemberIDs    []string       // sorted article ids
	Sources      map[string]int // source id -> article count in this group
	Centroid     []float32
	Diversity    float64  // distinct sources / total articles, in [0, 1]
	CoverageGaps []string // enabled source ids absent from this group
}

// CentroidVector wraps Centroid in pgvector's wire type, for a persistence
// collaborator that stores groups in a pgvector-indexed column. In-memory
// clustering in this run always operates on the plain []float32.
func (g *Group) CentroidVector() pgvector.Vector {
	return pgvector.NewVector(g.Centroid)
}

// DistinctSources returns the number of distinct sources represented.
func (g *Group) DistinctSources() int {
	return len(g.Sources)
}

// Size returns the number of member articles.
func (g *Group) Size() int {
	return len(g.MemberIDs)
}
