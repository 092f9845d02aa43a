package grouper

import (
	"context"
	"log/slog"
	"sort"

	"talk-less/internal/domain/entity"
	"talk-less/internal/observability/metrics"
)

// Config bounds the Grouper's behavior, sourced from PipelineConfig.Grouping.
type Config struct {
	SimilarityThreshold float64
	MinArticlesPerGroup int
	MaxArticlesPerGroup int
	MaxContentTokens    int
}

// Service is the Grouper.
type Service struct {
	embedder EmbeddingModel
	config   Config
}

// NewService builds a Grouper service.
func NewService(embedder EmbeddingModel, config Config) *Service {
	return &Service{embedder: embedder, config: config}
}

// Group partitions articles into topical Groups, per §4.2. enabledSourceIDs
// is the full roster of configured sources, used to compute coverage gaps.
// Grouping never fails globally: embedding errors exclude the offending
// article (logged) and a batch that yields no eligible cluster returns an
// empty, non-error result.
func (s *Service) Group(ctx context.Context, articles []entity.Article, enabledSourceIDs []string) ([]entity.Group, error) {
	byID := make(map[string]entity.Article, len(articles))
	points := make([]point, 0, len(articles))

	for _, a := range articles {
		vec, err := s.embedder.Embed(ctx, a.Title+" "+a.Content)
		if err != nil {
			slog.Warn("embedding failed, excluding article from grouping",
				slog.String("article_id", a.ID), slog.Any("error", err))
			continue
		}
		byID[a.ID] = a
		points = append(points, point{id: a.ID, vector: vec})
	}

	eps := 1 - s.config.SimilarityThreshold
	clustered := densityCluster(points, eps, s.config.MinArticlesPerGroup)

	vectorByID := make(map[string][]float32, len(points))
	for _, p := range points {
		vectorByID[p.id] = p.vector
	}

	groups := make([]entity.Group, 0, len(clustered.clusters))
	for _, memberIDs := range clustered.clusters {
		if len(memberIDs) < s.config.MinArticlesPerGroup {
			metrics.RecordGroupIneligible()
			continue
		}

		memberIDs = applySizeCap(memberIDs, vectorByID, s.config.MaxArticlesPerGroup)

		group := buildGroup(memberIDs, byID, vectorByID, enabledSourceIDs)
		groups = append(groups, group)
		metrics.RecordGroupFormed(group.Size())
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i].ID < groups[j].ID })

	return groups, nil
}

// applySizeCap retains the members closest to the cluster centroid when a
// cluster exceeds maxSize; the rest are dropped from the group (§4.2).
func applySizeCap(memberIDs []string, vectorByID map[string][]float32, maxSize int) []string {
	if maxSize <= 0 || len(memberIDs) <= maxSize {
		return memberIDs
	}

	vectors := make([][]float32, len(memberIDs))
	for i, id := range memberIDs {
		vectors[i] = vectorByID[id]
	}
	c := centroid(vectors)

	type ranked struct {
		id   string
		dist float64
	}
	ranks := make([]ranked, len(memberIDs))
	for i, id := range memberIDs {
		ranks[i] = ranked{id: id, dist: CosineDistance(vectorByID[id], c)}
	}
	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].dist != ranks[j].dist {
			return ranks[i].dist < ranks[j].dist
		}
		return ranks[i].id < ranks[j].id
	})

	kept := make([]string, maxSize)
	for i := 0; i < maxSize; i++ {
		kept[i] = ranks[i].id
	}
	sort.Strings(kept)
	return kept
}

func buildGroup(memberIDs []string, byID map[string]entity.Article, vectorByID map[string][]float32, enabledSourceIDs []string) entity.Group {
	sources := make(map[string]int)
	vectors := make([][]float32, 0, len(memberIDs))
	for _, id := range memberIDs {
		sources[byID[id].SourceID]++
		vectors = append(vectors, vectorByID[id])
	}

	present := make(map[string]bool, len(sources))
	for sourceID := range sources {
		present[sourceID] = true
	}
	var gaps []string
	for _, sourceID := range enabledSourceIDs {
		if !present[sourceID] {
			gaps = append(gaps, sourceID)
		}
	}
	sort.Strings(gaps)

	diversity := float64(len(sources)) / float64(len(memberIDs))

	return entity.Group{
		ID:           entity.GroupID(memberIDs),
		MemberIDs:    memberIDs,
		Sources:      sources,
		Centroid:     centroid(vectors),
		Diversity:    diversity,
		CoverageGaps: gaps,
	}
}
