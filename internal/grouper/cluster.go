package grouper

import (
	"sort"
)

// point is one article's embedding, keyed by article id for tie-breaking.
type point struct {
	id     string
	vector []float32
}

// clusterResult partitions input points into clusters; points not assigned
// to any cluster are noise per the density-clustering definition in §4.2.
type clusterResult struct {
	clusters [][]string // each inner slice is a sorted list of member article ids
}

// densityCluster implements the §4.2 clustering rule: a point belongs to a
// cluster if at least minPoints points (including itself) lie within eps of
// it. Core points chain together into clusters; non-core "border" points
// adjacent to exactly one cluster join it, and ones adjacent to several are
// resolved deterministically — nearest centroid, then smallest sorted-minimum
// member id — rather than by DBSCAN's usual first-come assignment.
func densityCluster(points []point, eps float64, minPoints int) clusterResult {
	n := len(points)
	if n == 0 {
		return clusterResult{}
	}

	neighbors := make([][]int, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			if CosineDistance(points[i].vector, points[j].vector) <= eps {
				neighbors[i] = append(neighbors[i], j)
			}
		}
	}

	isCore := make([]bool, n)
	for i := range points {
		if len(neighbors[i])+1 >= minPoints {
			isCore[i] = true
		}
	}

	coreCluster := make([]int, n)
	for i := range coreCluster {
		coreCluster[i] = -1
	}

	var clusters [][]int
	for i := 0; i < n; i++ {
		if !isCore[i] || coreCluster[i] != -1 {
			continue
		}
		clusterIdx := len(clusters)
		members := expandCoreCluster(i, neighbors, isCore, coreCluster, clusterIdx)
		clusters = append(clusters, members)
	}

	// Assign each non-core point to every cluster with a core neighbor, then
	// resolve ties deterministically.
	candidateClustersOf := make([][]int, n)
	for i := 0; i < n; i++ {
		if isCore[i] {
			continue
		}
		seen := make(map[int]bool)
		for _, nb := range neighbors[i] {
			if isCore[nb] && coreCluster[nb] != -1 && !seen[coreCluster[nb]] {
				seen[coreCluster[nb]] = true
				candidateClustersOf[i] = append(candidateClustersOf[i], coreCluster[nb])
			}
		}
	}

	finalMembers := make([][]int, len(clusters))
	for i, members := range clusters {
		finalMembers[i] = append([]int(nil), members...)
	}

	for i := 0; i < n; i++ {
		candidates := candidateClustersOf[i]
		if len(candidates) == 0 {
			continue // noise
		}
		chosen := resolveBorderPoint(points[i], candidates, points, clusters)
		finalMembers[chosen] = append(finalMembers[chosen], i)
	}

	result := make([][]string, 0, len(finalMembers))
	for _, members := range finalMembers {
		ids := make([]string, 0, len(members))
		for _, idx := range members {
			ids = append(ids, points[idx].id)
		}
		sort.Strings(ids)
		result = append(result, ids)
	}

	return clusterResult{clusters: result}
}

// resolveBorderPoint picks the cluster whose (pre-border) centroid is
// closest to pt; ties go to the cluster with the smaller sorted-minimum
// member id, per §4.2's deterministic tie-breaking rule.
func resolveBorderPoint(pt point, candidates []int, allPoints []point, clusters [][]int) int {
	best := candidates[0]
	bestDist := centroidDistance(pt, clusters[best], allPoints)
	bestMinID := sortedMinID(clusters[best], allPoints)

	for _, c := range candidates[1:] {
		dist := centroidDistance(pt, clusters[c], allPoints)
		minID := sortedMinID(clusters[c], allPoints)

		if dist < bestDist || (dist == bestDist && minID < bestMinID) {
			best = c
			bestDist = dist
			bestMinID = minID
		}
	}

	return best
}

func centroidDistance(pt point, memberIdx []int, allPoints []point) float64 {
	vectors := make([][]float32, len(memberIdx))
	for i, idx := range memberIdx {
		vectors[i] = allPoints[idx].vector
	}
	return CosineDistance(pt.vector, centroid(vectors))
}

func sortedMinID(memberIdx []int, allPoints []point) string {
	min := allPoints[memberIdx[0]].id
	for _, idx := range memberIdx[1:] {
		if allPoints[idx].id < min {
			min = allPoints[idx].id
		}
	}
	return min
}

// expandCoreCluster performs breadth-first expansion across core points
// only; border points are resolved separately once all core clusters exist.
func expandCoreCluster(seed int, neighbors [][]int, isCore []bool, coreCluster []int, clusterIdx int) []int {
	queue := []int{seed}
	coreCluster[seed] = clusterIdx
	members := []int{seed}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, nb := range neighbors[cur] {
			if !isCore[nb] || coreCluster[nb] != -1 {
				continue
			}
			coreCluster[nb] = clusterIdx
			members = append(members, nb)
			queue = append(queue, nb)
		}
	}

	return members
}

// centroid averages a set of vectors; the result is not renormalized since
// it is only used for distance comparisons, never treated as an embedding.
func centroid(vectors [][]float32) []float32 {
	if len(vectors) == 0 {
		return nil
	}
	dims := len(vectors[0])
	sum := make([]float64, dims)
	for _, v := range vectors {
		for i, x := range v {
			sum[i] += float64(x)
		}
	}
	out := make([]float32, dims)
	for i, s := range sum {
		out[i] = float32(s / float64(len(vectors)))
	}
	return out
}
