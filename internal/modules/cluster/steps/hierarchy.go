package steps

import (
	"context"
	"fmt"
	"sort"

	apperrors "github.com/mnemoatlas/atlas-backend/internal/pkg/errors"
	"github.com/mnemoatlas/atlas-backend/internal/platform/logger"
)

type HierarchyDeps struct {
	Log         *logger.Logger
	Partitioner Partitioner
}

type HierarchyInput struct {
	// Vectors are the unit-normalized member embeddings, one row per graph
	// node, as produced by BuildKNNGraph.
	Vectors      [][]float32
	L1Membership []int
	// MetaThreshold is the minimum centroid-to-centroid similarity for a
	// meta-graph edge. Cluster-level similarity runs lower than item-level
	// similarity, so this is looser than the k-NN threshold.
	MetaThreshold float64
	Resolution    float64
}

type HierarchyOutput struct {
	// L1ToL2 maps every L1 cluster id to its domain-level L2 cluster id.
	L1ToL2    map[int]int
	L2Count   int
	MetaEdges int
}

// BuildHierarchy aggregates L1 clusters into L2 domains: normalized mean
// centroids per L1 cluster, a pairwise centroid similarity graph, and a
// second community-detection pass at a coarser resolution.
func BuildHierarchy(ctx context.Context, deps HierarchyDeps, in HierarchyInput) (HierarchyOutput, error) {
	out := HierarchyOutput{L1ToL2: map[int]int{}}
	if deps.Partitioner == nil {
		return out, fmt.Errorf("hierarchy: missing partitioner: %w", apperrors.ErrInvalidArgument)
	}
	if len(in.Vectors) != len(in.L1Membership) {
		return out, fmt.Errorf("hierarchy: %d vectors vs %d memberships: %w",
			len(in.Vectors), len(in.L1Membership), apperrors.ErrInvalidArgument)
	}
	if len(in.Vectors) == 0 {
		return out, nil
	}

	members := map[int][][]float32{}
	for node, cid := range in.L1Membership {
		members[cid] = append(members[cid], in.Vectors[node])
	}

	// Centroid per L1 cluster. A cluster whose members all lack usable
	// vectors cannot sit in the meta-graph; it becomes its own singleton L2
	// cluster below instead of failing the run.
	centroidIDs := make([]int, 0, len(members))
	orphanIDs := make([]int, 0)
	centroids := map[int][]float32{}
	for cid, vecs := range members {
		if mean, ok := MeanVector(vecs); ok {
			centroids[cid] = NormalizeUnit(mean)
			centroidIDs = append(centroidIDs, cid)
		} else {
			orphanIDs = append(orphanIDs, cid)
		}
	}
	sort.Ints(centroidIDs)
	sort.Ints(orphanIDs)

	// Pairwise centroid similarity; the meta-graph is small enough that the
	// full matrix is fine.
	metaEdges := make([]Edge, 0)
	for i := 0; i < len(centroidIDs); i++ {
		for j := i + 1; j < len(centroidIDs); j++ {
			sim := UnitCosine(centroids[centroidIDs[i]], centroids[centroidIDs[j]])
			if sim > 1 {
				sim = 1
			}
			if sim >= in.MetaThreshold {
				metaEdges = append(metaEdges, Edge{A: i, B: j, Weight: sim})
			}
		}
	}
	out.MetaEdges = len(metaEdges)

	part, err := deps.Partitioner.Partition(ctx, len(centroidIDs), metaEdges, in.Resolution)
	if err != nil {
		return out, fmt.Errorf("hierarchy: %w", err)
	}
	for i, cid := range centroidIDs {
		out.L1ToL2[cid] = part.Membership[i]
	}
	out.L2Count = part.Clusters
	for _, cid := range orphanIDs {
		out.L1ToL2[cid] = out.L2Count
		out.L2Count++
	}

	if deps.Log != nil {
		deps.Log.Info("hierarchy: aggregated clusters",
			"l1_clusters", len(members), "l2_clusters", out.L2Count,
			"meta_edges", out.MetaEdges, "modularity", part.Modularity)
	}
	return out, nil
}
