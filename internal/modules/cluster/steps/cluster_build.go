package steps

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/mnemoatlas/atlas-backend/internal/domain"
	apperrors "github.com/mnemoatlas/atlas-backend/internal/pkg/errors"
	"github.com/mnemoatlas/atlas-backend/internal/platform/logger"
)

const previewRunes = 100

type ClusterBuildDeps struct {
	Log         *logger.Logger
	Partitioner Partitioner
}

type ClusterBuildInput struct {
	Memories []domain.Memory

	K             int
	Threshold     float64
	BatchSize     int
	Dim           int
	BudgetBytes   int64
	L1Resolution  float64
	L2Resolution  float64
	MetaThreshold float64
	SampleSize    int
	// MinMemories guards against clustering a corpus too small to mean
	// anything; below it the step returns an empty-but-valid result.
	MinMemories int
}

type ClusterBuildOutput struct {
	Result  domain.ClusteringResult
	Dropped int
	Edges   int
	// Degenerate is set when no clustering happened (no usable embeddings or
	// corpus below the minimum). The result is still a valid document.
	Degenerate bool
}

// ClusterBuild runs the whole clustering half of the pipeline: similarity
// graph, L1 communities, centroid hierarchy into L2, labels, and the final
// clustering document.
func ClusterBuild(ctx context.Context, deps ClusterBuildDeps, in ClusterBuildInput) (ClusterBuildOutput, error) {
	out := ClusterBuildOutput{}
	if deps.Partitioner == nil {
		return out, fmt.Errorf("cluster_build: missing partitioner: %w", apperrors.ErrInvalidArgument)
	}
	if in.SampleSize <= 0 {
		return out, fmt.Errorf("cluster_build: sample size must be positive, got %d: %w", in.SampleSize, apperrors.ErrInvalidArgument)
	}
	if in.L1Resolution <= 0 || in.L2Resolution <= 0 {
		return out, fmt.Errorf("cluster_build: resolutions must be positive, got %v/%v: %w",
			in.L1Resolution, in.L2Resolution, apperrors.ErrInvalidArgument)
	}

	graph, err := BuildKNNGraph(ctx, KNNGraphDeps{Log: deps.Log}, KNNGraphInput{
		Memories:    in.Memories,
		K:           in.K,
		Threshold:   in.Threshold,
		BatchSize:   in.BatchSize,
		Dim:         in.Dim,
		BudgetBytes: in.BudgetBytes,
	})
	if err != nil {
		return out, fmt.Errorf("cluster_build: %w", err)
	}
	out.Dropped = graph.Dropped
	out.Edges = len(graph.Edges)

	if graph.Nodes == 0 || graph.Nodes < in.MinMemories {
		if deps.Log != nil {
			deps.Log.Warn("cluster_build: not enough memories with embeddings to cluster",
				"valid", graph.Nodes, "dropped", graph.Dropped, "min", in.MinMemories)
		}
		out.Degenerate = true
		out.Result = emptyClusteringResult(in)
		return out, nil
	}

	l1, err := deps.Partitioner.Partition(ctx, graph.Nodes, graph.Edges, in.L1Resolution)
	if err != nil {
		return out, fmt.Errorf("cluster_build: l1 partition: %w", err)
	}
	if deps.Log != nil {
		deps.Log.Info("cluster_build: l1 communities",
			"clusters", l1.Clusters, "modularity", l1.Modularity)
	}

	hier, err := BuildHierarchy(ctx, HierarchyDeps{Log: deps.Log, Partitioner: deps.Partitioner}, HierarchyInput{
		Vectors:       graph.Vectors,
		L1Membership:  l1.Membership,
		MetaThreshold: in.MetaThreshold,
		Resolution:    in.L2Resolution,
	})
	if err != nil {
		return out, fmt.Errorf("cluster_build: %w", err)
	}

	labels := BuildClusterLabels(LabelInput{
		Memories:   in.Memories,
		ValidIndex: graph.ValidIndex,
		Membership: l1.Membership,
		SampleSize: in.SampleSize,
	})

	out.Result = assembleClusteringResult(in, graph, l1, hier, labels)
	return out, nil
}

func emptyClusteringResult(in ClusterBuildInput) domain.ClusteringResult {
	return domain.ClusteringResult{
		Metadata: domain.ClusteringMetadata{
			GeneratedAt: time.Now().UTC().Format(time.RFC3339),
			Parameters: domain.ClusterParameters{
				KNNK:                in.K,
				SimilarityThreshold: in.Threshold,
			},
		},
		Memories: []domain.MemoryAssignment{},
		Clusters: domain.ClusterIndex{
			L1: map[string]domain.L1ClusterInfo{},
			L2: map[string]domain.L2ClusterInfo{},
		},
	}
}

func assembleClusteringResult(in ClusterBuildInput, graph KNNGraphOutput, l1 Partition, hier HierarchyOutput, labels map[int]domain.L1ClusterInfo) domain.ClusteringResult {
	res := emptyClusteringResult(in)
	res.Metadata.TotalMemories = graph.Nodes
	res.Metadata.L1Clusters = l1.Clusters
	res.Metadata.L2Clusters = hier.L2Count

	for node := 0; node < graph.Nodes; node++ {
		m := in.Memories[graph.ValidIndex[node]]
		l1id := l1.Membership[node]
		res.Memories = append(res.Memories, domain.MemoryAssignment{
			ID:             m.ID,
			Category:       m.Category,
			ClusterL1:      l1id,
			ClusterL2:      hier.L1ToL2[l1id],
			ContentPreview: contentPreview(m.Content),
		})
	}

	for cid, info := range labels {
		res.Clusters.L1[strconv.Itoa(cid)] = info
	}

	l2members := map[int][]int{}
	for l1id, l2id := range hier.L1ToL2 {
		l2members[l2id] = append(l2members[l2id], l1id)
	}
	for l2id, l1ids := range l2members {
		sort.Ints(l1ids)
		total := 0
		for _, l1id := range l1ids {
			total += labels[l1id].Size
		}
		res.Clusters.L2[strconv.Itoa(l2id)] = domain.L2ClusterInfo{
			L1Clusters: l1ids,
			TotalSize:  total,
		}
	}
	return res
}

func contentPreview(content string) string {
	if content == "" {
		return ""
	}
	r := []rune(content)
	if len(r) > previewRunes {
		r = r[:previewRunes]
	}
	return string(r) + "..."
}
