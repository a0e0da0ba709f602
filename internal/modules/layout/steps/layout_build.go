package steps

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/mnemoatlas/atlas-backend/internal/domain"
	apperrors "github.com/mnemoatlas/atlas-backend/internal/pkg/errors"
	"github.com/mnemoatlas/atlas-backend/internal/platform/logger"
)

type LayoutBuildDeps struct {
	Log *logger.Logger
}

type LayoutBuildInput struct {
	Clustering domain.ClusteringResult

	// Id-gap constants for the synthetic adjacency at each level.
	L1MaxGap int
	L2MaxGap int

	L1 ForceConfig
	L2 ForceConfig
}

type LayoutBuildOutput struct {
	Result domain.LayoutResult
}

// LayoutBuild computes 2D positions for both cluster levels and every
// memory, entirely from a clustering result document. Keeping the input to
// the artifact alone means layout can be recomputed without re-clustering.
func LayoutBuild(ctx context.Context, deps LayoutBuildDeps, in LayoutBuildInput) (LayoutBuildOutput, error) {
	out := LayoutBuildOutput{}
	if in.L1MaxGap <= 0 || in.L2MaxGap <= 0 {
		return out, fmt.Errorf("layout_build: id gaps must be positive, got %d/%d: %w",
			in.L1MaxGap, in.L2MaxGap, apperrors.ErrInvalidArgument)
	}

	l2Sizes, err := parseClusterSizes(in.Clustering.Clusters.L2)
	if err != nil {
		return out, fmt.Errorf("layout_build: l2 ids: %w", err)
	}
	l2Graph := BuildClusterGraph(l2Sizes, in.L2MaxGap)
	l2Positions, err := ForceLayout(ctx, deps.Log, l2Graph, in.L2)
	if err != nil {
		return out, fmt.Errorf("layout_build: l2 layout: %w", err)
	}

	l1Sizes := make(map[int]int, len(in.Clustering.Clusters.L1))
	for key, info := range in.Clustering.Clusters.L1 {
		id, err := strconv.Atoi(key)
		if err != nil {
			return out, fmt.Errorf("layout_build: l1 ids: bad cluster key %q: %w", key, apperrors.ErrInvalidArgument)
		}
		l1Sizes[id] = info.Size
	}
	l1Graph := BuildClusterGraph(l1Sizes, in.L1MaxGap)
	l1Positions, err := ForceLayout(ctx, deps.Log, l1Graph, in.L1)
	if err != nil {
		return out, fmt.Errorf("layout_build: l1 layout: %w", err)
	}

	memoryPositions := ScatterMemories(in.Clustering.Memories, l1Positions)

	out.Result = domain.LayoutResult{
		Metadata: domain.LayoutMetadata{
			GeneratedAt:   time.Now().UTC().Format(time.RFC3339),
			TotalMemories: len(memoryPositions),
			L1Clusters:    len(l1Positions),
			L2Clusters:    len(l2Positions),
		},
		Positions: domain.PositionMaps{
			L1Clusters: stringKeyed(l1Positions),
			L2Clusters: stringKeyed(l2Positions),
			Memories:   memoryPositions,
		},
		Clusters: in.Clustering.Clusters,
	}
	if deps.Log != nil {
		deps.Log.Info("layout_build: assembled layout",
			"memories", len(memoryPositions),
			"l1_clusters", len(l1Positions),
			"l2_clusters", len(l2Positions))
	}
	return out, nil
}

func parseClusterSizes(l2 map[string]domain.L2ClusterInfo) (map[int]int, error) {
	sizes := make(map[int]int, len(l2))
	for key, info := range l2 {
		id, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("bad cluster key %q: %w", key, apperrors.ErrInvalidArgument)
		}
		sizes[id] = info.TotalSize
	}
	return sizes, nil
}

func stringKeyed(positions map[int]domain.Position) map[string]domain.Position {
	out := make(map[string]domain.Position, len(positions))
	for id, pos := range positions {
		out[strconv.Itoa(id)] = pos
	}
	return out
}
