package cluster_build

import (
	"fmt"

	"github.com/mnemoatlas/atlas-backend/internal/jobs/runtime"
	"github.com/mnemoatlas/atlas-backend/internal/modules/cluster/steps"
	"github.com/mnemoatlas/atlas-backend/internal/observability"
)

func (p *Pipeline) Run(jc *runtime.Context) error {
	if jc == nil {
		return nil
	}
	if p.src == nil || p.store == nil || p.partitioner == nil {
		jc.Fail("validate", fmt.Errorf("cluster_build: missing collaborators"))
		return nil
	}

	ctx, span := observability.StartStage(jc.Ctx, "cluster_build")
	defer span.End()

	jc.Progress("fetch", 5, "Fetching memories with embeddings")
	memories, err := p.src.Fetch(ctx, p.cfg.MaxMemories)
	if err != nil {
		jc.Fail("fetch", err)
		return nil
	}

	jc.Progress("cluster", 30, "Clustering memory embeddings")
	out, err := steps.ClusterBuild(ctx, steps.ClusterBuildDeps{
		Log:         p.log,
		Partitioner: p.partitioner,
	}, steps.ClusterBuildInput{
		Memories:      memories,
		K:             p.cfg.KNNK,
		Threshold:     p.cfg.SimilarityThreshold,
		BatchSize:     p.cfg.BatchSize,
		Dim:           p.cfg.EmbeddingDim,
		BudgetBytes:   p.cfg.SimilarityBudgetBytes(),
		L1Resolution:  p.cfg.L1Resolution,
		L2Resolution:  p.cfg.L2Resolution,
		MetaThreshold: p.cfg.MetaThreshold,
		SampleSize:    p.cfg.SampleSize,
		MinMemories:   p.cfg.MinMemories,
	})
	if err != nil {
		jc.Fail("cluster", err)
		return nil
	}
	if out.Dropped > 0 {
		p.log.Warn("cluster_build: memories excluded for unusable embeddings", "dropped", out.Dropped)
	}

	jc.Progress("persist", 90, "Writing clustering artifact")
	path, err := p.store.WriteClustering(out.Result)
	if err != nil {
		jc.Fail("persist", err)
		return nil
	}

	jc.Succeed("done", map[string]any{
		"artifact":       path,
		"total_memories": out.Result.Metadata.TotalMemories,
		"l1_clusters":    out.Result.Metadata.L1Clusters,
		"l2_clusters":    out.Result.Metadata.L2Clusters,
		"edges":          out.Edges,
		"dropped":        out.Dropped,
		"degenerate":     out.Degenerate,
	})
	return nil
}
