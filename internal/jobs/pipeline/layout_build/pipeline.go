package layout_build

import (
	"fmt"

	"github.com/mnemoatlas/atlas-backend/internal/jobs/runtime"
	"github.com/mnemoatlas/atlas-backend/internal/modules/layout/steps"
	"github.com/mnemoatlas/atlas-backend/internal/observability"
)

func (p *Pipeline) Run(jc *runtime.Context) error {
	if jc == nil {
		return nil
	}
	if p.store == nil {
		jc.Fail("validate", fmt.Errorf("layout_build: missing artifact store"))
		return nil
	}

	ctx, span := observability.StartStage(jc.Ctx, "layout_build")
	defer span.End()

	jc.Progress("load", 5, "Loading clustering artifact")
	clustering, err := p.store.ReadClustering()
	if err != nil {
		jc.Fail("load", err)
		return nil
	}

	jc.Progress("layout", 40, "Computing force-directed layout")
	out, err := steps.LayoutBuild(ctx, steps.LayoutBuildDeps{Log: p.log}, steps.LayoutBuildInput{
		Clustering: clustering,
		L1MaxGap:   p.cfg.L1.MaxIDGap,
		L2MaxGap:   p.cfg.L2.MaxIDGap,
		L1: steps.ForceConfig{
			Iterations:          p.cfg.L1.Iterations,
			ScalingRatio:        p.cfg.L1.ScalingRatio,
			Gravity:             p.cfg.Gravity,
			Theta:               p.cfg.Theta,
			JitterTolerance:     p.cfg.JitterTolerance,
			EdgeWeightInfluence: p.cfg.EdgeWeightInfluence,
			OutboundAttraction:  p.cfg.OutboundAttraction,
			Seed:                p.seed,
		},
		L2: steps.ForceConfig{
			Iterations:          p.cfg.L2.Iterations,
			ScalingRatio:        p.cfg.L2.ScalingRatio,
			Gravity:             p.cfg.Gravity,
			Theta:               p.cfg.Theta,
			JitterTolerance:     p.cfg.JitterTolerance,
			EdgeWeightInfluence: p.cfg.EdgeWeightInfluence,
			OutboundAttraction:  p.cfg.OutboundAttraction,
			Seed:                p.seed + 1,
		},
	})
	if err != nil {
		jc.Fail("layout", err)
		return nil
	}

	jc.Progress("persist", 90, "Writing layout artifact")
	path, err := p.store.WriteLayout(out.Result)
	if err != nil {
		jc.Fail("persist", err)
		return nil
	}

	jc.Succeed("done", map[string]any{
		"artifact":    path,
		"memories":    out.Result.Metadata.TotalMemories,
		"l1_clusters": out.Result.Metadata.L1Clusters,
		"l2_clusters": out.Result.Metadata.L2Clusters,
	})
	return nil
}
