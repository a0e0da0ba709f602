package steps

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/barneshut"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/mnemoatlas/atlas-backend/internal/domain"
	apperrors "github.com/mnemoatlas/atlas-backend/internal/pkg/errors"
	"github.com/mnemoatlas/atlas-backend/internal/platform/logger"
)

// ForceConfig tunes the layout simulation. Zero values are filled with the
// defaults below.
type ForceConfig struct {
	Iterations int
	// ScalingRatio spreads the whole layout; the coarse L2 graph uses a much
	// larger value than L1 so zoomed-out domains separate visually.
	ScalingRatio float64
	Gravity      float64
	// Theta is the Barnes-Hut opening angle for the far-field repulsion
	// approximation.
	Theta               float64
	JitterTolerance     float64
	EdgeWeightInfluence float64
	// OutboundAttraction divides a node's edge attraction by its mass so
	// hub clusters do not collapse their neighborhoods onto themselves.
	OutboundAttraction bool
	Seed               int64
}

func (c ForceConfig) withDefaults() ForceConfig {
	if c.Iterations <= 0 {
		c.Iterations = 1000
	}
	if c.ScalingRatio <= 0 {
		c.ScalingRatio = 10
	}
	if c.Gravity <= 0 {
		c.Gravity = 1
	}
	if c.Theta <= 0 {
		c.Theta = 1.2
	}
	if c.JitterTolerance <= 0 {
		c.JitterTolerance = 1
	}
	if c.EdgeWeightInfluence <= 0 {
		c.EdgeWeightInfluence = 1
	}
	return c
}

type bhParticle struct {
	pos  r2.Vec
	mass float64
}

func (p *bhParticle) Coord2() r2.Vec { return p.pos }
func (p *bhParticle) Mass() float64  { return p.mass }

// ForceLayout runs an attraction/repulsion simulation over the cluster graph
// and returns a position per cluster id. Repulsion between all pairs goes
// through a Barnes-Hut plane so each iteration stays sub-quadratic;
// attraction follows the synthetic edges; a gravity term pulls everything
// toward the origin so disconnected nodes cannot drift unboundedly.
func ForceLayout(ctx context.Context, log *logger.Logger, g ClusterGraph, cfg ForceConfig) (map[int]domain.Position, error) {
	cfg = cfg.withDefaults()
	positions := make(map[int]domain.Position, len(g.Nodes))
	n := len(g.Nodes)
	if n == 0 {
		return positions, nil
	}
	if n == 1 {
		positions[g.Nodes[0].ID] = domain.Position{}
		return positions, nil
	}

	idx := make(map[int]int, n)
	particles := make([]*bhParticle, n)
	rnd := rand.New(rand.NewSource(cfg.Seed))
	initRadius := cfg.ScalingRatio * math.Sqrt(float64(n))
	for i, node := range g.Nodes {
		idx[node.ID] = i
		angle := 2 * math.Pi * rnd.Float64()
		r := initRadius * math.Sqrt(rnd.Float64())
		mass := float64(node.Size)
		if mass < 1 {
			mass = 1
		}
		particles[i] = &bhParticle{
			pos:  r2.Vec{X: r * math.Cos(angle), Y: r * math.Sin(angle)},
			mass: mass,
		}
	}
	for _, e := range g.Edges {
		if _, ok := idx[e.A]; !ok {
			return nil, fmt.Errorf("force_layout: edge endpoint %d not in graph: %w", e.A, apperrors.ErrInvalidArgument)
		}
		if _, ok := idx[e.B]; !ok {
			return nil, fmt.Errorf("force_layout: edge endpoint %d not in graph: %w", e.B, apperrors.ErrInvalidArgument)
		}
	}

	repulse := func(p1, p2 barneshut.Particle2, m1, m2 float64, v r2.Vec) r2.Vec {
		d2 := v.X*v.X + v.Y*v.Y
		if d2 == 0 {
			return r2.Vec{X: cfg.ScalingRatio, Y: 0}
		}
		d := math.Sqrt(d2)
		f := cfg.ScalingRatio * (m1 + 1) * (m2 + 1) / d
		// v points from p1 to p2; repulsion pushes p1 the other way.
		return r2.Scale(-f/d, v)
	}

	forces := make([]r2.Vec, n)
	prevForces := make([]r2.Vec, n)
	speed := 1.0

	for iter := 0; iter < cfg.Iterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		bh := make([]barneshut.Particle2, n)
		for i, p := range particles {
			bh[i] = p
		}
		plane, err := barneshut.NewPlane(bh)
		if err != nil {
			return nil, fmt.Errorf("force_layout: %w", err)
		}

		for i, p := range particles {
			forces[i] = plane.ForceOn(p, cfg.Theta, repulse)
		}

		for _, e := range g.Edges {
			a, b := idx[e.A], idx[e.B]
			delta := r2.Sub(particles[b].pos, particles[a].pos)
			w := math.Pow(e.Weight, cfg.EdgeWeightInfluence)
			// Linear attraction proportional to distance.
			fa := r2.Scale(w, delta)
			fb := r2.Scale(-1, fa)
			if cfg.OutboundAttraction {
				fa = r2.Scale(1/(particles[a].mass+1), fa)
				fb = r2.Scale(1/(particles[b].mass+1), fb)
			}
			forces[a] = r2.Add(forces[a], fa)
			forces[b] = r2.Add(forces[b], fb)
		}

		for i, p := range particles {
			d := math.Hypot(p.pos.X, p.pos.Y)
			if d > 0 {
				f := cfg.Gravity * (p.mass + 1)
				forces[i] = r2.Add(forces[i], r2.Scale(-f/d, p.pos))
			}
		}

		// Adaptive global speed: swing measures how much each node's force
		// flips between iterations, traction how much it persists. Jittery
		// simulations slow down, settled ones speed up.
		var swing, traction float64
		for i, p := range particles {
			diff := r2.Sub(forces[i], prevForces[i])
			sum := r2.Add(forces[i], prevForces[i])
			swing += p.mass * math.Hypot(diff.X, diff.Y)
			traction += 0.5 * p.mass * math.Hypot(sum.X, sum.Y)
		}
		if swing > 0 {
			target := cfg.JitterTolerance * traction / swing
			if target < speed*1.5 {
				speed = target
			} else {
				speed = speed * 1.5
			}
		}
		// A settled simulation has swing near zero and an unbounded raw
		// target; without this cap the residual force on isolated nodes
		// turns into constant drift instead of a resting point.
		if max := 10 * cfg.JitterTolerance; speed > max {
			speed = max
		}
		if speed <= 0 || math.IsNaN(speed) || math.IsInf(speed, 0) {
			speed = 1
		}

		for i, p := range particles {
			diff := r2.Sub(forces[i], prevForces[i])
			nodeSwing := math.Hypot(diff.X, diff.Y)
			factor := 0.1 * speed / (1 + speed*math.Sqrt(nodeSwing))
			disp := r2.Scale(factor, forces[i])
			if d := math.Hypot(disp.X, disp.Y); d > cfg.ScalingRatio {
				disp = r2.Scale(cfg.ScalingRatio/d, disp)
			}
			p.pos = r2.Add(p.pos, disp)
			prevForces[i] = forces[i]
		}
	}

	for i, node := range g.Nodes {
		positions[node.ID] = domain.Position{X: particles[i].pos.X, Y: particles[i].pos.Y}
	}
	if log != nil {
		log.Info("force_layout: computed positions",
			"nodes", n, "edges", len(g.Edges), "iterations", cfg.Iterations)
	}
	return positions, nil
}
