package steps

import (
	"context"
	"math"
	"reflect"
	"testing"
)

func smallGraph() ClusterGraph {
	return ClusterGraph{
		Nodes: []ClusterNode{{ID: 0, Size: 10}, {ID: 1, Size: 5}, {ID: 2, Size: 5}, {ID: 3, Size: 1}},
		Edges: []ClusterEdge{
			{A: 0, B: 1, Weight: 1},
			{A: 1, B: 2, Weight: 1},
			{A: 2, B: 3, Weight: 1},
		},
	}
}

func forceTestConfig(seed int64) ForceConfig {
	return ForceConfig{
		Iterations:   50,
		ScalingRatio: 20,
		Gravity:      1,
		Theta:        1.2,
		Seed:         seed,
	}
}

func TestForceLayout_Empty(t *testing.T) {
	pos, err := ForceLayout(context.Background(), nil, ClusterGraph{}, forceTestConfig(1))
	if err != nil {
		t.Fatalf("ForceLayout: %v", err)
	}
	if len(pos) != 0 {
		t.Fatalf("expected no positions, got %v", pos)
	}
}

func TestForceLayout_SingleNodeAtOrigin(t *testing.T) {
	g := ClusterGraph{Nodes: []ClusterNode{{ID: 7, Size: 3}}}
	pos, err := ForceLayout(context.Background(), nil, g, forceTestConfig(1))
	if err != nil {
		t.Fatalf("ForceLayout: %v", err)
	}
	p, ok := pos[7]
	if !ok {
		t.Fatalf("missing position for node 7")
	}
	if p.X != 0 || p.Y != 0 {
		t.Fatalf("lone node should sit at the origin, got %+v", p)
	}
}

func TestForceLayout_FiniteAndDistinct(t *testing.T) {
	pos, err := ForceLayout(context.Background(), nil, smallGraph(), forceTestConfig(3))
	if err != nil {
		t.Fatalf("ForceLayout: %v", err)
	}
	if len(pos) != 4 {
		t.Fatalf("expected 4 positions, got %d", len(pos))
	}
	seen := map[[2]float64]int{}
	for id, p := range pos {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			t.Fatalf("node %d has non-finite position %+v", id, p)
		}
		key := [2]float64{p.X, p.Y}
		if prev, dup := seen[key]; dup {
			t.Fatalf("nodes %d and %d share position %+v", prev, id, p)
		}
		seen[key] = id
	}
}

func TestForceLayout_SeedIsReproducible(t *testing.T) {
	a, err := ForceLayout(context.Background(), nil, smallGraph(), forceTestConfig(42))
	if err != nil {
		t.Fatalf("ForceLayout: %v", err)
	}
	b, err := ForceLayout(context.Background(), nil, smallGraph(), forceTestConfig(42))
	if err != nil {
		t.Fatalf("ForceLayout: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same seed produced different layouts:\n%v\n%v", a, b)
	}
}

func TestForceLayout_DisconnectedNodesStayBounded(t *testing.T) {
	g := ClusterGraph{
		Nodes: []ClusterNode{{ID: 0, Size: 1}, {ID: 1, Size: 1}, {ID: 2, Size: 1}},
	}
	cfg := forceTestConfig(5)
	cfg.Iterations = 1000
	pos, err := ForceLayout(context.Background(), nil, g, cfg)
	if err != nil {
		t.Fatalf("ForceLayout: %v", err)
	}
	// Gravity keeps even an edgeless graph within a sane envelope no matter
	// how long the simulation runs: the speed cap stops settled nodes from
	// converting residual force into per-iteration drift.
	bound := cfg.ScalingRatio * 20
	for id, p := range pos {
		if math.Hypot(p.X, p.Y) > bound {
			t.Fatalf("node %d drifted to %+v", id, p)
		}
	}
}

func TestForceLayout_RejectsDanglingEdge(t *testing.T) {
	g := ClusterGraph{
		Nodes: []ClusterNode{{ID: 0, Size: 1}, {ID: 1, Size: 1}},
		Edges: []ClusterEdge{{A: 0, B: 9, Weight: 1}},
	}
	if _, err := ForceLayout(context.Background(), nil, g, forceTestConfig(1)); err == nil {
		t.Fatalf("expected error for edge into missing node")
	}
}

func TestForceLayout_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ForceLayout(ctx, nil, smallGraph(), forceTestConfig(1)); err == nil {
		t.Fatalf("expected context error")
	}
}
