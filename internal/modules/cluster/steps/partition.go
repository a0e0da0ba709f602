package steps

import (
	"context"
	"fmt"
	"sort"

	exprand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/community"
	"gonum.org/v1/gonum/graph/simple"

	apperrors "github.com/mnemoatlas/atlas-backend/internal/pkg/errors"
)

// Partition is the contract every community detector must honor: a dense
// membership array, the cluster count, and the modularity of the division.
// Cluster ids are dense in [0, Clusters).
type Partition struct {
	Membership []int
	Clusters   int
	Modularity float64
}

// Partitioner is the pluggable community-detection strategy. Implementations
// may be nondeterministic: the same input can legitimately yield a different
// number of clusters across runs.
type Partitioner interface {
	Partition(ctx context.Context, nodes int, edges []Edge, resolution float64) (Partition, error)
}

// ModularityPartitioner runs gonum's modularity-optimizing community
// detection over the weighted graph. When Seed is non-nil the random source
// is fixed, making repeated runs reproducible; left nil it follows the
// optimizer's default randomness.
type ModularityPartitioner struct {
	Seed *int64
}

func (p *ModularityPartitioner) Partition(ctx context.Context, nodes int, edges []Edge, resolution float64) (Partition, error) {
	out := Partition{}
	if nodes < 0 {
		return out, fmt.Errorf("partition: negative node count %d: %w", nodes, apperrors.ErrInvalidArgument)
	}
	if resolution <= 0 {
		return out, fmt.Errorf("partition: resolution must be positive, got %v: %w", resolution, apperrors.ErrInvalidArgument)
	}
	if nodes == 0 {
		return out, nil
	}
	if err := ctx.Err(); err != nil {
		return out, err
	}

	// An edgeless graph has nothing to optimize: every node is its own
	// singleton community.
	if len(edges) == 0 {
		out.Membership = make([]int, nodes)
		for i := range out.Membership {
			out.Membership[i] = i
		}
		out.Clusters = nodes
		return out, nil
	}

	g := simple.NewWeightedUndirectedGraph(0, 0)
	for i := 0; i < nodes; i++ {
		g.AddNode(simple.Node(i))
	}
	for _, e := range edges {
		if e.A == e.B || e.A < 0 || e.B < 0 || e.A >= nodes || e.B >= nodes {
			return out, fmt.Errorf("partition: edge (%d,%d) outside graph of %d nodes: %w", e.A, e.B, nodes, apperrors.ErrInvalidArgument)
		}
		g.SetWeightedEdge(simple.WeightedEdge{F: simple.Node(e.A), T: simple.Node(e.B), W: e.Weight})
	}

	var src exprand.Source
	if p.Seed != nil {
		src = exprand.NewSource(uint64(*p.Seed))
	}
	reduced := community.Modularize(g, resolution, src)
	comms := reduced.Communities()

	membership, count := membershipFromCommunities(nodes, comms)
	out.Membership = membership
	out.Clusters = count
	out.Modularity = community.Q(g, comms, resolution)
	return out, nil
}

// membershipFromCommunities flattens the optimizer's community list into a
// dense membership array. Communities are numbered by their smallest member
// so the id assignment does not depend on the optimizer's internal ordering.
func membershipFromCommunities(nodes int, comms [][]graph.Node) ([]int, int) {
	type comm struct {
		min     int64
		members []graph.Node
	}
	ordered := make([]comm, 0, len(comms))
	for _, c := range comms {
		if len(c) == 0 {
			continue
		}
		min := c[0].ID()
		for _, n := range c[1:] {
			if n.ID() < min {
				min = n.ID()
			}
		}
		ordered = append(ordered, comm{min: min, members: c})
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].min < ordered[j].min })

	membership := make([]int, nodes)
	for id, c := range ordered {
		for _, n := range c.members {
			membership[int(n.ID())] = id
		}
	}
	return membership, len(ordered)
}
