package steps

import "sort"

// ClusterNode is one cluster to be placed; Size drives the node's mass in
// the force simulation.
type ClusterNode struct {
	ID   int
	Size int
}

type ClusterEdge struct {
	A      int
	B      int
	Weight float64
}

type ClusterGraph struct {
	Nodes []ClusterNode
	Edges []ClusterEdge
}

// BuildClusterGraph builds the synthetic adjacency used for layout. No
// semantic adjacency survives clustering, so clusters whose numeric ids sit
// within maxGap of each other are connected with weight 1. This id-proximity
// heuristic is documented output behavior, not an approximation to be
// replaced with a "better" adjacency rule.
func BuildClusterGraph(sizes map[int]int, maxGap int) ClusterGraph {
	g := ClusterGraph{}
	ids := make([]int, 0, len(sizes))
	for id := range sizes {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		g.Nodes = append(g.Nodes, ClusterNode{ID: id, Size: sizes[id]})
	}
	for i := 0; i+1 < len(ids); i++ {
		if ids[i+1]-ids[i] < maxGap {
			g.Edges = append(g.Edges, ClusterEdge{A: ids[i], B: ids[i+1], Weight: 1.0})
		}
	}
	return g
}
