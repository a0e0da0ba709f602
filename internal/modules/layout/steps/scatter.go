package steps

import (
	"math"

	"github.com/mnemoatlas/atlas-backend/internal/domain"
)

const maxRingRadius = 20

// ScatterMemories places each memory on a ring around its L1 cluster's
// position: a lone member sits exactly on the centroid, otherwise members
// spread evenly around a circle whose radius grows with the square root of
// the cluster population, capped so large clusters stay compact. Iteration
// follows the assignment order, which is deterministic for a given result.
func ScatterMemories(assignments []domain.MemoryAssignment, l1Positions map[int]domain.Position) map[string]domain.Position {
	byCluster := map[int][]string{}
	order := make([]int, 0)
	for _, a := range assignments {
		if _, seen := byCluster[a.ClusterL1]; !seen {
			order = append(order, a.ClusterL1)
		}
		byCluster[a.ClusterL1] = append(byCluster[a.ClusterL1], a.ID)
	}

	positions := make(map[string]domain.Position, len(assignments))
	for _, cid := range order {
		center, ok := l1Positions[cid]
		if !ok {
			continue
		}
		ids := byCluster[cid]
		n := len(ids)
		if n == 1 {
			positions[ids[0]] = center
			continue
		}
		radius := math.Min(maxRingRadius, math.Sqrt(float64(n))*2)
		for i, id := range ids {
			angle := 2 * math.Pi * float64(i) / float64(n)
			positions[id] = domain.Position{
				X: center.X + radius*math.Cos(angle),
				Y: center.Y + radius*math.Sin(angle),
			}
		}
	}
	return positions
}
