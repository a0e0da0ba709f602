package steps

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/mnemoatlas/atlas-backend/internal/domain"
	apperrors "github.com/mnemoatlas/atlas-backend/internal/pkg/errors"
	"github.com/mnemoatlas/atlas-backend/internal/platform/logger"
)

// Edge is one undirected similarity edge with canonical ordering A < B.
type Edge struct {
	A      int
	B      int
	Weight float64
}

type KNNGraphDeps struct {
	Log *logger.Logger
}

type KNNGraphInput struct {
	Memories  []domain.Memory
	K         int
	Threshold float64
	BatchSize int
	// Dim is the expected embedding dimensionality; vectors of any other
	// length are dropped. Zero means accept the first dimension seen.
	Dim int
	// BudgetBytes bounds the per-batch similarity buffer across workers.
	// Zero means no limit.
	BudgetBytes int64
}

type KNNGraphOutput struct {
	// Nodes is the number of memories that survived embedding validation.
	Nodes int
	Edges []Edge
	// ValidIndex maps dense graph node index -> index into Memories.
	ValidIndex []int
	// Vectors holds the unit-normalized embeddings, one row per node. Kept
	// so the centroid stage does not re-parse everything.
	Vectors [][]float32
	Dropped int
}

// BuildKNNGraph turns memories into a sparse weighted similarity graph:
// batched dot products against the full normalized matrix, top-k selection
// per row, threshold cut, and canonical a<b edge emission so no undirected
// edge appears twice.
func BuildKNNGraph(ctx context.Context, deps KNNGraphDeps, in KNNGraphInput) (KNNGraphOutput, error) {
	out := KNNGraphOutput{}
	if in.K <= 0 {
		return out, fmt.Errorf("knn_graph: k must be positive, got %d: %w", in.K, apperrors.ErrInvalidArgument)
	}
	if in.Threshold < -1 || in.Threshold > 1 {
		return out, fmt.Errorf("knn_graph: threshold must lie in [-1,1], got %v: %w", in.Threshold, apperrors.ErrInvalidArgument)
	}
	if in.BatchSize <= 0 {
		return out, fmt.Errorf("knn_graph: batch size must be positive, got %d: %w", in.BatchSize, apperrors.ErrInvalidArgument)
	}

	dim := in.Dim
	for i := range in.Memories {
		emb, ok := ParseEmbedding(in.Memories[i].Embedding)
		if !ok {
			out.Dropped++
			continue
		}
		if dim == 0 {
			dim = len(emb)
		}
		if len(emb) != dim {
			out.Dropped++
			continue
		}
		out.Vectors = append(out.Vectors, NormalizeUnit(emb))
		out.ValidIndex = append(out.ValidIndex, i)
	}
	out.Nodes = len(out.Vectors)
	if deps.Log != nil {
		deps.Log.Info("knn_graph: parsed embeddings",
			"valid", out.Nodes, "dropped", out.Dropped, "dim", dim)
	}
	if out.Nodes == 0 {
		return out, nil
	}

	batch := in.BatchSize
	if batch > out.Nodes {
		batch = out.Nodes
	}
	if in.BudgetBytes > 0 {
		if need := int64(batch) * int64(out.Nodes) * 8; need > in.BudgetBytes {
			return out, fmt.Errorf("knn_graph: batch plan needs %d bytes (batch=%d nodes=%d): %w",
				need, batch, out.Nodes, apperrors.ErrBatchTooLarge)
		}
	}

	numBatches := (out.Nodes + batch - 1) / batch
	perBatch := make([][]Edge, numBatches)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for b := 0; b < numBatches; b++ {
		b := b
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := b * batch
			end := start + batch
			if end > out.Nodes {
				end = out.Nodes
			}
			perBatch[b] = topKEdges(out.Vectors, start, end, in.K, in.Threshold)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return out, fmt.Errorf("knn_graph: %w", err)
	}

	for b, edges := range perBatch {
		out.Edges = append(out.Edges, edges...)
		if deps.Log != nil && (b+1)%5 == 0 {
			deps.Log.Debug("knn_graph: merged batches", "done", b+1, "total", numBatches)
		}
	}
	if deps.Log != nil {
		deps.Log.Info("knn_graph: built graph", "nodes", out.Nodes, "edges", len(out.Edges))
	}
	return out, nil
}

type neighbor struct {
	idx int
	sim float64
}

// topKEdges computes rows [start,end) of the similarity matrix and keeps, per
// row, the k most similar neighbors at or above the threshold. Only the
// row < neighbor direction is emitted, which is what keeps every undirected
// edge unique even when both endpoints select each other. Ties break toward
// the higher column index; combined with the row < neighbor emission this
// keeps runs of identical embeddings connected instead of isolating every
// node past the first k.
func topKEdges(vectors [][]float32, start, end, k int, threshold float64) []Edge {
	edges := make([]Edge, 0, (end-start)*2)
	best := make([]neighbor, 0, k)
	for row := start; row < end; row++ {
		best = best[:0]
		for col := range vectors {
			if col == row {
				continue
			}
			sim := UnitCosine(vectors[row], vectors[col])
			if sim > 1 {
				sim = 1 // float noise on identical unit vectors
			}
			if len(best) == k && sim < best[len(best)-1].sim {
				continue
			}
			// Insert keeping best sorted by descending similarity; an equal
			// sim lands ahead of earlier (lower index) entries.
			pos := sort.Search(len(best), func(i int) bool { return best[i].sim <= sim })
			if len(best) < k {
				best = append(best, neighbor{})
			}
			copy(best[pos+1:], best[pos:])
			best[pos] = neighbor{idx: col, sim: sim}
		}
		for _, nb := range best {
			if nb.sim >= threshold && row < nb.idx {
				edges = append(edges, Edge{A: row, B: nb.idx, Weight: nb.sim})
			}
		}
	}
	return edges
}
