package artifacts

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mnemoatlas/atlas-backend/internal/data/repos/testutil"
	"github.com/mnemoatlas/atlas-backend/internal/domain"
)

func sampleClustering() domain.ClusteringResult {
	return domain.ClusteringResult{
		Metadata: domain.ClusteringMetadata{
			GeneratedAt:   "2026-08-30T00:00:00Z",
			TotalMemories: 2,
			L1Clusters:    1,
			L2Clusters:    1,
			Parameters:    domain.ClusterParameters{KNNK: 15, SimilarityThreshold: 0.7},
		},
		Memories: []domain.MemoryAssignment{
			{ID: "a", Category: "fact", ClusterL1: 0, ClusterL2: 0, ContentPreview: "hello..."},
			{ID: "b", Category: "fact", ClusterL1: 0, ClusterL2: 0},
		},
		Clusters: domain.ClusterIndex{
			L1: map[string]domain.L1ClusterInfo{"0": {PrimaryType: "fact", Size: 2, SampleWords: []string{"hello"}}},
			L2: map[string]domain.L2ClusterInfo{"0": {L1Clusters: []int{0}, TotalSize: 2}},
		},
	}
}

func TestStore_ClusteringRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, testutil.Logger(t))

	want := sampleClustering()
	path, err := store.WriteClustering(want)
	if err != nil {
		t.Fatalf("WriteClustering: %v", err)
	}
	if path != filepath.Join(dir, ClusteringFile) {
		t.Fatalf("unexpected artifact path %q", path)
	}

	got, err := store.ReadClustering()
	if err != nil {
		t.Fatalf("ReadClustering: %v", err)
	}
	if got.Metadata != want.Metadata {
		t.Fatalf("metadata mismatch: %+v vs %+v", got.Metadata, want.Metadata)
	}
	if len(got.Memories) != 2 || got.Memories[0].ContentPreview != "hello..." {
		t.Fatalf("assignments mismatch: %+v", got.Memories)
	}
	if got.Clusters.L1["0"].Size != 2 || got.Clusters.L2["0"].TotalSize != 2 {
		t.Fatalf("cluster index mismatch: %+v", got.Clusters)
	}
}

func TestStore_LayoutRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir(), testutil.Logger(t))
	want := domain.LayoutResult{
		Metadata: domain.LayoutMetadata{GeneratedAt: "2026-08-30T00:00:00Z", TotalMemories: 1, L1Clusters: 1, L2Clusters: 1},
		Positions: domain.PositionMaps{
			L1Clusters: map[string]domain.Position{"0": {X: 1.5, Y: -2}},
			L2Clusters: map[string]domain.Position{"0": {X: 0, Y: 0}},
			Memories:   map[string]domain.Position{"a": {X: 5.5, Y: 0}},
		},
		Clusters: sampleClustering().Clusters,
	}
	if _, err := store.WriteLayout(want); err != nil {
		t.Fatalf("WriteLayout: %v", err)
	}
	got, err := store.ReadLayout()
	if err != nil {
		t.Fatalf("ReadLayout: %v", err)
	}
	if got.Positions.L1Clusters["0"] != want.Positions.L1Clusters["0"] {
		t.Fatalf("l1 position mismatch: %+v", got.Positions.L1Clusters)
	}
	if got.Positions.Memories["a"] != want.Positions.Memories["a"] {
		t.Fatalf("memory position mismatch: %+v", got.Positions.Memories)
	}
}

// Downstream viewers key clusters by decimal strings; the artifact on disk
// must keep that shape.
func TestStore_WritesStringClusterKeys(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, testutil.Logger(t))
	if _, err := store.WriteClustering(sampleClustering()); err != nil {
		t.Fatalf("WriteClustering: %v", err)
	}
	raw, err := os.ReadFile(filepath.Join(dir, ClusteringFile))
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("artifact is not valid JSON: %v", err)
	}
	clusters, ok := doc["clusters"].(map[string]any)
	if !ok {
		t.Fatalf("missing clusters section: %v", doc)
	}
	l1, ok := clusters["l1"].(map[string]any)
	if !ok {
		t.Fatalf("missing l1 index: %v", clusters)
	}
	if _, ok := l1["0"]; !ok {
		t.Fatalf("expected string cluster key \"0\", got %v", l1)
	}
}

func TestStore_ReadMissingArtifactFails(t *testing.T) {
	store := NewStore(t.TempDir(), testutil.Logger(t))
	if _, err := store.ReadClustering(); err == nil {
		t.Fatalf("expected error reading a missing artifact")
	}
	if _, err := store.ReadLayout(); err == nil {
		t.Fatalf("expected error reading a missing artifact")
	}
}
