package domain

// The two artifacts the pipeline produces. Both are fully self-describing
// JSON documents; numeric cluster ids become string keys because JSON object
// keys must be strings. The serving layer reads these verbatim and never
// recomputes anything.

type ClusterParameters struct {
	KNNK                int     `json:"knn_k"`
	SimilarityThreshold float64 `json:"similarity_threshold"`
}

type ClusteringMetadata struct {
	GeneratedAt   string            `json:"generated_at"`
	TotalMemories int               `json:"total_memories"`
	L1Clusters    int               `json:"l1_clusters"`
	L2Clusters    int               `json:"l2_clusters"`
	Parameters    ClusterParameters `json:"parameters"`
}

// MemoryAssignment records which L1/L2 cluster a single memory landed in.
type MemoryAssignment struct {
	ID             string `json:"id"`
	Category       string `json:"category"`
	ClusterL1      int    `json:"cluster_l1"`
	ClusterL2      int    `json:"cluster_l2"`
	ContentPreview string `json:"content_preview"`
}

// L1ClusterInfo is descriptive metadata only; it never feeds back into
// cluster assignment.
type L1ClusterInfo struct {
	PrimaryType string   `json:"primary_type"`
	Size        int      `json:"size"`
	SampleWords []string `json:"sample_words"`
}

type L2ClusterInfo struct {
	L1Clusters []int `json:"l1_clusters"`
	TotalSize  int   `json:"total_size"`
}

type ClusterIndex struct {
	L1 map[string]L1ClusterInfo `json:"l1"`
	L2 map[string]L2ClusterInfo `json:"l2"`
}

type ClusteringResult struct {
	Metadata ClusteringMetadata `json:"metadata"`
	Memories []MemoryAssignment `json:"memories"`
	Clusters ClusterIndex       `json:"clusters"`
}

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type LayoutMetadata struct {
	GeneratedAt   string `json:"generated_at"`
	TotalMemories int    `json:"total_memories"`
	L1Clusters    int    `json:"l1_clusters"`
	L2Clusters    int    `json:"l2_clusters"`
}

type PositionMaps struct {
	L1Clusters map[string]Position `json:"l1_clusters"`
	L2Clusters map[string]Position `json:"l2_clusters"`
	Memories   map[string]Position `json:"memories"`
}

// LayoutResult carries a copy of the clustering result's cluster index so a
// viewer can render from this single document.
type LayoutResult struct {
	Metadata  LayoutMetadata `json:"metadata"`
	Positions PositionMaps   `json:"positions"`
	Clusters  ClusterIndex   `json:"clusters"`
}
