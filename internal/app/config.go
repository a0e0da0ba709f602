package app

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	apperrors "github.com/mnemoatlas/atlas-backend/internal/pkg/errors"
	"github.com/mnemoatlas/atlas-backend/internal/platform/envutil"
)

type ClusterConfig struct {
	KNNK                int     `yaml:"knn_k"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	BatchSize           int     `yaml:"batch_size"`
	EmbeddingDim        int     `yaml:"embedding_dim"`
	L1Resolution        float64 `yaml:"l1_resolution"`
	L2Resolution        float64 `yaml:"l2_resolution"`
	MetaThreshold       float64 `yaml:"meta_threshold"`
	SampleSize          int     `yaml:"sample_size"`
	MinMemories         int     `yaml:"min_memories"`
	MaxMemories         int     `yaml:"max_memories"`
	// SimilarityBudgetMB caps the per-batch similarity buffer; runs that
	// would exceed it fail with a retryable error suggesting a smaller
	// batch size.
	SimilarityBudgetMB int `yaml:"similarity_budget_mb"`
	// Seed, when set, fixes the community-detection random source so
	// repeated runs reproduce. Left nil, cluster counts may vary run to run.
	Seed *int64 `yaml:"seed"`
}

type LevelLayoutConfig struct {
	Iterations   int     `yaml:"iterations"`
	ScalingRatio float64 `yaml:"scaling_ratio"`
	MaxIDGap     int     `yaml:"max_id_gap"`
}

type LayoutConfig struct {
	L1                  LevelLayoutConfig `yaml:"l1"`
	L2                  LevelLayoutConfig `yaml:"l2"`
	Gravity             float64           `yaml:"gravity"`
	Theta               float64           `yaml:"theta"`
	JitterTolerance     float64           `yaml:"jitter_tolerance"`
	EdgeWeightInfluence float64           `yaml:"edge_weight_influence"`
	OutboundAttraction  bool              `yaml:"outbound_attraction"`
}

type SourceConfig struct {
	// Mode selects where memories come from: "postgres", "sqlite", or
	// "file" (a JSON dump of memory records).
	Mode     string `yaml:"mode"`
	DSN      string `yaml:"dsn"`
	Path     string `yaml:"path"`
	TenantID string `yaml:"tenant_id"`
}

type OutputConfig struct {
	Dir         string `yaml:"dir"`
	Preview     bool   `yaml:"preview"`
	PreviewSize int    `yaml:"preview_size"`
}

type Config struct {
	Mode    string        `yaml:"mode"`
	Cluster ClusterConfig `yaml:"cluster"`
	Layout  LayoutConfig  `yaml:"layout"`
	Source  SourceConfig  `yaml:"source"`
	Output  OutputConfig  `yaml:"output"`
}

func Default() Config {
	return Config{
		Mode: "development",
		Cluster: ClusterConfig{
			KNNK:                15,
			SimilarityThreshold: 0.7,
			BatchSize:           1000,
			EmbeddingDim:        1024,
			L1Resolution:        1.0,
			L2Resolution:        0.5,
			MetaThreshold:       0.6,
			SampleSize:          5,
			MinMemories:         10,
			MaxMemories:         50000,
			SimilarityBudgetMB:  2048,
		},
		Layout: LayoutConfig{
			L1:                  LevelLayoutConfig{Iterations: 1000, ScalingRatio: 20, MaxIDGap: 10},
			L2:                  LevelLayoutConfig{Iterations: 500, ScalingRatio: 50, MaxIDGap: 5},
			Gravity:             1.0,
			Theta:               1.2,
			JitterTolerance:     1.0,
			EdgeWeightInfluence: 1.0,
			OutboundAttraction:  true,
		},
		Source: SourceConfig{Mode: "file", Path: "data/memories.json"},
		Output: OutputConfig{Dir: "data", PreviewSize: 2048},
	}
}

// Load reads the optional YAML config file, then lets environment variables
// override individual knobs, then validates the whole thing.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Mode = envutil.Str("ATLAS_MODE", c.Mode)
	c.Cluster.KNNK = envutil.Int("ATLAS_KNN_K", c.Cluster.KNNK)
	c.Cluster.SimilarityThreshold = envutil.Float("ATLAS_SIMILARITY_THRESHOLD", c.Cluster.SimilarityThreshold)
	c.Cluster.BatchSize = envutil.Int("ATLAS_BATCH_SIZE", c.Cluster.BatchSize)
	c.Cluster.EmbeddingDim = envutil.Int("ATLAS_EMBEDDING_DIM", c.Cluster.EmbeddingDim)
	c.Cluster.MaxMemories = envutil.Int("ATLAS_MAX_MEMORIES", c.Cluster.MaxMemories)
	c.Cluster.SimilarityBudgetMB = envutil.Int("ATLAS_SIMILARITY_BUDGET_MB", c.Cluster.SimilarityBudgetMB)
	c.Source.Mode = envutil.Str("ATLAS_SOURCE_MODE", c.Source.Mode)
	c.Source.DSN = envutil.Str("ATLAS_SOURCE_DSN", c.Source.DSN)
	c.Source.Path = envutil.Str("ATLAS_SOURCE_PATH", c.Source.Path)
	c.Source.TenantID = envutil.Str("ATLAS_TENANT_ID", c.Source.TenantID)
	c.Output.Dir = envutil.Str("ATLAS_OUTPUT_DIR", c.Output.Dir)
	c.Output.Preview = envutil.Bool("ATLAS_PREVIEW", c.Output.Preview)
}

// Validate rejects operator misconfiguration before any computation begins.
func (c Config) Validate() error {
	bad := func(format string, args ...any) error {
		return fmt.Errorf("config: "+format+": %w", append(args, apperrors.ErrInvalidArgument)...)
	}
	if c.Cluster.KNNK <= 0 {
		return bad("knn_k must be positive, got %d", c.Cluster.KNNK)
	}
	if c.Cluster.SimilarityThreshold < -1 || c.Cluster.SimilarityThreshold > 1 {
		return bad("similarity_threshold must lie in [-1,1], got %v", c.Cluster.SimilarityThreshold)
	}
	if c.Cluster.MetaThreshold < -1 || c.Cluster.MetaThreshold > 1 {
		return bad("meta_threshold must lie in [-1,1], got %v", c.Cluster.MetaThreshold)
	}
	if c.Cluster.BatchSize <= 0 {
		return bad("batch_size must be positive, got %d", c.Cluster.BatchSize)
	}
	if c.Cluster.L1Resolution <= 0 || c.Cluster.L2Resolution <= 0 {
		return bad("resolutions must be positive, got %v/%v", c.Cluster.L1Resolution, c.Cluster.L2Resolution)
	}
	if c.Cluster.SampleSize <= 0 {
		return bad("sample_size must be positive, got %d", c.Cluster.SampleSize)
	}
	if c.Layout.L1.Iterations <= 0 || c.Layout.L2.Iterations <= 0 {
		return bad("layout iterations must be positive, got %d/%d", c.Layout.L1.Iterations, c.Layout.L2.Iterations)
	}
	if c.Layout.L1.MaxIDGap <= 0 || c.Layout.L2.MaxIDGap <= 0 {
		return bad("layout max_id_gap must be positive, got %d/%d", c.Layout.L1.MaxIDGap, c.Layout.L2.MaxIDGap)
	}
	switch c.Source.Mode {
	case "postgres", "sqlite", "file":
	default:
		return bad("source mode must be postgres, sqlite or file, got %q", c.Source.Mode)
	}
	return nil
}

// SimilarityBudgetBytes converts the configured budget to bytes; zero means
// unlimited.
func (c ClusterConfig) SimilarityBudgetBytes() int64 {
	return int64(c.SimilarityBudgetMB) * 1024 * 1024
}
