package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/mnemoatlas/atlas-backend/internal/pkg/errors"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config rejected: %v", err)
	}
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := []byte(`
cluster:
  knn_k: 8
  seed: 99
layout:
  l2:
    iterations: 250
source:
  mode: sqlite
  dsn: file::memory:?cache=shared
`)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Cluster.KNNK != 8 {
		t.Fatalf("knn_k not overridden, got %d", cfg.Cluster.KNNK)
	}
	if cfg.Cluster.Seed == nil || *cfg.Cluster.Seed != 99 {
		t.Fatalf("seed not loaded, got %v", cfg.Cluster.Seed)
	}
	if cfg.Layout.L2.Iterations != 250 {
		t.Fatalf("nested layout override lost, got %d", cfg.Layout.L2.Iterations)
	}
	if cfg.Source.Mode != "sqlite" {
		t.Fatalf("source mode not overridden, got %q", cfg.Source.Mode)
	}
	// Untouched knobs keep their defaults.
	if cfg.Cluster.SimilarityThreshold != 0.7 || cfg.Layout.L1.Iterations != 1000 {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	t.Setenv("ATLAS_KNN_K", "25")
	t.Setenv("ATLAS_SIMILARITY_THRESHOLD", "0.8")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Cluster.KNNK != 25 {
		t.Fatalf("env knn_k ignored, got %d", cfg.Cluster.KNNK)
	}
	if cfg.Cluster.SimilarityThreshold != 0.8 {
		t.Fatalf("env threshold ignored, got %v", cfg.Cluster.SimilarityThreshold)
	}
}

func TestLoad_MissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestValidate_RejectsBadKnobs(t *testing.T) {
	cases := []func(*Config){
		func(c *Config) { c.Cluster.KNNK = 0 },
		func(c *Config) { c.Cluster.SimilarityThreshold = 1.5 },
		func(c *Config) { c.Cluster.MetaThreshold = -2 },
		func(c *Config) { c.Cluster.BatchSize = -1 },
		func(c *Config) { c.Cluster.L1Resolution = 0 },
		func(c *Config) { c.Cluster.SampleSize = 0 },
		func(c *Config) { c.Layout.L1.Iterations = 0 },
		func(c *Config) { c.Layout.L2.MaxIDGap = 0 },
		func(c *Config) { c.Source.Mode = "carrier-pigeon" },
	}
	for i, mutate := range cases {
		cfg := Default()
		mutate(&cfg)
		if err := cfg.Validate(); !errors.Is(err, apperrors.ErrInvalidArgument) {
			t.Fatalf("case %d: expected ErrInvalidArgument, got %v", i, err)
		}
	}
}

func TestSimilarityBudgetBytes(t *testing.T) {
	c := ClusterConfig{SimilarityBudgetMB: 2}
	if got := c.SimilarityBudgetBytes(); got != 2*1024*1024 {
		t.Fatalf("expected 2 MiB in bytes, got %d", got)
	}
	if got := (ClusterConfig{}).SimilarityBudgetBytes(); got != 0 {
		t.Fatalf("zero budget should stay zero, got %d", got)
	}
}
