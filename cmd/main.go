package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/mnemoatlas/atlas-backend/internal/app"
	"github.com/mnemoatlas/atlas-backend/internal/data/artifacts"
	"github.com/mnemoatlas/atlas-backend/internal/data/repos"
	"github.com/mnemoatlas/atlas-backend/internal/data/source"
	"github.com/mnemoatlas/atlas-backend/internal/jobs/pipeline/cluster_build"
	"github.com/mnemoatlas/atlas-backend/internal/jobs/pipeline/layout_build"
	"github.com/mnemoatlas/atlas-backend/internal/jobs/runtime"
	"github.com/mnemoatlas/atlas-backend/internal/modules/cluster/steps"
	"github.com/mnemoatlas/atlas-backend/internal/observability"
	apperrors "github.com/mnemoatlas/atlas-backend/internal/pkg/errors"
	"github.com/mnemoatlas/atlas-backend/internal/platform/logger"
	"github.com/mnemoatlas/atlas-backend/internal/render"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	skipCluster := flag.Bool("skip-cluster", false, "reuse the existing clustering artifact and only recompute layout")
	skipLayout := flag.Bool("skip-layout", false, "run clustering only")
	flag.Parse()

	log, err := logger.New(os.Getenv("LOG_MODE"))
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg, err := app.Load(*configPath)
	if err != nil {
		log.Error("configuration rejected", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	shutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "atlas-pipeline",
		Environment: cfg.Mode,
	})
	if shutdown != nil {
		defer func() { _ = shutdown(ctx) }()
	}

	src, err := buildSource(cfg, log)
	if err != nil {
		log.Error("memory source init failed", "error", err)
		os.Exit(1)
	}

	store := artifacts.NewStore(cfg.Output.Dir, log)
	partitioner := &steps.ModularityPartitioner{Seed: cfg.Cluster.Seed}

	registry := runtime.NewRegistry()
	mustRegister(log, registry, cluster_build.New(log, src, store, partitioner, cfg.Cluster))
	mustRegister(log, registry, layout_build.New(log, store, cfg.Layout, seedOrDefault(cfg.Cluster.Seed)))

	if !*skipCluster {
		report := runPipeline(ctx, log, registry, "cluster_build")
		if report.Err != nil {
			if errors.Is(report.Err, apperrors.ErrBatchTooLarge) {
				log.Error("clustering failed; retry with a smaller ATLAS_BATCH_SIZE", "error", report.Err)
			}
			os.Exit(1)
		}
		if total, ok := report.Details["total_memories"].(int); ok && total == 0 {
			log.Error("nothing to cluster", "error", apperrors.ErrNoEmbeddings)
			os.Exit(1)
		}
	}

	if !*skipLayout {
		report := runPipeline(ctx, log, registry, "layout_build")
		if report.Err != nil {
			os.Exit(1)
		}
	}

	if cfg.Output.Preview {
		layout, err := store.ReadLayout()
		if err != nil {
			log.Warn("preview skipped: layout artifact unreadable", "error", err)
			return
		}
		out := filepath.Join(cfg.Output.Dir, "layout_preview.png")
		if err := render.Preview(layout, cfg.Output.PreviewSize, out, log); err != nil {
			log.Warn("preview render failed", "error", err)
		}
	}
}

func buildSource(cfg app.Config, log *logger.Logger) (source.Source, error) {
	switch cfg.Source.Mode {
	case "file":
		return source.FromFile(cfg.Source.Path), nil
	case "postgres", "sqlite":
		db, err := repos.Open(cfg.Source.Mode, cfg.Source.DSN)
		if err != nil {
			return nil, err
		}
		if err := repos.AutoMigrate(db); err != nil {
			log.Warn("memory store auto migration failed", "error", err)
		}
		tenantID := uuid.Nil
		if cfg.Source.TenantID != "" {
			tenantID, err = uuid.Parse(cfg.Source.TenantID)
			if err != nil {
				return nil, fmt.Errorf("bad tenant id %q: %w", cfg.Source.TenantID, err)
			}
		}
		return source.FromRepo(repos.NewMemoryRepo(db, log), tenantID), nil
	default:
		return nil, fmt.Errorf("unsupported source mode %q", cfg.Source.Mode)
	}
}

func runPipeline(ctx context.Context, log *logger.Logger, registry *runtime.Registry, jobType string) runtime.RunReport {
	jc := runtime.NewContext(ctx, log)
	handler, ok := registry.Get(jobType)
	if !ok {
		jc.Fail(jobType, fmt.Errorf("no handler registered for %s", jobType))
		return jc.Report()
	}
	if err := handler.Run(jc); err != nil {
		jc.Fail(jobType, err)
	}
	return jc.Report()
}

func mustRegister(log *logger.Logger, registry *runtime.Registry, h runtime.Handler) {
	if err := registry.Register(h); err != nil {
		log.Fatal("pipeline registration failed", "type", h.Type(), "error", err)
	}
}

func seedOrDefault(seed *int64) int64 {
	if seed != nil {
		return *seed
	}
	return 42
}
