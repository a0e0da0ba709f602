package cluster_build

import (
	"github.com/mnemoatlas/atlas-backend/internal/app"
	"github.com/mnemoatlas/atlas-backend/internal/data/artifacts"
	"github.com/mnemoatlas/atlas-backend/internal/data/source"
	"github.com/mnemoatlas/atlas-backend/internal/modules/cluster/steps"
	"github.com/mnemoatlas/atlas-backend/internal/platform/logger"
)

type Pipeline struct {
	log         *logger.Logger
	src         source.Source
	store       *artifacts.Store
	partitioner steps.Partitioner
	cfg         app.ClusterConfig
}

func New(baseLog *logger.Logger, src source.Source, store *artifacts.Store, partitioner steps.Partitioner, cfg app.ClusterConfig) *Pipeline {
	return &Pipeline{
		log:         baseLog.With("job", "cluster_build"),
		src:         src,
		store:       store,
		partitioner: partitioner,
		cfg:         cfg,
	}
}

func (p *Pipeline) Type() string { return "cluster_build" }
