package layout_build

import (
	"github.com/mnemoatlas/atlas-backend/internal/app"
	"github.com/mnemoatlas/atlas-backend/internal/data/artifacts"
	"github.com/mnemoatlas/atlas-backend/internal/platform/logger"
)

type Pipeline struct {
	log   *logger.Logger
	store *artifacts.Store
	cfg   app.LayoutConfig
	seed  int64
}

func New(baseLog *logger.Logger, store *artifacts.Store, cfg app.LayoutConfig, seed int64) *Pipeline {
	return &Pipeline{
		log:   baseLog.With("job", "layout_build"),
		store: store,
		cfg:   cfg,
		seed:  seed,
	}
}

func (p *Pipeline) Type() string { return "layout_build" }
