package runtime

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mnemoatlas/atlas-backend/internal/platform/logger"
)

// Context is the execution handle for a single pipeline run. It is the only
// sanctioned way for pipeline code to report progress or terminate: pipelines
// never decide process exit codes themselves, the runner reads the report.
type Context struct {
	Ctx   context.Context
	Log   *logger.Logger
	RunID uuid.UUID

	stages  []StageStatus
	failed  string
	err     error
	details map[string]any
}

type StageStatus struct {
	Stage   string
	Percent int
	Message string
	At      time.Time
}

// RunReport is the immutable outcome of one pipeline run.
type RunReport struct {
	RunID   uuid.UUID
	Stages  []StageStatus
	Failed  string
	Err     error
	Details map[string]any
}

func NewContext(ctx context.Context, log *logger.Logger) *Context {
	return &Context{
		Ctx:   ctx,
		Log:   log,
		RunID: uuid.New(),
	}
}

func (c *Context) Progress(stage string, percent int, message string) {
	c.stages = append(c.stages, StageStatus{
		Stage:   stage,
		Percent: percent,
		Message: message,
		At:      time.Now().UTC(),
	})
	if c.Log != nil {
		c.Log.Info(message, "stage", stage, "percent", percent, "run_id", c.RunID)
	}
}

func (c *Context) Fail(stage string, err error) {
	c.failed = stage
	c.err = err
	if c.Log != nil {
		c.Log.Error("pipeline stage failed", "stage", stage, "error", err, "run_id", c.RunID)
	}
}

func (c *Context) Succeed(stage string, details map[string]any) {
	c.details = details
	if c.Log != nil {
		kv := []interface{}{"stage", stage, "run_id", c.RunID}
		for k, v := range details {
			kv = append(kv, k, v)
		}
		c.Log.Info("pipeline completed", kv...)
	}
}

func (c *Context) Err() error { return c.err }

func (c *Context) Report() RunReport {
	stages := make([]StageStatus, len(c.stages))
	copy(stages, c.stages)
	return RunReport{
		RunID:   c.RunID,
		Stages:  stages,
		Failed:  c.failed,
		Err:     c.err,
		Details: c.details,
	}
}
