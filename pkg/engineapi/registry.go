// Package engineapi wires the scheduler, the executor registry and the
// dev-mode inspector together behind the five operations external callers
// use: submit, await, cancel and the two step-execution controls.
package engineapi

import (
	"github.com/flowcore/engine/internal/config"
	"github.com/flowcore/engine/pkg/engine"
	"github.com/flowcore/engine/pkg/exec"
	"github.com/flowcore/engine/pkg/exec/library"
	"github.com/flowcore/engine/pkg/exec/structural"
)

// NewRegistry builds the executor registry every Manager is bootstrapped
// with: the eight structural control-flow executors plus the three
// demonstration library executors. A deployment embedding additional
// library nodes registers them on the returned Registry before passing it
// to NewManager. cfg's loop-iteration cap and default merge timeout are
// threaded into the executors that need them; the zero value of cfg
// falls back to each executor's own defaults.
func NewRegistry(cfg config.EngineConfig) *exec.Registry {
	r := exec.NewRegistry()

	r.Register("if", structural.IfExecutor{})
	r.Register("switch", structural.SwitchExecutor{})
	r.Register("merge", structural.MergeExecutor{DefaultTimeout: cfg.DefaultMergeTimeout})
	r.Register("parallel", structural.ParallelExecutor{})
	r.Register("loop", structural.LoopExecutor{MaxIterations: cfg.MaxLoopIterations})
	r.Register("tryCatch", structural.TryCatchExecutor{})
	r.Register("retry", structural.RetryExecutor{})
	r.Register("rateLimit", structural.RateLimitExecutor{})

	r.Register("manualTrigger", library.ManualTriggerExecutor{})
	r.Register("scheduleTrigger", library.ScheduleTriggerExecutor{})
	r.Register("transform", library.TransformExecutor{})

	return r
}

var _ engine.ExecutorLookup = (*exec.Registry)(nil)
