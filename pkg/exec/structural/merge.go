package structural

import (
	"context"
	"time"

	"github.com/flowcore/engine/pkg/engine"
	"github.com/flowcore/engine/pkg/models"
)

// MergeExecutor is the fan-in barrier. The Scheduler
// dispatches it once per arriving branch; MergeExecutor's job on each
// call is only to register the branch's payload with the node's shared
// Barrier and return whatever the barrier hands back.
type MergeExecutor struct {
	// DefaultTimeout is used when a merge node doesn't set its own
	// `timeout` parameter; zero means no deadline.
	DefaultTimeout time.Duration
}

func (m MergeExecutor) Execute(ctx context.Context, ec *engine.ExecutionContext, node *models.Node, input map[string]interface{}) (map[string]interface{}, error) {
	mode := engine.MergeMode(engine.ParamString(node.Parameters, "mode"))
	if mode == "" {
		mode = engine.ModeWaitAll
	}

	outputKey := engine.ParamString(node.Parameters, "outputKey")
	if outputKey == "" {
		outputKey = "merged"
	}

	timeout := time.Duration(engine.ParamFloat(node.Parameters, "timeout", 0) * float64(time.Second))
	if timeout <= 0 {
		timeout = m.DefaultTimeout
	}

	spec := engine.MergeSpec{
		InputCount: engine.ParamInt(node.Parameters, "inputCount", 1),
		Mode:       mode,
		Timeout:    timeout,
		OutputKey:  outputKey,
		WaitForAll: engine.ParamBool(node.Parameters, "waitForAll", true),
	}

	barrier, err := ec.GetBarrier(node.ID, spec)
	if err != nil {
		return nil, err
	}

	return barrier.Arrive(ctx, input)
}
