// Package library holds non-core NodeExecutor plug-ins: concrete demonstrations
// of the registry's extensibility beyond the mandatory control executors.
package library

import (
	"context"

	"github.com/flowcore/engine/pkg/engine"
	"github.com/flowcore/engine/pkg/models"
)

// ManualTriggerExecutor passes its input through unchanged. The scheduler
// ordinarily records a trigger's output directly without invoking its
// executor, so this is exercised only when a manualTrigger node appears
// mid-graph (e.g. a subgraph root) rather than at the top level.
type ManualTriggerExecutor struct{}

func (ManualTriggerExecutor) Execute(ctx context.Context, ec *engine.ExecutionContext, node *models.Node, input map[string]interface{}) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(input))
	for k, v := range input {
		out[k] = v
	}
	return out, nil
}
