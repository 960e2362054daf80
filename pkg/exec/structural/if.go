// Package structural implements the core control-flow node types every
// engine instance must support, independent of any library executor.
package structural

import (
	"context"

	"github.com/flowcore/engine/pkg/engine"
	"github.com/flowcore/engine/pkg/models"
)

// IfExecutor evaluates a condition expression and routes to the `true`
// or `false` handle, preserving the input fields in its output.
type IfExecutor struct{}

func (IfExecutor) Execute(ctx context.Context, ec *engine.ExecutionContext, node *models.Node, input map[string]interface{}) (map[string]interface{}, error) {
	condition := engine.ParamString(node.Parameters, "condition")
	scope := ec.NodeScope(input)

	result, err := ec.Resolver.EvaluateCondition(condition, scope)
	if err != nil {
		ec.Emit(models.EventLevelWarn, models.EventSystemWarning, node.ID, "if condition error, treated as false: "+err.Error(), nil)
		result = false
	}

	branch := models.HandleFalse
	if result {
		branch = models.HandleTrue
	}

	out := make(map[string]interface{}, len(input)+3)
	for k, v := range input {
		out[k] = v
	}
	out["conditionResult"] = result
	out["branch"] = branch
	out["_activeHandle"] = branch
	return out, nil
}
