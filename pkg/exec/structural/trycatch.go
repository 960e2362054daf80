package structural

import (
	"context"

	"github.com/flowcore/engine/pkg/engine"
	"github.com/flowcore/engine/pkg/exec"
	"github.com/flowcore/engine/pkg/models"
)

// TryCatchExecutor runs the subgraph reachable from its `try` handle;
// if that subgraph raises a NodeError, it runs the `catch` subgraph with
// `{error: {...}}` as input instead.
type TryCatchExecutor struct{}

func (t TryCatchExecutor) Execute(ctx context.Context, ec *engine.ExecutionContext, node *models.Node, input map[string]interface{}) (map[string]interface{}, error) {
	tryNodes, tryConns := exec.ReachableFrom(ec.Workflow(), node.ID, "try")
	seeds := seedAllRoots(tryNodes, tryConns, input)

	out, nodeErr := ec.Runner.RunSubgraph(ctx, ec, tryNodes, tryConns, seeds)
	if nodeErr == nil {
		return out, nil
	}

	catchNodes, catchConns := exec.ReachableFrom(ec.Workflow(), node.ID, "catch")
	if len(catchNodes) == 0 {
		return nil, nodeErr
	}

	errorPayload := map[string]interface{}{
		"error": map[string]interface{}{
			"kind":    string(nodeErr.Kind),
			"nodeId":  nodeErr.NodeID,
			"message": nodeErr.Message,
		},
	}
	catchSeeds := seedAllRoots(catchNodes, catchConns, errorPayload)
	catchOut, catchErr := ec.Runner.RunSubgraph(ctx, ec, catchNodes, catchConns, catchSeeds)
	if catchErr != nil {
		return nil, catchErr
	}
	return catchOut, nil
}
