package engine

import (
	"context"

	"github.com/flowcore/engine/pkg/models"
)

// NodeExecutor implements the runtime behavior of one node type. Every
// structural node (if, switch, merge, parallel, loop, tryCatch, retry,
// rateLimit) and every library node (manualTrigger, scheduleTrigger,
// transform, …) implements this interface and registers under its type
// name.
type NodeExecutor interface {
	Execute(ctx context.Context, ec *ExecutionContext, node *models.Node, input map[string]interface{}) (map[string]interface{}, error)
}

// ExecutorLookup resolves a node type to its executor. pkg/exec's
// Registry implements this; the Scheduler only depends on the narrow
// interface to avoid importing pkg/exec (which itself depends on
// pkg/engine for ExecutionContext and NodeExecutor).
type ExecutorLookup interface {
	Get(nodeType string) (NodeExecutor, bool)
}
