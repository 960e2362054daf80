package structural

import (
	"context"
	"time"

	"github.com/flowcore/engine/pkg/engine"
	"github.com/flowcore/engine/pkg/exec"
	"github.com/flowcore/engine/pkg/models"
)

// RetryExecutor wraps the subgraph reachable from its own `body` handle,
// retrying it under a RetryPolicy derived from the node's parameters
// until it succeeds, exhausts maxAttempts, or retryOn vetoes a retry.
type RetryExecutor struct{}

func (r RetryExecutor) Execute(ctx context.Context, ec *engine.ExecutionContext, node *models.Node, input map[string]interface{}) (map[string]interface{}, error) {
	bodyNodes, bodyConns := exec.ReachableFrom(ec.Workflow(), node.ID, models.HandleBody)
	policy := r.policyFrom(node.Parameters, ec)

	onRetry := func(attempt int, err *models.NodeError, nextDelay time.Duration) {
		ec.Emit(models.EventLevelWarn, models.EventNodeRetrying, node.ID, "retrying after transient failure", map[string]interface{}{
			"attempt": attempt, "error": err.Error(), "nextDelayMs": nextDelay.Milliseconds(),
		})
	}

	out, nodeErr := policy.Execute(ctx, onRetry, func(attemptCtx context.Context, attempt int) (map[string]interface{}, *models.NodeError) {
		seeds := seedAllRoots(bodyNodes, bodyConns, input)
		return ec.Runner.RunSubgraph(attemptCtx, ec, bodyNodes, bodyConns, seeds)
	})

	if nodeErr != nil {
		return nil, nodeErr
	}
	return out, nil
}

func (r RetryExecutor) policyFrom(params map[string]interface{}, ec *engine.ExecutionContext) engine.RetryPolicy {
	strategy := engine.BackoffStrategy(engine.ParamString(params, "backoff"))
	if strategy == "" {
		strategy = engine.BackoffFixed
	}

	policy := engine.RetryPolicy{
		MaxAttempts: engine.ParamInt(params, "maxAttempts", 1),
		Strategy:    strategy,
		BaseDelay:   durationMillis(engine.ParamFloat(params, "initialDelayMs", 0)),
		MaxDelay:    durationMillis(engine.ParamFloat(params, "maxDelayMs", 0)),
	}

	retryOn := engine.ParamString(params, "retryOn")
	if retryOn != "" {
		policy.RetryOn = func(nodeErr *models.NodeError) bool {
			scope := ec.NodeScope(map[string]interface{}{
				"error": map[string]interface{}{
					"kind":    string(nodeErr.Kind),
					"message": nodeErr.Message,
				},
			})
			ok, err := ec.Resolver.EvaluateCondition(retryOn, scope)
			if err != nil {
				return nodeErr.Retryable()
			}
			return ok
		}
	}

	return policy
}

func durationMillis(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}
