package structural

import (
	"context"
	"time"

	"github.com/flowcore/engine/pkg/engine"
	"github.com/flowcore/engine/pkg/models"
)

// RateLimitExecutor enforces a minimum spacing between successive
// dispatches of its own outgoing edge, blocking only the calling worker
// while it awaits its next token.
type RateLimitExecutor struct{}

func (RateLimitExecutor) Execute(ctx context.Context, ec *engine.ExecutionContext, node *models.Node, input map[string]interface{}) (map[string]interface{}, error) {
	interval := intervalFrom(node.Parameters)
	if interval > 0 {
		limiter := ec.RateLimiter(node.ID, interval)
		if err := waitLimiter(ctx, limiter); err != nil {
			return nil, models.NewNodeError(models.NodeErrorCancelled, node.ID, "rate limit wait cancelled", err)
		}
	}
	return copyMap(input), nil
}

func intervalFrom(params map[string]interface{}) time.Duration {
	if ms := engine.ParamFloat(params, "interval", 0); ms > 0 {
		return time.Duration(ms * float64(time.Millisecond))
	}
	if rps := engine.ParamFloat(params, "rps", 0); rps > 0 {
		return time.Duration(float64(time.Second) / rps)
	}
	return 0
}

type limiterWaiter interface {
	Wait(ctx context.Context) error
}

func waitLimiter(ctx context.Context, limiter limiterWaiter) error {
	return limiter.Wait(ctx)
}
