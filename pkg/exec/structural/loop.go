package structural

import (
	"context"
	"sync"

	"github.com/flowcore/engine/pkg/engine"
	"github.com/flowcore/engine/pkg/exec"
	"github.com/flowcore/engine/pkg/models"
)

// defaultMaxLoopIterations bounds every `loop` node against a runaway
// items sequence when the executor wasn't constructed with an explicit
// cap (as happens in tests that build a LoopExecutor{} directly).
const defaultMaxLoopIterations = 10000

// LoopExecutor iterates over `items`, running the subgraph reachable from
// its own `body` handle once per item (or per batch), aggregating body
// outputs into an ordered `results` sequence.
type LoopExecutor struct {
	// MaxIterations caps how many items a single loop node will process;
	// zero or negative falls back to defaultMaxLoopIterations.
	MaxIterations int
}

func (l LoopExecutor) Execute(ctx context.Context, ec *engine.ExecutionContext, node *models.Node, input map[string]interface{}) (map[string]interface{}, error) {
	scope := ec.NodeScope(input)
	itemsParam := node.Parameters["items"]
	resolvedItems, err := ec.Resolver.Resolve(itemsParam, scope)
	if err != nil {
		return nil, models.NewNodeError(models.NodeErrorPermanent, node.ID, "loop items expression error: "+err.Error(), err)
	}

	maxIterations := l.MaxIterations
	if maxIterations <= 0 {
		maxIterations = defaultMaxLoopIterations
	}

	items, _ := resolvedItems.([]interface{})
	if len(items) > maxIterations {
		items = items[:maxIterations]
	}

	batchSize := engine.ParamInt(node.Parameters, "batchSize", 1)
	if batchSize < 1 {
		batchSize = 1
	}
	parallelBatches := engine.ParamBool(node.Parameters, "parallel", false)

	bodyNodes, bodyConns := exec.ReachableFrom(ec.Workflow(), node.ID, models.HandleBody)
	results := make([]interface{}, len(items))

	runItem := func(idx int) error {
		item := items[idx]
		payload := copyMap(input)
		payload["item"] = item
		payload["index"] = idx

		seeds := seedAllRoots(bodyNodes, bodyConns, payload)
		out, nodeErr := ec.Runner.RunSubgraph(ctx, ec, bodyNodes, bodyConns, seeds)
		if nodeErr != nil {
			return nodeErr
		}
		results[idx] = out
		return nil
	}

	for start := 0; start < len(items); start += batchSize {
		end := start + batchSize
		if end > len(items) {
			end = len(items)
		}

		if !parallelBatches {
			for i := start; i < end; i++ {
				if err := runItem(i); err != nil {
					return nil, err
				}
			}
			continue
		}

		var wg sync.WaitGroup
		errs := make([]error, end-start)
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i-start] = runItem(i)
			}(i)
		}
		wg.Wait()
		for _, e := range errs {
			if e != nil {
				return nil, e
			}
		}
	}

	out := copyMap(input)
	out["results"] = results
	return out, nil
}
