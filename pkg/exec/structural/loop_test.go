package structural

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowcore/engine/pkg/engine"
	"github.com/flowcore/engine/pkg/exec"
	"github.com/flowcore/engine/pkg/exec/library"
	"github.com/flowcore/engine/pkg/models"
)

// loopWorkflow builds a loop node whose body is a single "transform"
// node (jq, doubling `item`), reachable from the loop's "body" handle.
func loopWorkflow(items []interface{}, batchSize int, parallelBatches bool) *models.Workflow {
	loopNode := &models.Node{
		ID:   "loop-1",
		Type: "loop",
		Name: "Loop",
		Parameters: map[string]interface{}{
			"items":     items,
			"batchSize": float64(batchSize),
			"parallel":  parallelBatches,
		},
	}
	bodyNode := &models.Node{
		ID:   "body-1",
		Type: "transform",
		Name: "Double",
		Parameters: map[string]interface{}{
			"type":   "jq",
			"filter": ".item * 2",
		},
	}
	return &models.Workflow{
		ID:    "wf-loop",
		Name:  "Loop",
		Nodes: []*models.Node{loopNode, bodyNode},
		Connections: []*models.Connection{
			{ID: "c1", SourceNodeID: "loop-1", SourceHandleID: models.HandleBody, TargetNodeID: "body-1", TargetHandleID: models.HandleMain},
		},
	}
}

func runningExecutionContext(wf *models.Workflow) *engine.ExecutionContext {
	registry := exec.NewRegistry()
	registry.Register("transform", library.TransformExecutor{})

	ec := engine.NewExecutionContext("exec-loop", wf, nil, nil)
	ec.Runner = engine.NewScheduler(registry)
	return ec
}

func TestLoopExecutor_AggregatesResultsInOrder(t *testing.T) {
	items := []interface{}{float64(1), float64(2), float64(3)}
	wf := loopWorkflow(items, 1, false)
	ec := runningExecutionContext(wf)

	out, err := LoopExecutor{}.Execute(context.Background(), ec, wf.Nodes[0], map[string]interface{}{})
	require.NoError(t, err)

	results, ok := out["results"].([]interface{})
	require.True(t, ok)
	require.Len(t, results, 3)
	for i, r := range results {
		body := r.(map[string]interface{})
		assert.Equal(t, float64(i+1)*2, body["result"])
	}
}

func TestLoopExecutor_ParallelBatchesStillPreserveOrder(t *testing.T) {
	items := []interface{}{float64(1), float64(2), float64(3), float64(4)}
	wf := loopWorkflow(items, 2, true)
	ec := runningExecutionContext(wf)

	out, err := LoopExecutor{}.Execute(context.Background(), ec, wf.Nodes[0], map[string]interface{}{})
	require.NoError(t, err)

	results := out["results"].([]interface{})
	require.Len(t, results, 4)
	for i, r := range results {
		body := r.(map[string]interface{})
		assert.Equal(t, float64(i+1)*2, body["result"])
	}
}

func TestLoopExecutor_EmptyItemsProducesEmptyResults(t *testing.T) {
	wf := loopWorkflow([]interface{}{}, 1, false)
	ec := runningExecutionContext(wf)

	out, err := LoopExecutor{}.Execute(context.Background(), ec, wf.Nodes[0], map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{}, out["results"])
}

func TestLoopExecutor_MaxIterationsCapsRunawayItemsList(t *testing.T) {
	items := make([]interface{}, 5)
	for i := range items {
		items[i] = float64(i)
	}
	wf := loopWorkflow(items, 1, false)
	ec := runningExecutionContext(wf)

	out, err := LoopExecutor{MaxIterations: 2}.Execute(context.Background(), ec, wf.Nodes[0], map[string]interface{}{})
	require.NoError(t, err)
	assert.Len(t, out["results"].([]interface{}), 2)
}
