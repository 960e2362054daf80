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

func TestParallelExecutor_BranchCountMode(t *testing.T) {
	ec := newTestContext()
	node := &models.Node{ID: "p1", Parameters: map[string]interface{}{"branches": float64(3)}}

	out, err := ParallelExecutor{}.Execute(context.Background(), ec, node, map[string]interface{}{"x": 1})
	require.NoError(t, err)
	assert.Equal(t, 3, out["_branchCount"])
	assert.Equal(t, 1, out["x"])
}

func TestParallelExecutor_NoBranchesPassesThrough(t *testing.T) {
	ec := newTestContext()
	node := &models.Node{ID: "p1", Parameters: map[string]interface{}{}}

	out, err := ParallelExecutor{}.Execute(context.Background(), ec, node, map[string]interface{}{"x": 1})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"x": 1}, out)
}

func TestParallelExecutor_EmptyBranchListReportsZeroCount(t *testing.T) {
	ec := newTestContext()
	node := &models.Node{ID: "p1", Parameters: map[string]interface{}{"branches": []interface{}{}}}

	out, err := ParallelExecutor{}.Execute(context.Background(), ec, node, map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, 0, out["_branchCount"])
}

// inlineParallelWorkflow builds a parallel node whose two inline branches
// are each a single "transform" (jq) node, described entirely in the
// node's own "branches" parameter rather than as top-level workflow
// connections.
func inlineParallelWorkflow() *models.Workflow {
	branch := func(id string, filter string) map[string]interface{} {
		return map[string]interface{}{
			"id": id,
			"nodes": []interface{}{
				map[string]interface{}{
					"id":   id + "-node",
					"type": "transform",
					"name": id,
					"parameters": map[string]interface{}{
						"type":   "jq",
						"filter": filter,
					},
				},
			},
			"connections": []interface{}{},
		}
	}

	node := &models.Node{
		ID:   "p1",
		Type: "parallel",
		Name: "Parallel",
		Parameters: map[string]interface{}{
			"branches": []interface{}{
				branch("a", ".x + 1"),
				branch("b", ".x + 2"),
			},
		},
	}
	return &models.Workflow{ID: "wf-parallel", Name: "Parallel", Nodes: []*models.Node{node}}
}

func TestParallelExecutor_InlineBranchesRunConcurrentlyAndAggregate(t *testing.T) {
	wf := inlineParallelWorkflow()
	registry := exec.NewRegistry()
	registry.Register("transform", library.TransformExecutor{})

	ec := engine.NewExecutionContext("exec-parallel", wf, nil, nil)
	ec.Runner = engine.NewScheduler(registry)

	out, err := ParallelExecutor{}.Execute(context.Background(), ec, wf.Nodes[0], map[string]interface{}{"x": float64(10)})
	require.NoError(t, err)

	a := out["a"].(map[string]interface{})
	b := out["b"].(map[string]interface{})
	assert.Equal(t, float64(11), a["result"])
	assert.Equal(t, float64(12), b["result"])
}

func TestParallelExecutor_InlineBranchErrorPropagates(t *testing.T) {
	node := &models.Node{
		ID:   "p1",
		Type: "parallel",
		Name: "Parallel",
		Parameters: map[string]interface{}{
			"branches": []interface{}{
				map[string]interface{}{
					"id": "bad",
					"nodes": []interface{}{
						map[string]interface{}{
							"id":         "bad-node",
							"type":       "transform",
							"name":       "bad",
							"parameters": map[string]interface{}{"type": "jq"},
						},
					},
					"connections": []interface{}{},
				},
			},
		},
	}
	wf := &models.Workflow{ID: "wf-parallel-err", Name: "Parallel", Nodes: []*models.Node{node}}

	registry := exec.NewRegistry()
	registry.Register("transform", library.TransformExecutor{})
	ec := engine.NewExecutionContext("exec-parallel-err", wf, nil, nil)
	ec.Runner = engine.NewScheduler(registry)

	_, err := ParallelExecutor{}.Execute(context.Background(), ec, node, map[string]interface{}{})
	assert.Error(t, err)
}
