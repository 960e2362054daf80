package library

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowcore/engine/pkg/engine"
	"github.com/flowcore/engine/pkg/models"
)

func newTestContext() *engine.ExecutionContext {
	return engine.NewExecutionContext("exec-1", &models.Workflow{ID: "wf-1"}, nil, nil)
}

func TestTransformExecutor_PassthroughDefault(t *testing.T) {
	ec := newTestContext()
	node := &models.Node{ID: "n1", Parameters: map[string]interface{}{}}

	out, err := TransformExecutor{}.Execute(context.Background(), ec, node, map[string]interface{}{"x": 1})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"x": 1}, out)
}

func TestTransformExecutor_JQFilter(t *testing.T) {
	ec := newTestContext()
	node := &models.Node{ID: "n1", Parameters: map[string]interface{}{"type": "jq", "filter": ".x + 1"}}

	out, err := TransformExecutor{}.Execute(context.Background(), ec, node, map[string]interface{}{"x": 1})
	require.NoError(t, err)
	assert.Equal(t, "2", fmt.Sprint(out["result"]))
}

func TestTransformExecutor_JQMissingFilter(t *testing.T) {
	ec := newTestContext()
	node := &models.Node{ID: "n1", Parameters: map[string]interface{}{"type": "jq"}}

	_, err := TransformExecutor{}.Execute(context.Background(), ec, node, map[string]interface{}{})
	assert.Error(t, err)
}

func TestTransformExecutor_JQInvalidFilter(t *testing.T) {
	ec := newTestContext()
	node := &models.Node{ID: "n1", Parameters: map[string]interface{}{"type": "jq", "filter": "..["}}

	_, err := TransformExecutor{}.Execute(context.Background(), ec, node, map[string]interface{}{})
	assert.Error(t, err)
}

func TestTransformExecutor_UnknownType(t *testing.T) {
	ec := newTestContext()
	node := &models.Node{ID: "n1", Parameters: map[string]interface{}{"type": "xslt"}}

	_, err := TransformExecutor{}.Execute(context.Background(), ec, node, map[string]interface{}{})
	assert.Error(t, err)
}
