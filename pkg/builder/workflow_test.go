package builder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowcore/engine/pkg/models"
)

func TestWorkflowBuilder_Success(t *testing.T) {
	wf, err := NewWorkflow("wf-1", "Passthrough").
		WithDescription("demo").
		WithTriggerType(models.TriggerTypeManual).
		AddNode(NewNode("trigger-1", "manualTrigger", "Trigger")).
		AddNode(NewNode("node-1", "transform", "Transform", WithParameter("type", "passthrough"))).
		Connect(NewConnection("trigger-1", "node-1")).
		Build()

	require.NoError(t, err)
	assert.Equal(t, "wf-1", wf.ID)
	assert.Len(t, wf.Nodes, 2)
	assert.Len(t, wf.Connections, 1)
	assert.True(t, wf.Active)
}

func TestWorkflowBuilder_PropagatesNodeError(t *testing.T) {
	_, err := NewWorkflow("wf-1", "Bad").
		AddNode(NewNode("", "transform", "Transform")).
		Build()
	assert.Error(t, err)
}

func TestWorkflowBuilder_PropagatesConnectionError(t *testing.T) {
	_, err := NewWorkflow("wf-1", "Bad").
		AddNode(NewNode("trigger-1", "manualTrigger", "Trigger")).
		Connect(NewConnection("", "trigger-1")).
		Build()
	assert.Error(t, err)
}

func TestWorkflowBuilder_RequiresTriggerNode(t *testing.T) {
	_, err := NewWorkflow("wf-1", "No Trigger").
		AddNode(NewNode("node-1", "transform", "Transform")).
		Build()
	assert.Error(t, err)
}

func TestWorkflowBuilder_WithSetting(t *testing.T) {
	wf, err := NewWorkflow("wf-1", "Settings").
		WithSetting("timezone", "UTC").
		AddNode(NewNode("trigger-1", "manualTrigger", "Trigger")).
		Build()
	require.NoError(t, err)
	assert.Equal(t, "UTC", wf.Settings["timezone"])
}
