package library

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowcore/engine/pkg/engine"
	"github.com/flowcore/engine/pkg/models"
)

func TestScheduleTriggerExecutor_ComputesNextRuns(t *testing.T) {
	ec := engine.NewExecutionContext("exec-1", &models.Workflow{ID: "wf-1"}, nil, nil)
	node := &models.Node{ID: "n1", Parameters: map[string]interface{}{"schedule": "@hourly"}}

	out, err := ScheduleTriggerExecutor{}.Execute(context.Background(), ec, node, map[string]interface{}{})
	require.NoError(t, err)
	assert.NotZero(t, out["nextRun"])
	assert.NotZero(t, out["nextRunAfter"])
}

func TestScheduleTriggerExecutor_MissingScheduleIsConfigError(t *testing.T) {
	ec := engine.NewExecutionContext("exec-1", &models.Workflow{ID: "wf-1"}, nil, nil)
	node := &models.Node{ID: "n1", Parameters: map[string]interface{}{}}

	_, err := ScheduleTriggerExecutor{}.Execute(context.Background(), ec, node, map[string]interface{}{})
	assert.Error(t, err)
}

func TestScheduleTriggerExecutor_InvalidCronExpression(t *testing.T) {
	ec := engine.NewExecutionContext("exec-1", &models.Workflow{ID: "wf-1"}, nil, nil)
	node := &models.Node{ID: "n1", Parameters: map[string]interface{}{"schedule": "not a cron"}}

	_, err := ScheduleTriggerExecutor{}.Execute(context.Background(), ec, node, map[string]interface{}{})
	assert.Error(t, err)
}

func TestScheduleTriggerExecutor_InvalidTimezone(t *testing.T) {
	ec := engine.NewExecutionContext("exec-1", &models.Workflow{ID: "wf-1"}, nil, nil)
	node := &models.Node{ID: "n1", Parameters: map[string]interface{}{"schedule": "@hourly", "timezone": "Not/AZone"}}

	_, err := ScheduleTriggerExecutor{}.Execute(context.Background(), ec, node, map[string]interface{}{})
	assert.Error(t, err)
}
