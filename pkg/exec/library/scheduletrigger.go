package library

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/flowcore/engine/pkg/engine"
	"github.com/flowcore/engine/pkg/models"
)

// ScheduleTriggerExecutor only validates a cron expression and reports its
// next two fire times; it never drives a dispatch loop itself (the actual
// scheduling daemon is outside the engine's scope). It demonstrates the
// boundary between a core trigger and a library one.
type ScheduleTriggerExecutor struct{}

func (ScheduleTriggerExecutor) Execute(ctx context.Context, ec *engine.ExecutionContext, node *models.Node, input map[string]interface{}) (map[string]interface{}, error) {
	expr := engine.ParamString(node.Parameters, "schedule")
	if expr == "" {
		return nil, models.NewNodeError(models.NodeErrorConfig, node.ID, "scheduleTrigger requires a \"schedule\" parameter", nil)
	}

	location := time.UTC
	if tz := engine.ParamString(node.Parameters, "timezone"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, models.NewNodeError(models.NodeErrorConfig, node.ID, fmt.Sprintf("invalid timezone %q", tz), err)
		}
		location = loc
	}

	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	schedule, err := parser.Parse(expr)
	if err != nil {
		return nil, models.NewNodeError(models.NodeErrorConfig, node.ID, fmt.Sprintf("invalid cron expression %q", expr), err)
	}

	now := time.Now().In(location)
	next := schedule.Next(now)
	nextAfter := schedule.Next(next)

	out := make(map[string]interface{}, len(input)+2)
	for k, v := range input {
		out[k] = v
	}
	out["nextRun"] = next
	out["nextRunAfter"] = nextAfter
	return out, nil
}
