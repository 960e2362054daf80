package structural

import (
	"context"

	"github.com/flowcore/engine/pkg/engine"
	"github.com/flowcore/engine/pkg/models"
)

// SwitchExecutor evaluates an ordered list of `{when, handle}` cases,
// routing to the first match's handle, falling back to `default` if
// none match.
type SwitchExecutor struct{}

func (SwitchExecutor) Execute(ctx context.Context, ec *engine.ExecutionContext, node *models.Node, input map[string]interface{}) (map[string]interface{}, error) {
	cases := engine.ParamSlice(node.Parameters, "cases")
	scope := ec.NodeScope(input)

	matchedHandle := ""
	for _, raw := range cases {
		caseMap, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		when, _ := caseMap["when"].(string)
		handle, _ := caseMap["handle"].(string)

		matched, err := ec.Resolver.EvaluateCondition(when, scope)
		if err != nil {
			ec.Emit(models.EventLevelWarn, models.EventSystemWarning, node.ID, "switch case error, skipped: "+err.Error(), nil)
			continue
		}
		if matched {
			matchedHandle = handle
			break
		}
	}

	if matchedHandle == "" {
		matchedHandle = engine.ParamString(node.Parameters, "default")
	}

	out := make(map[string]interface{}, len(input)+2)
	for k, v := range input {
		out[k] = v
	}
	out["matchedHandle"] = matchedHandle
	if matchedHandle != "" {
		out["_activeHandle"] = matchedHandle
	} else {
		out["_activeHandles"] = []interface{}{}
	}
	return out, nil
}
