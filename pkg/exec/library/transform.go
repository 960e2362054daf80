package library

import (
	"context"
	"fmt"

	"github.com/itchyny/gojq"

	"github.com/flowcore/engine/pkg/engine"
	"github.com/flowcore/engine/pkg/models"
)

// TransformExecutor reshapes its input under one of a few transform
// kinds. "jq" is the interesting one: it runs a gojq filter over the
// composed input and stores the result under "result".
type TransformExecutor struct{}

func (TransformExecutor) Execute(ctx context.Context, ec *engine.ExecutionContext, node *models.Node, input map[string]interface{}) (map[string]interface{}, error) {
	kind := engine.ParamString(node.Parameters, "type")
	if kind == "" {
		kind = "passthrough"
	}

	switch kind {
	case "passthrough":
		out := make(map[string]interface{}, len(input))
		for k, v := range input {
			out[k] = v
		}
		return out, nil

	case "jq":
		filterStr := engine.ParamString(node.Parameters, "filter")
		if filterStr == "" {
			return nil, models.NewNodeError(models.NodeErrorConfig, node.ID, "transform(jq) requires a \"filter\" parameter", nil)
		}

		query, err := gojq.Parse(filterStr)
		if err != nil {
			return nil, models.NewNodeError(models.NodeErrorConfig, node.ID, "invalid jq filter", err)
		}
		code, err := gojq.Compile(query)
		if err != nil {
			return nil, models.NewNodeError(models.NodeErrorConfig, node.ID, "failed to compile jq filter", err)
		}

		iter := code.Run(toJQInput(input))
		v, ok := iter.Next()
		if !ok {
			return nil, models.NewNodeError(models.NodeErrorPermanent, node.ID, "jq filter produced no output", nil)
		}
		if jqErr, ok := v.(error); ok {
			return nil, models.NewNodeError(models.NodeErrorPermanent, node.ID, "jq filter execution error", jqErr)
		}

		return map[string]interface{}{"result": v}, nil

	default:
		return nil, models.NewNodeError(models.NodeErrorConfig, node.ID, fmt.Sprintf("unknown transform type %q", kind), nil)
	}
}

// toJQInput converts the node's map[string]interface{} input into the
// any-keyed value gojq expects at its root.
func toJQInput(input map[string]interface{}) interface{} {
	out := make(map[string]interface{}, len(input))
	for k, v := range input {
		out[k] = v
	}
	return out
}
