package structural

import (
	"context"
	"fmt"

	"github.com/flowcore/engine/pkg/engine"
	"github.com/flowcore/engine/pkg/models"
)

// ParallelExecutor implements both `parallel` modes: fan-out,
// where the scheduler's default "all outgoing handles fire" behavior
// already gives concurrent dispatch of every downstream edge once this
// node's output is recorded, and inline, where the executor itself runs
// each listed subgraph concurrently via the Scheduler's subgraph runner.
type ParallelExecutor struct{}

func (ParallelExecutor) Execute(ctx context.Context, ec *engine.ExecutionContext, node *models.Node, input map[string]interface{}) (map[string]interface{}, error) {
	raw, has := node.Parameters["branches"]
	if !has {
		return copyMap(input), nil
	}

	switch branches := raw.(type) {
	case float64:
		n := int(branches)
		out := copyMap(input)
		out["_branchCount"] = n
		return out, nil

	case []interface{}:
		if len(branches) == 0 {
			out := copyMap(input)
			out["_branchCount"] = 0
			return out, nil
		}
		return runInlineBranches(ctx, ec, node, input, branches)

	default:
		return map[string]interface{}{"error": fmt.Sprintf("Invalid branches configuration: unsupported type %T", raw)}, nil
	}
}

func runInlineBranches(ctx context.Context, ec *engine.ExecutionContext, node *models.Node, input map[string]interface{}, branches []interface{}) (map[string]interface{}, error) {
	type branchResult struct {
		id  string
		out map[string]interface{}
		err error
	}

	results := make(chan branchResult, len(branches))
	for _, raw := range branches {
		spec, ok := raw.(map[string]interface{})
		if !ok {
			results <- branchResult{}
			continue
		}
		id, _ := spec["id"].(string)
		branchNodes := decodeNodes(spec["nodes"])
		branchConns := decodeConnections(spec["connections"])

		go func(id string, branchNodes []*models.Node, branchConns []*models.Connection) {
			seeds := seedAllRoots(branchNodes, branchConns, input)
			out, nodeErr := ec.Runner.RunSubgraph(ctx, ec, branchNodes, branchConns, seeds)
			if nodeErr != nil {
				results <- branchResult{id: id, err: nodeErr}
				return
			}
			results <- branchResult{id: id, out: out}
		}(id, branchNodes, branchConns)
	}

	out := make(map[string]interface{}, len(branches))
	var firstErr error
	for i := 0; i < len(branches); i++ {
		r := <-results
		if r.err != nil && firstErr == nil {
			firstErr = r.err
		}
		if r.id != "" {
			out[r.id] = r.out
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

func copyMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// seedAllRoots seeds every node with no incoming connection within the
// given subgraph with the same payload — an inline parallel branch (and
// similarly tryCatch's try/catch, loop's body) typically has exactly one
// entry node, but seeding every root uniformly handles disconnected
// subgraphs without special-casing.
func seedAllRoots(nodes []*models.Node, connections []*models.Connection, payload map[string]interface{}) map[string]map[string]interface{} {
	hasIncoming := make(map[string]bool)
	for _, c := range connections {
		hasIncoming[c.TargetNodeID] = true
	}
	seeds := make(map[string]map[string]interface{})
	for _, n := range nodes {
		if !hasIncoming[n.ID] {
			seeds[n.ID] = payload
		}
	}
	return seeds
}

func decodeNodes(raw interface{}) []*models.Node {
	list, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	nodes := make([]*models.Node, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		nodes = append(nodes, decodeNode(m))
	}
	return nodes
}

func decodeNode(m map[string]interface{}) *models.Node {
	n := &models.Node{}
	n.ID, _ = m["id"].(string)
	n.Type, _ = m["type"].(string)
	n.Name, _ = m["name"].(string)
	n.Disabled, _ = m["disabled"].(bool)
	if params, ok := m["parameters"].(map[string]interface{}); ok {
		n.Parameters = params
	} else {
		n.Parameters = map[string]interface{}{}
	}
	return n
}

func decodeConnections(raw interface{}) []*models.Connection {
	list, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	conns := make([]*models.Connection, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		c := &models.Connection{}
		c.ID, _ = m["id"].(string)
		c.SourceNodeID, _ = m["sourceNodeId"].(string)
		c.SourceHandleID, _ = m["sourceHandleId"].(string)
		c.TargetNodeID, _ = m["targetNodeId"].(string)
		c.TargetHandleID, _ = m["targetHandleId"].(string)
		conns = append(conns, c)
	}
	return conns
}
