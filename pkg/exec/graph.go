package exec

import "github.com/flowcore/engine/pkg/models"

// ReachableFrom walks the workflow graph starting at the connections
// leaving nodeID on the given handle, returning every node and internal
// connection reachable from there. `loop`, `tryCatch`, and `retry` use
// this to carve out the subgraph their `body`/`try`/`catch` handle feeds,
// which the Scheduler then runs as an isolated nested execution sharing
// the parent ExecutionContext. The entry connections leaving nodeID
// itself are deliberately excluded from the returned connection list:
// nodeID is not part of the returned nodes, so a nested subgraph run
// would otherwise wait forever on an edge whose source never dispatches
// inside it.
func ReachableFrom(workflow *models.Workflow, nodeID, handle string) ([]*models.Node, []*models.Connection) {
	visitedNodes := make(map[string]bool)
	visitedConns := make(map[string]bool)
	var nodes []*models.Node
	var conns []*models.Connection

	var queue []string
	for _, c := range workflow.OutgoingConnections(nodeID) {
		if c.SourceHandleID != handle {
			continue
		}
		if !visitedNodes[c.TargetNodeID] {
			queue = append(queue, c.TargetNodeID)
		}
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visitedNodes[id] {
			continue
		}
		visitedNodes[id] = true
		if n, err := workflow.GetNode(id); err == nil {
			nodes = append(nodes, n)
		}
		for _, c := range workflow.OutgoingConnections(id) {
			if !visitedConns[c.ID] {
				visitedConns[c.ID] = true
				conns = append(conns, c)
			}
			if !visitedNodes[c.TargetNodeID] {
				queue = append(queue, c.TargetNodeID)
			}
		}
	}

	return nodes, conns
}
