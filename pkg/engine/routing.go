package engine

import "github.com/flowcore/engine/pkg/models"

// activeHandlesOf extracts the internal `_activeHandle`/`_activeHandles`
// routing marker a handle-aware executor (if, switch) attaches to its
// output, restricting which of its outgoing connections actually fire.
// Both markers are stripped like any other `_`-prefixed key before a
// downstream node's input is composed; they only ever drive routing
// decisions made directly against the recorded (unstripped) output.
// Absence means "all outgoing handles fire" — the default for ordinary
// nodes and for `parallel`'s fan-out.
func activeHandlesOf(output map[string]interface{}) []string {
	if output == nil {
		return nil
	}
	if h, ok := output["_activeHandle"].(string); ok {
		return []string{h}
	}
	if list, ok := output["_activeHandles"].([]interface{}); ok {
		handles := make([]string, 0, len(list))
		for _, v := range list {
			if s, ok := v.(string); ok {
				handles = append(handles, s)
			}
		}
		return handles
	}
	return nil
}

// connectionLive reports whether a connection's source has produced a
// live (non-suppressed, handle-matching) output — the unit readiness is
// computed over.
func (ec *ExecutionContext) connectionLive(c *models.Connection) bool {
	out, ok := ec.NodeOutput(c.SourceNodeID)
	if !ok {
		return false
	}
	if v, ok := out["_stopExecution"]; ok {
		if b, ok := v.(bool); ok && b {
			return false
		}
	}
	handles := activeHandlesOf(out)
	if handles == nil {
		return true
	}
	for _, h := range handles {
		if h == c.SourceHandleID {
			return true
		}
	}
	return false
}
