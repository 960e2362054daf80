// Package expr resolves templated node parameters and boolean conditions
// against a running execution's scope.
package expr

// Scope is the read surface the resolver needs from an execution in
// progress. pkg/engine's ExecutionContext implements it; the interface
// lives here (rather than importing pkg/engine) so pkg/engine can in turn
// depend on pkg/expr for condition evaluation without an import cycle.
type Scope interface {
	// Input returns the payload bound to $input for the node currently
	// being resolved.
	Input() map[string]interface{}

	// NodeOutput returns the recorded output of nodeID, or (nil, false)
	// if the node has not produced output yet.
	NodeOutput(nodeID string) (map[string]interface{}, bool)

	// Variable returns a workflow-level variable, or (nil, false) if unset.
	Variable(name string) (interface{}, bool)
}

// staticScope is a minimal Scope for callers that only need a fixed input
// payload and variable set.
type staticScope struct {
	input map[string]interface{}
	vars  map[string]interface{}
}

// NewStaticScope builds a Scope with a fixed input and variable set and no
// node outputs, useful for evaluating standalone expressions outside a
// running execution (e.g. validating a workflow at load time).
func NewStaticScope(input, vars map[string]interface{}) Scope {
	return &staticScope{input: input, vars: vars}
}

func (s *staticScope) Input() map[string]interface{} { return s.input }

func (s *staticScope) NodeOutput(string) (map[string]interface{}, bool) { return nil, false }

func (s *staticScope) Variable(name string) (interface{}, bool) {
	v, ok := s.vars[name]
	return v, ok
}
