// Package exec hosts the NodeExecutor registry and the concrete
// structural and library executor implementations.
package exec

import (
	"sync"

	"github.com/flowcore/engine/pkg/engine"
)

// Registry maps a node type name to its NodeExecutor. Registration is
// one-shot, normally performed once at process startup.
type Registry struct {
	mu        sync.RWMutex
	executors map[string]engine.NodeExecutor
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{executors: make(map[string]engine.NodeExecutor)}
}

// Register binds nodeType to executor. Registering the same type twice
// overwrites the previous binding — callers are expected to register each
// type exactly once at startup.
func (r *Registry) Register(nodeType string, executor engine.NodeExecutor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executors[nodeType] = executor
}

// Get resolves nodeType to its executor, implementing engine.ExecutorLookup.
func (r *Registry) Get(nodeType string) (engine.NodeExecutor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.executors[nodeType]
	return e, ok
}
