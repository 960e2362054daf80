package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/flowcore/engine/pkg/expr"
	"github.com/flowcore/engine/pkg/models"
)

// EventSink receives every event an ExecutionContext emits. The Scheduler
// wires this to the inspector's event log and to the structured logger;
// tests can stub it trivially.
type EventSink interface {
	Emit(evt *models.Event)
}

// ExecutionContext is the thread-safe, per-execution state a Scheduler
// hands to every NodeExecutor: resolved variables, each node's recorded
// output, the merge barrier registry, and a cooperative cancellation
// signal. One ExecutionContext backs exactly one Execution.
type ExecutionContext struct {
	executionID string
	workflow    *models.Workflow

	mu          sync.RWMutex
	input       map[string]interface{}
	variables   map[string]interface{}
	nodeOutputs  map[string]map[string]interface{}
	barriers     map[string]*Barrier
	rateLimiters map[string]*rateLimiter

	// Resolver renders templated node parameters; shared across the whole
	// execution since it is stateless beyond its internal program cache.
	Resolver *expr.Resolver

	sink     EventSink
	sequence int64

	// Runner lets structural executors (parallel, loop, tryCatch, retry)
	// call back into the Scheduler to launch nested subgraphs. Set
	// by the Scheduler immediately after construction.
	Runner SubgraphRunner

	exec   *models.Execution
	execMu sync.Mutex

	cancelOnce sync.Once
	cancelCh   chan struct{}
	cancelled  atomic.Bool
}

// NewExecutionContext constructs a fresh context for a single execution.
func NewExecutionContext(executionID string, workflow *models.Workflow, input map[string]interface{}, sink EventSink) *ExecutionContext {
	if input == nil {
		input = map[string]interface{}{}
	}
	return &ExecutionContext{
		executionID: executionID,
		workflow:    workflow,
		input:       input,
		variables:   make(map[string]interface{}),
		nodeOutputs: make(map[string]map[string]interface{}),
		barriers:    make(map[string]*Barrier),
		Resolver:    expr.NewResolver(),
		sink:        sink,
		cancelCh:    make(chan struct{}),
	}
}

// ExecutionID returns the execution this context belongs to.
func (ec *ExecutionContext) ExecutionID() string { return ec.executionID }

// Workflow returns the graph being executed.
func (ec *ExecutionContext) Workflow() *models.Workflow { return ec.workflow }

// Input implements expr.Scope for an execution-level (not node-scoped)
// resolution; node-level resolution uses NodeScope instead, which binds
// $input to that node's own composed input.
func (ec *ExecutionContext) Input() map[string]interface{} {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	return ec.input
}

// Variable implements expr.Scope's $vars half.
func (ec *ExecutionContext) Variable(name string) (interface{}, bool) {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	v, ok := ec.variables[name]
	return v, ok
}

// SetVariable assigns a workflow-scoped variable, visible to every node
// resolved afterward via $vars.
func (ec *ExecutionContext) SetVariable(name string, value interface{}) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.variables[name] = value
}

// NodeOutput implements expr.Scope's $nodes half.
func (ec *ExecutionContext) NodeOutput(nodeID string) (map[string]interface{}, bool) {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	out, ok := ec.nodeOutputs[nodeID]
	return out, ok
}

// RecordNodeOutput stores nodeID's output, first-writer-wins: a merge
// node dispatched multiple times must not let a later dispatch overwrite
// what $nodes.<id>.output already exposed to sibling branches.
func (ec *ExecutionContext) RecordNodeOutput(nodeID string, output map[string]interface{}) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	if _, exists := ec.nodeOutputs[nodeID]; exists {
		return
	}
	ec.nodeOutputs[nodeID] = output
}

// hasLiveOutput reports whether nodeID has produced a recorded (i.e.
// non-suppressed) output. Suppressed arrivals are never recorded, so
// their absence here is exactly the "_stopExecution treated as absent
// for readiness" rule.
func (ec *ExecutionContext) hasLiveOutput(nodeID string) bool {
	_, ok := ec.NodeOutput(nodeID)
	return ok
}

// recordNodeExecution appends a per-dispatch record to the execution's
// node execution log. Append-only: a merge node dispatched N times (once
// per arriving branch) accumulates N records.
func (ec *ExecutionContext) recordNodeExecution(nodeID, name, typ string, status models.NodeExecutionStatus, startedAt, finishedAt time.Time, input, output map[string]interface{}, errMsg string) {
	ec.execMu.Lock()
	defer ec.execMu.Unlock()
	if ec.exec == nil {
		return
	}
	ec.exec.NodeExecutions = append(ec.exec.NodeExecutions, &models.NodeExecution{
		NodeID:     nodeID,
		Name:       name,
		Type:       typ,
		Status:     status,
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
		Input:      input,
		Output:     output,
		Error:      errMsg,
	})
}

// snapshotNodeExecutions returns the accumulated node execution records.
// Safe to call once the execution has quiesced (no goroutines still
// appending).
func (ec *ExecutionContext) snapshotNodeExecutions() []*models.NodeExecution {
	ec.execMu.Lock()
	defer ec.execMu.Unlock()
	if ec.exec == nil {
		return nil
	}
	out := make([]*models.NodeExecution, len(ec.exec.NodeExecutions))
	copy(out, ec.exec.NodeExecutions)
	return out
}

// NodeScope binds $input to a specific node's composed input while
// delegating $nodes and $vars to the shared execution state.
func (ec *ExecutionContext) NodeScope(nodeInput map[string]interface{}) *NodeScope {
	return &NodeScope{ctx: ec, input: nodeInput}
}

// GetBarrier returns the merge barrier for nodeID, constructing it on
// first call. A later call with a divergent spec is an authoring bug:
// the workflow wired the same merge node to disagree with itself about
// how many branches feed it.
func (ec *ExecutionContext) GetBarrier(nodeID string, spec MergeSpec) (*Barrier, error) {
	ec.mu.Lock()
	defer ec.mu.Unlock()

	if b, ok := ec.barriers[nodeID]; ok {
		if !b.spec.Equal(spec) {
			return nil, &models.InternalInconsistencyError{
				Message: fmt.Sprintf("merge node %s re-registered with a divergent mergeSpec", nodeID),
			}
		}
		return b, nil
	}

	b := newBarrier(spec)
	ec.barriers[nodeID] = b
	return b, nil
}

// Cancel requests cooperative cancellation of the execution. Safe to call
// more than once and from multiple goroutines.
func (ec *ExecutionContext) Cancel() {
	ec.cancelOnce.Do(func() {
		ec.cancelled.Store(true)
		close(ec.cancelCh)
	})
}

// Cancelled reports whether Cancel has been called.
func (ec *ExecutionContext) Cancelled() bool { return ec.cancelled.Load() }

// Done returns a channel closed once Cancel has been called, for use in
// select alongside a node's own timeout context.
func (ec *ExecutionContext) Done() <-chan struct{} { return ec.cancelCh }

// Emit appends an event to the execution's log via the configured sink,
// stamping a monotonically increasing sequence number and timestamp.
func (ec *ExecutionContext) Emit(level models.EventLevel, typ models.EventType, nodeID, message string, data map[string]interface{}) {
	if ec.sink == nil {
		return
	}
	seq := atomic.AddInt64(&ec.sequence, 1)
	ec.sink.Emit(&models.Event{
		Sequence:    seq,
		ExecutionID: ec.executionID,
		Level:       level,
		Type:        typ,
		NodeID:      nodeID,
		Message:     message,
		Data:        data,
		Timestamp:   time.Now(),
	})
}

// NodeScope is an expr.Scope bound to one node's composed input, sharing
// its execution's node outputs and variables.
type NodeScope struct {
	ctx   *ExecutionContext
	input map[string]interface{}
}

func (s *NodeScope) Input() map[string]interface{} { return s.input }

func (s *NodeScope) NodeOutput(nodeID string) (map[string]interface{}, bool) {
	return s.ctx.NodeOutput(nodeID)
}

func (s *NodeScope) Variable(name string) (interface{}, bool) {
	return s.ctx.Variable(name)
}

// nodeTimeout derives a context bound to both the execution's cancellation
// signal and a per-node deadline, grounded on the worker-pool idiom of
// deriving one context per dispatched node.
func nodeTimeout(parent context.Context, ec *ExecutionContext, timeout time.Duration) (context.Context, context.CancelFunc) {
	var ctx context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(parent, timeout)
	} else {
		ctx, cancel = context.WithCancel(parent)
	}

	stop := make(chan struct{})
	var stopOnce sync.Once
	go func() {
		select {
		case <-ec.Done():
			cancel()
		case <-stop:
		}
	}()

	return ctx, func() {
		stopOnce.Do(func() { close(stop) })
		cancel()
	}
}
