package engine

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/flowcore/engine/pkg/models"
)

// StepController gates dispatch when dev-mode step execution is active.
// The Scheduler calls Await before dispatching each ready node; a no-op
// implementation (the default) never blocks.
type StepController interface {
	Await(ctx context.Context) error
}

// Scheduler drives one or more executions to completion against a shared
// worker pool. One Scheduler instance is normally long-lived
// and reused across executions; the worker pool bound is shared by every
// nested subgraph a structural executor launches, including loop bodies
// run with parallel=true (an explicit design choice over a per-subgraph
// pool, to preserve one global concurrency ceiling).
type Scheduler struct {
	registry           ExecutorLookup
	sem                chan struct{}
	steps              StepController
	defaultNodeTimeout time.Duration
}

// SchedulerOption configures a Scheduler at construction.
type SchedulerOption func(*Scheduler)

// WithParallelism overrides the default worker pool size (number of
// logical processors).
func WithParallelism(n int) SchedulerOption {
	return func(s *Scheduler) {
		if n > 0 {
			s.sem = make(chan struct{}, n)
		}
	}
}

// WithStepController enables dev-mode step execution.
func WithStepController(ctrl StepController) SchedulerOption {
	return func(s *Scheduler) { s.steps = ctrl }
}

// WithDefaultNodeTimeout sets the per-node dispatch deadline applied when
// a node's own `timeout` parameter is unset or zero.
func WithDefaultNodeTimeout(d time.Duration) SchedulerOption {
	return func(s *Scheduler) { s.defaultNodeTimeout = d }
}

// NewScheduler constructs a Scheduler bound to the given executor registry.
func NewScheduler(registry ExecutorLookup, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		registry: registry,
		sem:      make(chan struct{}, runtime.NumCPU()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run validates the workflow, seeds the matching trigger, drives it to
// completion, and returns the finished Execution record.
func (s *Scheduler) Run(ctx context.Context, executionID string, workflow *models.Workflow, triggerType models.TriggerType, input map[string]interface{}, sink EventSink) (*models.Execution, error) {
	if err := workflow.Validate(); err != nil {
		return nil, err
	}

	var trigger *models.Node
	for _, n := range workflow.TriggerNodes() {
		if n.Type == string(triggerType) || triggerTypeMatches(n.Type, triggerType) {
			trigger = n
			break
		}
	}
	if trigger == nil {
		return nil, &models.ValidationError{Field: "trigger", Message: fmt.Sprintf("no trigger node matches request type %q", triggerType)}
	}

	exec := &models.Execution{
		ID:          executionID,
		WorkflowID:  workflow.ID,
		Status:      models.ExecutionRunning,
		TriggerType: triggerType,
		StartedAt:   time.Now(),
		InputData:   input,
	}

	ec := NewExecutionContext(executionID, workflow, input, sink)
	ec.Runner = s
	ec.exec = exec

	// A caller cancelling ctx (the Engine API's cancel operation) only
	// reaches individual nodes through the contexts derived from it; this
	// watcher is what turns that into ec.Cancelled(), so the execution's
	// final status is CANCELLED rather than FAILED.
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			ec.Cancel()
		case <-watchDone:
		}
	}()

	ec.Emit(models.EventLevelInfo, models.EventExecutionStarted, "", "execution started", nil)

	ec.recordNodeExecution(trigger.ID, trigger.Name, trigger.Type, models.NodeExecutionSuccess, time.Now(), time.Now(), input, input, "")
	ec.RecordNodeOutput(trigger.ID, input)

	output, nodeErr := s.runGraph(ctx, ec, workflow.Nodes, workflow.Connections, map[string]map[string]interface{}{trigger.ID: input})

	finishedAt := time.Now()
	exec.FinishedAt = &finishedAt
	exec.OutputData = output
	exec.NodeExecutions = ec.snapshotNodeExecutions()

	switch {
	case ec.Cancelled():
		exec.Status = models.ExecutionCancelled
		ec.Emit(models.EventLevelWarn, models.EventExecutionCancelled, "", "execution cancelled", nil)
	case nodeErr != nil:
		exec.Status = models.ExecutionFailed
		exec.ErrorMessage = nodeErr.Error()
		ec.Emit(models.EventLevelError, models.EventExecutionFailed, nodeErr.NodeID, nodeErr.Error(), nil)
	default:
		exec.Status = models.ExecutionSuccess
		ec.Emit(models.EventLevelInfo, models.EventExecutionCompleted, "", "execution completed", nil)
	}

	return exec, nil
}

func triggerTypeMatches(nodeType string, triggerType models.TriggerType) bool {
	switch triggerType {
	case models.TriggerTypeManual:
		return nodeType == "manualTrigger"
	case models.TriggerTypeSchedule:
		return nodeType == "scheduleTrigger"
	case models.TriggerTypeWebhook:
		return nodeType == "webhookTrigger"
	case models.TriggerTypeFile:
		return nodeType == "fileTrigger"
	default:
		return false
	}
}

// RunSubgraph executes a node/connection subset sharing ec's variables,
// node outputs, barriers and cancellation signal, seeding each given
// root node with its own payload. Structural executors (parallel inline
// branches, loop bodies, tryCatch's try/catch, retry's wrapped child)
// call back into this to launch their sub-branches.
func (s *Scheduler) RunSubgraph(ctx context.Context, ec *ExecutionContext, nodes []*models.Node, connections []*models.Connection, seeds map[string]map[string]interface{}) (map[string]interface{}, *models.NodeError) {
	return s.runGraph(ctx, ec, nodes, connections, seeds)
}

type completion struct {
	nodeID    string
	connID    string
	output    map[string]interface{}
	err       *models.NodeError
	startedAt time.Time
}

// runGraph is the single scheduling core backing both the top-level
// execution and every nested subgraph. It owns readiness bookkeeping in
// one goroutine (the caller's) and hands work out to the shared worker
// pool, consuming completions off a channel until nothing is ready and
// nothing is running, in a single-producer scheduling loop.
func (s *Scheduler) runGraph(ctx context.Context, ec *ExecutionContext, nodes []*models.Node, connections []*models.Connection, seeds map[string]map[string]interface{}) (map[string]interface{}, *models.NodeError) {
	nodeByID := make(map[string]*models.Node, len(nodes))
	for _, n := range nodes {
		nodeByID[n.ID] = n
	}
	incoming := make(map[string][]*models.Connection)
	outgoing := make(map[string][]*models.Connection)
	for _, c := range connections {
		incoming[c.TargetNodeID] = append(incoming[c.TargetNodeID], c)
		outgoing[c.SourceNodeID] = append(outgoing[c.SourceNodeID], c)
	}

	dispatched := make(map[string]bool)
	dispatchedConn := make(map[string]bool)
	for id := range seeds {
		// A seed whose output is already recorded (the top-level trigger,
		// seeded and recorded by Run before this call) must not be
		// re-dispatched. A subgraph root (loop body, tryCatch branch,
		// parallel branch) is seeded with an *input* only and still needs
		// its own executor dispatch below.
		if ec.hasLiveOutput(id) {
			dispatched[id] = true
		}
	}

	completions := make(chan completion, 8)
	running := 0
	var firstErr *models.NodeError
	failing := false

	dispatch := func(node *models.Node, connID string, input map[string]interface{}) {
		running++
		go func() {
			s.sem <- struct{}{}
			defer func() { <-s.sem }()

			if s.steps != nil {
				if err := s.steps.Await(ctx); err != nil {
					ec.Cancel()
					completions <- completion{nodeID: node.ID, connID: connID, startedAt: time.Now(), err: models.NewNodeError(models.NodeErrorCancelled, node.ID, "step execution cancelled", err)}
					return
				}
			}

			start := time.Now()
			out, nodeErr := s.executeNode(ctx, ec, node, input)
			completions <- completion{nodeID: node.ID, connID: connID, output: out, err: nodeErr, startedAt: start}
		}()
	}

	isReady := func(node *models.Node) bool {
		for _, c := range incoming[node.ID] {
			if !ec.connectionLive(c) {
				return false
			}
		}
		return true
	}

	composeInput := func(node *models.Node, seedInput map[string]interface{}) map[string]interface{} {
		in := make(map[string]interface{})
		if seedInput != nil {
			shallowOverlay(in, seedInput)
		}
		for _, c := range incoming[node.ID] {
			out, ok := ec.NodeOutput(c.SourceNodeID)
			if !ok {
				continue
			}
			shallowOverlay(in, stripMarkers(out))
		}
		return in
	}

	scan := func() {
		if failing {
			return
		}
		for _, node := range nodes {
			if node.Disabled {
				if !dispatched[node.ID] && isReady(node) {
					dispatched[node.ID] = true
					in := composeInput(node, seeds[node.ID])
					ec.RecordNodeOutput(node.ID, in)
					ec.recordNodeExecution(node.ID, node.Name, node.Type, models.NodeExecutionSkipped, time.Now(), time.Now(), in, in, "")
				}
				continue
			}

			if node.Type == "merge" {
				for _, c := range incoming[node.ID] {
					if dispatchedConn[c.ID] {
						continue
					}
					if !ec.connectionLive(c) {
						continue
					}
					dispatchedConn[c.ID] = true
					out, _ := ec.NodeOutput(c.SourceNodeID)
					dispatch(node, c.ID, stripMarkers(out))
				}
				continue
			}

			if dispatched[node.ID] {
				continue
			}
			if _, isSeed := seeds[node.ID]; isSeed && len(incoming[node.ID]) == 0 {
				dispatched[node.ID] = true
				dispatch(node, "", composeInput(node, seeds[node.ID]))
				continue
			}
			if len(incoming[node.ID]) == 0 {
				// unseeded root within this subgraph: nothing feeds it,
				// treat as ready with an empty input.
				dispatched[node.ID] = true
				dispatch(node, "", map[string]interface{}{})
				continue
			}
			if isReady(node) {
				dispatched[node.ID] = true
				dispatch(node, "", composeInput(node, nil))
			}
		}
	}

	scan()
	for running > 0 {
		comp := <-completions
		running--

		node := nodeByID[comp.nodeID]
		status := models.NodeExecutionSuccess
		if comp.err != nil {
			status = models.NodeExecutionFailed
			ec.Emit(models.EventLevelError, models.EventNodeFailed, comp.nodeID, comp.err.Error(), nil)
			if !failing {
				failing = true
				firstErr = comp.err
			}
		} else if comp.output["_stopExecution"] == true {
			// suppressed: do not record output, treat as absent downstream.
		} else {
			ec.RecordNodeOutput(comp.nodeID, comp.output)
			ec.Emit(models.EventLevelInfo, models.EventNodeCompleted, comp.nodeID, "node completed", nil)
		}

		if node != nil {
			name, typ := node.Name, node.Type
			errMsg := ""
			if comp.err != nil {
				errMsg = comp.err.Error()
			}
			ec.recordNodeExecution(comp.nodeID, name, typ, status, comp.startedAt, time.Now(), nil, comp.output, errMsg)
		}

		scan()
	}

	if failing {
		return nil, firstErr
	}

	var leafIDs []string
	for _, n := range nodes {
		if len(outgoing[n.ID]) == 0 {
			leafIDs = append(leafIDs, n.ID)
		}
	}
	result := make(map[string]interface{})
	for _, id := range leafIDs {
		if out, ok := ec.NodeOutput(id); ok {
			shallowOverlay(result, stripMarkers(out))
		}
	}
	return result, nil
}

// SubgraphRunner is implemented by Scheduler; kept as an interface on
// ExecutionContext (field Runner) so structural executors depend only on
// the narrow capability they need.
type SubgraphRunner interface {
	RunSubgraph(ctx context.Context, ec *ExecutionContext, nodes []*models.Node, connections []*models.Connection, seeds map[string]map[string]interface{}) (map[string]interface{}, *models.NodeError)
}

// executeNode resolves per-node timeout, invokes the registered executor,
// and normalizes a panic or an untyped error into a PERMANENT NodeError
// unless the executor already tagged it with a more specific kind.
func (s *Scheduler) executeNode(ctx context.Context, ec *ExecutionContext, node *models.Node, input map[string]interface{}) (output map[string]interface{}, nodeErr *models.NodeError) {
	executor, ok := s.registry.Get(node.Type)
	if !ok {
		return nil, models.NewNodeError(models.NodeErrorConfig, node.ID, fmt.Sprintf("no executor registered for node type %q", node.Type), nil)
	}

	timeout := parameterDuration(node.Parameters, "timeout")
	if timeout <= 0 {
		timeout = s.defaultNodeTimeout
	}
	nctx, cancel := nodeTimeout(ctx, ec, timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			nodeErr = models.NewNodeError(models.NodeErrorPermanent, node.ID, fmt.Sprintf("node panicked: %v", r), nil)
		}
	}()

	out, err := executor.Execute(nctx, ec, node, input)
	if err == nil {
		return out, nil
	}

	if ne, ok := err.(*models.NodeError); ok {
		ne.NodeID = node.ID
		return out, ne
	}
	if nctx.Err() == context.DeadlineExceeded {
		return out, models.NewNodeError(models.NodeErrorTimeout, node.ID, "node execution timed out", err)
	}
	if ec.Cancelled() {
		return out, models.NewNodeError(models.NodeErrorCancelled, node.ID, "execution cancelled", err)
	}
	return out, models.NewNodeError(models.NodeErrorPermanent, node.ID, err.Error(), err)
}

func parameterDuration(params map[string]interface{}, key string) time.Duration {
	seconds := ParamFloat(params, key, 0)
	return time.Duration(seconds * float64(time.Second))
}

func stripMarkers(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		if len(k) > 0 && k[0] == '_' {
			continue
		}
		out[k] = v
	}
	return out
}
