package engineapi

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flowcore/engine/internal/config"
	"github.com/flowcore/engine/pkg/engine"
	"github.com/flowcore/engine/pkg/inspector"
	"github.com/flowcore/engine/pkg/models"
)

// ErrExecutionNotFound is returned by Await/Cancel/StepContinue/StepReset
// for an executionId the Manager never submitted or has since forgotten.
var ErrExecutionNotFound = errors.New("engineapi: execution not found")

// SubmitOptions carries the per-submission knobs from the Engine API's
// submit operation.
type SubmitOptions struct {
	// DryRun validates the workflow and returns without running it.
	DryRun bool
	// StepMode is informational: whether the Manager was constructed with
	// dev-mode stepping determines whether dispatch actually pauses.
	StepMode bool
	// Timeout bounds the whole execution; zero means no deadline beyond
	// the submitting context's own.
	Timeout time.Duration
}

type run struct {
	cancel   context.CancelFunc
	done     chan struct{}
	eventLog *inspector.EventLog
	workflow *models.Workflow

	mu        sync.Mutex
	execution *models.Execution
	err       error
}

func (r *run) isDone() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// Manager is the process-wide home for the Engine API's operations:
// submit, await, cancel, and the two step-execution controls. One
// Manager wraps one long-lived Scheduler and tracks every in-flight or
// completed execution it submitted.
type Manager struct {
	scheduler *engine.Scheduler
	stepGate  *inspector.StepGate

	mu   sync.Mutex
	runs map[string]*run
}

// NewManager constructs a Manager from a Registry and the engine section
// of Config. Dev mode installs a shared StepController on the Scheduler;
// every execution this Manager submits shares that single step gate,
// since pausing dispatch is a process-wide dev-mode behavior rather than
// a per-execution one.
func NewManager(cfg config.EngineConfig, registry engine.ExecutorLookup) *Manager {
	var opts []engine.SchedulerOption
	if cfg.WorkerPoolSize > 0 {
		opts = append(opts, engine.WithParallelism(cfg.WorkerPoolSize))
	}
	if cfg.DefaultNodeTimeout > 0 {
		opts = append(opts, engine.WithDefaultNodeTimeout(cfg.DefaultNodeTimeout))
	}

	var gate *inspector.StepGate
	if cfg.DevMode {
		gate = inspector.NewStepGate(true)
		opts = append(opts, engine.WithStepController(gate))
	}

	return &Manager{
		scheduler: engine.NewScheduler(registry, opts...),
		stepGate:  gate,
		runs:      make(map[string]*run),
	}
}

// Submit validates the workflow and, unless DryRun is set, starts it
// running asynchronously against the shared Scheduler, returning its
// executionId immediately. A validation failure is returned synchronously
// as a *models.ValidationError.
func (m *Manager) Submit(ctx context.Context, workflow *models.Workflow, triggerType models.TriggerType, input map[string]interface{}, opts SubmitOptions) (string, error) {
	if err := workflow.Validate(); err != nil {
		return "", err
	}

	id := uuid.New().String()
	if opts.DryRun {
		return id, nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	if opts.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
	}

	r := &run{cancel: cancel, done: make(chan struct{}), eventLog: inspector.NewEventLog(), workflow: workflow}
	m.mu.Lock()
	m.runs[id] = r
	m.mu.Unlock()

	go func() {
		defer close(r.done)
		defer cancel()
		exec, err := m.scheduler.Run(runCtx, id, workflow, triggerType, input, r.eventLog)
		r.mu.Lock()
		r.execution, r.err = exec, err
		r.mu.Unlock()
	}()

	return id, nil
}

// Await blocks until executionId reaches a terminal state (or ctx is
// cancelled first) and returns its finished Execution record.
func (m *Manager) Await(ctx context.Context, executionID string) (*models.Execution, error) {
	r, ok := m.run(executionID)
	if !ok {
		return nil, ErrExecutionNotFound
	}

	select {
	case <-r.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.execution, r.err
}

// Cancel requests executionId stop; a no-op if it has already reached a
// terminal state.
func (m *Manager) Cancel(executionID string) error {
	r, ok := m.run(executionID)
	if !ok {
		return ErrExecutionNotFound
	}
	if r.isDone() {
		return nil
	}
	r.cancel()
	return nil
}

// StepContinue releases the single node dispatch currently paused on the
// Manager's shared step gate. It fails with inspector.ErrNotPaused when
// dev-mode stepping isn't active or nothing is currently waiting.
func (m *Manager) StepContinue(executionID string) error {
	if _, ok := m.run(executionID); !ok {
		return ErrExecutionNotFound
	}
	if m.stepGate == nil {
		return inspector.ErrNotPaused
	}
	return m.stepGate.Continue()
}

// StepReset clears any stuck pending step permit without disabling
// stepping mode itself.
func (m *Manager) StepReset(executionID string) error {
	if _, ok := m.run(executionID); !ok {
		return ErrExecutionNotFound
	}
	if m.stepGate != nil {
		m.stepGate.Reset()
	}
	return nil
}

// EventLog returns the live event log Submit created for executionID, for
// the dev-mode inspector's websocket stream or a post-mortem debug bundle.
func (m *Manager) EventLog(executionID string) (*inspector.EventLog, bool) {
	r, ok := m.run(executionID)
	if !ok {
		return nil, false
	}
	return r.eventLog, true
}

// DebugBundle assembles a post-mortem snapshot of executionID: its
// workflow, its finished (or still-running) Execution record, and its
// full event log. Returns ErrExecutionNotFound if Submit never saw this
// executionID.
func (m *Manager) DebugBundle(executionID string) (*inspector.DebugBundle, error) {
	r, ok := m.run(executionID)
	if !ok {
		return nil, ErrExecutionNotFound
	}

	r.mu.Lock()
	exec := r.execution
	r.mu.Unlock()

	if exec == nil {
		// Still running: report what we have without waiting.
		exec = &models.Execution{ID: executionID, WorkflowID: r.workflow.ID, Status: models.ExecutionRunning}
	}

	return inspector.NewDebugBundle(r.workflow, exec, r.eventLog, nil), nil
}

func (m *Manager) run(executionID string) (*run, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.runs[executionID]
	return r, ok
}
