package inspector

import (
	"context"
	"errors"
	"sync"
)

// ErrNotPaused is returned by Continue when the gate isn't currently
// holding a dispatch.
var ErrNotPaused = errors.New("execution is not paused")

// StepGate implements engine.StepController: when stepping is enabled,
// the scheduler blocks in Await before dispatching each ready node until
// Continue releases exactly that one dispatch.
type StepGate struct {
	mu       sync.Mutex
	stepping bool
	waiting  bool
	permit   chan struct{}
	cancel   chan struct{}
}

// NewStepGate constructs a gate. stepping selects whether Await blocks at
// all; a non-dev-mode execution should pass false, making Await a no-op.
func NewStepGate(stepping bool) *StepGate {
	return &StepGate{
		stepping: stepping,
		permit:   make(chan struct{}, 1),
		cancel:   make(chan struct{}),
	}
}

// Await blocks until Continue is called, Cancel is called, or ctx is
// done, whichever comes first. A non-stepping gate returns immediately.
func (g *StepGate) Await(ctx context.Context) error {
	if !g.stepping {
		return nil
	}
	g.mu.Lock()
	g.waiting = true
	g.mu.Unlock()
	defer func() {
		g.mu.Lock()
		g.waiting = false
		g.mu.Unlock()
	}()

	select {
	case <-g.permit:
		return nil
	case <-g.cancel:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Continue releases exactly one paused dispatch. Returns ErrNotPaused if
// no dispatch is currently waiting.
func (g *StepGate) Continue() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.waiting {
		return ErrNotPaused
	}
	select {
	case g.permit <- struct{}{}:
	default:
	}
	return nil
}

// Cancel wakes every current and future Await call with an error,
// letting the scheduler unwind the execution as CANCELLED.
func (g *StepGate) Cancel() {
	g.mu.Lock()
	defer g.mu.Unlock()
	select {
	case <-g.cancel:
	default:
		close(g.cancel)
	}
}

// Reset clears any pending pause, leaving stepping mode as configured.
// Used to recover a gate stuck waiting on a dispatch nobody will ever
// continue.
func (g *StepGate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	select {
	case <-g.permit:
	default:
	}
	g.waiting = false
}
