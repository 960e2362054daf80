package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/flowcore/engine/pkg/models"
)

// MergeMode selects how a merge node combines the payloads arriving on
// its incoming edges.
type MergeMode string

const (
	ModeWaitAll     MergeMode = "waitAll"
	ModeWaitAny     MergeMode = "waitAny"
	ModeAppend      MergeMode = "append"
	ModeMerge       MergeMode = "merge"
	ModePassThrough MergeMode = "passThrough"
)

// MergeSpec pins the shape a barrier was constructed with. A node that
// re-registers with a divergent spec is a workflow authoring bug, not a
// runtime condition to tolerate.
type MergeSpec struct {
	InputCount int
	Mode       MergeMode
	Timeout    time.Duration
	OutputKey  string
	WaitForAll bool
}

func (s MergeSpec) Equal(other MergeSpec) bool {
	return s.InputCount == other.InputCount &&
		s.Mode == other.Mode &&
		s.Timeout == other.Timeout &&
		s.OutputKey == other.OutputKey &&
		s.WaitForAll == other.WaitForAll
}

// Barrier coordinates the branches converging on a single merge node
// within one execution. It is constructed lazily on first arrival and
// lives for the lifetime of the execution that owns it.
type Barrier struct {
	spec MergeSpec

	mu              sync.Mutex
	arrivals        []map[string]interface{}
	released        bool
	timedOut        bool
	exclusiveFired  bool
	timerStarted    bool
	timer           *time.Timer
	releaseCh       chan struct{}
}

func newBarrier(spec MergeSpec) *Barrier {
	return &Barrier{spec: spec, releaseCh: make(chan struct{})}
}

// Arrive registers one branch's payload and blocks until the barrier
// releases, per the configured mode and wait policy. It never blocks for
// waitAny or an exclusive (waitForAll=false) merge.
func (b *Barrier) Arrive(ctx context.Context, payload map[string]interface{}) (map[string]interface{}, error) {
	if !b.spec.WaitForAll {
		return b.arriveExclusive(payload), nil
	}
	if b.spec.Mode == ModeWaitAny {
		return b.arriveWaitAny(payload), nil
	}
	return b.arriveBlocking(ctx, payload)
}

func (b *Barrier) arriveExclusive(payload map[string]interface{}) map[string]interface{} {
	b.mu.Lock()
	if b.exclusiveFired {
		b.mu.Unlock()
		return map[string]interface{}{"_stopExecution": true}
	}
	b.exclusiveFired = true
	b.mu.Unlock()

	body := shapeOutput(b.spec.Mode, b.spec.OutputKey, []map[string]interface{}{payload}, true)
	body["_mergeMode"] = string(b.spec.Mode)
	body["_exclusive"] = true
	body["_inputsReceived"] = 1
	return body
}

func (b *Barrier) arriveWaitAny(payload map[string]interface{}) map[string]interface{} {
	b.mu.Lock()
	idx := len(b.arrivals)
	b.arrivals = append(b.arrivals, payload)
	b.mu.Unlock()

	body := map[string]interface{}{b.spec.OutputKey: payload}
	body["_mergeMode"] = string(ModeWaitAny)
	body["_inputsReceived"] = idx + 1
	if idx > 0 {
		body["_stopExecution"] = true
	}
	return body
}

func (b *Barrier) arriveBlocking(ctx context.Context, payload map[string]interface{}) (map[string]interface{}, error) {
	b.mu.Lock()
	myIndex := len(b.arrivals)
	b.arrivals = append(b.arrivals, payload)

	if myIndex == 0 && b.spec.Timeout > 0 {
		b.timerStarted = true
		b.timer = time.AfterFunc(b.spec.Timeout, func() {
			b.mu.Lock()
			if !b.released {
				b.released = true
				b.timedOut = true
				close(b.releaseCh)
			}
			b.mu.Unlock()
		})
	}

	if len(b.arrivals) >= b.spec.InputCount && !b.released {
		b.released = true
		if b.timer != nil {
			b.timer.Stop()
		}
		close(b.releaseCh)
	}
	b.mu.Unlock()

	select {
	case <-b.releaseCh:
	case <-ctx.Done():
		return map[string]interface{}{"_cancelled": true}, models.NewNodeError(models.NodeErrorCancelled, "", "execution cancelled while waiting on merge barrier", ctx.Err())
	}

	b.mu.Lock()
	arrivalsSnapshot := append([]map[string]interface{}{}, b.arrivals...)
	timedOut := b.timedOut
	b.mu.Unlock()

	isPrimary := myIndex == 0
	body := shapeOutput(b.spec.Mode, b.spec.OutputKey, arrivalsSnapshot, isPrimary)

	if timedOut {
		body["_mergeMode"] = string(b.spec.Mode)
		body["_timedOut"] = true
		return body, models.NewNodeError(models.NodeErrorTimeout, "", fmt.Sprintf("merge barrier timed out after %s waiting for %d arrivals (got %d)", b.spec.Timeout, b.spec.InputCount, len(arrivalsSnapshot)), nil)
	}

	if b.spec.Mode == ModePassThrough && !isPrimary {
		body["_stopExecution"] = true
		return body, nil
	}

	body["_mergeMode"] = string(b.spec.Mode)
	body["_inputsReceived"] = len(arrivalsSnapshot)
	return body, nil
}
