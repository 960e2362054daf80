// Package inspector implements the dev-mode observability layer (event
// log, per-node timing, step execution, debug bundle export). An event log
// is kept for every execution; step execution is wired in only when dev
// mode is enabled.
package inspector

import (
	"sync"

	"github.com/flowcore/engine/pkg/models"
)

// EventLog accumulates every event an execution emits, implementing
// engine.EventSink. One EventLog is created per execution.
type EventLog struct {
	mu     sync.Mutex
	events []*models.Event
}

// NewEventLog constructs an empty event log.
func NewEventLog() *EventLog {
	return &EventLog{}
}

// Emit implements engine.EventSink.
func (l *EventLog) Emit(evt *models.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, evt)
}

// Events returns a snapshot of the accumulated event log, in emission
// order.
func (l *EventLog) Events() []*models.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*models.Event, len(l.events))
	copy(out, l.events)
	return out
}

// Errors returns only the ERROR-level events, the slice a post-mortem
// typically starts from.
func (l *EventLog) Errors() []*models.Event {
	var out []*models.Event
	for _, evt := range l.Events() {
		if evt.Level == models.EventLevelError {
			out = append(out, evt)
		}
	}
	return out
}
