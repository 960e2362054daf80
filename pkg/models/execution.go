package models

import "time"

// Execution is the record of a single workflow run, born from a trigger
// request and mutated only by the Scheduler and by NodeExecutors via the
// ExecutionContext.
type Execution struct {
	ID           string                 `json:"id"`
	WorkflowID   string                 `json:"workflowId"`
	Status       ExecutionStatus        `json:"status"`
	TriggerType  TriggerType            `json:"triggerType"`
	StartedAt    time.Time              `json:"startedAt"`
	FinishedAt   *time.Time             `json:"finishedAt,omitempty"`
	InputData    map[string]interface{} `json:"inputData,omitempty"`
	OutputData   map[string]interface{} `json:"outputData,omitempty"`
	ErrorMessage string                 `json:"errorMessage,omitempty"`

	// NodeExecutions is append-only: the scheduler appends one record per
	// dispatch (a merge node dispatched N times produces N records).
	NodeExecutions []*NodeExecution `json:"nodeExecutions,omitempty"`
}

// ExecutionStatus is the terminal or in-flight state of an Execution.
type ExecutionStatus string

const (
	ExecutionRunning   ExecutionStatus = "RUNNING"
	ExecutionSuccess   ExecutionStatus = "SUCCESS"
	ExecutionFailed    ExecutionStatus = "FAILED"
	ExecutionCancelled ExecutionStatus = "CANCELLED"
)

// IsTerminal reports whether the status will never change again.
func (s ExecutionStatus) IsTerminal() bool {
	return s == ExecutionSuccess || s == ExecutionFailed || s == ExecutionCancelled
}

// NodeExecution is a single per-node record within an Execution.
type NodeExecution struct {
	NodeID     string                 `json:"nodeId"`
	Name       string                 `json:"name"`
	Type       string                 `json:"type"`
	Status     NodeExecutionStatus    `json:"status"`
	StartedAt  time.Time              `json:"startedAt"`
	FinishedAt time.Time              `json:"finishedAt"`
	Input      map[string]interface{} `json:"input,omitempty"`
	Output     map[string]interface{} `json:"output,omitempty"`
	Error      string                 `json:"error,omitempty"`
	RetryCount int                    `json:"retryCount,omitempty"`
}

// NodeExecutionStatus is the terminal or in-flight state of a NodeExecution.
type NodeExecutionStatus string

const (
	NodeExecutionPending   NodeExecutionStatus = "PENDING"
	NodeExecutionRunning   NodeExecutionStatus = "RUNNING"
	NodeExecutionSuccess   NodeExecutionStatus = "SUCCESS"
	NodeExecutionFailed    NodeExecutionStatus = "FAILED"
	NodeExecutionSkipped   NodeExecutionStatus = "SKIPPED"
	NodeExecutionCancelled NodeExecutionStatus = "CANCELLED"
)

// DurationMs returns the node execution's wall-clock duration in milliseconds.
func (ne *NodeExecution) DurationMs() int64 {
	if ne.FinishedAt.IsZero() {
		return time.Since(ne.StartedAt).Milliseconds()
	}
	return ne.FinishedAt.Sub(ne.StartedAt).Milliseconds()
}

// GetNodeExecution returns the most recent record for nodeID, or nil.
// A merge node or a retried node accumulates multiple records; the last
// one reflects its current state.
func (e *Execution) GetNodeExecution(nodeID string) *NodeExecution {
	var latest *NodeExecution
	for _, ne := range e.NodeExecutions {
		if ne.NodeID == nodeID {
			latest = ne
		}
	}
	return latest
}

// FailedNodes returns every node execution record with status FAILED.
func (e *Execution) FailedNodes() []*NodeExecution {
	var failed []*NodeExecution
	for _, ne := range e.NodeExecutions {
		if ne.Status == NodeExecutionFailed {
			failed = append(failed, ne)
		}
	}
	return failed
}
