package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError(t *testing.T) {
	valErr := &ValidationError{Field: "name", Message: "name is required"}
	assert.Equal(t, "validation error: name: name is required", valErr.Error())
}

func TestExpressionError(t *testing.T) {
	cause := errors.New("unexpected token")
	exprErr := &ExpressionError{Expression: "$nodes.a..b", Err: cause}

	assert.Contains(t, exprErr.Error(), "$nodes.a..b")
	assert.Contains(t, exprErr.Error(), "unexpected token")
	assert.True(t, errors.Is(exprErr, cause))
}

func TestNodeError_Retryable(t *testing.T) {
	tests := []struct {
		name string
		kind NodeErrorKind
		want bool
	}{
		{"transient is retryable", NodeErrorTransient, true},
		{"timeout is retryable", NodeErrorTimeout, true},
		{"permanent is not retryable", NodeErrorPermanent, false},
		{"config is not retryable", NodeErrorConfig, false},
		{"cancelled is not retryable", NodeErrorCancelled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewNodeError(tt.kind, "node-1", "boom", nil)
			assert.Equal(t, tt.want, err.Retryable())
		})
	}
}

func TestNodeError_ErrorAndUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewNodeError(NodeErrorTransient, "node-1", "http call failed", cause)

	assert.Contains(t, err.Error(), "node-1")
	assert.Contains(t, err.Error(), "TRANSIENT")
	assert.Contains(t, err.Error(), "http call failed")
	assert.True(t, errors.Is(err, cause))

	noNode := NewNodeError(NodeErrorPermanent, "", "bad config", nil)
	assert.NotContains(t, noNode.Error(), "node :")
}

func TestInternalInconsistencyError(t *testing.T) {
	err := &InternalInconsistencyError{Message: "barrier re-registered with divergent mergeSpec"}
	assert.Contains(t, err.Error(), "barrier re-registered with divergent mergeSpec")
}

func TestSentinelErrors_AreDistinctAndNonEmpty(t *testing.T) {
	sentinels := []error{
		ErrWorkflowNotFound,
		ErrNodeNotFound,
		ErrConnectionNotFound,
		ErrExecutionNotFound,
		ErrExecutorNotFound,
		ErrNotPaused,
		ErrAlreadyTerminal,
	}

	seen := make(map[string]bool, len(sentinels))
	for _, err := range sentinels {
		assert.NotEmpty(t, err.Error())
		assert.False(t, seen[err.Error()], "duplicate sentinel message: %s", err.Error())
		seen[err.Error()] = true
	}
}
