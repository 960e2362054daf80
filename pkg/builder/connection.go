package builder

import (
	"fmt"

	"github.com/flowcore/engine/pkg/models"
)

// ConnectionBuilder builds a single models.Connection.
type ConnectionBuilder struct {
	id             string
	sourceNodeID   string
	sourceHandleID string
	targetNodeID   string
	targetHandleID string
	err            error
}

// ConnectionOption configures a ConnectionBuilder.
type ConnectionOption func(*ConnectionBuilder) error

// NewConnection creates a builder for a main-to-main connection between
// two node IDs; use FromHandle/ToHandle to address a non-default handle
// (an `if` node's "true"/"false" outputs, a `tryCatch` node's "try"/"catch"
// outputs, a `loop`/`retry` node's "body" output).
// The connection ID is auto-generated as "conn_{from}_{to}" unless
// overridden with WithConnectionID.
func NewConnection(from, to string, opts ...ConnectionOption) *ConnectionBuilder {
	cb := &ConnectionBuilder{
		sourceNodeID:   from,
		sourceHandleID: models.HandleMain,
		targetNodeID:   to,
		targetHandleID: models.HandleMain,
	}
	cb.id = fmt.Sprintf("conn_%s_%s", from, to)

	for _, opt := range opts {
		if err := opt(cb); err != nil {
			cb.err = err
			return cb
		}
	}

	return cb
}

// Build constructs the final Connection, validating it before returning.
func (cb *ConnectionBuilder) Build() (*models.Connection, error) {
	if cb.err != nil {
		return nil, cb.err
	}

	conn := &models.Connection{
		ID:             cb.id,
		SourceNodeID:   cb.sourceNodeID,
		SourceHandleID: cb.sourceHandleID,
		TargetNodeID:   cb.targetNodeID,
		TargetHandleID: cb.targetHandleID,
	}

	if err := conn.Validate(); err != nil {
		return nil, err
	}

	return conn, nil
}

// WithConnectionID overrides the auto-generated connection ID.
func WithConnectionID(id string) ConnectionOption {
	return func(cb *ConnectionBuilder) error {
		if id == "" {
			return fmt.Errorf("connection ID cannot be empty")
		}
		cb.id = id
		return nil
	}
}

// FromHandle sets the source handle (e.g. models.HandleTrue for an `if`
// node's true branch).
func FromHandle(handle string) ConnectionOption {
	return func(cb *ConnectionBuilder) error {
		if handle == "" {
			return fmt.Errorf("source handle cannot be empty")
		}
		cb.sourceHandleID = handle
		return nil
	}
}

// ToHandle sets the target handle, which is models.HandleMain unless
// overridden. Structural handles such as models.HandleBody are source
// handles and are set with FromHandle.
func ToHandle(handle string) ConnectionOption {
	return func(cb *ConnectionBuilder) error {
		if handle == "" {
			return fmt.Errorf("target handle cannot be empty")
		}
		cb.targetHandleID = handle
		return nil
	}
}
