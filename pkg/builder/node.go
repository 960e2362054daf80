// Package builder provides a fluent API for constructing workflow graphs
// in Go, as an alternative to hand-writing the persisted JSON format.
package builder

import (
	"fmt"

	"github.com/flowcore/engine/pkg/models"
)

// NodeBuilder builds a single models.Node.
type NodeBuilder struct {
	id         string
	name       string
	nodeType   string
	disabled   bool
	position   *models.Position
	parameters map[string]interface{}
	notes      string
	err        error
}

// NodeOption configures a NodeBuilder.
type NodeOption func(*NodeBuilder) error

// NewNode creates a builder for a node of the given type.
func NewNode(id, nodeType, name string, opts ...NodeOption) *NodeBuilder {
	nb := &NodeBuilder{
		id:         id,
		nodeType:   nodeType,
		name:       name,
		parameters: make(map[string]interface{}),
	}

	for _, opt := range opts {
		if err := opt(nb); err != nil {
			nb.err = err
			return nb
		}
	}

	return nb
}

// Build constructs the final Node, validating it before returning.
func (nb *NodeBuilder) Build() (*models.Node, error) {
	if nb.err != nil {
		return nil, nb.err
	}

	node := &models.Node{
		ID:         nb.id,
		Name:       nb.name,
		Type:       nb.nodeType,
		Disabled:   nb.disabled,
		Position:   nb.position,
		Parameters: nb.parameters,
		Notes:      nb.notes,
	}

	if err := node.Validate(); err != nil {
		return nil, err
	}

	return node, nil
}

// WithNotes sets the node's free-text notes.
func WithNotes(notes string) NodeOption {
	return func(nb *NodeBuilder) error {
		nb.notes = notes
		return nil
	}
}

// Disabled marks the node disabled: the Scheduler treats it as a
// pass-through once its inputs are ready, without ever dispatching it to
// an executor.
func Disabled() NodeOption {
	return func(nb *NodeBuilder) error {
		nb.disabled = true
		return nil
	}
}

// WithPosition sets the node's layout position (absolute coordinates; the
// engine never reads it).
func WithPosition(x, y float64) NodeOption {
	return func(nb *NodeBuilder) error {
		nb.position = &models.Position{X: x, Y: y}
		return nil
	}
}

// GridPosition lays the node out on a 200px grid, for builders assembling
// many nodes without caring about exact coordinates.
func GridPosition(row, col int) NodeOption {
	return func(nb *NodeBuilder) error {
		if row < 0 || col < 0 {
			return fmt.Errorf("grid position row and col must be non-negative")
		}
		nb.position = &models.Position{X: float64(col * 200), Y: float64(row * 200)}
		return nil
	}
}

// WithParameters replaces the node's entire parameter map. An escape
// hatch for parameters assembled elsewhere.
func WithParameters(params map[string]interface{}) NodeOption {
	return func(nb *NodeBuilder) error {
		nb.parameters = params
		return nil
	}
}

// WithParameter sets a single parameter.
func WithParameter(key string, value interface{}) NodeOption {
	return func(nb *NodeBuilder) error {
		if key == "" {
			return fmt.Errorf("parameter key cannot be empty")
		}
		nb.parameters[key] = value
		return nil
	}
}
