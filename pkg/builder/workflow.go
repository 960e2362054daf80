package builder

import (
	"github.com/flowcore/engine/pkg/models"
)

// WorkflowBuilder assembles a models.Workflow from NodeBuilder and
// ConnectionBuilder results, deferring validation to Build.
type WorkflowBuilder struct {
	id          string
	name        string
	description string
	settings    map[string]interface{}
	active      bool
	triggerType models.TriggerType
	nodes       []*models.Node
	connections []*models.Connection
	err         error
}

// NewWorkflow creates a workflow builder. id may be empty for a
// not-yet-persisted workflow; the Execution Store assigns one on save.
func NewWorkflow(id, name string) *WorkflowBuilder {
	return &WorkflowBuilder{
		id:       id,
		name:     name,
		settings: make(map[string]interface{}),
		active:   true,
	}
}

// WithDescription sets the workflow description.
func (wb *WorkflowBuilder) WithDescription(desc string) *WorkflowBuilder {
	wb.description = desc
	return wb
}

// WithSetting sets a single workflow-level setting.
func (wb *WorkflowBuilder) WithSetting(key string, value interface{}) *WorkflowBuilder {
	wb.settings[key] = value
	return wb
}

// Active sets whether the workflow is active; defaults to true.
func (wb *WorkflowBuilder) Active(active bool) *WorkflowBuilder {
	wb.active = active
	return wb
}

// WithTriggerType records the workflow's trigger type metadata; it does
// not itself add a trigger node.
func (wb *WorkflowBuilder) WithTriggerType(t models.TriggerType) *WorkflowBuilder {
	wb.triggerType = t
	return wb
}

// AddNode appends a NodeBuilder's result, propagating its build error.
func (wb *WorkflowBuilder) AddNode(nb *NodeBuilder) *WorkflowBuilder {
	if wb.err != nil {
		return wb
	}
	node, err := nb.Build()
	if err != nil {
		wb.err = err
		return wb
	}
	wb.nodes = append(wb.nodes, node)
	return wb
}

// Connect appends a ConnectionBuilder's result, propagating its build error.
func (wb *WorkflowBuilder) Connect(cb *ConnectionBuilder) *WorkflowBuilder {
	if wb.err != nil {
		return wb
	}
	conn, err := cb.Build()
	if err != nil {
		wb.err = err
		return wb
	}
	wb.connections = append(wb.connections, conn)
	return wb
}

// Build constructs the final Workflow and validates it as a whole.
func (wb *WorkflowBuilder) Build() (*models.Workflow, error) {
	if wb.err != nil {
		return nil, wb.err
	}

	wf := &models.Workflow{
		ID:          wb.id,
		Name:        wb.name,
		Description: wb.description,
		Settings:    wb.settings,
		Nodes:       wb.nodes,
		Connections: wb.connections,
		Active:      wb.active,
		TriggerType: wb.triggerType,
	}

	if err := wf.Validate(); err != nil {
		return nil, err
	}

	return wf, nil
}
