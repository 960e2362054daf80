package inspector

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/flowcore/engine/pkg/models"
)

// DebugBundle is the structured post-mortem snapshot a failed or
// completed execution can be exported as: workflow definition, full event
// log, and per-node timings, with any settings redacted by the caller
// before assembly.
type DebugBundle struct {
	ExecutionID string                 `json:"executionId"`
	Workflow    *models.Workflow       `json:"workflow"`
	Execution   *models.Execution      `json:"execution"`
	Events      []*models.Event        `json:"events"`
	Settings    map[string]interface{} `json:"settings,omitempty"`
	GeneratedAt time.Time              `json:"generatedAt"`
}

// NewDebugBundle assembles a bundle from a finished execution, its
// workflow, and its event log. settings should already have secrets
// redacted by the caller; the bundle itself performs no redaction.
func NewDebugBundle(workflow *models.Workflow, exec *models.Execution, log *EventLog, settings map[string]interface{}) *DebugBundle {
	return &DebugBundle{
		ExecutionID: exec.ID,
		Workflow:    workflow,
		Execution:   exec,
		Events:      log.Events(),
		Settings:    settings,
		GeneratedAt: time.Now(),
	}
}

// WriteFile serializes the bundle as indented JSON to filePath, creating
// parent directories as needed.
func (b *DebugBundle) WriteFile(filePath string) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("create debug bundle directory: %w", err)
	}
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal debug bundle: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("write debug bundle: %w", err)
	}
	return nil
}

// WriteFileWithTimestamp writes the bundle under directory with a
// timestamped filename, returning the path used.
func (b *DebugBundle) WriteFileWithTimestamp(directory string) (string, error) {
	filename := fmt.Sprintf("execution-%s-%s.json", b.ExecutionID, time.Now().Format("20060102-150405"))
	path := filepath.Join(directory, filename)
	if err := b.WriteFile(path); err != nil {
		return "", err
	}
	return path, nil
}
