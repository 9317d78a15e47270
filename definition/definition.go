// Package definition loads a reusable workflow shape from disk, in either
// JSON or YAML, and validates it into the shape store.Definition expects.
package definition

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	loom "github.com/xraph/loom"
	"github.com/xraph/loom/store"
	"github.com/xraph/loom/tree"
)

// Load reads a definition file at path, auto-detecting the format from its
// extension: .yml and .yaml decode via yaml.v3, everything else via
// encoding/json. The loaded tasks are run through tree.Validate so Order is
// backfilled and every task has a default status, exactly as if the
// definition had been cloned into an instance.
func Load(path string) (*store.Definition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("definition: read %s: %w", path, err)
	}

	var def store.Definition

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yml", ".yaml":
		if err := yaml.Unmarshal(raw, &def); err != nil {
			return nil, fmt.Errorf("definition: parse %s as yaml: %w", path, err)
		}
	default:
		if err := json.Unmarshal(raw, &def); err != nil {
			return nil, fmt.Errorf("definition: parse %s as json: %w", path, err)
		}
	}

	if def.Name == "" {
		return nil, fmt.Errorf("definition: %s: %w", path, loom.ErrMissingName)
	}

	// Validate operates on a WorkflowInstance; wrap and unwrap so the
	// definition's tasks get the same default-status and Order backfill a
	// freshly cloned instance would.
	wrapper := &tree.WorkflowInstance{
		Tasks:        def.Tasks,
		Order:        def.Order,
		PreWorkflow:  def.PreWorkflow,
		PostWorkflow: def.PostWorkflow,
	}
	tree.Validate(wrapper)
	def.Tasks = wrapper.Tasks
	def.Order = wrapper.Order
	def.PreWorkflow = wrapper.PreWorkflow
	def.PostWorkflow = wrapper.PostWorkflow

	return &def, nil
}
