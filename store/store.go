// Package store defines the persistence contract used by the engine: an
// abstract Store over workflow definitions, current instances, and
// history. Concrete backends — store/memory, store/file, store/mongo —
// each implement the same interface; the engine depends on none of them
// directly.
package store

import (
	"context"

	"github.com/xraph/loom/tree"
)

// Definition is a reusable, named workflow shape persisted independently
// of any running instance.
type Definition struct {
	Name         string            `json:"name"`
	Tasks        map[string]*tree.Task `json:"tasks"`
	Order        []string          `json:"order,omitempty"`
	PreWorkflow  *tree.Task        `json:"pre workflow,omitempty"`
	PostWorkflow *tree.Task        `json:"post workflow,omitempty"`
}

// Query narrows GetWorkflows results. An empty Query matches every
// instance. Backends that cannot support ad-hoc queries (the file
// backend) fail List with ErrCapabilityUnsupported rather than silently
// ignoring the filter.
type Query struct {
	// Name filters by the originating definition name, if set.
	Name string

	// Status filters by instance status, if set.
	Status tree.InstanceStatus

	// Limit caps the number of results. Zero means no limit.
	Limit int
}

// Store is the aggregate persistence interface. All operations are
// idempotent where noted and report a typed failure on error; callers
// should use errors.Is against the sentinels in the root loom package to
// distinguish not-found from store-level I/O failures.
type Store interface {
	// InitStore prepares the backend. Idempotent; must succeed before any
	// other call.
	InitStore(ctx context.Context) error

	// ExitStore releases backend resources. Idempotent.
	ExitStore(ctx context.Context) error

	// SaveDefinition upserts a definition by Name.
	SaveDefinition(ctx context.Context, def *Definition) error

	// GetDefinition returns a definition or loom.ErrDefinitionNotFound.
	GetDefinition(ctx context.Context, name string) (*Definition, error)

	// DeleteDefinition removes a definition by name; a missing name is a
	// loom.ErrDefinitionNotFound failure.
	DeleteDefinition(ctx context.Context, name string) error

	// SaveInstance atomically writes inst as the new current record and
	// archives that same record under a timestamp-suffixed save point.
	// Every call, including the first, appends one historical record, so
	// history length always equals the number of SaveInstance calls.
	SaveInstance(ctx context.Context, inst *tree.WorkflowInstance) error

	// LoadInstance returns the current record when rewind is 0, otherwise
	// the historical record at position len(history)-rewind, clamped to
	// the oldest available record.
	LoadInstance(ctx context.Context, id string, rewind int) (*tree.WorkflowInstance, error)

	// DeleteInstance removes the current record and every historical
	// record for id.
	DeleteInstance(ctx context.Context, id string) error

	// DeleteAll removes every instance and its history, leaving
	// definitions intact.
	DeleteAll(ctx context.Context) error

	// GetWorkflows returns instances matching q. Backends that cannot
	// support ad-hoc queries return loom.ErrCapabilityUnsupported.
	GetWorkflows(ctx context.Context, q Query) ([]*tree.WorkflowInstance, error)
}
