// Package tree defines the task-tree data model: WorkflowInstance and Task,
// their status invariants, and the single depth-first traversal primitive
// that status queries, the scheduler, and the update-injection protocol
// are built on top of.
package tree

import "time"

// InstanceStatus is the lifecycle state of a WorkflowInstance.
type InstanceStatus string

const (
	// InstanceOpen means at least one task is not yet completed.
	InstanceOpen InstanceStatus = "open"
	// InstanceCompleted means every top-level task is completed.
	InstanceCompleted InstanceStatus = "completed"
	// InstanceError means a dispatched task failed without ignoreError.
	InstanceError InstanceStatus = "error"
)

// TaskStatus is the lifecycle state of a single Task.
type TaskStatus string

const (
	// TaskWaiting is the initial state before a task's parent opens it.
	TaskWaiting TaskStatus = "waiting"
	// TaskOpen means the task (and, if present, its children) may begin.
	TaskOpen TaskStatus = "open"
	// TaskExecuting means the task's handler has been dispatched.
	TaskExecuting TaskStatus = "executing"
	// TaskPaused means the handler returned without completing; the task
	// waits for an external update to resume.
	TaskPaused TaskStatus = "paused"
	// TaskCompleted is a terminal success state.
	TaskCompleted TaskStatus = "completed"
	// TaskError is a terminal failure state.
	TaskError TaskStatus = "error"
)

// WorkflowInstance is the root of a running (or terminal) task tree.
type WorkflowInstance struct {
	// ID is assigned on first execution if absent and never reassigned.
	ID string `json:"id"`

	// Name is a human label, typically copied from the originating
	// Definition.
	Name string `json:"name"`

	// Status summarizes the tree: open, completed, or error.
	Status InstanceStatus `json:"status"`

	// Environment is a snapshot of the process environment taken at
	// execution start, addressable via environment.NAME references.
	Environment map[string]string `json:"environment,omitempty"`

	// Tasks is the top-level task mapping. Keys are unique within this
	// mapping; insertion order is the deterministic scan order.
	Tasks map[string]*Task `json:"tasks"`

	// Order records the insertion order of Tasks, since Go maps do not
	// preserve it. Populated by Validate and kept in sync by Clone.
	Order []string `json:"order,omitempty"`

	// PreWorkflow and PostWorkflow, if present, run around the main tree
	// under the same dispatch rules as a leaf task.
	PreWorkflow  *Task `json:"pre workflow,omitempty"`
	PostWorkflow *Task `json:"post workflow,omitempty"`

	// Handle is an opaque persistence handle assigned by the store.
	// Engine code must never inspect or depend on its contents.
	Handle string `json:"-"`
}

// Task is a single node in the tree.
type Task struct {
	// Status is the task's lifecycle state. Validate assigns TaskWaiting
	// to any task with an empty status.
	Status TaskStatus `json:"status,omitempty"`

	// Handler is an opaque module identifier resolvable by the handler
	// invoker. A task with no handler is a pure container/gate.
	Handler string `json:"handler,omitempty"`

	// Parameters is an arbitrary nested value tree passed to, and
	// possibly mutated by, the handler.
	Parameters map[string]any `json:"parameters,omitempty"`

	// Tasks is an optional child mapping, same shape as the parent's.
	Tasks map[string]*Task `json:"tasks,omitempty"`

	// Order records insertion order of Tasks (see WorkflowInstance.Order).
	Order []string `json:"order,omitempty"`

	// Blocking prevents later siblings at this level from opening in the
	// same scheduling pass. It decodes from a boolean only: Validate does
	// no coercion, and string or number values are not accepted.
	Blocking bool `json:"blocking,omitempty"`

	// SkipIf and ErrorIf are gates evaluated just before dispatch.
	SkipIf  bool `json:"skipIf,omitempty"`
	ErrorIf bool `json:"errorIf,omitempty"`

	// IgnoreError converts a handler-reported error into a successful
	// completion.
	IgnoreError bool `json:"ignoreError,omitempty"`

	// HandlerExecuted is true iff the handler actually ran (as opposed to
	// being skipped by a gate or absent handler).
	HandlerExecuted bool `json:"handlerExecuted,omitempty"`

	// ErrorMsg is populated when Status is TaskError.
	ErrorMsg string `json:"errorMsg,omitempty"`

	// Time accounting.
	TimeOpened      *time.Time    `json:"timeOpened,omitempty"`
	TimeStarted     *time.Time    `json:"timeStarted,omitempty"`
	TimeCompleted   *time.Time    `json:"timeCompleted,omitempty"`
	HandlerDuration time.Duration `json:"handlerDuration,omitempty"`
	TotalDuration   time.Duration `json:"totalDuration,omitempty"`
}

// IsTerminal reports whether a Task has reached completed or error.
func (t *Task) IsTerminal() bool {
	return t.Status == TaskCompleted || t.Status == TaskError
}

// HasChildren reports whether a Task has any child tasks.
func (t *Task) HasChildren() bool {
	return len(t.Tasks) > 0
}

// AllChildrenCompleted reports whether every child of t has status
// TaskCompleted. A task with no children vacuously satisfies this.
func (t *Task) AllChildrenCompleted() bool {
	for _, c := range t.Tasks {
		if c.Status != TaskCompleted {
			return false
		}
	}

	return true
}
