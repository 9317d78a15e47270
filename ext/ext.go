// Package ext defines the extension system for loom.
//
// Extensions are notified of instance and task lifecycle events and can
// react to them — recording metrics, writing audit trails, tracing, etc.
// Each lifecycle hook is a separate interface so extensions opt in only
// to the events they care about.
package ext

import (
	"context"
	"time"

	"github.com/xraph/loom/tree"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// ──────────────────────────────────────────────────
// Instance lifecycle hooks
// ──────────────────────────────────────────────────

// InstanceStarted is called each time an instance enters execution: on
// its first run and again when an update resumes it.
type InstanceStarted interface {
	OnInstanceStarted(ctx context.Context, inst *tree.WorkflowInstance) error
}

// InstanceCompleted is called after an instance reaches InstanceCompleted.
type InstanceCompleted interface {
	OnInstanceCompleted(ctx context.Context, inst *tree.WorkflowInstance, elapsed time.Duration) error
}

// InstanceFailed is called after an instance reaches InstanceError.
type InstanceFailed interface {
	OnInstanceFailed(ctx context.Context, inst *tree.WorkflowInstance, err error) error
}

// InstancePaused is called whenever a Run call returns with the instance
// still open and at least one task paused.
type InstancePaused interface {
	OnInstancePaused(ctx context.Context, inst *tree.WorkflowInstance) error
}

// InstanceUpdated is called after an injected update is merged and the
// instance re-enters the scheduler.
type InstanceUpdated interface {
	OnInstanceUpdated(ctx context.Context, inst *tree.WorkflowInstance) error
}

// ──────────────────────────────────────────────────
// Task lifecycle hooks
// ──────────────────────────────────────────────────

// TaskDispatched is called just before a task's handler is invoked.
type TaskDispatched interface {
	OnTaskDispatched(ctx context.Context, instanceID string, taskName string, task *tree.Task) error
}

// TaskCompleted is called after a task reaches TaskCompleted via a
// dispatched handler.
type TaskCompleted interface {
	OnTaskCompleted(ctx context.Context, instanceID string, taskName string, task *tree.Task, elapsed time.Duration) error
}

// TaskFailed is called after a task reaches TaskError.
type TaskFailed interface {
	OnTaskFailed(ctx context.Context, instanceID string, taskName string, task *tree.Task, err error) error
}

// TaskSkipped is called for a task completed via skipIf or a missing
// handler, rather than through a dispatched handler. A task gated off by
// errorIf reaches TaskError and fires TaskFailed instead.
type TaskSkipped interface {
	OnTaskSkipped(ctx context.Context, instanceID string, taskName string, task *tree.Task) error
}

// ──────────────────────────────────────────────────
// Other hooks
// ──────────────────────────────────────────────────

// Shutdown is called during engine shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
