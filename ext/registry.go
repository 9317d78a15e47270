package ext

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/loom/tree"
)

// Named entry types pair a hook implementation with the extension name
// captured at registration time. This avoids type-asserting back to
// Extension inside the emit methods.
type instanceStartedEntry struct {
	name string
	hook InstanceStarted
}

type instanceCompletedEntry struct {
	name string
	hook InstanceCompleted
}

type instanceFailedEntry struct {
	name string
	hook InstanceFailed
}

type instancePausedEntry struct {
	name string
	hook InstancePaused
}

type instanceUpdatedEntry struct {
	name string
	hook InstanceUpdated
}

type taskDispatchedEntry struct {
	name string
	hook TaskDispatched
}

type taskCompletedEntry struct {
	name string
	hook TaskCompleted
}

type taskFailedEntry struct {
	name string
	hook TaskFailed
}

type taskSkippedEntry struct {
	name string
	hook TaskSkipped
}

type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered extensions and dispatches lifecycle events
// to them. It type-caches extensions at registration time so emit calls
// iterate only over extensions that implement the relevant hook.
type Registry struct {
	extensions []Extension
	logger     *slog.Logger

	// Type-cached slices for each lifecycle hook.
	instanceStarted   []instanceStartedEntry
	instanceCompleted []instanceCompletedEntry
	instanceFailed    []instanceFailedEntry
	instancePaused    []instancePausedEntry
	instanceUpdated   []instanceUpdatedEntry
	taskDispatched    []taskDispatchedEntry
	taskCompleted     []taskCompletedEntry
	taskFailed        []taskFailedEntry
	taskSkipped       []taskSkippedEntry
	shutdown          []shutdownEntry
}

// NewRegistry creates an extension registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}

	return &Registry{logger: logger}
}

// Register adds an extension and type-asserts it into all applicable
// hook caches. Extensions are notified in registration order.
func (r *Registry) Register(e Extension) {
	r.extensions = append(r.extensions, e)
	name := e.Name()

	if h, ok := e.(InstanceStarted); ok {
		r.instanceStarted = append(r.instanceStarted, instanceStartedEntry{name, h})
	}
	if h, ok := e.(InstanceCompleted); ok {
		r.instanceCompleted = append(r.instanceCompleted, instanceCompletedEntry{name, h})
	}
	if h, ok := e.(InstanceFailed); ok {
		r.instanceFailed = append(r.instanceFailed, instanceFailedEntry{name, h})
	}
	if h, ok := e.(InstancePaused); ok {
		r.instancePaused = append(r.instancePaused, instancePausedEntry{name, h})
	}
	if h, ok := e.(InstanceUpdated); ok {
		r.instanceUpdated = append(r.instanceUpdated, instanceUpdatedEntry{name, h})
	}
	if h, ok := e.(TaskDispatched); ok {
		r.taskDispatched = append(r.taskDispatched, taskDispatchedEntry{name, h})
	}
	if h, ok := e.(TaskCompleted); ok {
		r.taskCompleted = append(r.taskCompleted, taskCompletedEntry{name, h})
	}
	if h, ok := e.(TaskFailed); ok {
		r.taskFailed = append(r.taskFailed, taskFailedEntry{name, h})
	}
	if h, ok := e.(TaskSkipped); ok {
		r.taskSkipped = append(r.taskSkipped, taskSkippedEntry{name, h})
	}
	if h, ok := e.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, h})
	}
}

// Extensions returns all registered extensions.
func (r *Registry) Extensions() []Extension { return r.extensions }

// ──────────────────────────────────────────────────
// Instance event emitters
// ──────────────────────────────────────────────────

// EmitInstanceStarted notifies all extensions that implement InstanceStarted.
func (r *Registry) EmitInstanceStarted(ctx context.Context, inst *tree.WorkflowInstance) {
	for _, e := range r.instanceStarted {
		if err := e.hook.OnInstanceStarted(ctx, inst); err != nil {
			r.logHookError("OnInstanceStarted", e.name, err)
		}
	}
}

// EmitInstanceCompleted notifies all extensions that implement InstanceCompleted.
func (r *Registry) EmitInstanceCompleted(ctx context.Context, inst *tree.WorkflowInstance, elapsed time.Duration) {
	for _, e := range r.instanceCompleted {
		if err := e.hook.OnInstanceCompleted(ctx, inst, elapsed); err != nil {
			r.logHookError("OnInstanceCompleted", e.name, err)
		}
	}
}

// EmitInstanceFailed notifies all extensions that implement InstanceFailed.
func (r *Registry) EmitInstanceFailed(ctx context.Context, inst *tree.WorkflowInstance, instErr error) {
	for _, e := range r.instanceFailed {
		if err := e.hook.OnInstanceFailed(ctx, inst, instErr); err != nil {
			r.logHookError("OnInstanceFailed", e.name, err)
		}
	}
}

// EmitInstancePaused notifies all extensions that implement InstancePaused.
func (r *Registry) EmitInstancePaused(ctx context.Context, inst *tree.WorkflowInstance) {
	for _, e := range r.instancePaused {
		if err := e.hook.OnInstancePaused(ctx, inst); err != nil {
			r.logHookError("OnInstancePaused", e.name, err)
		}
	}
}

// EmitInstanceUpdated notifies all extensions that implement InstanceUpdated.
func (r *Registry) EmitInstanceUpdated(ctx context.Context, inst *tree.WorkflowInstance) {
	for _, e := range r.instanceUpdated {
		if err := e.hook.OnInstanceUpdated(ctx, inst); err != nil {
			r.logHookError("OnInstanceUpdated", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Task event emitters
// ──────────────────────────────────────────────────

// EmitTaskDispatched notifies all extensions that implement TaskDispatched.
func (r *Registry) EmitTaskDispatched(ctx context.Context, instanceID, taskName string, task *tree.Task) {
	for _, e := range r.taskDispatched {
		if err := e.hook.OnTaskDispatched(ctx, instanceID, taskName, task); err != nil {
			r.logHookError("OnTaskDispatched", e.name, err)
		}
	}
}

// EmitTaskCompleted notifies all extensions that implement TaskCompleted.
func (r *Registry) EmitTaskCompleted(ctx context.Context, instanceID, taskName string, task *tree.Task, elapsed time.Duration) {
	for _, e := range r.taskCompleted {
		if err := e.hook.OnTaskCompleted(ctx, instanceID, taskName, task, elapsed); err != nil {
			r.logHookError("OnTaskCompleted", e.name, err)
		}
	}
}

// EmitTaskFailed notifies all extensions that implement TaskFailed.
func (r *Registry) EmitTaskFailed(ctx context.Context, instanceID, taskName string, task *tree.Task, taskErr error) {
	for _, e := range r.taskFailed {
		if err := e.hook.OnTaskFailed(ctx, instanceID, taskName, task, taskErr); err != nil {
			r.logHookError("OnTaskFailed", e.name, err)
		}
	}
}

// EmitTaskSkipped notifies all extensions that implement TaskSkipped.
func (r *Registry) EmitTaskSkipped(ctx context.Context, instanceID, taskName string, task *tree.Task) {
	for _, e := range r.taskSkipped {
		if err := e.hook.OnTaskSkipped(ctx, instanceID, taskName, task); err != nil {
			r.logHookError("OnTaskSkipped", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Other event emitters
// ──────────────────────────────────────────────────

// EmitShutdown notifies all extensions that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Errors from hooks are never propagated — they must not block the scheduler.
func (r *Registry) logHookError(hook, extName string, err error) {
	r.logger.Warn("extension hook error",
		slog.String("hook", hook),
		slog.String("extension", extName),
		slog.String("error", err.Error()),
	)
}
