// Package ext defines the extension system for loom.
//
// Extensions are notified of lifecycle events and can react to them —
// recording metrics, writing audit logs, tracing, etc. Each lifecycle
// hook is a separate interface so extensions opt in only to the events
// they care about.
//
// # Implementing an Extension
//
//	type MyExtension struct{}
//
//	func (e *MyExtension) Name() string { return "my-extension" }
//
//	// Opt in to specific hooks by implementing their interfaces.
//	func (e *MyExtension) OnInstanceCompleted(ctx context.Context, inst *tree.WorkflowInstance, elapsed time.Duration) error {
//	    log.Printf("instance %s completed in %s", inst.ID, elapsed)
//	    return nil
//	}
//
// # Instance Lifecycle Hooks
//
//   - [InstanceStarted] — an instance entered execution (first run or resume)
//   - [InstanceCompleted] — an instance reached InstanceCompleted
//   - [InstanceFailed] — an instance reached InstanceError
//   - [InstancePaused] — a Run call returned with a task still paused
//   - [InstanceUpdated] — an injected update was merged and re-executed
//
// # Task Lifecycle Hooks
//
//   - [TaskDispatched] — a task's handler was about to be invoked
//   - [TaskCompleted] — a dispatched task reached TaskCompleted
//   - [TaskFailed] — a task reached TaskError
//   - [TaskSkipped] — a task completed via a gate rather than a handler
//
// # Other Hooks
//
//   - [Shutdown] — the engine is shutting down gracefully
//
// The [Registry] fans out each event to all registered extensions that
// implement the corresponding hook interface.
package ext
