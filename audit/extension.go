// Package audit is a loom extension that bridges instance and task
// lifecycle events to an immutable audit trail backend such as Chronicle.
//
// Every instance lifecycle hook, and the task completed, failed, and
// skipped hooks, emit a structured audit event through the [Recorder]
// interface; task dispatch is not audited. The extension assigns appropriate
// severity levels (info for normal operations, warning for pauses,
// critical for terminal failures) and rich metadata (workflow name, task
// name, elapsed time, errors).
//
// # Usage with Chronicle
//
//	audit.New(audit.RecorderFunc(func(ctx context.Context, evt *audit.Event) error {
//	    return chronicle.Info(ctx, evt.Action, evt.Resource, evt.ResourceID).
//	        Category(evt.Category).
//	        Outcome(evt.Outcome).
//	        Record()
//	}))
//
// # Selective filtering
//
//	audit.New(recorder,
//	    audit.WithActions(
//	        audit.ActionInstanceFailed,
//	        audit.ActionTaskFailed,
//	    ),
//	)
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/loom/ext"
	"github.com/xraph/loom/tree"
)

// Compile-time interface checks.
var (
	_ ext.Extension         = (*Extension)(nil)
	_ ext.InstanceStarted   = (*Extension)(nil)
	_ ext.InstanceCompleted = (*Extension)(nil)
	_ ext.InstanceFailed    = (*Extension)(nil)
	_ ext.InstancePaused    = (*Extension)(nil)
	_ ext.InstanceUpdated   = (*Extension)(nil)
	_ ext.TaskCompleted     = (*Extension)(nil)
	_ ext.TaskFailed        = (*Extension)(nil)
	_ ext.TaskSkipped       = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement. This
// matches chronicle.Emitter but is defined locally so this package does
// not import Chronicle directly — callers inject the concrete
// *chronicle.Chronicle at wiring time.
type Recorder interface {
	// Record persists a fully-formed audit event.
	Record(ctx context.Context, event *Event) error
}

// Event is a local representation of an audit event. It mirrors
// chronicle/audit.Event but avoids a module dependency. Callers provide a
// RecorderFunc adapter that bridges to their audit backend.
type Event struct {
	// What happened
	Action   string `json:"action"`
	Resource string `json:"resource"`
	Category string `json:"category"`

	// Details
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *Event) error

func (f RecorderFunc) Record(ctx context.Context, event *Event) error {
	return f(ctx, event)
}

// Severity constants (mirror chronicle/audit).
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Outcome constants (mirror chronicle/audit).
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Extension bridges loom lifecycle events to an audit trail backend. Each
// lifecycle hook emits a structured audit event through the [Recorder].
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Name implements ext.Extension.
func (e *Extension) Name() string { return "audit" }

// ── Instance lifecycle hooks ────────────────────────

// OnInstanceStarted implements ext.InstanceStarted.
func (e *Extension) OnInstanceStarted(ctx context.Context, inst *tree.WorkflowInstance) error {
	return e.record(ctx, ActionInstanceStarted, SeverityInfo, OutcomeSuccess,
		ResourceInstance, inst.ID, CategoryInstance, nil,
		"workflow_name", inst.Name,
	)
}

// OnInstanceCompleted implements ext.InstanceCompleted.
func (e *Extension) OnInstanceCompleted(ctx context.Context, inst *tree.WorkflowInstance, elapsed time.Duration) error {
	return e.record(ctx, ActionInstanceCompleted, SeverityInfo, OutcomeSuccess,
		ResourceInstance, inst.ID, CategoryInstance, nil,
		"workflow_name", inst.Name,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// OnInstanceFailed implements ext.InstanceFailed.
func (e *Extension) OnInstanceFailed(ctx context.Context, inst *tree.WorkflowInstance, instErr error) error {
	return e.record(ctx, ActionInstanceFailed, SeverityCritical, OutcomeFailure,
		ResourceInstance, inst.ID, CategoryInstance, instErr,
		"workflow_name", inst.Name,
	)
}

// OnInstancePaused implements ext.InstancePaused.
func (e *Extension) OnInstancePaused(ctx context.Context, inst *tree.WorkflowInstance) error {
	return e.record(ctx, ActionInstancePaused, SeverityWarning, OutcomeSuccess,
		ResourceInstance, inst.ID, CategoryInstance, nil,
		"workflow_name", inst.Name,
	)
}

// OnInstanceUpdated implements ext.InstanceUpdated.
func (e *Extension) OnInstanceUpdated(ctx context.Context, inst *tree.WorkflowInstance) error {
	return e.record(ctx, ActionInstanceUpdated, SeverityInfo, OutcomeSuccess,
		ResourceInstance, inst.ID, CategoryInstance, nil,
		"workflow_name", inst.Name,
	)
}

// ── Task lifecycle hooks ────────────────────────────

// OnTaskCompleted implements ext.TaskCompleted.
func (e *Extension) OnTaskCompleted(ctx context.Context, instanceID, taskName string, _ *tree.Task, elapsed time.Duration) error {
	return e.record(ctx, ActionTaskCompleted, SeverityInfo, OutcomeSuccess,
		ResourceTask, instanceID, CategoryTask, nil,
		"task_name", taskName,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// OnTaskFailed implements ext.TaskFailed.
func (e *Extension) OnTaskFailed(ctx context.Context, instanceID, taskName string, _ *tree.Task, taskErr error) error {
	return e.record(ctx, ActionTaskFailed, SeverityCritical, OutcomeFailure,
		ResourceTask, instanceID, CategoryTask, taskErr,
		"task_name", taskName,
	)
}

// OnTaskSkipped implements ext.TaskSkipped.
func (e *Extension) OnTaskSkipped(ctx context.Context, instanceID, taskName string, _ *tree.Task) error {
	return e.record(ctx, ActionTaskSkipped, SeverityInfo, OutcomeSuccess,
		ResourceTask, instanceID, CategoryTask, nil,
		"task_name", taskName,
	)
}

// ── Internal helpers ────────────────────────────────

// record builds and sends an audit event if the action is enabled. The
// kvPairs argument is a list of key-value pairs added to Metadata.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &Event{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}

	return nil
}
