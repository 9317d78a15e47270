package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/loom/ext"
	"github.com/xraph/loom/tree"
)

// meterName is the instrumentation scope name for loom's lifecycle metrics.
const meterName = "github.com/xraph/loom"

// Compile-time interface checks.
var (
	_ ext.Extension         = (*MetricsExtension)(nil)
	_ ext.InstanceStarted   = (*MetricsExtension)(nil)
	_ ext.InstanceCompleted = (*MetricsExtension)(nil)
	_ ext.InstanceFailed    = (*MetricsExtension)(nil)
	_ ext.InstancePaused    = (*MetricsExtension)(nil)
	_ ext.TaskCompleted     = (*MetricsExtension)(nil)
	_ ext.TaskFailed        = (*MetricsExtension)(nil)
	_ ext.TaskSkipped       = (*MetricsExtension)(nil)
)

// MetricsExtension records system-wide lifecycle metrics via the global
// OTel MeterProvider. Register it with an engine to automatically track
// instance starts, completions, failures, pauses, and task outcomes.
type MetricsExtension struct {
	instancesStarted   metric.Int64Counter
	instancesCompleted metric.Int64Counter
	instancesFailed    metric.Int64Counter
	instancesPaused    metric.Int64Counter
	instanceDuration   metric.Float64Histogram
	tasksCompleted     metric.Int64Counter
	tasksFailed        metric.Int64Counter
	tasksSkipped       metric.Int64Counter
}

// NewMetricsExtension creates a MetricsExtension using the global
// MeterProvider. If none is configured, OTel's API contract guarantees
// noop instruments, making this extension a pass-through.
func NewMetricsExtension() *MetricsExtension {
	return NewMetricsExtensionWithMeter(otel.Meter(meterName))
}

// NewMetricsExtensionWithMeter creates a MetricsExtension using meter,
// allowing a specific MeterProvider to be injected for testing.
func NewMetricsExtensionWithMeter(meter metric.Meter) *MetricsExtension {
	instancesStarted, _ := meter.Int64Counter(
		"loom.instance.started",
		metric.WithDescription("Total number of workflow instances started"),
		metric.WithUnit("{instance}"),
	)
	instancesCompleted, _ := meter.Int64Counter(
		"loom.instance.completed",
		metric.WithDescription("Total number of workflow instances completed"),
		metric.WithUnit("{instance}"),
	)
	instancesFailed, _ := meter.Int64Counter(
		"loom.instance.failed",
		metric.WithDescription("Total number of workflow instances failed"),
		metric.WithUnit("{instance}"),
	)
	instancesPaused, _ := meter.Int64Counter(
		"loom.instance.paused",
		metric.WithDescription("Total number of times a workflow instance paused"),
		metric.WithUnit("{instance}"),
	)
	instanceDuration, _ := meter.Float64Histogram(
		"loom.instance.duration",
		metric.WithDescription("Duration of a completed workflow instance in seconds"),
		metric.WithUnit("s"),
	)
	tasksCompleted, _ := meter.Int64Counter(
		"loom.task.completed",
		metric.WithDescription("Total number of tasks completed via a dispatched handler"),
		metric.WithUnit("{task}"),
	)
	tasksFailed, _ := meter.Int64Counter(
		"loom.task.failed",
		metric.WithDescription("Total number of tasks that reached an error state"),
		metric.WithUnit("{task}"),
	)
	tasksSkipped, _ := meter.Int64Counter(
		"loom.task.skipped",
		metric.WithDescription("Total number of tasks completed via a gate rather than a handler"),
		metric.WithUnit("{task}"),
	)

	return &MetricsExtension{
		instancesStarted:   instancesStarted,
		instancesCompleted: instancesCompleted,
		instancesFailed:    instancesFailed,
		instancesPaused:    instancesPaused,
		instanceDuration:   instanceDuration,
		tasksCompleted:     tasksCompleted,
		tasksFailed:        tasksFailed,
		tasksSkipped:       tasksSkipped,
	}
}

// Name implements ext.Extension.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// ── Instance lifecycle hooks ────────────────────────

// OnInstanceStarted implements ext.InstanceStarted.
func (m *MetricsExtension) OnInstanceStarted(_ context.Context, inst *tree.WorkflowInstance) error {
	m.instancesStarted.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("workflow_name", inst.Name),
	))

	return nil
}

// OnInstanceCompleted implements ext.InstanceCompleted.
func (m *MetricsExtension) OnInstanceCompleted(_ context.Context, inst *tree.WorkflowInstance, elapsed time.Duration) error {
	attrs := metric.WithAttributes(attribute.String("workflow_name", inst.Name))
	m.instancesCompleted.Add(context.Background(), 1, attrs)
	m.instanceDuration.Record(context.Background(), elapsed.Seconds(), attrs)

	return nil
}

// OnInstanceFailed implements ext.InstanceFailed.
func (m *MetricsExtension) OnInstanceFailed(_ context.Context, inst *tree.WorkflowInstance, _ error) error {
	m.instancesFailed.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("workflow_name", inst.Name),
	))

	return nil
}

// OnInstancePaused implements ext.InstancePaused.
func (m *MetricsExtension) OnInstancePaused(_ context.Context, inst *tree.WorkflowInstance) error {
	m.instancesPaused.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("workflow_name", inst.Name),
	))

	return nil
}

// ── Task lifecycle hooks ────────────────────────────

// OnTaskCompleted implements ext.TaskCompleted.
func (m *MetricsExtension) OnTaskCompleted(_ context.Context, _, taskName string, _ *tree.Task, _ time.Duration) error {
	m.tasksCompleted.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("task_name", taskName),
	))

	return nil
}

// OnTaskFailed implements ext.TaskFailed.
func (m *MetricsExtension) OnTaskFailed(_ context.Context, _, taskName string, _ *tree.Task, _ error) error {
	m.tasksFailed.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("task_name", taskName),
	))

	return nil
}

// OnTaskSkipped implements ext.TaskSkipped.
func (m *MetricsExtension) OnTaskSkipped(_ context.Context, _, taskName string, _ *tree.Task) error {
	m.tasksSkipped.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("task_name", taskName),
	))

	return nil
}
