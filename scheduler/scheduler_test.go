package scheduler_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/xraph/loom/handler"
	"github.com/xraph/loom/handler/builtin"
	"github.com/xraph/loom/middleware"
	"github.com/xraph/loom/scheduler"
	"github.com/xraph/loom/store/memory"
	"github.com/xraph/loom/tree"
)

func newScheduler(t *testing.T) (*scheduler.Scheduler, *memory.Store) {
	t.Helper()

	st := memory.New()
	reg := handler.NewRegistry()
	reg.Register("log", builtin.Log)
	reg.Register("test", builtin.Test)

	inv := handler.NewInvoker(reg, slog.Default(), middleware.Recover(slog.Default()))

	return scheduler.New(st, inv, slog.Default()), st
}

func TestScenarioLogHandlerCompletes(t *testing.T) {
	sched, _ := newScheduler(t)

	inst := &tree.WorkflowInstance{
		ID:   "wfi_1",
		Name: "A",
		Tasks: map[string]*tree.Task{
			"t1": {Handler: "log", Parameters: map[string]any{"log": "hi", "level": "info"}},
		},
	}
	tree.Validate(inst)

	out, err := sched.Run(context.Background(), inst)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if out.Status != tree.InstanceCompleted {
		t.Fatalf("status = %q, want completed", out.Status)
	}
	if out.Tasks["t1"].Status != tree.TaskCompleted {
		t.Fatalf("t1 status = %q, want completed", out.Tasks["t1"].Status)
	}
	if !out.Tasks["t1"].HandlerExecuted {
		t.Fatal("t1.HandlerExecuted should be true")
	}
}

func TestScenarioSkipIfShortCircuits(t *testing.T) {
	sched, _ := newScheduler(t)

	inst := &tree.WorkflowInstance{
		ID:   "wfi_2",
		Name: "B",
		Tasks: map[string]*tree.Task{
			"t1": {SkipIf: true, Handler: "log", Parameters: map[string]any{"log": "x"}},
		},
	}
	tree.Validate(inst)

	out, err := sched.Run(context.Background(), inst)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if out.Tasks["t1"].Status != tree.TaskCompleted {
		t.Fatalf("status = %q, want completed", out.Tasks["t1"].Status)
	}
	if out.Tasks["t1"].HandlerExecuted {
		t.Fatal("HandlerExecuted should be false for a skipped task")
	}
}

func TestScenarioErrorIfErrorsTask(t *testing.T) {
	sched, _ := newScheduler(t)

	inst := &tree.WorkflowInstance{
		ID:   "wfi_7",
		Name: "G",
		Tasks: map[string]*tree.Task{
			"t1": {ErrorIf: true, Handler: "log", Parameters: map[string]any{"log": "x"}},
		},
	}
	tree.Validate(inst)

	out, err := sched.Run(context.Background(), inst)
	if err == nil {
		t.Fatal("expected an error")
	}

	if out.Status != tree.InstanceError {
		t.Fatalf("status = %q, want error", out.Status)
	}
	if out.Tasks["t1"].Status != tree.TaskError {
		t.Fatalf("t1 status = %q, want error", out.Tasks["t1"].Status)
	}
	if out.Tasks["t1"].HandlerExecuted {
		t.Fatal("HandlerExecuted should be false for an errorIf-gated task")
	}
	if out.Tasks["t1"].ErrorMsg == "" {
		t.Fatal("expected a non-empty errorMsg")
	}
}

func TestScenarioPauseThenResume(t *testing.T) {
	sched, _ := newScheduler(t)

	inst := &tree.WorkflowInstance{
		ID:   "wfi_3",
		Name: "C",
		Order: []string{"t1", "t2"},
		Tasks: map[string]*tree.Task{
			"t1": {Handler: "test", Parameters: map[string]any{"paused": true}, Blocking: true},
			"t2": {Handler: "log", Parameters: map[string]any{"log": "after"}},
		},
	}
	tree.Validate(inst)

	out, err := sched.Run(context.Background(), inst)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if out.Status != tree.InstanceOpen {
		t.Fatalf("status = %q, want open", out.Status)
	}
	if out.Tasks["t1"].Status != tree.TaskPaused {
		t.Fatalf("t1 status = %q, want paused", out.Tasks["t1"].Status)
	}
	if out.Tasks["t2"].Status != tree.TaskWaiting {
		t.Fatalf("t2 status = %q, want waiting (blocked by t1)", out.Tasks["t2"].Status)
	}

	// Simulate the update-injection protocol: resume t1 directly into
	// TaskExecuting, as engine.Update would after merging the caller's
	// injection bundle.
	out.Tasks["t1"].Status = tree.TaskExecuting
	out.Tasks["t1"].Parameters["paused"] = false

	final, err := sched.Run(context.Background(), out)
	if err != nil {
		t.Fatalf("Run (resume): %v", err)
	}

	if final.Status != tree.InstanceCompleted {
		t.Fatalf("final status = %q, want completed", final.Status)
	}
	if final.Tasks["t1"].Status != tree.TaskCompleted || final.Tasks["t2"].Status != tree.TaskCompleted {
		t.Fatalf("both tasks should be completed: t1=%q t2=%q", final.Tasks["t1"].Status, final.Tasks["t2"].Status)
	}
}

func TestScenarioChildrenCompleteBeforeParent(t *testing.T) {
	sched, _ := newScheduler(t)

	inst := &tree.WorkflowInstance{
		ID:   "wfi_4",
		Name: "D",
		Tasks: map[string]*tree.Task{
			"parent": {
				Tasks: map[string]*tree.Task{
					"c1": {Handler: "log", Parameters: map[string]any{"log": "1"}},
					"c2": {Handler: "log", Parameters: map[string]any{"log": "2"}},
				},
			},
		},
	}
	tree.Validate(inst)

	out, err := sched.Run(context.Background(), inst)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	parent := out.Tasks["parent"]
	if parent.Status != tree.TaskCompleted {
		t.Fatalf("parent status = %q, want completed", parent.Status)
	}
	if parent.Tasks["c1"].Status != tree.TaskCompleted || parent.Tasks["c2"].Status != tree.TaskCompleted {
		t.Fatal("children should be completed")
	}
}

func TestScenarioReferenceResolutionIntoString(t *testing.T) {
	sched, _ := newScheduler(t)

	inst := &tree.WorkflowInstance{
		ID:          "wfi_5",
		Name:        "E",
		Environment: map[string]string{"HOME": "/tmp"},
		Tasks: map[string]*tree.Task{
			"t1": {Handler: "log", Parameters: map[string]any{"log": "val=$[environment.HOME]"}},
		},
	}
	tree.Validate(inst)

	out, err := sched.Run(context.Background(), inst)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if out.Tasks["t1"].Parameters["log"] != "val=/tmp" {
		t.Fatalf("log = %v, want val=/tmp", out.Tasks["t1"].Parameters["log"])
	}
}

func TestScenarioErrorPropagatesAndHistoryGrows(t *testing.T) {
	sched, st := newScheduler(t)

	inst := &tree.WorkflowInstance{
		ID:   "wfi_6",
		Name: "F",
		Tasks: map[string]*tree.Task{
			"t1": {Handler: "test", Parameters: map[string]any{"error": true}},
		},
	}
	tree.Validate(inst)

	out, err := sched.Run(context.Background(), inst)
	if err == nil {
		t.Fatal("expected an error")
	}

	if out.Status != tree.InstanceError {
		t.Fatalf("status = %q, want error", out.Status)
	}
	if out.Tasks["t1"].Status != tree.TaskError {
		t.Fatalf("t1 status = %q, want error", out.Tasks["t1"].Status)
	}
	if out.Tasks["t1"].ErrorMsg == "" {
		t.Fatal("expected a non-empty errorMsg")
	}

	// Pre-dispatch save point A and the error-path save point B both
	// write a historical record.
	if got := st.HistoryLen(inst.ID); got < 2 {
		t.Fatalf("history length = %d, want >= 2", got)
	}
}
