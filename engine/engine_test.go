package engine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/loom"
	"github.com/xraph/loom/engine"
	"github.com/xraph/loom/handler"
	"github.com/xraph/loom/handler/builtin"
	"github.com/xraph/loom/store"
	"github.com/xraph/loom/store/memory"
	"github.com/xraph/loom/tree"
)

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()

	eng, err := engine.New(
		engine.WithStore(memory.New()),
		engine.WithHandler("log", builtin.Log),
		engine.WithHandler("test", builtin.Test),
	)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}

	return eng
}

func TestExecute_SimpleLogHandlerCompletes(t *testing.T) {
	eng := newTestEngine(t)

	inst := &tree.WorkflowInstance{
		Name: "A",
		Tasks: map[string]*tree.Task{
			"t1": {Handler: "log", Parameters: map[string]any{"log": "hi", "level": "info"}},
		},
	}

	out, err := eng.Execute(context.Background(), inst)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out.Status != tree.InstanceCompleted {
		t.Errorf("Status = %q, want %q", out.Status, tree.InstanceCompleted)
	}

	t1 := out.Tasks["t1"]
	if t1.Status != tree.TaskCompleted {
		t.Errorf("t1.Status = %q, want %q", t1.Status, tree.TaskCompleted)
	}
	if !t1.HandlerExecuted {
		t.Error("t1.HandlerExecuted = false, want true")
	}
	if out.ID == "" {
		t.Error("Execute did not assign an instance id")
	}
}

func TestExecute_SkipIfShortCircuitsHandler(t *testing.T) {
	eng := newTestEngine(t)

	inst := &tree.WorkflowInstance{
		Name: "B",
		Tasks: map[string]*tree.Task{
			"t1": {SkipIf: true, Handler: "log", Parameters: map[string]any{"log": "x"}},
		},
	}

	out, err := eng.Execute(context.Background(), inst)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	t1 := out.Tasks["t1"]
	if t1.Status != tree.TaskCompleted {
		t.Errorf("t1.Status = %q, want %q", t1.Status, tree.TaskCompleted)
	}
	if t1.HandlerExecuted {
		t.Error("t1.HandlerExecuted = true, want false (skipped)")
	}
}

func TestExecute_AssignsIDOnlyWhenAbsent(t *testing.T) {
	eng := newTestEngine(t)

	inst := &tree.WorkflowInstance{
		ID:   "wfi_fixed",
		Name: "C",
		Tasks: map[string]*tree.Task{
			"t1": {Handler: "log", Parameters: map[string]any{"log": "x"}},
		},
	}

	out, err := eng.Execute(context.Background(), inst)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out.ID != "wfi_fixed" {
		t.Errorf("ID = %q, want %q", out.ID, "wfi_fixed")
	}
}

func TestExecute_HandlerErrorMarksInstanceError(t *testing.T) {
	eng := newTestEngine(t)

	inst := &tree.WorkflowInstance{
		Name: "D",
		Tasks: map[string]*tree.Task{
			"t1": {Handler: "test", Parameters: map[string]any{"error": true}},
		},
	}

	out, err := eng.Execute(context.Background(), inst)
	if err == nil {
		t.Fatal("expected a handler error")
	}
	if out.Status != tree.InstanceError {
		t.Errorf("Status = %q, want %q", out.Status, tree.InstanceError)
	}
	if out.Tasks["t1"].ErrorMsg == "" {
		t.Error("t1.ErrorMsg is empty, want the handler's error message")
	}
}

func TestExecute_IgnoreErrorDowngradesToSuccess(t *testing.T) {
	eng := newTestEngine(t)

	inst := &tree.WorkflowInstance{
		Name: "E",
		Tasks: map[string]*tree.Task{
			"t1": {Handler: "test", IgnoreError: true, Parameters: map[string]any{"error": true}},
		},
	}

	out, err := eng.Execute(context.Background(), inst)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out.Status != tree.InstanceCompleted {
		t.Errorf("Status = %q, want %q", out.Status, tree.InstanceCompleted)
	}
	if out.Tasks["t1"].ErrorMsg != "" {
		t.Errorf("t1.ErrorMsg = %q, want empty", out.Tasks["t1"].ErrorMsg)
	}
}

func TestExecute_PauseThenUpdateResumes(t *testing.T) {
	eng := newTestEngine(t)

	inst := &tree.WorkflowInstance{
		Name: "F",
		Tasks: map[string]*tree.Task{
			"approve": {Handler: "test", Parameters: map[string]any{"paused": true}},
		},
	}

	paused, err := eng.Execute(context.Background(), inst)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if paused.Tasks["approve"].Status != tree.TaskPaused {
		t.Fatalf("approve.Status = %q, want %q", paused.Tasks["approve"].Status, tree.TaskPaused)
	}
	if paused.Status != tree.InstanceOpen {
		t.Errorf("Status = %q, want %q (paused instance stays open)", paused.Status, tree.InstanceOpen)
	}

	resumed, err := eng.Update(context.Background(), paused.ID, map[string]*tree.Task{
		"approve": {
			Status:     tree.TaskExecuting,
			Handler:    "test",
			Parameters: map[string]any{"approved": true},
		},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if resumed.Status != tree.InstanceCompleted {
		t.Errorf("Status = %q, want %q", resumed.Status, tree.InstanceCompleted)
	}
	if resumed.Tasks["approve"].Status != tree.TaskCompleted {
		t.Errorf("approve.Status = %q, want %q", resumed.Tasks["approve"].Status, tree.TaskCompleted)
	}
}

func TestUpdate_AlreadyCompletedFails(t *testing.T) {
	eng := newTestEngine(t)

	inst := &tree.WorkflowInstance{
		Name: "G",
		Tasks: map[string]*tree.Task{
			"t1": {Handler: "log", Parameters: map[string]any{"log": "x"}},
		},
	}

	done, err := eng.Execute(context.Background(), inst)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	_, err = eng.Update(context.Background(), done.ID, map[string]*tree.Task{
		"t1": {Status: tree.TaskExecuting},
	})
	if !errors.Is(err, loom.ErrAlreadyCompleted) {
		t.Errorf("Update on completed instance: got %v, want ErrAlreadyCompleted", err)
	}
}

func TestUpdate_EmptyIDFails(t *testing.T) {
	eng := newTestEngine(t)

	_, err := eng.Update(context.Background(), "", nil)
	if !errors.Is(err, loom.ErrEmptyInjectionID) {
		t.Errorf("Update with empty id: got %v, want ErrEmptyInjectionID", err)
	}
}

func TestUpdate_UnknownTaskNameSilentlyIgnored(t *testing.T) {
	eng := newTestEngine(t)

	inst := &tree.WorkflowInstance{
		Name: "H",
		Tasks: map[string]*tree.Task{
			"approve": {Handler: "test", Parameters: map[string]any{"paused": true}},
		},
	}

	paused, err := eng.Execute(context.Background(), inst)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	out, err := eng.Update(context.Background(), paused.ID, map[string]*tree.Task{
		"does-not-exist": {Status: tree.TaskCompleted},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if out.Tasks["approve"].Status != tree.TaskPaused {
		t.Errorf("approve.Status = %q, want unchanged %q", out.Tasks["approve"].Status, tree.TaskPaused)
	}
}

func TestExecute_PreAndPostWorkflowRun(t *testing.T) {
	eng := newTestEngine(t)

	inst := &tree.WorkflowInstance{
		Name:         "I",
		PreWorkflow:  &tree.Task{Handler: "log", Parameters: map[string]any{"log": "starting"}},
		PostWorkflow: &tree.Task{Handler: "log", Parameters: map[string]any{"log": "done"}},
		Tasks: map[string]*tree.Task{
			"t1": {Handler: "log", Parameters: map[string]any{"log": "main"}},
		},
	}

	out, err := eng.Execute(context.Background(), inst)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out.PreWorkflow.Status != tree.TaskCompleted {
		t.Errorf("PreWorkflow.Status = %q, want %q", out.PreWorkflow.Status, tree.TaskCompleted)
	}
	if out.PostWorkflow.Status != tree.TaskCompleted {
		t.Errorf("PostWorkflow.Status = %q, want %q", out.PostWorkflow.Status, tree.TaskCompleted)
	}
}

func TestGet_RewindReturnsHistoricalSavePoint(t *testing.T) {
	eng := newTestEngine(t)

	inst := &tree.WorkflowInstance{
		Name: "J",
		Tasks: map[string]*tree.Task{
			"t1": {Handler: "log", Parameters: map[string]any{"log": "x"}},
		},
	}

	out, err := eng.Execute(context.Background(), inst)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	current, err := eng.Get(context.Background(), out.ID, 0)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if current.Status != tree.InstanceCompleted {
		t.Errorf("Status = %q, want %q", current.Status, tree.InstanceCompleted)
	}

	// Three saves: before dispatch, after t1 completed, and the final
	// completed record. Rewind 1 is the save before the final one.
	previous, err := eng.Get(context.Background(), out.ID, 1)
	if err != nil {
		t.Fatalf("Get rewind 1: %v", err)
	}
	if previous.Status != tree.InstanceOpen {
		t.Errorf("rewind 1 Status = %q, want %q", previous.Status, tree.InstanceOpen)
	}
}

func TestDelete_RemovesInstance(t *testing.T) {
	eng := newTestEngine(t)

	inst := &tree.WorkflowInstance{
		Name: "K",
		Tasks: map[string]*tree.Task{
			"t1": {Handler: "log", Parameters: map[string]any{"log": "x"}},
		},
	}

	out, err := eng.Execute(context.Background(), inst)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if err := eng.Delete(context.Background(), out.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := eng.Get(context.Background(), out.ID, 0); !errors.Is(err, loom.ErrInstanceNotFound) {
		t.Errorf("Get after Delete: got %v, want ErrInstanceNotFound", err)
	}
}

func TestDefinitionRoundTrip(t *testing.T) {
	eng := newTestEngine(t)

	def := &store.Definition{
		Name: "order-flow",
		Tasks: map[string]*tree.Task{
			"t1": {Handler: "log", Parameters: map[string]any{"log": "x"}},
		},
	}

	if err := eng.SaveDefinition(context.Background(), def); err != nil {
		t.Fatalf("SaveDefinition: %v", err)
	}

	got, err := eng.GetDefinition(context.Background(), "order-flow")
	if err != nil {
		t.Fatalf("GetDefinition: %v", err)
	}
	if got.Name != def.Name {
		t.Errorf("Name = %q, want %q", got.Name, def.Name)
	}

	if err := eng.DeleteDefinition(context.Background(), "order-flow"); err != nil {
		t.Fatalf("DeleteDefinition: %v", err)
	}
	if _, err := eng.GetDefinition(context.Background(), "order-flow"); !errors.Is(err, loom.ErrDefinitionNotFound) {
		t.Errorf("GetDefinition after delete: got %v, want ErrDefinitionNotFound", err)
	}
}

func TestExecuteAsync_DeliversResult(t *testing.T) {
	eng := newTestEngine(t)

	inst := &tree.WorkflowInstance{
		Name: "L",
		Tasks: map[string]*tree.Task{
			"t1": {Handler: "log", Parameters: map[string]any{"log": "x"}},
		},
	}

	res := <-eng.ExecuteAsync(context.Background(), inst)
	if res.Err != nil {
		t.Fatalf("ExecuteAsync: %v", res.Err)
	}
	if res.Instance.Status != tree.InstanceCompleted {
		t.Errorf("Status = %q, want %q", res.Instance.Status, tree.InstanceCompleted)
	}
}

func TestNew_RequiresStore(t *testing.T) {
	if _, err := engine.New(); !errors.Is(err, loom.ErrNoStore) {
		t.Errorf("engine.New() with no store: got %v, want ErrNoStore", err)
	}
}

func TestNew_WithHandlerRegistersBeforeExecute(t *testing.T) {
	var called bool

	eng, err := engine.New(
		engine.WithStore(memory.New()),
		engine.WithHandler("mark", func(_ context.Context, _ string, _ string, task *tree.Task, done handler.Done) {
			called = true
			done(nil, task)
		}),
	)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}

	inst := &tree.WorkflowInstance{
		Name:  "M",
		Tasks: map[string]*tree.Task{"t1": {Handler: "mark"}},
	}

	if _, err := eng.Execute(context.Background(), inst); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !called {
		t.Error("registered handler was never invoked")
	}
}
