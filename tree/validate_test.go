package tree_test

import (
	"testing"

	"github.com/xraph/loom/tree"
)

func TestValidateAssignsDefaultStatus(t *testing.T) {
	inst := &tree.WorkflowInstance{
		Name: "A",
		Tasks: map[string]*tree.Task{
			"t1": {Handler: "log"},
		},
	}

	tree.Validate(inst)

	if inst.Tasks["t1"].Status != tree.TaskWaiting {
		t.Fatalf("status = %q, want %q", inst.Tasks["t1"].Status, tree.TaskWaiting)
	}
	if inst.Status != tree.InstanceOpen {
		t.Fatalf("instance status = %q, want %q", inst.Status, tree.InstanceOpen)
	}
}

func TestValidateRecursesIntoChildren(t *testing.T) {
	inst := &tree.WorkflowInstance{
		Name: "D",
		Tasks: map[string]*tree.Task{
			"parent": {
				Tasks: map[string]*tree.Task{
					"c1": {},
				},
			},
		},
	}

	tree.Validate(inst)

	if inst.Tasks["parent"].Tasks["c1"].Status != tree.TaskWaiting {
		t.Fatalf("nested child status not defaulted")
	}
	if len(inst.Tasks["parent"].Order) != 1 || inst.Tasks["parent"].Order[0] != "c1" {
		t.Fatalf("order not backfilled: %v", inst.Tasks["parent"].Order)
	}
}

func TestValidatePreservesExplicitStatus(t *testing.T) {
	inst := &tree.WorkflowInstance{
		Tasks: map[string]*tree.Task{
			"t1": {Status: tree.TaskCompleted},
		},
	}

	tree.Validate(inst)

	if inst.Tasks["t1"].Status != tree.TaskCompleted {
		t.Fatalf("explicit status overwritten: %q", inst.Tasks["t1"].Status)
	}
}
