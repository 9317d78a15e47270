package tree_test

import (
	"testing"

	"github.com/xraph/loom/tree"
)

func TestCloneIsIndependentOfSource(t *testing.T) {
	inst := &tree.WorkflowInstance{
		Name: "A",
		Tasks: map[string]*tree.Task{
			"t1": {Parameters: map[string]any{"log": "hi"}},
		},
	}

	clone, err := tree.Clone(inst)
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}

	clone.Tasks["t1"].Parameters["log"] = "bye"

	if inst.Tasks["t1"].Parameters["log"] != "hi" {
		t.Fatalf("mutation on clone leaked into source: %v", inst.Tasks["t1"].Parameters["log"])
	}
}
