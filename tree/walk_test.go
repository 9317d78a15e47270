package tree_test

import (
	"testing"

	"github.com/xraph/loom/tree"
)

func buildInstance() *tree.WorkflowInstance {
	inst := &tree.WorkflowInstance{
		Name: "D",
		Tasks: map[string]*tree.Task{
			"parent": {
				Tasks: map[string]*tree.Task{
					"c1": {Handler: "log"},
					"c2": {Handler: "log"},
				},
			},
		},
	}
	tree.Validate(inst)

	return inst
}

func TestWalkDeepPreOrderInsertionOrder(t *testing.T) {
	inst := buildInstance()
	inst.Order = []string{"parent"}
	inst.Tasks["parent"].Order = []string{"c1", "c2"}

	var visited []string
	tree.Walk(inst.Order, inst.Tasks, true, func(path, name string, _ *tree.Task) bool {
		visited = append(visited, path)

		return true
	})

	want := []string{"parent", "parent.c1", "parent.c2"}
	if len(visited) != len(want) {
		t.Fatalf("visited = %v, want %v", visited, want)
	}
	for i := range want {
		if visited[i] != want[i] {
			t.Fatalf("visited[%d] = %q, want %q", i, visited[i], want[i])
		}
	}
}

func TestWalkHaltsOnFalse(t *testing.T) {
	inst := buildInstance()
	inst.Order = []string{"parent"}
	inst.Tasks["parent"].Order = []string{"c1", "c2"}

	var visited []string
	cont := tree.Walk(inst.Order, inst.Tasks, true, func(path, _ string, _ *tree.Task) bool {
		visited = append(visited, path)

		return path != "parent.c1"
	})

	if cont {
		t.Fatalf("Walk should report halted")
	}
	if len(visited) != 2 {
		t.Fatalf("visited = %v, want exactly 2 entries", visited)
	}
}

func TestFindLocatesDeepTask(t *testing.T) {
	inst := buildInstance()

	task, path, ok := tree.Find(inst.Order, inst.Tasks, "c2")
	if !ok {
		t.Fatal("expected to find c2")
	}
	if task.Handler != "log" {
		t.Fatalf("found wrong task: %+v", task)
	}
	if path != "parent.c2" {
		t.Fatalf("path = %q, want parent.c2", path)
	}
}

func TestFindMissingReturnsFalse(t *testing.T) {
	inst := buildInstance()

	_, _, ok := tree.Find(inst.Order, inst.Tasks, "nope")
	if ok {
		t.Fatal("expected not found")
	}
}
