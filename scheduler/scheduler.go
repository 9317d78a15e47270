// Package scheduler implements the batch state machine that drives a
// WorkflowInstance's task tree to completion, pause, or error. One call
// to Run performs repeated passes — persist, open the frontier, collect
// runnables, dispatch in parallel, collect results, progress or
// terminate — until the instance pauses, errors, or completes.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/loom/ext"
	"github.com/xraph/loom/handler"
	"github.com/xraph/loom/store"
	"github.com/xraph/loom/tree"
)

// Scheduler drives one WorkflowInstance's task tree through repeated
// batches until it pauses, errors, or completes.
type Scheduler struct {
	Store   store.Store
	Invoker *handler.Invoker
	Logger  *slog.Logger

	// Extensions, if set, receives task lifecycle hooks (dispatched,
	// completed, failed, skipped) around every handler invocation. Nil
	// is a valid, fully no-op value.
	Extensions *ext.Registry
}

// New returns a Scheduler wired to st and inv.
func New(st store.Store, inv *handler.Invoker, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{Store: st, Invoker: inv, Logger: logger}
}

// Run drives inst's Tasks tree to completion, pause, or error, persisting
// the instance around every batch boundary. It returns the instance in
// whatever state it reached and a non-nil error only for a store failure
// or a batch that failed (a handler error without ignoreError); a paused
// instance is returned with a nil error, status InstanceOpen, and at
// least one descendant task in TaskPaused.
func (s *Scheduler) Run(ctx context.Context, inst *tree.WorkflowInstance) (*tree.WorkflowInstance, error) {
	for {
		// Save point A: persist ahead of every batch.
		if err := s.Store.SaveInstance(ctx, inst); err != nil {
			return inst, err
		}

		if tree.AnyPaused(inst.Order, inst.Tasks) {
			return inst, nil
		}

		openFrontier(inst.Order, inst.Tasks)

		runnables := collectRunnables(inst.Order, inst.Tasks)
		if len(runnables) == 0 {
			if tree.AllCompleted(inst.Tasks) {
				inst.Status = tree.InstanceCompleted

				// Save point C: idle with every top-level task complete.
				if err := s.Store.SaveInstance(ctx, inst); err != nil {
					return inst, err
				}
			}

			return inst, nil
		}

		progressed, batchErr := s.dispatchBatch(ctx, inst.ID, inst, runnables)
		if batchErr != nil {
			inst.Status = tree.InstanceError

			// Save point B: a dispatched task failed.
			if err := s.Store.SaveInstance(ctx, inst); err != nil {
				return inst, err
			}

			return inst, batchErr
		}

		if !progressed {
			return inst, nil
		}
	}
}

// openFrontier walks tasks in insertion order at this level only. A task
// in TaskWaiting transitions to TaskOpen and stamps TimeOpened; a task
// already TaskOpen is simply recursed into, since its children may still
// be opening. blocking tasks stop the scan of later siblings at this
// level for the current pass; their own children are unaffected.
func openFrontier(order []string, tasks map[string]*tree.Task) {
	for _, name := range tree.OrderedNames(order, tasks) {
		t := tasks[name]

		switch t.Status {
		case tree.TaskWaiting:
			now := time.Now().UTC()
			t.Status = tree.TaskOpen
			t.TimeOpened = &now

			if len(t.Tasks) > 0 {
				openFrontier(t.Order, t.Tasks)
			}
		case tree.TaskOpen:
			if len(t.Tasks) > 0 {
				openFrontier(t.Order, t.Tasks)
			}
		}

		if t.Blocking && !t.IsTerminal() {
			return
		}
	}
}

// runnable pairs a task with its dotted path and its local name; the name
// is what handlers, middleware, and extensions receive.
type runnable struct {
	path string
	name string
	task *tree.Task
}

// collectRunnables deep-scans for tasks in status TaskOpen (or
// TaskExecuting, the status an injected update may set directly to
// resume a paused task — see engine's Update). A task is runnable iff it
// has no children, or every child is completed.
func collectRunnables(order []string, tasks map[string]*tree.Task) []runnable {
	var out []runnable

	tree.Walk(order, tasks, true, func(path string, name string, t *tree.Task) bool {
		if t.Status != tree.TaskOpen && t.Status != tree.TaskExecuting {
			return true
		}

		if !t.HasChildren() || t.AllChildrenCompleted() {
			out = append(out, runnable{path: path, name: name, task: t})
		}

		return true
	})

	return out
}
