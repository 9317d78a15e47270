package scheduler

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xraph/loom/resolve"
	"github.com/xraph/loom/tree"
)

// errErrorIfGate is the error recorded on a task whose errorIf gate
// evaluated true. The handler is never invoked; §4.D's error taxonomy
// still applies, so the task and the batch fail exactly as they would
// on a handler-reported error.
var errErrorIfGate = errors.New("scheduler: errorIf gate is true")

// dispatchBatch resolves references and evaluates gates for every
// runnable, then invokes all non-gated handlers in parallel through the
// Invoker. skipIf (or a missing handler) completes a task without
// invoking its handler; errorIf errors a task the same way, also
// without invoking its handler. It returns whether the batch made
// progress (dispatched, skipped, or errored at least one task) and a
// non-nil error iff any task failed without ignoreError, including an
// errorIf gate.
func (s *Scheduler) dispatchBatch(ctx context.Context, instanceID string, root *tree.WorkflowInstance, runnables []runnable) (bool, error) {
	if len(runnables) == 0 {
		return false, nil
	}

	for _, r := range runnables {
		if err := resolve.Task(s.Logger, root, r.task); err != nil {
			return false, err
		}
	}

	g := &errgroup.Group{}

	for _, r := range runnables {
		r := r

		now := time.Now().UTC()
		r.task.Status = tree.TaskExecuting
		r.task.TimeStarted = &now

		if r.task.SkipIf || r.task.Handler == "" {
			s.completeSkipped(ctx, instanceID, r, now)

			continue
		}

		if r.task.ErrorIf {
			g.Go(func() error {
				return s.completeErrored(ctx, instanceID, r, now)
			})

			continue
		}

		s.emitTaskDispatched(ctx, instanceID, r)

		g.Go(func() error {
			return s.invokeOne(ctx, instanceID, r)
		})
	}

	err := g.Wait()

	return true, err
}

func (s *Scheduler) emitTaskDispatched(ctx context.Context, instanceID string, r runnable) {
	if s.Extensions != nil {
		s.Extensions.EmitTaskDispatched(ctx, instanceID, r.name, r.task)
	}
}

// RunBoundary dispatches a single task (the pre workflow or post workflow
// slot) under the same rules as a batch runnable: reference resolution,
// skipIf/errorIf gating, and handler invocation. root supplies the
// reference-resolution scope. Unlike a batch member, a boundary task is
// never re-collected by a later pass, so callers must not leave it paused.
func (s *Scheduler) RunBoundary(ctx context.Context, instanceID string, root *tree.WorkflowInstance, task *tree.Task) error {
	_, err := s.dispatchBatch(ctx, instanceID, root, []runnable{{task: task}})

	return err
}

// completeSkipped finalizes a task that is not dispatched to a handler:
// either because skipIf gated it off, or because it has no handler at
// all (a pure container/gate). HandlerExecuted stays false.
func (s *Scheduler) completeSkipped(ctx context.Context, instanceID string, r runnable, start time.Time) {
	now := time.Now().UTC()
	r.task.Status = tree.TaskCompleted
	r.task.HandlerExecuted = false
	r.task.TimeCompleted = &now
	r.task.TotalDuration = now.Sub(start)

	if s.Extensions != nil {
		s.Extensions.EmitTaskSkipped(ctx, instanceID, r.name, r.task)
	}
}

// completeErrored finalizes a task gated off by errorIf. The handler is
// never invoked, but unlike skipIf the task reports an error: status
// becomes error, errorMsg is set, and the error is returned so the
// batch (and in turn the instance, per §4.E step 7) fails.
func (s *Scheduler) completeErrored(ctx context.Context, instanceID string, r runnable, start time.Time) error {
	now := time.Now().UTC()
	r.task.Status = tree.TaskError
	r.task.HandlerExecuted = false
	r.task.ErrorMsg = errErrorIfGate.Error()
	r.task.TimeCompleted = &now
	r.task.TotalDuration = now.Sub(start)

	if s.Extensions != nil {
		s.Extensions.EmitTaskFailed(ctx, instanceID, r.name, r.task, errErrorIfGate)
	}

	return errErrorIfGate
}

// invokeOne dispatches a single runnable to its handler and applies the
// completion contract (§4.D): success completes unless the handler set
// status paused; error with ignoreError clears the error and completes
// anyway; error otherwise sets status error and is returned.
func (s *Scheduler) invokeOne(ctx context.Context, instanceID string, r runnable) error {
	start := time.Now().UTC()
	r.task.HandlerExecuted = true

	err := s.Invoker.Invoke(ctx, instanceID, r.name, r.task)

	now := time.Now().UTC()
	r.task.HandlerDuration = now.Sub(start)

	if err != nil {
		if r.task.IgnoreError {
			r.task.Status = tree.TaskCompleted
			r.task.ErrorMsg = ""
			r.task.TimeCompleted = &now
			r.task.TotalDuration = now.Sub(start)

			if s.Extensions != nil {
				s.Extensions.EmitTaskCompleted(ctx, instanceID, r.name, r.task, r.task.HandlerDuration)
			}

			return nil
		}

		r.task.Status = tree.TaskError
		r.task.ErrorMsg = err.Error()

		if s.Extensions != nil {
			s.Extensions.EmitTaskFailed(ctx, instanceID, r.name, r.task, err)
		}

		return err
	}

	if r.task.Status == tree.TaskPaused {
		return nil
	}

	r.task.Status = tree.TaskCompleted
	r.task.TimeCompleted = &now
	r.task.TotalDuration = now.Sub(start)

	if s.Extensions != nil {
		s.Extensions.EmitTaskCompleted(ctx, instanceID, r.name, r.task, r.task.HandlerDuration)
	}

	return nil
}
