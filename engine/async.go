package engine

import (
	"context"

	"github.com/xraph/loom/store"
	"github.com/xraph/loom/tree"
)

// Result is delivered on the channel returned by an instance-returning
// *Async method.
type Result struct {
	Instance *tree.WorkflowInstance
	Err      error
}

// ListResult is delivered on the channel returned by ListAsync.
type ListResult struct {
	Instances []*tree.WorkflowInstance
	Err       error
}

// DefinitionResult is delivered on the channel returned by
// GetDefinitionAsync.
type DefinitionResult struct {
	Definition *store.Definition
	Err        error
}

// ExecuteAsync runs Execute in a background goroutine, returning
// immediately. The channel receives exactly one Result and is then
// closed.
func (e *Engine) ExecuteAsync(ctx context.Context, inst *tree.WorkflowInstance) <-chan Result {
	ch := make(chan Result, 1)

	go func() {
		defer close(ch)

		out, err := e.Execute(ctx, inst)
		ch <- Result{Instance: out, Err: err}
	}()

	return ch
}

// UpdateAsync runs Update in a background goroutine.
func (e *Engine) UpdateAsync(ctx context.Context, instanceID string, tasks map[string]*tree.Task) <-chan Result {
	ch := make(chan Result, 1)

	go func() {
		defer close(ch)

		out, err := e.Update(ctx, instanceID, tasks)
		ch <- Result{Instance: out, Err: err}
	}()

	return ch
}

// GetAsync runs Get in a background goroutine.
func (e *Engine) GetAsync(ctx context.Context, instanceID string, rewind int) <-chan Result {
	ch := make(chan Result, 1)

	go func() {
		defer close(ch)

		out, err := e.Get(ctx, instanceID, rewind)
		ch <- Result{Instance: out, Err: err}
	}()

	return ch
}

// ListAsync runs List in a background goroutine.
func (e *Engine) ListAsync(ctx context.Context, q store.Query) <-chan ListResult {
	ch := make(chan ListResult, 1)

	go func() {
		defer close(ch)

		out, err := e.List(ctx, q)
		ch <- ListResult{Instances: out, Err: err}
	}()

	return ch
}

// DeleteAsync runs Delete in a background goroutine.
func (e *Engine) DeleteAsync(ctx context.Context, instanceID string) <-chan error {
	ch := make(chan error, 1)

	go func() {
		defer close(ch)

		ch <- e.Delete(ctx, instanceID)
	}()

	return ch
}

// DeleteAllAsync runs DeleteAll in a background goroutine.
func (e *Engine) DeleteAllAsync(ctx context.Context) <-chan error {
	ch := make(chan error, 1)

	go func() {
		defer close(ch)

		ch <- e.DeleteAll(ctx)
	}()

	return ch
}

// SaveDefinitionAsync runs SaveDefinition in a background goroutine.
func (e *Engine) SaveDefinitionAsync(ctx context.Context, def *store.Definition) <-chan error {
	ch := make(chan error, 1)

	go func() {
		defer close(ch)

		ch <- e.SaveDefinition(ctx, def)
	}()

	return ch
}

// GetDefinitionAsync runs GetDefinition in a background goroutine.
func (e *Engine) GetDefinitionAsync(ctx context.Context, name string) <-chan DefinitionResult {
	ch := make(chan DefinitionResult, 1)

	go func() {
		defer close(ch)

		out, err := e.GetDefinition(ctx, name)
		ch <- DefinitionResult{Definition: out, Err: err}
	}()

	return ch
}

// DeleteDefinitionAsync runs DeleteDefinition in a background goroutine.
func (e *Engine) DeleteDefinitionAsync(ctx context.Context, name string) <-chan error {
	ch := make(chan error, 1)

	go func() {
		defer close(ch)

		ch <- e.DeleteDefinition(ctx, name)
	}()

	return ch
}
