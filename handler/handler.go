// Package handler defines the pluggable task-handler contract and a
// registry that loads handlers by opaque string identifier, deferred to
// first use and cached thereafter.
package handler

import (
	"context"
	"fmt"
	"sync"

	"github.com/xraph/loom"
	"github.com/xraph/loom/tree"
)

// Done is the completion sink a Func calls exactly once: err nil for
// success, non-nil for failure. task is the same object passed to Func;
// mutations the handler made to task.Parameters or nested task values are
// visible to the scheduler once Done is called.
type Done func(err error, task *tree.Task)

// Func is the four-argument invocation contract every handler satisfies:
// the enclosing instance id, the task's local name, the mutable task
// object, and a completion sink. Handlers may be synchronous or
// long-running; the scheduler always treats them as asynchronous and
// waits on done being called.
type Func func(ctx context.Context, instanceID string, taskName string, task *tree.Task, done Done)

// Registry maps handler identifiers to Funcs. It is safe for concurrent
// use. Loading is deferred to Get: a handler id is only resolved to a Func
// on first invocation, and the result (found or not) is not cached beyond
// the registration map itself — registration is expected to happen once
// at startup via Register.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Func
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Func)}
}

// Register associates name with fn, overwriting any previous registration.
func (r *Registry) Register(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.handlers[name] = fn
}

// Get returns the Func registered under name, or false if none exists.
func (r *Registry) Get(name string) (Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, ok := r.handlers[name]

	return fn, ok
}

// Names returns every registered handler identifier.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}

	return names
}

// ErrNotFound formats the distinguishing message a missing or unloadable
// handler surfaces as, per the invoker's HandlerLoadError contract.
func ErrNotFound(name string) error {
	return fmt.Errorf("handler: %q is not registered: %w", name, loom.ErrHandlerNotFound)
}
