package handler

import (
	"context"
	"log/slog"

	"github.com/xraph/loom/middleware"
	"github.com/xraph/loom/tree"
)

// Invoker resolves a handler by name from a Registry and calls it under a
// middleware chain (recover, logging, tracing, metrics, or any caller
// supplied set). A missing or unloadable handler is reported synchronously
// via the returned error rather than through the Done callback, since the
// task never actually starts executing.
type Invoker struct {
	registry *Registry
	chain    middleware.Middleware
	logger   *slog.Logger
}

// NewInvoker returns an Invoker over registry, wrapping every call in the
// given middleware chain (right-to-left, outermost first — see
// middleware.Chain).
func NewInvoker(registry *Registry, logger *slog.Logger, mws ...middleware.Middleware) *Invoker {
	if logger == nil {
		logger = slog.Default()
	}

	return &Invoker{
		registry: registry,
		chain:    middleware.Chain(mws...),
		logger:   logger,
	}
}

// Invoke resolves task.Handler and calls it, blocking until the handler
// reports completion via its Done callback (or the middleware chain
// returns first, e.g. on panic recovery). It returns the task's final
// error, if any; the handler's mutations are applied to task in place.
func (inv *Invoker) Invoke(ctx context.Context, instanceID string, taskName string, task *tree.Task) error {
	fn, ok := inv.registry.Get(task.Handler)
	if !ok {
		return ErrNotFound(task.Handler)
	}

	result := make(chan error, 1)

	return inv.chain(ctx, instanceID, taskName, func(ctx context.Context) error {
		fn(ctx, instanceID, taskName, task, func(err error, t *tree.Task) {
			*task = *t
			result <- err
		})

		return <-result
	})
}
