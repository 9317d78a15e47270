package middleware

import "context"

// Handler is the terminal function that invokes a task's handler.
type Handler func(ctx context.Context) error

// Middleware wraps a Handler with cross-cutting logic. It receives the
// current context, the enclosing instance id and task name, and the next
// handler to call. Middleware MUST call next to continue the chain unless
// intentionally short-circuiting.
type Middleware func(ctx context.Context, instanceID string, taskName string, next Handler) error

// Chain composes multiple middleware into a single Middleware. Middleware
// are applied right-to-left: the first middleware in the list is the
// outermost wrapper.
//
// Example: Chain(logging, recover) executes as:
//
//	logging → recover → handler
func Chain(mws ...Middleware) Middleware {
	return func(ctx context.Context, instanceID string, taskName string, next Handler) error {
		h := next
		for i := len(mws) - 1; i >= 0; i-- {
			mw := mws[i]
			prev := h
			h = func(ctx context.Context) error {
				return mw(ctx, instanceID, taskName, prev)
			}
		}

		return h(ctx)
	}
}
