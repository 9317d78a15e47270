// Package middleware provides composable middleware for task handler
// invocation.
//
// A [Middleware] is a function that wraps a handler call. Middleware are
// composed into a chain using [Chain] and applied around every dispatched
// task. They are applied right-to-left: the first middleware in the slice
// is the outermost wrapper.
//
//	// logging → recover → handler
//	chain := middleware.Chain(middleware.Logging(logger), middleware.Recover(logger))
//
// # Built-in Middleware
//
//   - [Logging] — logs instance id, task name, duration, and outcome
//   - [Recover] — catches panics and converts them to errors
//   - [Tracing] — wraps execution in an OpenTelemetry span
//   - [Metrics] — records per-task duration and outcome counters
//
// # Writing Custom Middleware
//
//	func MyMiddleware() middleware.Middleware {
//	    return func(ctx context.Context, instanceID, taskName string, next middleware.Handler) error {
//	        err := next(ctx)
//	        return err
//	    }
//	}
//
// Middleware MUST call next to continue the chain unless intentionally
// short-circuiting.
package middleware
