package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
)

// Recover returns middleware that recovers from panics in the handler
// chain. Panics are converted to errors and logged with a stack trace,
// surfacing as an ordinary HandlerReportedError to the scheduler.
func Recover(logger *slog.Logger) Middleware {
	return func(ctx context.Context, instanceID string, taskName string, next Handler) (retErr error) {
		defer func() {
			if r := recover(); r != nil {
				stack := string(debug.Stack())
				logger.Error("task handler panicked",
					slog.String("instance_id", instanceID),
					slog.String("task_name", taskName),
					slog.Any("panic", r),
					slog.String("stack", stack),
				)
				retErr = fmt.Errorf("panic in task %s: %v", taskName, r)
			}
		}()

		return next(ctx)
	}
}
