// Package builtin provides minimal demonstration handlers used by the
// engine's own test suite: Log, a structured-logging sink, and Test, a
// configurable success/error/pause simulator exercising the scheduler's
// scenario table. Concrete handler implementations for real side effects
// (shell exec, file I/O, nested-workflow launch) are out of scope.
package builtin

import (
	"context"
	"log/slog"

	"github.com/xraph/loom/handler"
	"github.com/xraph/loom/tree"
)

// Log writes task.Parameters["log"] to slog at the level named by
// task.Parameters["level"] (default info).
func Log(ctx context.Context, _ string, taskName string, task *tree.Task, done handler.Done) {
	msg, _ := task.Parameters["log"].(string)
	level, _ := task.Parameters["level"].(string)

	logger := slog.Default()
	switch level {
	case "debug":
		logger.Debug(msg, slog.String("task", taskName))
	case "warn":
		logger.Warn(msg, slog.String("task", taskName))
	case "error":
		logger.Error(msg, slog.String("task", taskName))
	default:
		logger.Info(msg, slog.String("task", taskName))
	}

	done(nil, task)
}

// Test is a configurable handler for exercising the scheduler under test:
//
//   - parameters.error: true  → reports a handler error.
//   - parameters.paused: true → sets status to paused instead of
//     completing, simulating a wait on an external event.
//
// Neither flag set → reports success.
func Test(ctx context.Context, _ string, _ string, task *tree.Task, done handler.Done) {
	if wantErr, _ := task.Parameters["error"].(bool); wantErr {
		done(errTestHandler, task)

		return
	}

	if paused, _ := task.Parameters["paused"].(bool); paused {
		task.Status = tree.TaskPaused
		done(nil, task)

		return
	}

	done(nil, task)
}

var errTestHandler = testError("test handler reported an error")

type testError string

func (e testError) Error() string { return string(e) }
