package middleware

import (
	"context"
	"log/slog"
	"time"
)

// Logging returns middleware that logs task start and completion.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, instanceID string, taskName string, next Handler) error {
		logger.Info("task started",
			slog.String("instance_id", instanceID),
			slog.String("task_name", taskName),
		)

		start := time.Now()
		err := next(ctx)
		elapsed := time.Since(start)

		if err != nil {
			logger.Error("task failed",
				slog.String("instance_id", instanceID),
				slog.String("task_name", taskName),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("task completed",
				slog.String("instance_id", instanceID),
				slog.String("task_name", taskName),
				slog.Duration("elapsed", elapsed),
			)
		}

		return err
	}
}
