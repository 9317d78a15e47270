package loom

import "context"

// Context is the execution context passed to handlers and store operations.
// It is a simple alias for context.Context; cancellation and deadlines
// propagate through the scheduler's batch dispatch into every handler
// invocation.
type Context = context.Context
