// Package engine is the public API of loom: it wires the tree, resolve,
// store, handler, middleware, scheduler, and ext packages together into a
// single Execute/Update/Get/List/Delete surface.
//
// # Building an Engine
//
//	eng, err := engine.New(
//	    engine.WithStore(memory.New()),
//	    engine.WithLogger(logger),
//	    engine.WithExtension(audit.New(recorder)),
//	    engine.WithExtension(observability.NewMetricsExtension()),
//	    engine.WithHandler("log", builtin.Log),
//	)
//
// # Running a workflow
//
//	final, err := eng.Execute(ctx, &tree.WorkflowInstance{
//	    Name:  "order-flow",
//	    Tasks: def.Tasks,
//	    Order: def.Order,
//	})
//
// # Resuming a paused task
//
//	final, err := eng.Update(ctx, final.ID, map[string]*tree.Task{
//	    "approve-order": {Status: tree.TaskExecuting, Parameters: map[string]any{"approved": true}},
//	})
//
// # Options
//
//   - [WithStore] — the persistence backend (required)
//   - [WithLogger] — structured logger; defaults to a level-controlled slog.Logger
//   - [WithExtension] — register a lifecycle extension (audit, observability, ...)
//   - [WithMiddleware] — add to the handler invocation chain
//   - [WithHandler] — register a task handler by id
package engine
