// Package loom provides a persistent, hierarchical workflow engine for Go.
//
// Loom executes user-authored workflow definitions — trees of named tasks —
// while persisting every transition so that an instance can be inspected,
// rewound to a prior save point, paused while waiting on an external event,
// and later resumed by injecting updated task state. It supports nested
// sub-workflows, conditional skip/error gates, inter-task data references,
// and pluggable task handlers.
//
// Loom is designed as a library, not a service. Import it, configure a
// store, register handlers, and drive execution through the Engine.
//
// # Quick Start
//
//	e, err := engine.New(
//	    engine.WithStore(memory.New()),
//	    engine.WithHandler("log", builtin.Log),
//	)
//	inst, err := e.Execute(ctx, &tree.WorkflowInstance{
//	    Name: "greet",
//	    Tasks: map[string]*tree.Task{
//	        "t1": {Handler: "log", Parameters: map[string]any{"log": "hi"}},
//	    },
//	})
//
// # Architecture
//
// Loom is layered leaves-first: tree (the task model), resolve (reference
// expansion), store (durable persistence), handler (pluggable side
// effects), scheduler (the batch state machine), and engine (the
// execute/update/get/list public API that ties them together).
//
// Instance IDs that the engine assigns are TypeIDs with the "wfi" prefix —
// type-prefixed, K-sortable, UUIDv7-based identifiers stored as strings.
// Definitions are keyed by name.
package loom
