// Package store defines the aggregate persistence interface for
// definitions, instances, and instance history.
//
// # Available Backends
//
//   - store/memory — in-memory store for development and testing
//   - store/file   — directory-based backend, one file per save point
//   - store/mongo  — document-style backend (MongoDB)
//
// # Usage
//
//	import "github.com/xraph/loom/store/file"
//
//	s := file.New("_data")
//	defer s.ExitStore(ctx)
//
//	e, err := engine.New(engine.WithStore(s))
//
// # Initialization
//
// Call InitStore once at startup before any other operation:
//
//	if err := s.InitStore(ctx); err != nil {
//	    log.Fatal(err)
//	}
package store
