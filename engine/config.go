package engine

import (
	"log/slog"

	"github.com/xraph/loom/ext"
	"github.com/xraph/loom/handler"
	"github.com/xraph/loom/middleware"
	"github.com/xraph/loom/store"
)

// Config holds the dependencies an Engine is built from. Construct one
// with DefaultConfig and apply Options, or use New directly.
type Config struct {
	// Store is the persistence backend. Required.
	Store store.Store

	// Logger is the base structured logger. If nil, New builds one
	// writing to os.Stderr at a level controlled by SetLogLevel.
	Logger *slog.Logger

	// Handlers is the registry task handlers are looked up in. If nil,
	// New creates an empty one; callers typically populate it via
	// WithHandler rather than reaching into Config directly.
	Handlers *handler.Registry

	// Extensions are registered with the engine's ext.Registry at
	// construction time, in the order given.
	Extensions []ext.Extension

	// Middleware is appended after the default chain (recover, tracing,
	// metrics, logging) around every handler invocation.
	Middleware []middleware.Middleware
}

// DefaultConfig returns a Config with an empty handler registry and no
// store. A store must still be supplied via WithStore before New
// succeeds.
func DefaultConfig() Config {
	return Config{
		Handlers: handler.NewRegistry(),
	}
}

// Option configures a Config.
type Option func(*Config)

// WithStore sets the persistence backend. Required.
func WithStore(s store.Store) Option {
	return func(c *Config) { c.Store = s }
}

// WithLogger sets the base structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// WithExtension registers a lifecycle extension.
func WithExtension(e ext.Extension) Option {
	return func(c *Config) { c.Extensions = append(c.Extensions, e) }
}

// WithMiddleware appends m to the handler invocation chain, after the
// default recover/tracing/metrics/logging stack.
func WithMiddleware(m middleware.Middleware) Option {
	return func(c *Config) { c.Middleware = append(c.Middleware, m) }
}

// WithHandler registers a task handler under name.
func WithHandler(name string, fn handler.Func) Option {
	return func(c *Config) {
		if c.Handlers == nil {
			c.Handlers = handler.NewRegistry()
		}
		c.Handlers.Register(name, fn)
	}
}

// WithHandlers sets the handler registry wholesale, replacing any
// handlers registered via WithHandler before this option runs.
func WithHandlers(r *handler.Registry) Option {
	return func(c *Config) { c.Handlers = r }
}
