// Package engine is the public API of loom: it wires the tree, resolve,
// store, handler, middleware, scheduler, and ext packages together into a
// single Execute/Update/Get/List/Delete surface. See doc.go for an
// overview and examples.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	loom "github.com/xraph/loom"
	"github.com/xraph/loom/ext"
	"github.com/xraph/loom/handler"
	"github.com/xraph/loom/id"
	"github.com/xraph/loom/middleware"
	"github.com/xraph/loom/scheduler"
	"github.com/xraph/loom/store"
	"github.com/xraph/loom/tree"
)

// Engine is the single entry point for running and inspecting workflow
// instances. Build one with New.
type Engine struct {
	store      store.Store
	scheduler  *scheduler.Scheduler
	extensions *ext.Registry
	logger     *slog.Logger
	levelVar   *slog.LevelVar
	locks      *instanceLocks
}

// New builds an Engine from the given options. A store is required;
// everything else has a usable default.
func New(opts ...Option) (*Engine, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.Store == nil {
		return nil, loom.ErrNoStore
	}

	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelInfo)

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: levelVar}))
	}

	extensions := ext.NewRegistry(logger)
	for _, e := range cfg.Extensions {
		extensions.Register(e)
	}

	handlers := cfg.Handlers
	if handlers == nil {
		handlers = handler.NewRegistry()
	}

	defaultMws := []middleware.Middleware{
		middleware.Recover(logger),
		middleware.Tracing(),
		middleware.Metrics(),
		middleware.Logging(logger),
	}
	allMws := make([]middleware.Middleware, 0, len(defaultMws)+len(cfg.Middleware))
	allMws = append(allMws, defaultMws...)
	allMws = append(allMws, cfg.Middleware...)

	inv := handler.NewInvoker(handlers, logger, allMws...)
	sched := scheduler.New(cfg.Store, inv, logger)
	sched.Extensions = extensions

	return &Engine{
		store:      cfg.Store,
		scheduler:  sched,
		extensions: extensions,
		logger:     logger,
		levelVar:   levelVar,
		locks:      newInstanceLocks(),
	}, nil
}

// Init prepares the underlying store. Idempotent.
func (e *Engine) Init(ctx context.Context) error {
	return e.store.InitStore(ctx)
}

// Close notifies Shutdown extensions, then releases the underlying
// store's resources. The store release is idempotent.
func (e *Engine) Close(ctx context.Context) error {
	e.extensions.EmitShutdown(ctx)

	return e.store.ExitStore(ctx)
}

// Extensions returns the engine's extension registry, for callers that
// want to register extensions after construction.
func (e *Engine) Extensions() *ext.Registry { return e.extensions }

// Execute runs inst to completion, pause, or error (§4.F): clone,
// environment snapshot, id assignment, validation, pre workflow, the
// scheduler loop, then post workflow. The returned instance is always
// the final state reached, even on error.
func (e *Engine) Execute(ctx context.Context, inst *tree.WorkflowInstance) (*tree.WorkflowInstance, error) {
	cloned, err := tree.Clone(inst)
	if err != nil {
		return nil, fmt.Errorf("engine: clone instance: %w", err)
	}

	cloned.Environment = snapshotEnvironment()

	if cloned.ID == "" {
		cloned.ID = id.New(id.PrefixInstance).String()
	}

	e.locks.Lock(cloned.ID)
	defer e.locks.Unlock(cloned.ID)

	return e.execute(ctx, cloned)
}

// execute is Execute's core, called both directly (already holding
// cloned's lock) and by Update (already holding instanceID's lock).
func (e *Engine) execute(ctx context.Context, inst *tree.WorkflowInstance) (*tree.WorkflowInstance, error) {
	tree.Validate(inst)

	start := time.Now()
	e.extensions.EmitInstanceStarted(ctx, inst)

	if inst.PreWorkflow != nil {
		if err := e.scheduler.RunBoundary(ctx, inst.ID, inst, inst.PreWorkflow); err != nil {
			e.logger.Warn("engine: pre workflow failed",
				slog.String("instance_id", inst.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	result, runErr := e.scheduler.Run(ctx, inst)

	// The scheduler sets Status to InstanceError before returning a batch
	// failure; any other non-nil error reaching here means a store save
	// failed before a terminal status could be recorded, which we treat
	// as a hard failure that skips post workflow entirely.
	hardFailure := runErr != nil && result.Status != tree.InstanceError
	if hardFailure {
		e.extensions.EmitInstanceFailed(ctx, result, runErr)

		return result, runErr
	}

	if result.PostWorkflow != nil && !tree.AnyPaused(result.Order, result.Tasks) {
		if postErr := e.scheduler.RunBoundary(ctx, result.ID, result, result.PostWorkflow); postErr != nil {
			e.logger.Warn("engine: post workflow failed",
				slog.String("instance_id", result.ID),
				slog.String("error", postErr.Error()),
			)

			if runErr == nil {
				runErr = postErr
			}
		}

		if saveErr := e.store.SaveInstance(ctx, result); saveErr != nil {
			return result, saveErr
		}
	}

	switch {
	case runErr != nil:
		e.extensions.EmitInstanceFailed(ctx, result, runErr)
	case tree.AnyPaused(result.Order, result.Tasks):
		e.extensions.EmitInstancePaused(ctx, result)
	case result.Status == tree.InstanceCompleted:
		e.extensions.EmitInstanceCompleted(ctx, result, time.Since(start))
	}

	return result, runErr
}

// Update implements the injection-merge-and-resume protocol (§4.F
// "update"): load the current instance, fail if it is already completed,
// merge each named patch onto the first matching task in the tree
// (depth-first, insertion order; unmatched names are silently ignored),
// then re-enter execute.
func (e *Engine) Update(ctx context.Context, instanceID string, tasks map[string]*tree.Task) (*tree.WorkflowInstance, error) {
	if instanceID == "" {
		return nil, loom.ErrEmptyInjectionID
	}

	e.locks.Lock(instanceID)
	defer e.locks.Unlock(instanceID)

	inst, err := e.store.LoadInstance(ctx, instanceID, 0)
	if err != nil {
		return nil, err
	}

	if inst.Status == tree.InstanceCompleted {
		return inst, loom.ErrAlreadyCompleted
	}

	for name, patch := range tasks {
		target, _, found := tree.Find(inst.Order, inst.Tasks, name)
		if !found {
			continue
		}

		mergeTask(target, patch)
	}

	e.extensions.EmitInstanceUpdated(ctx, inst)

	return e.execute(ctx, inst)
}

// Get returns the instance at the given save point. rewind 0 is the
// current record; rewind k returns the (N-k)th historical record,
// clamped to the oldest.
func (e *Engine) Get(ctx context.Context, instanceID string, rewind int) (*tree.WorkflowInstance, error) {
	return e.store.LoadInstance(ctx, instanceID, rewind)
}

// List returns instances matching q. Backends that cannot support
// ad-hoc queries fail with loom.ErrCapabilityUnsupported.
func (e *Engine) List(ctx context.Context, q store.Query) ([]*tree.WorkflowInstance, error) {
	return e.store.GetWorkflows(ctx, q)
}

// Delete removes an instance and its full history.
func (e *Engine) Delete(ctx context.Context, instanceID string) error {
	return e.store.DeleteInstance(ctx, instanceID)
}

// DeleteAll removes every instance and its history, leaving definitions
// intact.
func (e *Engine) DeleteAll(ctx context.Context) error {
	return e.store.DeleteAll(ctx)
}

// SaveDefinition upserts def by name.
func (e *Engine) SaveDefinition(ctx context.Context, def *store.Definition) error {
	return e.store.SaveDefinition(ctx, def)
}

// GetDefinition returns a definition or loom.ErrDefinitionNotFound.
func (e *Engine) GetDefinition(ctx context.Context, name string) (*store.Definition, error) {
	return e.store.GetDefinition(ctx, name)
}

// DeleteDefinition removes a definition by name.
func (e *Engine) DeleteDefinition(ctx context.Context, name string) error {
	return e.store.DeleteDefinition(ctx, name)
}

// snapshotEnvironment parses os.Environ() into a map, split on the first
// "=" in each entry.
func snapshotEnvironment() map[string]string {
	entries := os.Environ()
	env := make(map[string]string, len(entries))

	for _, e := range entries {
		k, v, ok := strings.Cut(e, "=")
		if !ok {
			continue
		}

		env[k] = v
	}

	return env
}

// IsAlreadyCompleted reports whether err is (or wraps) loom.ErrAlreadyCompleted.
func IsAlreadyCompleted(err error) bool {
	return errors.Is(err, loom.ErrAlreadyCompleted)
}
