// Package memory provides a fully in-memory implementation of store.Store.
// Safe for concurrent access. Intended for unit testing and development,
// or any deployment where instance history does not need to survive a
// process restart.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xraph/loom"
	"github.com/xraph/loom/store"
	"github.com/xraph/loom/tree"
)

// Ensure Store implements store.Store at compile time.
var _ store.Store = (*Store)(nil)

// Store is a fully in-memory implementation of store.Store.
type Store struct {
	mu sync.RWMutex

	definitions map[string]*store.Definition
	current     map[string]*tree.WorkflowInstance
	history     map[string][]historyEntry // keyed by instance id, chronological
}

type historyEntry struct {
	savedAt  time.Time
	instance *tree.WorkflowInstance
}

// New returns a new empty Store.
func New() *Store {
	return &Store{
		definitions: make(map[string]*store.Definition),
		current:     make(map[string]*tree.WorkflowInstance),
		history:     make(map[string][]historyEntry),
	}
}

// InitStore is a no-op for the memory store.
func (s *Store) InitStore(_ context.Context) error { return nil }

// ExitStore is a no-op for the memory store.
func (s *Store) ExitStore(_ context.Context) error { return nil }

// SaveDefinition upserts def by name.
func (s *Store) SaveDefinition(_ context.Context, def *store.Definition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *def
	s.definitions[def.Name] = &cp

	return nil
}

// GetDefinition returns the definition named name.
func (s *Store) GetDefinition(_ context.Context, name string) (*store.Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	def, ok := s.definitions[name]
	if !ok {
		return nil, loom.ErrDefinitionNotFound
	}

	cp := *def

	return &cp, nil
}

// DeleteDefinition removes the definition named name.
func (s *Store) DeleteDefinition(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.definitions[name]; !ok {
		return loom.ErrDefinitionNotFound
	}

	delete(s.definitions, name)

	return nil
}

// SaveInstance writes inst as the new current record and appends a
// historical snapshot of it, so history length always equals the number
// of SaveInstance calls for id (§3 invariant 7).
func (s *Store) SaveInstance(_ context.Context, inst *tree.WorkflowInstance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp, err := tree.Clone(inst)
	if err != nil {
		return err
	}
	s.current[inst.ID] = cp

	histCp, err := tree.Clone(inst)
	if err != nil {
		return err
	}
	s.history[inst.ID] = append(s.history[inst.ID], historyEntry{savedAt: time.Now().UTC(), instance: histCp})

	return nil
}

// LoadInstance returns the current record when rewind is 0, or the
// historical record at len(history)-rewind (clamped to the oldest).
func (s *Store) LoadInstance(_ context.Context, id string, rewind int) (*tree.WorkflowInstance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if rewind <= 0 {
		cur, ok := s.current[id]
		if !ok {
			return nil, loom.ErrInstanceNotFound
		}

		cp := *cur

		return &cp, nil
	}

	hist := s.history[id]
	if len(hist) == 0 {
		cur, ok := s.current[id]
		if !ok {
			return nil, loom.ErrInstanceNotFound
		}

		cp := *cur

		return &cp, nil
	}

	idx := len(hist) - rewind - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(hist) {
		idx = len(hist) - 1
	}

	cp := *hist[idx].instance

	return &cp, nil
}

// DeleteInstance removes id's current record and every historical record.
func (s *Store) DeleteInstance(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.current[id]; !ok {
		return loom.ErrInstanceNotFound
	}

	delete(s.current, id)
	delete(s.history, id)

	return nil
}

// DeleteAll removes every instance and its history, leaving definitions
// intact.
func (s *Store) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = make(map[string]*tree.WorkflowInstance)
	s.history = make(map[string][]historyEntry)

	return nil
}

// GetWorkflows returns current instances matching q.
func (s *Store) GetWorkflows(_ context.Context, q store.Query) ([]*tree.WorkflowInstance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*tree.WorkflowInstance, 0, len(s.current))
	for _, inst := range s.current {
		if q.Name != "" && inst.Name != q.Name {
			continue
		}
		if q.Status != "" && inst.Status != q.Status {
			continue
		}

		cp := *inst
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}

	return out, nil
}

// HistoryLen reports how many historical save points exist for id. It is
// exported for tests that verify invariant 3 (history growth equals the
// number of SaveInstance calls).
func (s *Store) HistoryLen(id string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.history[id])
}
