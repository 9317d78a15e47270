// Package file provides a directory-based implementation of store.Store.
// Definitions are written as "<name>.def"; the current record for an
// instance is written as "<id>"; each save point also archives the
// just-saved record as "<id>_<epoch-ms>", so every save leaves one more
// historical record behind. Because save points sort lexicographically
// by epoch millisecond, directory listing order equals chronological
// order — no separate index file is required. Instance files are told
// apart from definition files solely by the absence of a ".def"
// extension.
package file

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xraph/loom"
	"github.com/xraph/loom/store"
	"github.com/xraph/loom/tree"
)

const defExt = ".def"

// Ensure Store implements store.Store at compile time.
var _ store.Store = (*Store)(nil)

// Store is a directory-backed implementation of store.Store. A single
// Store must not be shared across processes without external locking;
// within one process it serializes all access with an internal mutex.
type Store struct {
	mu  sync.Mutex
	dir string
}

// New returns a Store rooted at dir. InitStore creates dir if it does not
// already exist.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// InitStore creates the backing directory if necessary.
func (s *Store) InitStore(_ context.Context) error {
	return os.MkdirAll(s.dir, 0o755)
}

// ExitStore is a no-op for the file store; there is no connection to
// release.
func (s *Store) ExitStore(_ context.Context) error { return nil }

func (s *Store) defPath(name string) string {
	return filepath.Join(s.dir, name+defExt)
}

func (s *Store) instancePath(id string) string {
	return filepath.Join(s.dir, id)
}

func (s *Store) savePointPath(id string, at time.Time) string {
	return filepath.Join(s.dir, id+"_"+strconv.FormatInt(at.UnixMilli(), 10))
}

// SaveDefinition writes def as "<name>.def".
func (s *Store) SaveDefinition(_ context.Context, def *store.Definition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(def, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.defPath(def.Name), data, 0o644)
}

// GetDefinition reads "<name>.def".
func (s *Store) GetDefinition(_ context.Context, name string) (*store.Definition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.defPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, loom.ErrDefinitionNotFound
		}

		return nil, err
	}

	def := &store.Definition{}
	if err := json.Unmarshal(data, def); err != nil {
		return nil, err
	}

	return def, nil
}

// DeleteDefinition removes "<name>.def".
func (s *Store) DeleteDefinition(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.defPath(name)); err != nil {
		if os.IsNotExist(err) {
			return loom.ErrDefinitionNotFound
		}

		return err
	}

	return nil
}

// SaveInstance writes inst as the new "<id>" file and archives a
// historical snapshot of it as "<id>_<epoch-ms>", so history length
// always equals the number of SaveInstance calls for id (§3 invariant
// 7), including the first.
func (s *Store) SaveInstance(_ context.Context, inst *tree.WorkflowInstance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(inst, "", "  ")
	if err != nil {
		return err
	}

	path := s.savePointPath(inst.ID, time.Now().UTC())

	// Two saves landing in the same millisecond would otherwise overwrite
	// one history entry with another; disambiguate with a short uuid
	// suffix rather than lose a save point.
	if _, err := os.Stat(path); err == nil {
		path += "-" + uuid.NewString()[:8]
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}

	return os.WriteFile(s.instancePath(inst.ID), data, 0o644)
}

// LoadInstance returns the current record when rewind is 0, or the
// historical record at len(history)-rewind (clamped to the oldest),
// determined by lexicographically sorting "<id>_*" files.
func (s *Store) LoadInstance(_ context.Context, id string, rewind int) (*tree.WorkflowInstance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rewind <= 0 {
		return s.readInstanceFile(s.instancePath(id))
	}

	points, err := s.savePoints(id)
	if err != nil {
		return nil, err
	}

	if len(points) == 0 {
		return s.readInstanceFile(s.instancePath(id))
	}

	idx := len(points) - rewind - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(points) {
		idx = len(points) - 1
	}

	return s.readInstanceFile(filepath.Join(s.dir, points[idx]))
}

func (s *Store) readInstanceFile(path string) (*tree.WorkflowInstance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, loom.ErrInstanceNotFound
		}

		return nil, err
	}

	inst := &tree.WorkflowInstance{}
	if err := json.Unmarshal(data, inst); err != nil {
		return nil, err
	}

	return inst, nil
}

// savePoints returns the sorted (chronological, since epoch-ms suffixes
// sort lexicographically) list of "<id>_<epoch-ms>" file names for id.
func (s *Store) savePoints(id string) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	prefix := id + "_"

	var points []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasPrefix(e.Name(), prefix) {
			points = append(points, e.Name())
		}
	}

	sort.Strings(points)

	return points, nil
}

// DeleteInstance removes id's current file and every save point.
func (s *Store) DeleteInstance(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.instancePath(id)
	if _, err := os.Stat(cur); err != nil {
		if os.IsNotExist(err) {
			return loom.ErrInstanceNotFound
		}

		return err
	}

	if err := os.Remove(cur); err != nil {
		return err
	}

	points, err := s.savePoints(id)
	if err != nil {
		return err
	}

	for _, p := range points {
		if err := os.Remove(filepath.Join(s.dir, p)); err != nil {
			return err
		}
	}

	return nil
}

// DeleteAll removes every instance and history file, leaving "*.def"
// files untouched.
func (s *Store) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}

	for _, e := range entries {
		if e.IsDir() || strings.HasSuffix(e.Name(), defExt) {
			continue
		}

		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil {
			return err
		}
	}

	return nil
}

// GetWorkflows is unsupported by the file backend: listing current
// instances would require reading and unmarshaling every non-".def" file
// in the directory on every call, and the file layout carries no index of
// definition name or status to filter on cheaply.
func (s *Store) GetWorkflows(_ context.Context, _ store.Query) ([]*tree.WorkflowInstance, error) {
	return nil, loom.ErrCapabilityUnsupported
}
