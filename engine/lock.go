package engine

import "sync"

// instanceLocks serializes Execute/Update calls per instance id (§5: "two
// concurrent executions of the same instance id are not supported"). Each
// id gets its own *sync.Mutex, created on first use and never removed —
// the expected cardinality (distinct running instance ids) is bounded by
// what a single process can reasonably hold in memory at once.
type instanceLocks struct {
	mu    sync.Mutex
	perID map[string]*sync.Mutex
}

func newInstanceLocks() *instanceLocks {
	return &instanceLocks{perID: make(map[string]*sync.Mutex)}
}

func (l *instanceLocks) Lock(id string) {
	l.mu.Lock()
	m, ok := l.perID[id]
	if !ok {
		m = &sync.Mutex{}
		l.perID[id] = m
	}
	l.mu.Unlock()

	m.Lock()
}

func (l *instanceLocks) Unlock(id string) {
	l.mu.Lock()
	m := l.perID[id]
	l.mu.Unlock()

	if m != nil {
		m.Unlock()
	}
}
