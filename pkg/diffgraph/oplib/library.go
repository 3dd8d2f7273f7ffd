// Package oplib is a registry of named operations.
//
// A Library maps operation ids to *diffgraph.Operation values and satisfies
// diffgraph.OperationResolver, so graph snapshots that reference operations
// by id can be restored against it. Builtins returns a library preloaded
// with common arithmetic and activation operations.
package oplib

import (
	"fmt"
	"slices"
	"sync"

	"github.com/randalmurphal/diffgraph/pkg/diffgraph"
)

// Library is a thread-safe registry of operations indexed by id.
type Library struct {
	mu  sync.RWMutex
	ops map[string]*diffgraph.Operation
}

// Compile-time interface check.
var _ diffgraph.OperationResolver = (*Library)(nil)

// New creates an empty library.
func New() *Library {
	return &Library{ops: make(map[string]*diffgraph.Operation)}
}

// Register adds or replaces an operation under its own id.
func (l *Library) Register(op *diffgraph.Operation) error {
	if op == nil || op.ID() == "" {
		return fmt.Errorf("oplib: operation must have an id")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ops[op.ID()] = op
	return nil
}

// MustRegister registers op, panicking on error.
func (l *Library) MustRegister(op *diffgraph.Operation) {
	if err := l.Register(op); err != nil {
		panic(err)
	}
}

// Get returns the operation for id and whether it exists.
func (l *Library) Get(id string) (*diffgraph.Operation, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	op, ok := l.ops[id]
	return op, ok
}

// Lookup implements diffgraph.OperationResolver.
func (l *Library) Lookup(id string) (*diffgraph.Operation, error) {
	op, ok := l.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", diffgraph.ErrUnknownOperation, id)
	}
	return op, nil
}

// Has returns true if id is registered.
func (l *Library) Has(id string) bool {
	_, ok := l.Get(id)
	return ok
}

// Delete removes id from the library. Nodes already using the operation
// keep it.
func (l *Library) Delete(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.ops, id)
}

// IDs returns all registered ids, sorted.
func (l *Library) IDs() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := make([]string, 0, len(l.ops))
	for id := range l.ops {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Len returns the number of registered operations.
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.ops)
}
