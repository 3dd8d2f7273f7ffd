package store

import (
	"slices"
	"strings"
	"sync"
	"time"
)

// MemoryStore keeps documents in memory. Data is lost when the process exits.
type MemoryStore struct {
	mu     sync.RWMutex
	docs   map[string]storedDoc
	closed bool
}

type storedDoc struct {
	data      []byte
	revision  int
	timestamp time.Time
}

// Compile-time interface check.
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]storedDoc)}
}

// Save implements Store.
func (m *MemoryStore) Save(name string, data []byte) error {
	if name == "" {
		return ErrInvalidName
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	// Copy data to avoid retaining caller's slice
	m.docs[name] = storedDoc{
		data:      slices.Clone(data),
		revision:  m.docs[name].revision + 1,
		timestamp: time.Now().UTC(),
	}
	return nil
}

// Load implements Store.
func (m *MemoryStore) Load(name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}
	doc, ok := m.docs[name]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(doc.data), nil
}

// List implements Store.
func (m *MemoryStore) List() ([]Info, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	infos := make([]Info, 0, len(m.docs))
	for name, doc := range m.docs {
		infos = append(infos, Info{
			Name:      name,
			Revision:  doc.revision,
			Timestamp: doc.timestamp,
			Size:      int64(len(doc.data)),
		})
	}
	slices.SortFunc(infos, func(a, b Info) int { return strings.Compare(a.Name, b.Name) })
	return infos, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	delete(m.docs, name)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.docs = nil
	return nil
}
