// Package store persists graph documents by name.
//
// A document is an encoded diffgraph.GraphSnapshot. SaveGraph and LoadGraph
// handle the encoding; the Store implementations only see bytes.
package store

import (
	"errors"
	"time"
)

// Store persists named graph documents.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save stores a document, replacing any previous one with the same name
	// and bumping its revision.
	Save(name string, data []byte) error

	// Load retrieves a document.
	// Returns ErrNotFound if the name is unknown.
	Load(name string) ([]byte, error)

	// List returns metadata for every document, ordered by name.
	// Returns an empty slice (not error) if the store is empty.
	List() ([]Info, error)

	// Delete removes a document.
	// Returns nil if the name is unknown.
	Delete(name string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Info describes a stored document without loading it.
type Info struct {
	Name      string    `json:"name" yaml:"name"`
	Revision  int       `json:"revision" yaml:"revision"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Size      int64     `json:"size" yaml:"size"`
}

// Sentinel errors for store operations.
var (
	// ErrNotFound indicates a document doesn't exist.
	ErrNotFound = errors.New("graph document not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("graph store closed")

	// ErrInvalidName indicates an empty document name.
	ErrInvalidName = errors.New("graph document name cannot be empty")
)
