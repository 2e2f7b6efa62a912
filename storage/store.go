// Package storage defines the quad store contract shared by the memory,
// badger, sqlite and NATS KV backends, and the metrics and tracing wrapper
// placed in front of them.
package storage

import (
	"context"

	"github.com/c360studio/semprov/graph"
)

// Backend names a store implementation.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendBadger Backend = "badger"
	BackendSQLite Backend = "sqlite"
	BackendNATS   Backend = "nats"
)

// Backends lists every supported backend.
func Backends() []Backend {
	return []Backend{BackendMemory, BackendBadger, BackendSQLite, BackendNATS}
}

// Valid reports whether b is a known backend.
func (b Backend) Valid() bool {
	for _, known := range Backends() {
		if b == known {
			return true
		}
	}
	return false
}

// Store is a quad store that can be loaded and queried.
//
// Match must yield quads in a stable order: two identical queries against an
// unchanged store return the same sequence. Adding a quad that is already
// present is a no-op.
type Store interface {
	graph.Source
	Add(ctx context.Context, quads ...graph.Quad) error
	Close() error
}
