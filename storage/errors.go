package storage

import "errors"

// Common storage errors.
var (
	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store closed")

	// ErrUnknownBackend is returned when a configured backend does not exist.
	ErrUnknownBackend = errors.New("unknown storage backend")
)
