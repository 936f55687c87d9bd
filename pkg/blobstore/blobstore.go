// Package blobstore provides a keyed blob store abstraction with
// interchangeable drivers.
//
// The store models origin-scoped browser storage: a flat namespace of keys,
// each holding one opaque JSON-serialized value that is read and written
// whole. Callers own disjoint keys and never interleave writes to each
// other's keys.
package blobstore

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned by Get when no value exists under the key.
var ErrNotFound = errors.New("blob not found")

// Store is a durable keyed blob store.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes the value under key. Deleting an absent key is not
	// an error.
	Delete(ctx context.Context, key string) error
}

// Pinger is implemented by drivers that can verify connectivity. The health
// service uses it as a readiness check when available.
type Pinger interface {
	Ping(ctx context.Context) error
}
