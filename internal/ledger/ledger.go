// Package ledger defines the append-only, strongly-consistent key/value
// registry contract that the identity, record, and consent registries are
// built on, together with its backends: an in-memory map, an embedded badger
// store, and PostgreSQL.
//
// The contract is deliberately narrow: insert-if-absent, read, and an atomic
// per-key read-modify-write used for the explicit consent status
// transitions. There is no delete and no blind overwrite.
package ledger

import (
	"context"
	"strings"
)

// UpdateFunc receives the current value of a key and returns its replacement.
// Returning an error aborts the update and surfaces that error unchanged,
// with no side effects on the ledger.
type UpdateFunc func(current []byte) ([]byte, error)

// Ledger is a strongly-consistent key/value registry.
//
// Implementations must guarantee per-key atomicity: two concurrent
// PutIfAbsent calls on one key admit exactly one winner, and Update runs its
// callback under per-key serialization, so a losing racer observes the
// winner's state rather than overwriting it.
type Ledger interface {
	// PutIfAbsent inserts the key or fails with common.ErrAlreadyExists.
	PutIfAbsent(ctx context.Context, key string, value []byte) error

	// Get returns the value or common.ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Update atomically replaces the value of an existing key with the
	// result of fn. A missing key fails with common.ErrNotFound before fn
	// runs.
	Update(ctx context.Context, key string, fn UpdateFunc) error

	// Close releases backend resources.
	Close() error
}

// Key builds a namespaced ledger key from its parts.
func Key(parts ...string) string {
	return strings.Join(parts, "/")
}
