// Package blobstore adapts an IPFS-like content-addressed store to the
// sharing protocol: opaque byte blobs go in, content-derived locators come
// out. The protocol stores only ciphertext and re-encrypted fragments here
// (plus an optional plaintext copy for comparison runs); the retained
// original capsule never reaches the store.
//
// The store itself is untrusted: a locator says nothing about integrity, and
// locator equality must not be read as content equality (or the reverse).
// Every downloaded blob is hash-verified by the caller against the hash
// recorded in the record or consent registry before use.
package blobstore

import "context"

// ContentKind labels a blob for storage-layer bookkeeping. It has no effect
// on cryptographic handling.
type ContentKind string

const (
	KindPlaintext  ContentKind = "plaintext"
	KindCiphertext ContentKind = "ciphertext"
	KindFragment   ContentKind = "fragment"
)

// Store uploads and downloads opaque blobs by locator.
type Store interface {
	// Upload persists data and returns its locator. Upload is
	// idempotent-safe but not guaranteed idempotent.
	Upload(ctx context.Context, data []byte, kind ContentKind) (string, error)

	// Download returns the blob bytes, common.ErrNotFound for an unknown
	// locator, or common.ErrUnavailable for a transport failure.
	Download(ctx context.Context, locator string) ([]byte, error)
}
