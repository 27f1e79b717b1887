// Package common defines shared helpers and sentinel errors used across
// preshare components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Registry-level errors.
	ErrAlreadyExists = errors.New("already exists")
	ErrNotFound      = errors.New("not found")

	// Consent state machine errors. A transition attempted from a state
	// that does not satisfy its precondition fails with
	// ErrPreconditionFailed and leaves the entry untouched.
	ErrPreconditionFailed = errors.New("precondition failed")

	// Integrity and cryptographic failures. Both are fatal for the
	// transaction that hit them; retrieval must abort before decryption.
	ErrIntegrityMismatch  = errors.New("integrity mismatch")
	ErrVerificationFailed = errors.New("verification failed")

	// ErrUnavailable signals a content store or ledger outage. It is the
	// only retryable error kind; retrying is the orchestrator's job, the
	// core components never retry themselves.
	ErrUnavailable = errors.New("collaborator unavailable")

	ErrInternal = errors.New("internal error")
)
