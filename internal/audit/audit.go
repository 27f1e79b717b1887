// Package audit keeps an append-only trail of state-changing operations on
// the identity, record, and consent registries. The trail is observability
// data only: it is never consulted for correctness, and a failed append must
// not fail the operation that produced it.
package audit

import (
	"context"
	"sync"
	"time"
)

// Entry is one audit record. Entries are never mutated or deleted.
type Entry struct {
	Timestamp time.Time         `json:"timestamp"`
	Action    string            `json:"action"`
	Details   map[string]string `json:"details"`
}

// Trail is an append-only audit log.
type Trail interface {
	Append(ctx context.Context, action string, details map[string]string) error
}

// MemoryTrail is an in-process Trail that also supports reading entries back,
// for reports and tests.
type MemoryTrail struct {
	mu      sync.Mutex
	entries []Entry
}

func NewMemoryTrail() *MemoryTrail {
	return &MemoryTrail{}
}

func (t *MemoryTrail) Append(ctx context.Context, action string, details map[string]string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	copied := make(map[string]string, len(details))
	for k, v := range details {
		copied[k] = v
	}
	t.entries = append(t.entries, Entry{
		Timestamp: time.Now(),
		Action:    action,
		Details:   copied,
	})
	return nil
}

// Entries returns a snapshot of the trail in append order.
func (t *MemoryTrail) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Discard is a Trail that drops everything. Used where auditing is disabled.
type Discard struct{}

func (Discard) Append(ctx context.Context, action string, details map[string]string) error {
	return nil
}
