package ledger

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/preshare/internal/common"
)

// MemoryLedger is a mutex-guarded in-memory Ledger. It backs unit tests and
// single-process demo runs.
type MemoryLedger struct {
	mu sync.Mutex
	m  map[string][]byte
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{m: make(map[string][]byte)}
}

func (l *MemoryLedger) PutIfAbsent(ctx context.Context, key string, value []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.m[key]; ok {
		return common.ErrAlreadyExists
	}
	l.m[key] = append([]byte(nil), value...)
	return nil
}

func (l *MemoryLedger) Get(ctx context.Context, key string) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.m[key]
	if !ok {
		return nil, common.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (l *MemoryLedger) Update(ctx context.Context, key string, fn UpdateFunc) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	cur, ok := l.m[key]
	if !ok {
		return common.ErrNotFound
	}

	next, err := fn(append([]byte(nil), cur...))
	if err != nil {
		return err
	}
	l.m[key] = append([]byte(nil), next...)
	return nil
}

func (l *MemoryLedger) Close() error {
	return nil
}
