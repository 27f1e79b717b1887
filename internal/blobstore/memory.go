package blobstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/preshare/internal/common"
)

// MemoryStore is an in-process content-addressed Store for tests and demo
// runs. Locators are derived from the content hash, mimicking CID behavior.
type MemoryStore struct {
	mu sync.RWMutex
	m  map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{m: make(map[string][]byte)}
}

func (s *MemoryStore) Upload(ctx context.Context, data []byte, kind ContentKind) (string, error) {
	locator := fmt.Sprintf("%s/%s", kind, common.HashHex(data))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[locator] = append([]byte(nil), data...)
	return locator, nil
}

func (s *MemoryStore) Download(ctx context.Context, locator string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.m[locator]
	if !ok {
		return nil, common.ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

// Corrupt flips one byte of a stored blob in place. Test hook for integrity
// failure scenarios.
func (s *MemoryStore) Corrupt(locator string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.m[locator]
	if !ok || len(data) == 0 {
		return false
	}
	data[len(data)-1] ^= 0x01
	return true
}
