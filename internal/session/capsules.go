package session

import (
	"sync"

	"github.com/dmitrijs2005/preshare/internal/common"
	"github.com/dmitrijs2005/preshare/internal/pre"
)

// capsuleCache retains the original capsule of each encrypted record for the
// lifetime of one sharing transaction. The original capsule is secret-adjacent:
// persisting it to the content store would let fragment reconstruction bypass
// consent, so it stays in this process and is evicted when the transaction
// completes or aborts.
type capsuleCache struct {
	mu sync.Mutex
	m  map[string][]byte
}

func newCapsuleCache() *capsuleCache {
	return &capsuleCache{m: make(map[string][]byte)}
}

func (c *capsuleCache) put(recordID string, capsule *pre.Capsule) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[recordID] = capsule.Bytes()
}

func (c *capsuleCache) get(recordID string) (*pre.Capsule, error) {
	c.mu.Lock()
	raw, ok := c.m[recordID]
	c.mu.Unlock()

	if !ok {
		return nil, common.ErrNotFound
	}
	return pre.ParseCapsule(raw)
}

func (c *capsuleCache) evict(recordID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, recordID)
}
