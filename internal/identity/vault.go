package identity

import (
	"sync"

	"github.com/dmitrijs2005/preshare/internal/common"
	"github.com/dmitrijs2005/preshare/internal/pre"
)

// Vault is the private secret-key store of the identity registry. A secret
// key goes in exactly once at registration and never comes back out: callers
// get scoped access through Use, so the key cannot be cached or passed to
// other components.
type Vault struct {
	mu   sync.Mutex
	keys map[string][]byte
}

func NewVault() *Vault {
	return &Vault{keys: make(map[string][]byte)}
}

// Put stores the secret key for a principal. A second Put for the same id
// fails: keypairs are generated exactly once.
func (v *Vault) Put(id string, sk *pre.SecretKey) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.keys[id]; ok {
		return common.ErrAlreadyExists
	}
	v.keys[id] = sk.Bytes()
	return nil
}

// Use invokes fn with the principal's secret key. The key only exists for
// the duration of the callback; the scoped copy handed to fn is wiped once
// it returns.
func (v *Vault) Use(id string, fn func(sk *pre.SecretKey) error) error {
	v.mu.Lock()
	stored, ok := v.keys[id]
	var raw []byte
	if ok {
		raw = make([]byte, len(stored))
		copy(raw, stored)
	}
	v.mu.Unlock()

	if !ok {
		return common.ErrNotFound
	}
	defer common.WipeByteArray(raw)

	sk, err := pre.ParseSecretKey(raw)
	if err != nil {
		return err
	}
	return fn(sk)
}
