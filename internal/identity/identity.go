// Package identity implements the identity registry: registered principals,
// their roles and public keys, plus the private vault holding each
// principal's secret key. Identities are immutable once created; there is no
// update or delete.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/preshare/internal/audit"
	"github.com/dmitrijs2005/preshare/internal/ledger"
	"github.com/dmitrijs2005/preshare/internal/logging"
	"github.com/dmitrijs2005/preshare/internal/pre"
)

// Role describes what a principal is allowed to be in a sharing transaction.
type Role string

const (
	RoleOwner    Role = "owner"
	RoleUploader Role = "uploader"
	RoleViewer   Role = "viewer"
)

// Principal is a registered participant. Created once at registration,
// immutable thereafter.
type Principal struct {
	ID           string    `json:"id"`
	Role         Role      `json:"role"`
	PublicKey    []byte    `json:"public_key"`
	RegisteredAt time.Time `json:"registered_at"`
}

// Registry stores principals on the ledger.
type Registry struct {
	ledger ledger.Ledger
	trail  audit.Trail
	logger logging.Logger
}

func NewRegistry(l ledger.Ledger, trail audit.Trail, logger logging.Logger) *Registry {
	return &Registry{
		ledger: l,
		trail:  trail,
		logger: logger.With("module", "identity"),
	}
}

// Register inserts a new principal. Registering an existing id fails with
// common.ErrAlreadyExists; distinct ids never interfere.
func (r *Registry) Register(ctx context.Context, id string, role Role, pub *pre.PublicKey) error {
	p := Principal{
		ID:           id,
		Role:         role,
		PublicKey:    pub.Bytes(),
		RegisteredAt: time.Now(),
	}

	value, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal principal: %w", err)
	}

	if err := r.ledger.PutIfAbsent(ctx, ledger.Key("principal", id), value); err != nil {
		return err
	}

	// best effort: the trail is observability data, not state
	if err := r.trail.Append(ctx, "registration", map[string]string{
		"principal_id": id,
		"role":         string(role),
	}); err != nil {
		r.logger.Warn(ctx, "audit append failed", "err", err)
	}

	return nil
}

// Get returns a registered principal or common.ErrNotFound.
func (r *Registry) Get(ctx context.Context, id string) (*Principal, error) {
	value, err := r.ledger.Get(ctx, ledger.Key("principal", id))
	if err != nil {
		return nil, err
	}

	var p Principal
	if err := json.Unmarshal(value, &p); err != nil {
		return nil, fmt.Errorf("unmarshal principal: %w", err)
	}
	return &p, nil
}

// PublicKey returns the registered public key for id.
func (r *Registry) PublicKey(ctx context.Context, id string) (*pre.PublicKey, error) {
	p, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return pre.ParsePublicKey(p.PublicKey)
}
