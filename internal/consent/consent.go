// Package consent implements the consent state machine gating re-encryption.
// One entry exists per (owner, viewer, record) triple and moves through
// REQUESTED → APPROVED → REVOKED. Every transition runs as an atomic
// read-modify-write on the ledger, so concurrent callers racing on the same
// triple are serialized: the loser sees a precondition failure, never a
// silent overwrite.
//
// Transition policy (strict preconditions):
//   - Request creates a new entry, or restarts the cycle if the existing
//     entry is REVOKED. A live REQUESTED/APPROVED entry rejects the request.
//   - Approve requires REQUESTED or APPROVED (idempotent re-approval) and
//     records the fragment locator and hash.
//   - Revoke requires REQUESTED (owner denies the request) or APPROVED, and
//     clears the fragment locator and hash so no stale reference survives.
//     Revoking twice fails.
package consent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/preshare/internal/audit"
	"github.com/dmitrijs2005/preshare/internal/common"
	"github.com/dmitrijs2005/preshare/internal/ledger"
	"github.com/dmitrijs2005/preshare/internal/logging"
)

// Status is the lifecycle state of a consent entry.
type Status string

const (
	StatusRequested Status = "requested"
	StatusApproved  Status = "approved"
	StatusRevoked   Status = "revoked"
)

// Consent is one (owner, viewer, record) access-control entry. The fragment
// fields reference the currently valid re-encrypted fragment; they are only
// populated while the entry is APPROVED.
type Consent struct {
	OwnerID         string    `json:"owner_id"`
	ViewerID        string    `json:"viewer_id"`
	RecordID        string    `json:"record_id"`
	Status          Status    `json:"status"`
	FragmentLocator string    `json:"fragment_locator,omitempty"`
	FragmentHash    string    `json:"fragment_hash,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// StateMachine owns all consent entries. No other component mutates them.
type StateMachine struct {
	ledger ledger.Ledger
	trail  audit.Trail
	logger logging.Logger
}

func NewStateMachine(l ledger.Ledger, trail audit.Trail, logger logging.Logger) *StateMachine {
	return &StateMachine{
		ledger: l,
		trail:  trail,
		logger: logger.With("module", "consent"),
	}
}

func tripleKey(ownerID, viewerID, recordID string) string {
	return ledger.Key("consent", ownerID, viewerID, recordID)
}

// Request creates a REQUESTED entry for the triple. If the triple already
// holds a live entry the request fails with common.ErrAlreadyExists; a
// REVOKED entry is superseded by a fresh cycle.
func (s *StateMachine) Request(ctx context.Context, ownerID, viewerID, recordID string) error {
	now := time.Now()
	fresh := Consent{
		OwnerID:   ownerID,
		ViewerID:  viewerID,
		RecordID:  recordID,
		Status:    StatusRequested,
		CreatedAt: now,
		UpdatedAt: now,
	}
	value, err := json.Marshal(fresh)
	if err != nil {
		return fmt.Errorf("marshal consent: %w", err)
	}

	key := tripleKey(ownerID, viewerID, recordID)
	err = s.ledger.PutIfAbsent(ctx, key, value)
	if errors.Is(err, common.ErrAlreadyExists) {
		// re-request is only valid over a revoked entry
		err = s.ledger.Update(ctx, key, func(cur []byte) ([]byte, error) {
			var c Consent
			if err := json.Unmarshal(cur, &c); err != nil {
				return nil, fmt.Errorf("unmarshal consent: %w", err)
			}
			if c.Status != StatusRevoked {
				return nil, common.ErrAlreadyExists
			}
			return value, nil
		})
	}
	if err != nil {
		return err
	}

	s.audit(ctx, "request_access", ownerID, viewerID, recordID, nil)
	return nil
}

// Approve transitions the triple to APPROVED and records the re-encrypted
// fragment reference. The entry must exist and be REQUESTED or APPROVED.
func (s *StateMachine) Approve(ctx context.Context, ownerID, viewerID, recordID, fragmentLocator, fragmentHash string) error {
	err := s.transition(ctx, ownerID, viewerID, recordID, func(c *Consent) error {
		if c.Status != StatusRequested && c.Status != StatusApproved {
			return common.ErrPreconditionFailed
		}
		c.Status = StatusApproved
		c.FragmentLocator = fragmentLocator
		c.FragmentHash = fragmentHash
		return nil
	})
	if err != nil {
		return err
	}

	s.audit(ctx, "approve_access", ownerID, viewerID, recordID, map[string]string{
		"fragment_locator": fragmentLocator,
	})
	return nil
}

// Revoke transitions the triple to REVOKED and clears the fragment
// reference, so any cached locator becomes unusable for future retrieval.
// Revocation is enforced at this access-control layer: a later retrieval
// fails at the status check without touching the cryptographic layer.
func (s *StateMachine) Revoke(ctx context.Context, ownerID, viewerID, recordID string) error {
	err := s.transition(ctx, ownerID, viewerID, recordID, func(c *Consent) error {
		if c.Status != StatusRequested && c.Status != StatusApproved {
			return common.ErrPreconditionFailed
		}
		c.Status = StatusRevoked
		c.FragmentLocator = ""
		c.FragmentHash = ""
		return nil
	})
	if err != nil {
		return err
	}

	s.audit(ctx, "revoke_access", ownerID, viewerID, recordID, nil)
	return nil
}

// Get returns the consent entry for the triple or common.ErrNotFound.
func (s *StateMachine) Get(ctx context.Context, ownerID, viewerID, recordID string) (*Consent, error) {
	value, err := s.ledger.Get(ctx, tripleKey(ownerID, viewerID, recordID))
	if err != nil {
		return nil, err
	}

	var c Consent
	if err := json.Unmarshal(value, &c); err != nil {
		return nil, fmt.Errorf("unmarshal consent: %w", err)
	}
	return &c, nil
}

// transition applies fn to the stored entry under the ledger's per-key
// atomicity. A failed precondition aborts with no side effects.
func (s *StateMachine) transition(ctx context.Context, ownerID, viewerID, recordID string, fn func(*Consent) error) error {
	return s.ledger.Update(ctx, tripleKey(ownerID, viewerID, recordID), func(cur []byte) ([]byte, error) {
		var c Consent
		if err := json.Unmarshal(cur, &c); err != nil {
			return nil, fmt.Errorf("unmarshal consent: %w", err)
		}
		if err := fn(&c); err != nil {
			return nil, err
		}
		c.UpdatedAt = time.Now()
		return json.Marshal(c)
	})
}

func (s *StateMachine) audit(ctx context.Context, action, ownerID, viewerID, recordID string, extra map[string]string) {
	details := map[string]string{
		"owner_id":  ownerID,
		"viewer_id": viewerID,
		"record_id": recordID,
	}
	for k, v := range extra {
		details[k] = v
	}
	if err := s.trail.Append(ctx, action, details); err != nil {
		s.logger.Warn(ctx, "audit append failed", "err", err)
	}
}
