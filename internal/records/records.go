// Package records implements the record registry: it binds a record id to
// its owner, uploader, content locator, and ciphertext hash. Records are
// created once at storage time and never mutated.
package records

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/preshare/internal/audit"
	"github.com/dmitrijs2005/preshare/internal/ledger"
	"github.com/dmitrijs2005/preshare/internal/logging"
)

// Record is the on-ledger metadata for one stored ciphertext. ContentHash is
// the SHA-256 hex digest of the ciphertext; retrieval verifies downloaded
// bytes against it before anything else happens.
type Record struct {
	RecordID       string    `json:"record_id"`
	OwnerID        string    `json:"owner_id"`
	UploaderID     string    `json:"uploader_id"`
	ContentLocator string    `json:"content_locator"`
	ContentHash    string    `json:"content_hash"`
	StoredAt       time.Time `json:"stored_at"`
}

// Registry stores records on the ledger.
type Registry struct {
	ledger ledger.Ledger
	trail  audit.Trail
	logger logging.Logger
}

func NewRegistry(l ledger.Ledger, trail audit.Trail, logger logging.Logger) *Registry {
	return &Registry{
		ledger: l,
		trail:  trail,
		logger: logger.With("module", "records"),
	}
}

// Store inserts a new record. An occupied record id fails with
// common.ErrAlreadyExists.
func (r *Registry) Store(ctx context.Context, rec Record) error {
	rec.StoredAt = time.Now()

	value, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	if err := r.ledger.PutIfAbsent(ctx, ledger.Key("record", rec.RecordID), value); err != nil {
		return err
	}

	if err := r.trail.Append(ctx, "store_record", map[string]string{
		"record_id":   rec.RecordID,
		"owner_id":    rec.OwnerID,
		"uploader_id": rec.UploaderID,
		"locator":     rec.ContentLocator,
	}); err != nil {
		r.logger.Warn(ctx, "audit append failed", "err", err)
	}

	return nil
}

// Get returns a record or common.ErrNotFound.
func (r *Registry) Get(ctx context.Context, recordID string) (*Record, error) {
	value, err := r.ledger.Get(ctx, ledger.Key("record", recordID))
	if err != nil {
		return nil, err
	}

	var rec Record
	if err := json.Unmarshal(value, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	return &rec, nil
}
