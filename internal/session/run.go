package session

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/preshare/internal/blobstore"
	"github.com/dmitrijs2005/preshare/internal/identity"
)

// Params describes one end-to-end sharing session.
type Params struct {
	OwnerID    string
	UploaderID string
	ViewerID   string

	// RecordID is generated when empty.
	RecordID string

	Payload []byte

	// StorePlaintext additionally uploads the plaintext payload, for
	// audit/demo purposes only. It plays no part in the protocol.
	StorePlaintext bool
}

// Run executes the full sharing workflow: register the three principals,
// encrypt, store, request, approve, retrieve, and finally revoke. It returns
// the structured session result with per-stage timing. The retained original
// capsule is evicted when the session ends, successfully or not.
func (o *Orchestrator) Run(ctx context.Context, p Params) (*Result, error) {
	recordID := p.RecordID
	if recordID == "" {
		recordID = uuid.New().String()
	}

	res := &Result{
		SessionID:   uuid.New().String(),
		RecordID:    recordID,
		OwnerID:     p.OwnerID,
		UploaderID:  p.UploaderID,
		ViewerID:    p.ViewerID,
		PayloadSize: len(p.Payload),
		StartedAt:   time.Now(),
	}

	defer o.EvictCapsule(recordID)

	start := time.Now()
	if err := o.RegisterPrincipal(ctx, p.OwnerID, identity.RoleOwner); err != nil {
		return nil, fmt.Errorf("register owner: %w", err)
	}
	if err := o.RegisterPrincipal(ctx, p.UploaderID, identity.RoleUploader); err != nil {
		return nil, fmt.Errorf("register uploader: %w", err)
	}
	if err := o.RegisterPrincipal(ctx, p.ViewerID, identity.RoleViewer); err != nil {
		return nil, fmt.Errorf("register viewer: %w", err)
	}
	res.addStage("registration", start, nil)

	start = time.Now()
	ciphertext, cipherHash, err := o.EncryptRecord(ctx, p.OwnerID, recordID, p.Payload)
	if err != nil {
		return nil, fmt.Errorf("encrypt: %w", err)
	}
	res.CiphertextHash = cipherHash
	res.addStage("encryption", start, map[string]string{"ciphertext_hash": cipherHash})

	if p.StorePlaintext {
		start = time.Now()
		locator, err := o.upload(ctx, p.Payload, blobstore.KindPlaintext)
		if err != nil {
			return nil, fmt.Errorf("store plaintext: %w", err)
		}
		res.PlaintextLocator = locator
		res.addStage("plaintext_upload", start, map[string]string{"locator": locator})
	}

	start = time.Now()
	locator, err := o.StoreRecord(ctx, recordID, p.OwnerID, p.UploaderID, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("store record: %w", err)
	}
	res.CiphertextLocator = locator
	res.addStage("record_storage", start, map[string]string{"locator": locator})

	start = time.Now()
	if err := o.RequestAccess(ctx, p.OwnerID, p.ViewerID, recordID); err != nil {
		return nil, fmt.Errorf("request access: %w", err)
	}
	res.addStage("access_request", start, nil)

	start = time.Now()
	fragLocator, fragHash, err := o.ApproveAccess(ctx, p.OwnerID, p.ViewerID, recordID)
	if err != nil {
		return nil, fmt.Errorf("approve access: %w", err)
	}
	res.FragmentLocator = fragLocator
	res.FragmentHash = fragHash
	res.addStage("consent_approval", start, map[string]string{
		"fragment_locator": fragLocator,
		"fragment_hash":    fragHash,
	})

	start = time.Now()
	plaintext, err := o.RetrieveRecord(ctx, p.OwnerID, p.ViewerID, recordID)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	if !bytes.Equal(plaintext, p.Payload) {
		return nil, fmt.Errorf("retrieve: decrypted payload differs from original")
	}
	res.addStage("retrieval", start, nil)

	start = time.Now()
	if err := o.RevokeAccess(ctx, p.OwnerID, p.ViewerID, recordID); err != nil {
		return nil, fmt.Errorf("revoke: %w", err)
	}
	res.addStage("revocation", start, nil)

	res.TotalMS = float64(time.Since(res.StartedAt).Microseconds()) / 1000.0
	return res, nil
}
