// Package session contains the orchestrator that sequences the end-to-end
// sharing workflow across the identity registry, PRE engine, content store,
// record registry, and consent state machine. Cross-component effects only
// happen here: the registries never call each other.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/dmitrijs2005/preshare/internal/blobstore"
	"github.com/dmitrijs2005/preshare/internal/common"
	"github.com/dmitrijs2005/preshare/internal/consent"
	"github.com/dmitrijs2005/preshare/internal/identity"
	"github.com/dmitrijs2005/preshare/internal/logging"
	"github.com/dmitrijs2005/preshare/internal/pre"
	"github.com/dmitrijs2005/preshare/internal/records"
)

// Orchestrator drives the sharing protocol. Triples are independent and may
// run fully in parallel; ordering within a triple is enforced by the consent
// state machine, not by the orchestrator.
type Orchestrator struct {
	identities *identity.Registry
	vault      *identity.Vault
	records    *records.Registry
	consents   *consent.StateMachine
	store      blobstore.Store
	logger     logging.Logger
	capsules   *capsuleCache

	retryBase  time.Duration
	maxRetries uint64
}

func NewOrchestrator(
	ids *identity.Registry,
	vault *identity.Vault,
	recs *records.Registry,
	cons *consent.StateMachine,
	store blobstore.Store,
	logger logging.Logger,
) *Orchestrator {
	return &Orchestrator{
		identities: ids,
		vault:      vault,
		records:    recs,
		consents:   cons,
		store:      store,
		logger:     logger.With("module", "session"),
		capsules:   newCapsuleCache(),
		retryBase:  50 * time.Millisecond,
		maxRetries: 4,
	}
}

// RegisterPrincipal generates a keypair for a new principal, registers the
// public key, and locks the secret key into the vault. The secret key never
// leaves the vault boundary afterwards.
func (o *Orchestrator) RegisterPrincipal(ctx context.Context, id string, role identity.Role) error {
	sk, pk, err := pre.GenerateKeyPair()
	if err != nil {
		return fmt.Errorf("register %s: %w", id, err)
	}

	if err := o.identities.Register(ctx, id, role, pk); err != nil {
		return err
	}
	if err := o.vault.Put(id, sk); err != nil {
		return err
	}

	o.logger.Info(ctx, "principal registered", "principal_id", id, "role", string(role))
	return nil
}

// EncryptRecord encrypts the payload under the owner's public key and retains
// the original capsule for the later approval and retrieval stages. The
// capsule is not persisted externally.
func (o *Orchestrator) EncryptRecord(ctx context.Context, ownerID, recordID string, plaintext []byte) (ciphertext []byte, hash string, err error) {
	ownerPK, err := o.identities.PublicKey(ctx, ownerID)
	if err != nil {
		return nil, "", err
	}

	capsule, ciphertext, err := pre.Encapsulate(ownerPK, plaintext)
	if err != nil {
		return nil, "", err
	}

	o.capsules.put(recordID, capsule)
	return ciphertext, common.HashHex(ciphertext), nil
}

// StoreRecord uploads the ciphertext and binds the record in the record
// registry. The owner must be a registered owner-capable principal.
func (o *Orchestrator) StoreRecord(ctx context.Context, recordID, ownerID, uploaderID string, ciphertext []byte) (locator string, err error) {
	owner, err := o.identities.Get(ctx, ownerID)
	if err != nil {
		return "", fmt.Errorf("owner lookup: %w", err)
	}
	if owner.Role != identity.RoleOwner {
		return "", fmt.Errorf("%w: principal %s cannot own records", common.ErrPreconditionFailed, ownerID)
	}
	if _, err := o.identities.Get(ctx, uploaderID); err != nil {
		return "", fmt.Errorf("uploader lookup: %w", err)
	}

	locator, err = o.upload(ctx, ciphertext, blobstore.KindCiphertext)
	if err != nil {
		return "", err
	}

	err = o.records.Store(ctx, records.Record{
		RecordID:       recordID,
		OwnerID:        ownerID,
		UploaderID:     uploaderID,
		ContentLocator: locator,
		ContentHash:    common.HashHex(ciphertext),
	})
	if err != nil {
		return "", err
	}

	o.logger.Info(ctx, "record stored", "record_id", recordID, "locator", locator)
	return locator, nil
}

// RequestAccess files the viewer's access request for a record.
func (o *Orchestrator) RequestAccess(ctx context.Context, ownerID, viewerID, recordID string) error {
	return o.consents.Request(ctx, ownerID, viewerID, recordID)
}

// ApproveAccess performs the owner's approval: derive the re-encryption key
// fragment, transform the retained original capsule, upload the resulting
// capsule fragment, and record it on the consent entry. The owner's secret
// key is only touched inside the vault callback.
func (o *Orchestrator) ApproveAccess(ctx context.Context, ownerID, viewerID, recordID string) (fragmentLocator, fragmentHash string, err error) {
	capsule, err := o.capsules.get(recordID)
	if err != nil {
		return "", "", fmt.Errorf("original capsule not retained for record %s: %w", recordID, err)
	}

	viewerPK, err := o.identities.PublicKey(ctx, viewerID)
	if err != nil {
		return "", "", err
	}

	var cfrag *pre.CapsuleFragment
	err = o.vault.Use(ownerID, func(sk *pre.SecretKey) error {
		kfrags, err := pre.DeriveKeyFragments(sk, sk, viewerPK, 1, 1)
		if err != nil {
			return err
		}
		cfrag, err = pre.ReEncrypt(kfrags[0], capsule)
		return err
	})
	if err != nil {
		return "", "", err
	}

	fragmentBytes := cfrag.Bytes()
	fragmentLocator, err = o.upload(ctx, fragmentBytes, blobstore.KindFragment)
	if err != nil {
		return "", "", err
	}
	fragmentHash = common.HashHex(fragmentBytes)

	if err := o.consents.Approve(ctx, ownerID, viewerID, recordID, fragmentLocator, fragmentHash); err != nil {
		return "", "", err
	}

	o.logger.Info(ctx, "access approved",
		"owner_id", ownerID, "viewer_id", viewerID, "record_id", recordID,
		"fragment_locator", fragmentLocator)
	return fragmentLocator, fragmentHash, nil
}

// RetrieveRecord is the viewer's retrieval path. The consent status check
// comes first: a non-approved triple fails here, before any download or
// cryptographic work. Downloads are hash-verified against the registry
// records, then the fragment is cryptographically verified, then decryption
// runs.
func (o *Orchestrator) RetrieveRecord(ctx context.Context, ownerID, viewerID, recordID string) ([]byte, error) {
	c, err := o.consents.Get(ctx, ownerID, viewerID, recordID)
	if err != nil {
		return nil, err
	}
	if c.Status != consent.StatusApproved {
		return nil, fmt.Errorf("%w: consent is %s, not approved", common.ErrPreconditionFailed, c.Status)
	}

	rec, err := o.records.Get(ctx, recordID)
	if err != nil {
		return nil, err
	}

	ciphertext, err := o.download(ctx, rec.ContentLocator)
	if err != nil {
		return nil, err
	}
	if common.HashHex(ciphertext) != rec.ContentHash {
		return nil, fmt.Errorf("%w: ciphertext hash disagrees with record registry", common.ErrIntegrityMismatch)
	}

	fragmentBytes, err := o.download(ctx, c.FragmentLocator)
	if err != nil {
		return nil, err
	}
	if common.HashHex(fragmentBytes) != c.FragmentHash {
		return nil, fmt.Errorf("%w: fragment hash disagrees with consent entry", common.ErrIntegrityMismatch)
	}

	capsule, err := o.capsules.get(recordID)
	if err != nil {
		return nil, fmt.Errorf("original capsule not retained for record %s: %w", recordID, err)
	}

	cfrag, err := pre.ParseCapsuleFragment(fragmentBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrVerificationFailed, err)
	}

	ownerPK, err := o.identities.PublicKey(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	viewerPK, err := o.identities.PublicKey(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	// fragment verification is mandatory before decryption
	verified, err := pre.VerifyFragment(cfrag, capsule, ownerPK, ownerPK, viewerPK)
	if err != nil {
		return nil, err
	}

	var plaintext []byte
	err = o.vault.Use(viewerID, func(sk *pre.SecretKey) error {
		var derr error
		plaintext, derr = pre.DecryptWithFragment(sk, ownerPK, capsule, verified, ciphertext)
		return derr
	})
	if err != nil {
		return nil, err
	}

	o.logger.Info(ctx, "record retrieved",
		"viewer_id", viewerID, "record_id", recordID, "payload_size", len(plaintext))
	return plaintext, nil
}

// RevokeAccess invalidates the viewer's access. After this, retrieval fails
// at the consent status check.
func (o *Orchestrator) RevokeAccess(ctx context.Context, ownerID, viewerID, recordID string) error {
	return o.consents.Revoke(ctx, ownerID, viewerID, recordID)
}

// EvictCapsule drops the retained original capsule for a record. Called when
// a sharing transaction completes or aborts.
func (o *Orchestrator) EvictCapsule(recordID string) {
	o.capsules.evict(recordID)
}

// upload pushes bytes to the content store, retrying transient outages with
// fibonacci backoff. Only Unavailable errors are retried.
func (o *Orchestrator) upload(ctx context.Context, data []byte, kind blobstore.ContentKind) (string, error) {
	var locator string
	err := o.withRetry(ctx, func(ctx context.Context) error {
		var uerr error
		locator, uerr = o.store.Upload(ctx, data, kind)
		return uerr
	})
	return locator, err
}

func (o *Orchestrator) download(ctx context.Context, locator string) ([]byte, error) {
	var data []byte
	err := o.withRetry(ctx, func(ctx context.Context) error {
		var derr error
		data, derr = o.store.Download(ctx, locator)
		return derr
	})
	return data, err
}

func (o *Orchestrator) withRetry(ctx context.Context, op func(ctx context.Context) error) error {
	b := retry.WithMaxRetries(o.maxRetries, retry.NewFibonacci(o.retryBase))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := op(ctx)
		if errors.Is(err, common.ErrUnavailable) {
			return retry.RetryableError(err)
		}
		return err
	})
}
