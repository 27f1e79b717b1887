package identity

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/dmitrijs2005/preshare/internal/audit"
	"github.com/dmitrijs2005/preshare/internal/common"
	"github.com/dmitrijs2005/preshare/internal/ledger"
	"github.com/dmitrijs2005/preshare/internal/logging"
	"github.com/dmitrijs2005/preshare/internal/pre"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) (*Registry, *audit.MemoryTrail) {
	t.Helper()
	trail := audit.NewMemoryTrail()
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewRegistry(ledger.NewMemoryLedger(), trail, logger), trail
}

func TestRegister_DuplicateFails(t *testing.T) {
	r, trail := newTestRegistry(t)
	ctx := context.Background()

	_, pk, err := pre.GenerateKeyPair()
	require.NoError(t, err)

	require.NoError(t, r.Register(ctx, "alice", RoleOwner, pk))

	err = r.Register(ctx, "alice", RoleOwner, pk)
	require.True(t, errors.Is(err, common.ErrAlreadyExists))

	// one audit entry for the successful registration only
	require.Len(t, trail.Entries(), 1)
	require.Equal(t, "registration", trail.Entries()[0].Action)
}

func TestRegister_DistinctIDsDoNotInterfere(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	_, pk1, err := pre.GenerateKeyPair()
	require.NoError(t, err)
	_, pk2, err := pre.GenerateKeyPair()
	require.NoError(t, err)

	require.NoError(t, r.Register(ctx, "alice", RoleOwner, pk1))
	require.NoError(t, r.Register(ctx, "bob", RoleViewer, pk2))

	a, err := r.Get(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, RoleOwner, a.Role)

	gotPK, err := r.PublicKey(ctx, "bob")
	require.NoError(t, err)
	require.True(t, gotPK.Equal(pk2))
}

func TestPublicKey_Missing(t *testing.T) {
	r, _ := newTestRegistry(t)

	_, err := r.PublicKey(context.Background(), "nobody")
	require.True(t, errors.Is(err, common.ErrNotFound))
}

func TestVault_PutOnce(t *testing.T) {
	v := NewVault()

	sk, _, err := pre.GenerateKeyPair()
	require.NoError(t, err)

	require.NoError(t, v.Put("alice", sk))
	require.True(t, errors.Is(v.Put("alice", sk), common.ErrAlreadyExists))
}

func TestVault_UseScopedAccess(t *testing.T) {
	v := NewVault()

	sk, pk, err := pre.GenerateKeyPair()
	require.NoError(t, err)
	require.NoError(t, v.Put("alice", sk))

	called := false
	err = v.Use("alice", func(got *pre.SecretKey) error {
		called = true
		require.True(t, got.PublicKey().Equal(pk))
		return nil
	})
	require.NoError(t, err)
	require.True(t, called)

	err = v.Use("nobody", func(*pre.SecretKey) error {
		t.Fatal("callback must not run for a missing key")
		return nil
	})
	require.True(t, errors.Is(err, common.ErrNotFound))
}

func TestVault_UseWipesScopedCopyOnly(t *testing.T) {
	v := NewVault()

	sk, _, err := pre.GenerateKeyPair()
	require.NoError(t, err)
	require.NoError(t, v.Put("alice", sk))

	err = v.Use("alice", func(*pre.SecretKey) error { return nil })
	require.NoError(t, err)

	// the stored key survives the post-callback wipe
	err = v.Use("alice", func(got *pre.SecretKey) error {
		require.Equal(t, sk.Bytes(), got.Bytes())
		return nil
	})
	require.NoError(t, err)
}
