package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/preshare/internal/config"
	"github.com/stretchr/testify/require"
)

func memoryConfig(t *testing.T) *config.Config {
	t.Helper()
	c := &config.Config{}
	c.LoadDefaults()
	c.ResultsDir = filepath.Join(t.TempDir(), "results")
	c.MonitorEnabled = false
	c.PayloadSize = 64
	return c
}

func TestNewApp_MemoryBackends(t *testing.T) {
	a, err := NewApp(context.Background(), memoryConfig(t))
	require.NoError(t, err)
	require.NotNil(t, a)
}

func TestNewApp_UnknownBackends(t *testing.T) {
	c := memoryConfig(t)
	c.LedgerBackend = "etcd"
	_, err := NewApp(context.Background(), c)
	require.ErrorContains(t, err, "unknown ledger backend")

	c = memoryConfig(t)
	c.BlobBackend = "ftp"
	_, err = NewApp(context.Background(), c)
	require.ErrorContains(t, err, "unknown content store backend")
}

func TestApp_RunSessions(t *testing.T) {
	c := memoryConfig(t)
	c.Sessions = 2

	a, err := NewApp(context.Background(), c)
	require.NoError(t, err)

	require.NoError(t, a.Run(context.Background()))

	entries := a.trail.Entries()
	// three registrations plus four consent/record transitions per session
	require.Len(t, entries, 14)
}

func TestApp_RunWithBadgerLedger(t *testing.T) {
	c := memoryConfig(t)
	c.LedgerBackend = "badger"
	c.BadgerPath = filepath.Join(t.TempDir(), "ledger")

	a, err := NewApp(context.Background(), c)
	require.NoError(t, err)

	require.NoError(t, a.Run(context.Background()))
}
