package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"ledger_backend":   "postgres",
		"badger_path":      "/var/ledger",
		"database_dsn":     "postgres://u:p@host:5432/preshare",
		"blob_backend":     "s3",
		"s3_root_user":     "user",
		"s3_root_password": "password",
		"s3_bucket":        "bucket",
		"s3_region":        "region",
		"s3_base_endpoint": "base_endpoint",
		"results_dir":      "/var/results",
		"payload_size":     2048,
		"sessions":         3,
		"store_plaintext":  true,
		"monitor_enabled":  true,
		"monitor_interval": "50ms",
	})

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := &Config{}
		parseJson(cfg)

		assert.Equal(t, "postgres", cfg.LedgerBackend)
		assert.Equal(t, "/var/ledger", cfg.BadgerPath)
		assert.Equal(t, "postgres://u:p@host:5432/preshare", cfg.DatabaseDSN)
		assert.Equal(t, "s3", cfg.BlobBackend)
		assert.Equal(t, "user", cfg.S3RootUser)
		assert.Equal(t, "password", cfg.S3RootPassword)
		assert.Equal(t, "bucket", cfg.S3Bucket)
		assert.Equal(t, "region", cfg.S3Region)
		assert.Equal(t, "base_endpoint", cfg.S3BaseEndpoint)
		assert.Equal(t, "/var/results", cfg.ResultsDir)
		assert.Equal(t, 2048, cfg.PayloadSize)
		assert.Equal(t, 3, cfg.Sessions)
		assert.True(t, cfg.StorePlaintext)
		assert.True(t, cfg.MonitorEnabled)
		assert.Equal(t, 50*time.Millisecond, cfg.MonitorInterval)
	})

	t.Run("no CONFIG and no flags → no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{
			LedgerBackend:   "memory",
			BlobBackend:     "memory",
			ResultsDir:      "./results",
			PayloadSize:     1024,
			Sessions:        1,
			MonitorInterval: 100 * time.Millisecond,
		}
		parseJson(cfg)

		assert.Equal(t, "memory", cfg.LedgerBackend)
		assert.Equal(t, "memory", cfg.BlobBackend)
		assert.Equal(t, "./results", cfg.ResultsDir)
		assert.Equal(t, 1024, cfg.PayloadSize)
		assert.Equal(t, 1, cfg.Sessions)
		assert.Equal(t, 100*time.Millisecond, cfg.MonitorInterval)
	})

	t.Run("invalid JSON → panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		os.Args = []string{"testbin", "-config", bad}

		cfg := &Config{}
		require.Panics(t, func() { parseJson(cfg) })
	})
}
