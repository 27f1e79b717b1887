package config

import (
	"flag"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {

	// Test cases
	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "Test1 OK", args: []string{"cmd",
			"-l", "badger", "-k", "/tmp/ledger", "-d", "db", "-o", "s3",
			"-u", "user", "-p", "password", "-b", "bucket", "-g", "us-west-1", "-e", "http://endpoint",
			"-r", "/tmp/results", "-s", "4096", "-n", "5", "-t", "-m", "-i", "250",
		}, expectPanic: false,
			expected: &Config{
				LedgerBackend:   "badger",
				BadgerPath:      "/tmp/ledger",
				DatabaseDSN:     "db",
				BlobBackend:     "s3",
				S3RootUser:      "user",
				S3RootPassword:  "password",
				S3Bucket:        "bucket",
				S3Region:        "us-west-1",
				S3BaseEndpoint:  "http://endpoint",
				ResultsDir:      "/tmp/results",
				PayloadSize:     4096,
				Sessions:        5,
				StorePlaintext:  true,
				MonitorEnabled:  true,
				MonitorInterval: 250 * time.Millisecond,
			}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.PanicOnError)

			os.Args = tt.args

			config := &Config{}

			if !tt.expectPanic {

				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
