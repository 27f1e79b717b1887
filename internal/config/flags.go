package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/preshare/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-l string   ledger backend: memory, badger or postgres
//	-k string   badger data directory
//	-d string   PostgreSQL DSN
//	-o string   content store backend: memory or s3
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-r string   results directory
//	-s int      generated payload size, bytes
//	-n int      number of sessions to run
//	-t          also store the plaintext payload
//	-m          enable resource monitoring
//	-i int      monitor sampling interval, milliseconds
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes
//     using flagx.FilterArgs, avoiding collisions with other components.
//   - The interval flag is accepted as an integer in milliseconds and then
//     converted to a time.Duration value.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-l", "-k", "-d", "-o", "-u", "-p", "-b", "-g", "-e", "-r", "-s", "-n", "-t", "-m", "-i"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.LedgerBackend, "l", config.LedgerBackend, "ledger backend: memory, badger or postgres")
	fs.StringVar(&config.BadgerPath, "k", config.BadgerPath, "badger data directory")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.BlobBackend, "o", config.BlobBackend, "content store backend: memory or s3")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	fs.StringVar(&config.ResultsDir, "r", config.ResultsDir, "results directory")
	fs.IntVar(&config.PayloadSize, "s", config.PayloadSize, "generated payload size (in bytes)")
	fs.IntVar(&config.Sessions, "n", config.Sessions, "number of sessions to run")
	fs.BoolVar(&config.StorePlaintext, "t", config.StorePlaintext, "also store the plaintext payload")
	fs.BoolVar(&config.MonitorEnabled, "m", config.MonitorEnabled, "enable resource monitoring")

	monitorIntervalMillis := fs.Int("i", int(config.MonitorInterval.Milliseconds()), "monitor sampling interval (in milliseconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.MonitorInterval = time.Duration(*monitorIntervalMillis) * time.Millisecond
}
