package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/preshare/internal/flagx"
	"github.com/dmitrijs2005/preshare/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for interval fields, which allows
// parsing both string values such as "100ms" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON
// configuration files. After unmarshalling, its fields are copied into
// the runtime Config struct which uses time.Duration.
type JsonConfig struct {
	LedgerBackend   string         `json:"ledger_backend"`
	BadgerPath      string         `json:"badger_path"`
	DatabaseDSN     string         `json:"database_dsn"`
	BlobBackend     string         `json:"blob_backend"`
	S3RootUser      string         `json:"s3_root_user"`
	S3RootPassword  string         `json:"s3_root_password"`
	S3Bucket        string         `json:"s3_bucket"`
	S3Region        string         `json:"s3_region"`
	S3BaseEndpoint  string         `json:"s3_base_endpoint"`
	ResultsDir      string         `json:"results_dir"`
	PayloadSize     int            `json:"payload_size"`
	Sessions        int            `json:"sessions"`
	StorePlaintext  bool           `json:"store_plaintext"`
	MonitorEnabled  bool           `json:"monitor_enabled"`
	MonitorInterval timex.Duration `json:"monitor_interval"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The JSON file path is taken from the -c or -config command-line flags;
// if neither is set, no file is loaded. If the file cannot be read or
// contains invalid JSON, the function panics.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	config.LedgerBackend = c.LedgerBackend
	config.BadgerPath = c.BadgerPath
	config.DatabaseDSN = c.DatabaseDSN
	config.BlobBackend = c.BlobBackend
	config.S3RootUser = c.S3RootUser
	config.S3RootPassword = c.S3RootPassword
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
	config.ResultsDir = c.ResultsDir
	config.PayloadSize = c.PayloadSize
	config.Sessions = c.Sessions
	config.StorePlaintext = c.StorePlaintext
	config.MonitorEnabled = c.MonitorEnabled
	config.MonitorInterval = c.MonitorInterval.Duration
}
