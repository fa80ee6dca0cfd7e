// Package config provides functionality for managing configuration options
// for the storefront client using a JSON config file, command-line flags,
// environment variables and an optional .env file.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends for the persisted session snapshot.
const (
	StorageFile     = "file"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Options holds the configuration values for the application.
type Options struct {
	// BaseURL is the endpoint of the remote data service.
	BaseURL string `json:"base_url"`

	// Storage selects the snapshot backend: file, postgres or memory.
	Storage string `json:"storage"`

	// DataDir is where the file backend keeps its snapshot.
	DataDir string `json:"data_dir"`

	// SnapshotKey names the persisted snapshot.
	SnapshotKey string `json:"snapshot_key"`

	// DatabaseDSN holds the connection string for the postgres backend.
	DatabaseDSN string `json:"database_dsn"`

	// SecretFile, when set, points to key material used to seal the snapshot.
	SecretFile string `json:"secret_file"`

	// CAFile, CertFile and KeyFile configure TLS towards the remote service.
	CAFile   string `json:"ca_file"`
	CertFile string `json:"cert_file"`
	KeyFile  string `json:"key_file"`

	// Timeout bounds every remote request.
	Timeout time.Duration `json:"-"`

	// RefreshInterval drives the background catalog refresh; 0 disables it.
	RefreshInterval time.Duration `json:"-"`

	// LogLevel is passed to the logger.
	LogLevel string `json:"log_level"`

	// Demo serves an in-process fake remote service instead of BaseURL.
	Demo bool `json:"demo"`

	// Config is the path to the Config file.
	Config string `json:"-"`
}

// Default returns the options used when nothing overrides them.
func Default() *Options {
	return &Options{
		BaseURL:         "http://localhost:5001",
		Storage:         StorageFile,
		DataDir:         ".",
		SnapshotKey:     "grocerease-storage",
		Timeout:         10 * time.Second,
		RefreshInterval: time.Minute,
		LogLevel:        "info",
		Config:          "config.json",
	}
}

// Parse builds Options from args (without the program name). Precedence,
// lowest first: defaults, config file, flags, environment. A .env file in
// the working directory is loaded into the environment when present.
func Parse(args []string) (*Options, error) {
	_ = godotenv.Load()

	options := Default()
	fs := flag.NewFlagSet("grocerease", flag.ContinueOnError)
	registerFlags(fs, options)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}
	if options.Config != "" {
		if err := loadFile(options.Config, options); err != nil {
			return nil, err
		}
		// Explicit flags win over the file.
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(options); err != nil {
		return nil, err
	}
	if err := options.Validate(); err != nil {
		return nil, err
	}
	return options, nil
}

func registerFlags(fs *flag.FlagSet, o *Options) {
	fs.StringVar(&o.BaseURL, "url", o.BaseURL, "remote data service base URL")
	fs.StringVar(&o.Storage, "storage", o.Storage, "snapshot backend: file | postgres | memory")
	fs.StringVar(&o.DataDir, "data", o.DataDir, "directory for the file snapshot backend")
	fs.StringVar(&o.SnapshotKey, "key", o.SnapshotKey, "snapshot key")
	fs.StringVar(&o.DatabaseDSN, "d", o.DatabaseDSN, "db address for the postgres backend")
	fs.StringVar(&o.SecretFile, "secret", o.SecretFile, "key material file used to seal the snapshot")
	fs.StringVar(&o.CAFile, "ca", o.CAFile, "path to CA cert")
	fs.StringVar(&o.CertFile, "cert", o.CertFile, "path to client cert")
	fs.StringVar(&o.KeyFile, "tls-key", o.KeyFile, "path to client key")
	fs.DurationVar(&o.Timeout, "timeout", o.Timeout, "remote request timeout")
	fs.DurationVar(&o.RefreshInterval, "refresh", o.RefreshInterval, "catalog refresh interval, 0 disables")
	fs.StringVar(&o.LogLevel, "log", o.LogLevel, "log level")
	fs.BoolVar(&o.Demo, "demo", o.Demo, "use an in-process fake data service")
	fs.StringVar(&o.Config, "config", o.Config, "path to config file")
	fs.StringVar(&o.Config, "c", o.Config, "path to config file (shorthand)")
}

func loadFile(path string, o *Options) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("error while reading config file: %w", err)
	}
	if err := json.Unmarshal(data, o); err != nil {
		return fmt.Errorf("error while parsing config file: %w", err)
	}
	return nil
}

func applyEnv(o *Options) error {
	if v := os.Getenv("STOREFRONT_API_URL"); v != "" {
		o.BaseURL = v
	}
	if v := os.Getenv("STOREFRONT_STORAGE"); v != "" {
		o.Storage = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		o.DatabaseDSN = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		o.LogLevel = v
	}
	if v := os.Getenv("STOREFRONT_REFRESH"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse STOREFRONT_REFRESH: %w", err)
		}
		o.RefreshInterval = d
	}
	return nil
}

// Validate checks option combinations.
func (o *Options) Validate() error {
	switch o.Storage {
	case StorageFile, StorageMemory:
	case StoragePostgres:
		if o.DatabaseDSN == "" {
			return errors.New("postgres storage requires a database DSN")
		}
	default:
		return fmt.Errorf("unknown storage %q", o.Storage)
	}
	if o.SnapshotKey == "" {
		return errors.New("snapshot key must not be empty")
	}
	if (o.CertFile == "") != (o.KeyFile == "") {
		return errors.New("client cert and key must be set together")
	}
	if o.RefreshInterval < 0 {
		return errors.New("refresh interval must not be negative")
	}
	return nil
}
