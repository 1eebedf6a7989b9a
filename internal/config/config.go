// Package config loads the assistant's YAML configuration. Each section is
// the owning package's Config type, so defaults and validation stay close
// to the code that consumes them.
package config

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/aysualkaya/assistant/internal/correction"
	"github.com/aysualkaya/assistant/internal/database"
	"github.com/aysualkaya/assistant/internal/dialect"
	"github.com/aysualkaya/assistant/internal/errs"
	"github.com/aysualkaya/assistant/internal/filestore"
	"github.com/aysualkaya/assistant/internal/logger"
)

// Config is the root of the assistant's configuration file.
type Config struct {
	// Dialect names the target SQL dialect queries are normalized to.
	Dialect string `yaml:"dialect"`

	// FuzzyDistance is the edit-distance threshold for identifier
	// suggestions. Zero means the validator default.
	FuzzyDistance int `yaml:"fuzzy_distance"`

	// RulesFile optionally points at a YAML rule set that extends the
	// built-in dialect-compliance rules.
	RulesFile string `yaml:"rules_file"`

	Server     ServerConfig      `yaml:"server"`
	Correction correction.Config `yaml:"correction"`
	Database   *database.Config  `yaml:"database"`
	Filestore  *filestore.Config `yaml:"filestore"`
	Logger     *logger.Config    `yaml:"logger"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Default returns a runnable configuration for local development.
func Default() *Config {
	return &Config{
		Dialect: "sqlserver",
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Logger: logger.DefaultConfig(),
	}
}

// Load reads path and overlays it on the defaults. A missing file is an
// error; use Default directly when running without one.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "reading config file", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "parsing config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints the YAML schema cannot express.
func (c *Config) Validate() error {
	if _, err := dialect.FromName(c.Dialect); err != nil {
		return errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("unknown dialect %q", c.Dialect))
	}
	if c.FuzzyDistance < 0 {
		return errs.New(errs.ErrKindInvalidInput, "fuzzy_distance must not be negative")
	}
	if c.Correction.MaxAttempts < 0 {
		return errs.New(errs.ErrKindInvalidInput, "correction.max_attempts must not be negative")
	}
	if c.Server.Addr == "" {
		return errs.New(errs.ErrKindInvalidInput, "server.addr is required")
	}
	if c.Database != nil && c.Database.DSN == "" {
		return errs.New(errs.ErrKindInvalidInput, "database.dsn is required when a database is configured")
	}
	return nil
}
