// Package config holds the server configuration, loaded from TOML with
// defaults filled in and validated before use.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const (
	defaultAddr        = ":7723"
	defaultAuthRetries = 3
)

// Logging configures the operational log.
type Logging struct {
	// File is the log destination; empty means stderr.
	File string `toml:"file"`
	// Level is one of ERROR, WARNING, NOTICE, INFO, DEBUG.
	Level string `toml:"level"`
}

// Server is the parleyd configuration.
type Server struct {
	// Addr is the TCP listen address.
	Addr string `toml:"addr"`

	// DataDir holds the credential store and audit log.
	DataDir string `toml:"data_dir"`

	// AuthRetries is the total authentication attempt budget per
	// connection, across both login and registration.
	AuthRetries int `toml:"auth_retries"`

	// RequireProof enables the challenge-response possession proof after
	// the key exchange. Both ends must agree on this setting.
	RequireProof bool `toml:"require_proof"`

	Logging Logging `toml:"logging"`
}

// Default returns a configuration with every field at its default.
func Default() *Server {
	return &Server{
		Addr:         defaultAddr,
		DataDir:      "data",
		AuthRetries:  defaultAuthRetries,
		RequireProof: true,
		Logging:      Logging{Level: "INFO"},
	}
}

// Load reads and validates a TOML config file. An empty path yields the
// defaults.
func Load(path string) (*Server, error) {
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}
	if err := cfg.FixupAndValidate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FixupAndValidate fills in derived fields and rejects invalid settings.
func (c *Server) FixupAndValidate() error {
	if c.Addr == "" {
		return fmt.Errorf("config: addr must not be empty")
	}
	if c.DataDir == "" {
		return fmt.Errorf("config: data_dir must not be empty")
	}
	if c.AuthRetries < 1 {
		return fmt.Errorf("config: auth_retries must be at least 1, got %d", c.AuthRetries)
	}
	switch c.Logging.Level {
	case "", "ERROR", "WARNING", "NOTICE", "INFO", "DEBUG":
	default:
		return fmt.Errorf("config: invalid logging level %q", c.Logging.Level)
	}
	return nil
}

// StorePath is the credential store location under the data dir.
func (c *Server) StorePath() string { return filepath.Join(c.DataDir, "users.db") }

// AuditPath is the audit log location under the data dir.
func (c *Server) AuditPath() string { return filepath.Join(c.DataDir, "audit.log") }
