package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "parleyd.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, ":7723", cfg.Addr)
	require.Equal(t, "data", cfg.DataDir)
	require.Equal(t, 3, cfg.AuthRetries)
	require.True(t, cfg.RequireProof)
	require.Equal(t, "INFO", cfg.Logging.Level)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
addr = "127.0.0.1:9000"
data_dir = "/var/lib/parley"
auth_retries = 5
require_proof = false

[logging]
file = "/var/log/parleyd.log"
level = "DEBUG"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9000", cfg.Addr)
	require.Equal(t, "/var/lib/parley", cfg.DataDir)
	require.Equal(t, 5, cfg.AuthRetries)
	require.False(t, cfg.RequireProof)
	require.Equal(t, "/var/log/parleyd.log", cfg.Logging.File)
	require.Equal(t, "DEBUG", cfg.Logging.Level)

	require.Equal(t, filepath.Join("/var/lib/parley", "users.db"), cfg.StorePath())
	require.Equal(t, filepath.Join("/var/lib/parley", "audit.log"), cfg.AuditPath())
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `addr = ":9999"`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9999", cfg.Addr)
	require.Equal(t, 3, cfg.AuthRetries)
	require.True(t, cfg.RequireProof)
}

func TestValidationRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Server)
	}{
		{"empty addr", func(c *Server) { c.Addr = "" }},
		{"empty data dir", func(c *Server) { c.DataDir = "" }},
		{"zero retries", func(c *Server) { c.AuthRetries = 0 }},
		{"negative retries", func(c *Server) { c.AuthRetries = -1 }},
		{"bad log level", func(c *Server) { c.Logging.Level = "VERBOSE" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			require.Error(t, cfg.FixupAndValidate())
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}
