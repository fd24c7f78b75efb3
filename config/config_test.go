package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaultsOnPartialFile(t *testing.T) {
	path := writeConfigFile(t, `
server:
  host: nfs.example.com
  export: /export/data
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "nfs.example.com", cfg.Server.Host)
	assert.Equal(t, "/export/data", cfg.Server.Export)
	assert.Equal(t, "unix", cfg.Credential.Flavor)
	assert.Equal(t, 30*time.Second, cfg.Transport.DialTimeout)
	assert.Equal(t, 60*time.Second, cfg.Transport.IOTimeout)
	assert.Equal(t, 5, cfg.Retry.MaxTries)
	assert.Equal(t, 250*time.Millisecond, cfg.Retry.JukeboxPause)
	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoadParsesDurationsAndOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
server:
  host: nfs.example.com
  export: /
  reserved_port: true
transport:
  dial_timeout: 5s
  call_timeout: 10s
  io_timeout: 2m
retry:
  max_tries: 3
  jukebox_pause: 500ms
logging:
  level: debug
  format: json
  output: stdout
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.Server.ReservedPort)
	assert.Equal(t, 5*time.Second, cfg.Transport.DialTimeout)
	assert.Equal(t, 10*time.Second, cfg.Transport.CallTimeout)
	assert.Equal(t, 2*time.Minute, cfg.Transport.IOTimeout)
	assert.Equal(t, 3, cfg.Retry.MaxTries)
	assert.Equal(t, 500*time.Millisecond, cfg.Retry.JukeboxPause)
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
}

func TestLoadRejectsMissingHost(t *testing.T) {
	path := writeConfigFile(t, `
server:
  export: /
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsInvalidCredentialFlavor(t *testing.T) {
	path := writeConfigFile(t, `
server:
  host: nfs.example.com
  export: /
credential:
  flavor: kerberos
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadNoConfigFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)

	assert.Empty(t, cfg.Server.Host)
	assert.Equal(t, "/", cfg.Server.Export)
	assert.Equal(t, "unix", cfg.Credential.Flavor)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeConfigFile(t, "server:\n  host: [unterminated\n")
	_, err := Load(path)
	require.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Server.Host = "nfs.example.com"
	cfg.Server.Export = "/export"

	require.NoError(t, Save(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Server.Host, loaded.Server.Host)
	assert.Equal(t, cfg.Server.Export, loaded.Server.Export)
}
