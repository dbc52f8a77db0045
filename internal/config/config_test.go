package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWithoutConfigFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Process.ListenAddr)
	assert.Equal(t, 10, cfg.Defaults.Query)
	assert.Equal(t, 5, cfg.Defaults.Insert)
}

func TestLoadReadsYAMLOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vecthare.yaml")
	yaml := `
process:
  listen_addr: ":9090"
  redis_addr: "localhost:6379"
defaults:
  source: "openai"
  insert: 8
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Process.ListenAddr)
	assert.Equal(t, "localhost:6379", cfg.Process.RedisAddr)
	assert.Equal(t, "openai", cfg.Defaults.Source)
	assert.Equal(t, 8, cfg.Defaults.Insert)
}

func TestLoadMissingConfigFileErrors(t *testing.T) {
	_, err := Load("/nonexistent/path/vecthare.yaml")
	assert.Error(t, err)
}
