package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Name   string `yaml:"name"`
	Nested struct {
		Port    int           `yaml:"port"`
		Timeout time.Duration `yaml:"timeout" env:"TEST_TIMEOUT"`
	} `yaml:"nested"`
	Skipped string `env:"-"`
}

func TestLoadFromYAMLWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: from-file\nnested:\n  port: 9000\n"), 0o600))

	t.Setenv("VOLTQUEUE_CONFIG", path)
	t.Setenv("NESTED_PORT", "9100")
	t.Setenv("TEST_TIMEOUT", "90s")

	var cfg testConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, "from-file", cfg.Name)
	assert.Equal(t, 9100, cfg.Nested.Port, "env overrides file")
	assert.Equal(t, 90*time.Second, cfg.Nested.Timeout)
}

func TestLoadRejectsNonPointer(t *testing.T) {
	var cfg testConfig
	assert.Error(t, Load(cfg))
	assert.Error(t, Load(nil))
}

func TestLoadBadValue(t *testing.T) {
	t.Setenv("NESTED_PORT", "not-a-number")

	var cfg testConfig
	assert.Error(t, Load(&cfg))
}
