package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, int64(1<<30), cfg.MaxFileBytes)
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blockmetrics.toml")
	require.NoError(t, os.WriteFile(path, []byte("port = 9090\nchart_blocks = 50\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 50, cfg.ChartBlocks)
	// Untouched keys keep their defaults.
	assert.Equal(t, Default().MaxWindows, cfg.MaxWindows)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load("/nonexistent/blockmetrics.toml")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("port = \"not a number"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}
