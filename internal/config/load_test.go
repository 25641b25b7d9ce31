package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/darkfi-go/eventgraph/internal/config"
	"github.com/stretchr/testify/require"
)

func TestLoadFileMissingReturnsDefault(t *testing.T) {
	cfg, err := config.LoadFile(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, config.Default(), cfg)
}

func TestLoadFileTOMLOverlay(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(`
n_parents = 3
retain_layers = 500
ts_drift = "1m"
`), 0o644)
	require.NoError(t, err)

	cfg, err := config.LoadFile(dir)
	require.NoError(t, err)
	require.Equal(t, 3, cfg.NParents)
	require.Equal(t, uint64(500), cfg.RetainLayers)
	require.Equal(t, config.Default().PayloadMax, cfg.PayloadMax)
}

func TestLoadFileLegacyYAMLFallback(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("min_peers: 4\n"), 0o644)
	require.NoError(t, err)

	cfg, err := config.LoadFile(dir)
	require.NoError(t, err)
	require.Equal(t, 4, cfg.MinPeers)
}
