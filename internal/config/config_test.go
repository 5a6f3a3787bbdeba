package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutPath(t *testing.T) {
	t.Setenv("VOXEL_CONFIG", "")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 50*time.Millisecond, cfg.Streaming.Tick())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voxel.yaml")
	data := []byte(`
streaming:
  radius: 4
  metric: chebyshev
mesh:
  greedy: false
  missing: occludes
archive:
  backend: badger
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	t.Setenv("VOXEL_CONFIG", path)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Streaming.Radius)
	assert.Equal(t, "chebyshev", cfg.Streaming.Metric)
	assert.False(t, cfg.Mesh.Greedy)
	assert.Equal(t, "occludes", cfg.Mesh.Missing)
	assert.Equal(t, "badger", cfg.Archive.Backend)
	// Незаданные поля остаются дефолтными
	assert.Equal(t, 64, cfg.Streaming.Budget)
	assert.Equal(t, 3, cfg.Mesh.MaxRetries)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("streaming:\n  metric: taxicab\n  radius: -1\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "taxicab")
	assert.Contains(t, err.Error(), "radius")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestAPIPortFallback(t *testing.T) {
	api := APIConfig{}
	t.Setenv("VOXEL_API_PORT", "")
	assert.Equal(t, 8088, api.GetPort())

	t.Setenv("VOXEL_API_PORT", "9090")
	assert.Equal(t, 9090, api.GetPort())

	api.Port = 7000
	assert.Equal(t, 7000, api.GetPort())
}
