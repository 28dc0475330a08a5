package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, 4*time.Second, cfg.Interval)
	assert.Equal(t, time.Second, cfg.Fade)
}

func TestLoadOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
interval: 6s
fade: 250ms
policy: skip-past
verbose: true
db_path: /tmp/g.db
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 6*time.Second, cfg.Interval)
	assert.Equal(t, 250*time.Millisecond, cfg.Fade)
	assert.Equal(t, "skip-past", cfg.Policy)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, "/tmp/g.db", cfg.DBPath)
	assert.Equal(t, DefaultConfig().LogPath, cfg.LogPath)
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"zero interval": "interval: 0s\n",
		"bad policy":    "policy: backwards\n",
		"negative fade": "fade: -1s\n",
		"not yaml":      "interval: [\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestEnsureDirs(t *testing.T) {
	root := t.TempDir()
	cfg := DefaultConfig()
	cfg.DBPath = filepath.Join(root, "a", "gallery.db")
	cfg.LogPath = filepath.Join(root, "b", "gallery.log")

	require.NoError(t, cfg.EnsureDirs())
	assert.DirExists(t, filepath.Join(root, "a"))
	assert.DirExists(t, filepath.Join(root, "b"))
}
