package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoaderPath(t *testing.T) {
	assert.Equal(t, "/etc/toolhub.json", NewLoader("/etc/toolhub.json").Path())
	assert.Equal(t, fileName, filepath.Base(NewLoader("").Path()))
}

func TestLoaderLoad(t *testing.T) {
	t.Run("defaults when file is missing", func(t *testing.T) {
		cfg, err := NewLoader(filepath.Join(t.TempDir(), "missing.json")).Load()
		require.NoError(t, err)

		assert.Equal(t, 9000, cfg.Server.Port)
		assert.Equal(t, "BBMCPServer", cfg.Server.Name)
		assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
		assert.NotEmpty(t, cfg.DataDir)
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "toolhub.json")
		content := `{
			"server": {"port": 9100, "name": "TestServer", "request_timeout": "5s"},
			"tools": {"enabled": ["general", "demo"]},
			"logging": {"level": "debug"},
			"data_dir": "/var/lib/toolhub"
		}`
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		cfg, err := NewLoader(path).Load()
		require.NoError(t, err)

		assert.Equal(t, 9100, cfg.Server.Port)
		assert.Equal(t, "TestServer", cfg.Server.Name)
		assert.Equal(t, "0.0.0.0", cfg.Server.Host)
		assert.Equal(t, 5*time.Second, cfg.Server.RequestTimeout)
		assert.Equal(t, []string{"general", "demo"}, cfg.Tools.Enabled)
		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.Equal(t, "/var/lib/toolhub", cfg.DataDir)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "toolhub.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"server": {"port": 9100}}`), 0644))

		t.Setenv("TOOLHUB_SERVER_PORT", "9200")
		t.Setenv("TOOLHUB_SERVER_ENABLE_AUTH", "true")

		cfg, err := NewLoader(path).Load()
		require.NoError(t, err)

		assert.Equal(t, 9200, cfg.Server.Port)
		assert.True(t, cfg.Server.EnableAuth)
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "toolhub.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"server": `), 0644))

		_, err := NewLoader(path).Load()
		assert.Error(t, err)
	})
}

func TestLoaderSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "toolhub.json")
	loader := NewLoader(path)

	cfg := DefaultConfig()
	cfg.Server.Port = 9300
	cfg.Server.RequestTimeout = 45 * time.Second
	cfg.Tools.Enabled = []string{"tech_support"}
	cfg.DataDir = "/tmp/toolhub-data"

	require.NoError(t, loader.Save(cfg))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"45s"`)

	loaded, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, 9300, loaded.Server.Port)
	assert.Equal(t, 45*time.Second, loaded.Server.RequestTimeout)
	assert.Equal(t, []string{"tech_support"}, loaded.Tools.Enabled)
	assert.Equal(t, "/tmp/toolhub-data", loaded.DataDir)
}

func TestLoad(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, "BBMCPServer", cfg.Server.Name)
}
