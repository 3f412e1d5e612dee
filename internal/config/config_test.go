package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "BBMCPServer", cfg.Server.Name)
	assert.Equal(t, "1.0.0", cfg.Server.Version)
	assert.False(t, cfg.Server.EnableAuth)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "@every 10m", cfg.Server.SummarySchedule)
	assert.Empty(t, cfg.Tools.Enabled)
	assert.Equal(t, "America/Sao_Paulo", cfg.Tools.TimeZone)
	assert.Equal(t, 60, cfg.Gateway.RequestsPerMinute)
	assert.Equal(t, 10, cfg.Gateway.MaxConcurrent)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Redaction)
}

func TestConfigAddress(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "0.0.0.0:9000", cfg.Address())

	cfg.Server.Host = "::1"
	assert.Equal(t, "[::1]:9000", cfg.Address())
}

func TestConfigValidate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		assert.NoError(t, DefaultConfig().Validate())
	})

	t.Run("multiple problems are joined", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Server.Port = -1
		cfg.Logging.Level = "verbose"
		cfg.Tools.Enabled = []string{"general", "billing"}

		err := cfg.Validate()
		require.Error(t, err)
		msg := err.Error()
		assert.Contains(t, msg, "server.port")
		assert.Contains(t, msg, "invalid log level")
		assert.Contains(t, msg, "tools.enabled")
		assert.Len(t, strings.Split(msg, "\n"), 3)
	})

	t.Run("empty schedule disables reporter", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Server.SummarySchedule = ""
		assert.NoError(t, cfg.Validate())
	})
}

func TestConfigString(t *testing.T) {
	s := DefaultConfig().String()
	assert.Contains(t, s, `"name": "BBMCPServer"`)
	assert.Contains(t, s, `"enable_auth": false`)
}
