package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/harun/toolhub/pkg/toolregistry"
)

func TestToolsCommand(t *testing.T) {
	path, _ := writeConfig(t, nil)

	t.Run("table lists every builtin tool", func(t *testing.T) {
		output, err := runCLI(t, "--config", path, "tools")
		require.NoError(t, err)

		assert.Contains(t, output, "DOMAIN")
		for _, name := range []string{"reset_password", "check_system_status", "get_current_date", "format_text", "add_two_numbers", "get_user_info"} {
			assert.Contains(t, output, name)
		}
	})

	t.Run("json for one domain", func(t *testing.T) {
		output, err := runCLI(t, "--config", path, "tools", "--domain", "demo", "--output", "json")
		require.NoError(t, err)

		var specs []toolregistry.ToolSpec
		require.NoError(t, json.Unmarshal([]byte(output), &specs))
		require.Len(t, specs, 2)
		assert.Equal(t, "add_two_numbers", specs[0].Name)
		assert.Equal(t, toolregistry.DomainDemo, specs[0].Domain)
	})

	t.Run("yaml", func(t *testing.T) {
		output, err := runCLI(t, "--config", path, "tools", "--domain", "general", "-o", "yaml")
		require.NoError(t, err)

		var specs []map[string]interface{}
		require.NoError(t, yaml.Unmarshal([]byte(output), &specs))
		require.Len(t, specs, 2)
		assert.Equal(t, "general", specs[0]["domain"])
	})

	t.Run("unknown domain", func(t *testing.T) {
		_, err := runCLI(t, "--config", path, "tools", "--domain", "billing")
		assert.ErrorIs(t, err, toolregistry.ErrInvalidDomain)
	})

	t.Run("domain without provider", func(t *testing.T) {
		_, err := runCLI(t, "--config", path, "tools", "--domain", "data")
		assert.ErrorIs(t, err, toolregistry.ErrProviderAbsent)
	})

	t.Run("unsupported output", func(t *testing.T) {
		_, err := runCLI(t, "--config", path, "tools", "-o", "xml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported output format")
	})

	t.Run("enabled subset", func(t *testing.T) {
		subset, _ := writeConfig(t, map[string]interface{}{
			"tools": map[string]interface{}{"enabled": []string{"demo"}},
		})

		output, err := runCLI(t, "--config", subset, "tools")
		require.NoError(t, err)
		assert.Contains(t, output, "add_two_numbers")
		assert.NotContains(t, output, "reset_password")
	})
}

func TestParamList(t *testing.T) {
	assert.Equal(t, "-", paramList(nil))
	assert.Equal(t, "a,b?", paramList([]toolregistry.ToolParameter{
		{Name: "a", Required: true},
		{Name: "b"},
	}))
}
