package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes environment overrides, e.g. TOOLHUB_SERVER_PORT.
	EnvPrefix = "TOOLHUB"

	dirName  = ".toolhub"
	fileName = "toolhub.json"
)

// Loader handles configuration loading
type Loader struct {
	configPath string
}

// NewLoader creates a loader for configPath; empty selects $HOME/.toolhub/toolhub.json.
func NewLoader(configPath string) *Loader {
	return &Loader{configPath: configPath}
}

// Path returns the config file path
func (l *Loader) Path() string {
	if l.configPath != "" {
		return l.configPath
	}
	return filepath.Join(defaultDataDir(), fileName)
}

// Load reads defaults, then the config file when it exists, then TOOLHUB_* env overrides.
func (l *Loader) Load() (*Config, error) {
	path := l.Path()

	v := viper.New()
	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, value := range settings(DefaultConfig()) {
		v.SetDefault(key, value)
	}

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.DataDir == "" {
		cfg.DataDir = defaultDataDir()
	}

	return cfg, nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), dirName)
	}
	return filepath.Join(home, dirName)
}

// Save writes cfg to the config file, creating its directory.
func (l *Loader) Save(cfg *Config) error {
	path := l.Path()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType("json")
	for key, value := range settings(cfg) {
		v.Set(key, value)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// settings flattens cfg into viper keys. Durations are written as strings
// so the file stays readable.
func settings(cfg *Config) map[string]interface{} {
	return map[string]interface{}{
		"server.host":             cfg.Server.Host,
		"server.port":             cfg.Server.Port,
		"server.debug":            cfg.Server.Debug,
		"server.name":             cfg.Server.Name,
		"server.version":          cfg.Server.Version,
		"server.description":      cfg.Server.Description,
		"server.enable_auth":      cfg.Server.EnableAuth,
		"server.request_timeout":  cfg.Server.RequestTimeout.String(),
		"server.summary_schedule": cfg.Server.SummarySchedule,

		"auth.tenant_id": cfg.Auth.TenantID,
		"auth.client_id": cfg.Auth.ClientID,
		"auth.jwks_uri":  cfg.Auth.JWKSURI,
		"auth.issuer":    cfg.Auth.Issuer,
		"auth.audience":  cfg.Auth.Audience,

		"tools.enabled":  cfg.Tools.Enabled,
		"tools.timezone": cfg.Tools.TimeZone,

		"gateway.requests_per_minute": cfg.Gateway.RequestsPerMinute,
		"gateway.max_concurrent":      cfg.Gateway.MaxConcurrent,
		"gateway.tick_interval":       cfg.Gateway.TickInterval.String(),
		"gateway.idempotency_ttl":     cfg.Gateway.IdempotencyTTL.String(),

		"logging.level":      cfg.Logging.Level,
		"logging.file":       cfg.Logging.File,
		"logging.console":    cfg.Logging.Console,
		"logging.pretty":     cfg.Logging.Pretty,
		"logging.max_size":   cfg.Logging.MaxSize,
		"logging.max_age":    cfg.Logging.MaxAge,
		"logging.compress":   cfg.Logging.Compress,
		"logging.redaction":  cfg.Logging.Redaction,
		"logging.audit_file": cfg.Logging.AuditFile,

		"data_dir": cfg.DataDir,
	}
}

// Load is a convenience function that creates a loader and loads the config
func Load(configPath string) (*Config, error) {
	return NewLoader(configPath).Load()
}
