package config

import (
	"encoding/json"
	"net"
	"strconv"
	"time"
)

// Config is the toolhub server configuration.
type Config struct {
	Server  ServerConfig  `json:"server" mapstructure:"server"`
	Auth    AuthConfig    `json:"auth" mapstructure:"auth"`
	Tools   ToolsConfig   `json:"tools" mapstructure:"tools"`
	Gateway GatewayConfig `json:"gateway" mapstructure:"gateway"`
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// DataDir holds the PID file and default log files.
	DataDir string `json:"data_dir" mapstructure:"data_dir"`
}

// ServerConfig identifies the server and where it listens.
type ServerConfig struct {
	Host        string `json:"host" mapstructure:"host"`
	Port        int    `json:"port" mapstructure:"port"`
	Debug       bool   `json:"debug" mapstructure:"debug"`
	Name        string `json:"name" mapstructure:"name"`
	Version     string `json:"version" mapstructure:"version"`
	Description string `json:"description" mapstructure:"description"`
	EnableAuth  bool   `json:"enable_auth" mapstructure:"enable_auth"`

	RequestTimeout time.Duration `json:"request_timeout" mapstructure:"request_timeout"`
	// SummarySchedule is a cron spec for the registry summary log line; empty disables it.
	SummarySchedule string `json:"summary_schedule" mapstructure:"summary_schedule"`
}

// AuthConfig is carried for reporting; tokens are not verified.
type AuthConfig struct {
	TenantID string `json:"tenant_id" mapstructure:"tenant_id"`
	ClientID string `json:"client_id" mapstructure:"client_id"`
	JWKSURI  string `json:"jwks_uri" mapstructure:"jwks_uri"`
	Issuer   string `json:"issuer" mapstructure:"issuer"`
	Audience string `json:"audience" mapstructure:"audience"`
}

// ToolsConfig selects the built-in toolsets.
type ToolsConfig struct {
	// Enabled lists domains to register; empty registers every built-in toolset.
	Enabled  []string `json:"enabled" mapstructure:"enabled"`
	TimeZone string   `json:"timezone" mapstructure:"timezone"`
}

// GatewayConfig tunes the HTTP and WebSocket gateway.
type GatewayConfig struct {
	RequestsPerMinute int           `json:"requests_per_minute" mapstructure:"requests_per_minute"`
	MaxConcurrent     int           `json:"max_concurrent" mapstructure:"max_concurrent"`
	TickInterval      time.Duration `json:"tick_interval" mapstructure:"tick_interval"`
	IdempotencyTTL    time.Duration `json:"idempotency_ttl" mapstructure:"idempotency_ttl"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`
	File      string `json:"file" mapstructure:"file"`
	Console   bool   `json:"console" mapstructure:"console"`
	Pretty    bool   `json:"pretty" mapstructure:"pretty"`
	MaxSize   int    `json:"max_size" mapstructure:"max_size"` // MB
	MaxAge    int    `json:"max_age" mapstructure:"max_age"`   // days
	Compress  bool   `json:"compress" mapstructure:"compress"`
	Redaction bool   `json:"redaction" mapstructure:"redaction"`
	AuditFile string `json:"audit_file" mapstructure:"audit_file"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            9000,
			Name:            "BBMCPServer",
			Version:         "1.0.0",
			Description:     "Go-based MCP tool server",
			RequestTimeout:  30 * time.Second,
			SummarySchedule: "@every 10m",
		},
		Tools: ToolsConfig{
			Enabled:  []string{},
			TimeZone: "America/Sao_Paulo",
		},
		Gateway: GatewayConfig{
			RequestsPerMinute: 60,
			MaxConcurrent:     10,
			TickInterval:      30 * time.Second,
			IdempotencyTTL:    5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:     "info",
			Console:   true,
			Pretty:    true,
			MaxSize:   100,
			MaxAge:    7,
			Compress:  true,
			Redaction: true,
		},
	}
}

// Address returns host:port for the listener.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// String returns a JSON representation of the config
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}
