package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/harun/toolhub/pkg/toolregistry"
)

var scheduleParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ParseSchedule parses a five-field cron expression or a descriptor such as "@every 10m".
func ParseSchedule(expr string) (cron.Schedule, error) {
	clean := strings.TrimSpace(expr)
	if clean == "" {
		return nil, fmt.Errorf("cron expression is required")
	}
	schedule, err := scheduleParser.Parse(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", clean, err)
	}
	return schedule, nil
}

// Validator validates configuration values
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidatePort checks the listen port range. Zero binds a free port.
func (v *Validator) ValidatePort(port int) error {
	if port < 0 || port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535, got %d", port)
	}
	return nil
}

// ValidateLogLevel validates log level
func (v *Validator) ValidateLogLevel(level string) error {
	validLevels := []string{"debug", "info", "warn", "error"}
	for _, valid := range validLevels {
		if level == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid log level: %s (must be one of: %s)", level, strings.Join(validLevels, ", "))
}

// ValidateDomains checks that every enabled entry names a known domain.
func (v *Validator) ValidateDomains(names []string) error {
	for _, name := range names {
		if _, err := toolregistry.ParseDomain(name); err != nil {
			return fmt.Errorf("tools.enabled: %w", err)
		}
	}
	return nil
}

// ValidateTimeZone checks that the IANA zone can be loaded.
func (v *Validator) ValidateTimeZone(zone string) error {
	if zone == "" {
		return nil
	}
	if _, err := time.LoadLocation(zone); err != nil {
		return fmt.Errorf("tools.timezone: %w", err)
	}
	return nil
}

// ValidateSchedule accepts an empty schedule, which disables the summary reporter.
func (v *Validator) ValidateSchedule(expr string) error {
	if strings.TrimSpace(expr) == "" {
		return nil
	}
	if _, err := ParseSchedule(expr); err != nil {
		return fmt.Errorf("server.summary_schedule: %w", err)
	}
	return nil
}

// ValidateConfig performs comprehensive validation
func (v *Validator) ValidateConfig(cfg *Config) []error {
	var errs []error

	if err := v.ValidatePort(cfg.Server.Port); err != nil {
		errs = append(errs, err)
	}
	if strings.TrimSpace(cfg.Server.Name) == "" {
		errs = append(errs, fmt.Errorf("server.name is required"))
	}
	if cfg.Server.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("server.request_timeout must be >= 0"))
	}
	if err := v.ValidateSchedule(cfg.Server.SummarySchedule); err != nil {
		errs = append(errs, err)
	}

	if err := v.ValidateDomains(cfg.Tools.Enabled); err != nil {
		errs = append(errs, err)
	}
	if err := v.ValidateTimeZone(cfg.Tools.TimeZone); err != nil {
		errs = append(errs, err)
	}

	if cfg.Gateway.RequestsPerMinute < 0 {
		errs = append(errs, fmt.Errorf("gateway.requests_per_minute must be >= 0"))
	}
	if cfg.Gateway.MaxConcurrent < 0 {
		errs = append(errs, fmt.Errorf("gateway.max_concurrent must be >= 0"))
	}

	if err := v.ValidateLogLevel(cfg.Logging.Level); err != nil {
		errs = append(errs, err)
	}
	if cfg.Logging.MaxSize < 0 {
		errs = append(errs, fmt.Errorf("logging.max_size must be >= 0"))
	}

	return errs
}

// Validate joins every validation failure into one error.
func (c *Config) Validate() error {
	return errors.Join(NewValidator().ValidateConfig(c)...)
}
