package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harun/toolhub/pkg/toolregistry"
)

func TestValidatePort(t *testing.T) {
	v := NewValidator()

	for _, port := range []int{0, 1, 9000, 65535} {
		assert.NoError(t, v.ValidatePort(port), "port %d", port)
	}
	for _, port := range []int{-1, 65536} {
		assert.Error(t, v.ValidatePort(port), "port %d", port)
	}
}

func TestValidateLogLevel(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		level   string
		wantErr bool
	}{
		{"debug", false},
		{"info", false},
		{"warn", false},
		{"error", false},
		{"trace", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			err := v.ValidateLogLevel(tt.level)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateDomains(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.ValidateDomains(nil))
	assert.NoError(t, v.ValidateDomains([]string{"tech_support", "General", " demo "}))

	err := v.ValidateDomains([]string{"general", "billing"})
	require.Error(t, err)
	assert.ErrorIs(t, err, toolregistry.ErrInvalidDomain)
	assert.Contains(t, err.Error(), "billing")
}

func TestValidateTimeZone(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.ValidateTimeZone(""))
	assert.NoError(t, v.ValidateTimeZone("UTC"))
	assert.Error(t, v.ValidateTimeZone("Mars/Olympus_Mons"))
}

func TestValidateSchedule(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.ValidateSchedule(""))
	assert.NoError(t, v.ValidateSchedule("@every 10m"))
	assert.NoError(t, v.ValidateSchedule("*/5 * * * *"))
	assert.NoError(t, v.ValidateSchedule("@hourly"))
	assert.Error(t, v.ValidateSchedule("every ten minutes"))
	assert.Error(t, v.ValidateSchedule("* * * * * *"))
}

func TestParseSchedule(t *testing.T) {
	schedule, err := ParseSchedule("@every 10m")
	require.NoError(t, err)

	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, start.Add(10*time.Minute), schedule.Next(start))

	_, err = ParseSchedule("   ")
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	v := NewValidator()

	cfg := DefaultConfig()
	assert.Empty(t, v.ValidateConfig(cfg))

	cfg.Server.Name = " "
	cfg.Server.RequestTimeout = -time.Second
	cfg.Gateway.MaxConcurrent = -1
	cfg.Logging.MaxSize = -5
	assert.Len(t, v.ValidateConfig(cfg), 4)
}
