package daemon

import (
	"context"
	"slices"

	"github.com/harun/toolhub/internal/config"
	"github.com/harun/toolhub/internal/observability"
	"github.com/harun/toolhub/internal/tracing"
	"github.com/harun/toolhub/pkg/toolsets"
)

const reloadActor = "config-watcher"

// EventConfigReloaded is broadcast to gateway clients after every reload attempt.
const EventConfigReloaded = "config.reloaded"

// applyConfig re-registers the built-in toolsets from a reloaded config.
// Listener and gateway settings only take effect after a restart.
func (d *Daemon) applyConfig(next *config.Config) {
	ctx := tracing.WithActor(tracing.NewRequestContext(context.Background()), reloadActor)
	logger := tracing.LoggerFromContext(ctx, d.log())

	d.mu.Lock()
	prev := d.config
	d.config = next
	d.mu.Unlock()

	if restartRequired(prev, next) {
		logger.Warn().Msg("Server or gateway settings changed, restart to apply them")
	}
	for _, name := range removedDomains(prev.Tools.Enabled, next.Tools.Enabled) {
		logger.Warn().Str("domain", name).Msg("Toolset disabled in config stays registered until restart")
	}

	status := "success"
	metadata := map[string]interface{}{
		"enabled":  next.Tools.Enabled,
		"timezone": next.Tools.TimeZone,
	}
	if err := toolsets.RegisterDefaults(d.registry, d.toolsetOptions(next)); err != nil {
		status = "error"
		metadata["error"] = err.Error()
		logger.Error().Err(err).Msg("Failed to re-register toolsets")
	} else {
		summary := d.registry.Summary()
		metadata["total_providers"] = summary.TotalProviders
		metadata["total_tools"] = summary.TotalTools
		logger.Info().
			Int("providers", summary.TotalProviders).
			Int("tools", summary.TotalTools).
			Msg("Toolsets re-registered from reloaded config")
	}

	observability.RecordConfigAudit(ctx, "reload", reloadActor, status, metadata)
	d.gateway.Broadcast(EventConfigReloaded, metadata)
}

func restartRequired(prev, next *config.Config) bool {
	return prev.Server.Host != next.Server.Host ||
		prev.Server.Port != next.Server.Port ||
		prev.Server.Name != next.Server.Name ||
		prev.Server.RequestTimeout != next.Server.RequestTimeout ||
		prev.Server.SummarySchedule != next.Server.SummarySchedule ||
		prev.Gateway != next.Gateway
}

// removedDomains lists domains enabled before but not after. An empty list
// means every built-in toolset.
func removedDomains(prev, next []string) []string {
	if len(next) == 0 {
		return nil
	}
	if len(prev) == 0 {
		prev = make([]string, 0, len(toolsets.BuiltinDomains()))
		for _, d := range toolsets.BuiltinDomains() {
			prev = append(prev, d.String())
		}
	}

	var removed []string
	for _, name := range prev {
		if !slices.Contains(next, name) {
			removed = append(removed, name)
		}
	}
	return removed
}
