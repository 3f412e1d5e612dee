package daemon

import (
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/harun/toolhub/internal/config"
	"github.com/harun/toolhub/internal/observability"
	"github.com/harun/toolhub/pkg/toolregistry"
)

// SummaryReporter periodically logs the registry summary and refreshes the
// registry gauges.
type SummaryReporter struct {
	registry *toolregistry.Registry
	cron     *cron.Cron
	logger   zerolog.Logger
}

// NewSummaryReporter schedules a report on spec, a cron expression or descriptor.
func NewSummaryReporter(registry *toolregistry.Registry, spec string, logger zerolog.Logger) (*SummaryReporter, error) {
	schedule, err := config.ParseSchedule(spec)
	if err != nil {
		return nil, err
	}

	logger = logger.With().Str("component", "summary-reporter").Logger()
	r := &SummaryReporter{
		registry: registry,
		logger:   logger,
		cron: cron.New(cron.WithChain(
			cron.Recover(cron.PrintfLogger(&logger)),
			cron.SkipIfStillRunning(cron.DiscardLogger),
		)),
	}
	r.cron.Schedule(schedule, cron.FuncJob(r.Report))

	return r, nil
}

// Start starts the scheduler in its own goroutine.
func (r *SummaryReporter) Start() {
	r.cron.Start()
}

// Stop stops the scheduler and waits for a running report to finish.
func (r *SummaryReporter) Stop() {
	<-r.cron.Stop().Done()
}

// Report logs one summary line plus one line per registered domain.
func (r *SummaryReporter) Report() {
	summary := r.registry.Summary()
	observability.SetRegistrySize(summary.TotalProviders, summary.TotalTools)

	r.logger.Info().
		Int("providers", summary.TotalProviders).
		Int("tools", summary.TotalTools).
		Msg("Registry summary")

	for _, domain := range toolregistry.AllDomains() {
		ds, ok := summary.Domains[domain.String()]
		if !ok {
			continue
		}
		r.logger.Debug().
			Str("domain", domain.String()).
			Str("provider", ds.ProviderKind).
			Int("tools", ds.ToolCount).
			Msg("Registry domain")
	}
}
