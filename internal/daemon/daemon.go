package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/harun/toolhub/internal/config"
	"github.com/harun/toolhub/internal/logger"
	"github.com/harun/toolhub/internal/observability"
	"github.com/harun/toolhub/internal/tracing"
	"github.com/harun/toolhub/pkg/gateway"
	"github.com/harun/toolhub/pkg/toolregistry"
	"github.com/harun/toolhub/pkg/toolsets"
)

const shutdownTimeout = 10 * time.Second

// Daemon wires the tool registry, the built-in toolsets and the gateway
// into one long-running process.
type Daemon struct {
	config *config.Config
	loader *config.Loader
	logger *logger.Logger

	registry  *toolregistry.Registry
	gateway   *gateway.Server
	reporter  *SummaryReporter
	watcher   *config.Watcher
	lifecycle *LifecycleManager

	startTime time.Time
	running   bool
	mu        sync.RWMutex

	tracingEnabled bool
}

// Status is a point-in-time view of the daemon.
type Status struct {
	Running   bool
	Uptime    time.Duration
	StartTime time.Time
}

// New builds the daemon. loader is used for hot reload and may be nil.
func New(cfg *config.Config, loader *config.Loader, log *logger.Logger) (*Daemon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	observability.EnsureRegistered()

	d := &Daemon{
		config: cfg,
		loader: loader,
		logger: log,
	}

	if err := tracing.InitOpenTelemetry(cfg.Server.Name, cfg.Server.Version); err != nil {
		log.Warn().Err(err).Msg("Failed to initialize tracing, continuing without distributed tracing")
	} else {
		d.tracingEnabled = true
	}

	if err := d.initialize(); err != nil {
		d.shutdownTracing()
		return nil, err
	}

	d.lifecycle = NewLifecycleManager(d)
	return d, nil
}

func (d *Daemon) initialize() error {
	zl := d.logger.GetZerolog()

	auditPath := d.config.Logging.AuditFile
	if auditPath == "" {
		auditPath = filepath.Join(d.config.DataDir, "audit.log")
	}
	if err := os.MkdirAll(filepath.Dir(auditPath), 0755); err != nil {
		return fmt.Errorf("failed to create audit directory: %w", err)
	}
	if err := observability.InitAuditLogger(auditPath); err != nil {
		d.logger.Warn().Err(err).Msg("Failed to initialize audit logger, using default stderr")
	} else {
		d.logger.Info().Str("path", auditPath).Msg("Audit logger initialized")
	}

	d.registry = toolregistry.NewRegistry(zl.With().Str("component", "registry").Logger())
	if err := toolsets.RegisterDefaults(d.registry, d.toolsetOptions(d.config)); err != nil {
		return fmt.Errorf("failed to register toolsets: %w", err)
	}

	gw, err := gateway.NewServer(gateway.Config{
		Host:              d.config.Server.Host,
		Port:              d.config.Server.Port,
		ServerName:        d.config.Server.Name,
		Version:           d.config.Server.Version,
		Description:       d.config.Server.Description,
		AuthEnabled:       d.config.Server.EnableAuth,
		RequestTimeout:    d.config.Server.RequestTimeout,
		TickInterval:      d.config.Gateway.TickInterval,
		RequestsPerMinute: d.config.Gateway.RequestsPerMinute,
		MaxConcurrent:     d.config.Gateway.MaxConcurrent,
		IdempotencyTTL:    d.config.Gateway.IdempotencyTTL,
		Registry:          d.registry,
		Logger:            zl,
	})
	if err != nil {
		return fmt.Errorf("failed to create gateway server: %w", err)
	}
	d.gateway = gw

	if d.config.Server.SummarySchedule != "" {
		reporter, err := NewSummaryReporter(d.registry, d.config.Server.SummarySchedule, zl)
		if err != nil {
			return fmt.Errorf("failed to create summary reporter: %w", err)
		}
		d.reporter = reporter
	}

	if d.loader != nil {
		watcher, err := config.NewWatcher(d.loader, 0, d.applyConfig, zl)
		if err != nil {
			d.logger.Warn().Err(err).Msg("Config hot reload disabled")
		} else {
			d.watcher = watcher
		}
	}

	return nil
}

func (d *Daemon) toolsetOptions(cfg *config.Config) toolsets.Options {
	return toolsets.Options{
		Enabled:  cfg.Tools.Enabled,
		TimeZone: cfg.Tools.TimeZone,
		Logger:   d.logger.GetZerolog(),
	}
}

// Start writes the PID file, starts the gateway and background jobs, and
// logs the provider catalog.
func (d *Daemon) Start() error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return fmt.Errorf("daemon is already running")
	}
	d.running = true
	d.startTime = time.Now()
	d.mu.Unlock()

	ctx := tracing.NewRequestContext(context.Background())
	logger := tracing.LoggerFromContext(ctx, d.logger.GetZerolog())
	logger.Info().Str("server", d.config.Server.Name).Msg("Starting toolhub daemon")

	if err := d.lifecycle.Start(); err != nil {
		d.setStopped()
		return fmt.Errorf("failed to start lifecycle manager: %w", err)
	}

	if err := d.gateway.Start(); err != nil {
		_ = d.lifecycle.Stop()
		d.setStopped()
		return fmt.Errorf("failed to start gateway server: %w", err)
	}

	if d.reporter != nil {
		d.reporter.Start()
	}

	if d.watcher != nil {
		if err := d.watcher.Start(); err != nil {
			logger.Warn().Err(err).Msg("Failed to start config watcher")
			d.watcher = nil
		}
	}

	d.registry.LogServerInfo(d.config.Server.Name, d.config.Server.EnableAuth)
	logger.Info().Str("addr", d.gateway.Addr()).Msg("Daemon started")

	return nil
}

func (d *Daemon) setStopped() {
	d.mu.Lock()
	d.running = false
	d.mu.Unlock()
}

// Stop shuts everything down in reverse start order.
func (d *Daemon) Stop() error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return fmt.Errorf("daemon is not running")
	}
	d.running = false
	d.mu.Unlock()

	ctx := tracing.NewRequestContext(context.Background())
	logger := tracing.LoggerFromContext(ctx, d.logger.GetZerolog())
	logger.Info().Msg("Stopping toolhub daemon")

	if d.watcher != nil {
		if err := d.watcher.Stop(); err != nil {
			logger.Error().Err(err).Msg("Failed to stop config watcher")
		}
	}

	if d.reporter != nil {
		d.reporter.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := d.gateway.Stop(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Failed to stop gateway server")
	}

	if err := d.lifecycle.Stop(); err != nil {
		logger.Error().Err(err).Msg("Failed to stop lifecycle manager")
	}

	d.shutdownTracing()

	if err := observability.GetAuditLogger().Close(); err != nil {
		logger.Error().Err(err).Msg("Failed to close audit logger")
	}

	logger.Info().Msg("Daemon stopped")
	return nil
}

func (d *Daemon) shutdownTracing() {
	if !d.tracingEnabled {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tracing.ShutdownOpenTelemetry(ctx); err != nil {
		d.logger.Error().Err(err).Msg("Failed to shutdown tracing")
	}
	d.tracingEnabled = false
}

// Status reports whether the daemon runs and for how long.
func (d *Daemon) Status() Status {
	d.mu.RLock()
	defer d.mu.RUnlock()

	status := Status{Running: d.running}
	if d.running {
		status.Uptime = time.Since(d.startTime)
		status.StartTime = d.startTime
	}
	return status
}

// Wait blocks until SIGINT or SIGTERM, then stops the daemon.
func (d *Daemon) Wait() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	sig := <-sigChan
	d.logger.Info().Str("signal", sig.String()).Msg("Received signal")

	if err := d.Stop(); err != nil {
		d.logger.Error().Err(err).Msg("Failed to stop daemon")
	}
}

// Config returns the active configuration.
func (d *Daemon) Config() *config.Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.config
}

// Registry returns the tool registry
func (d *Daemon) Registry() *toolregistry.Registry { return d.registry }

// Gateway returns the gateway server
func (d *Daemon) Gateway() *gateway.Server { return d.gateway }

func (d *Daemon) log() zerolog.Logger { return d.logger.GetZerolog() }
