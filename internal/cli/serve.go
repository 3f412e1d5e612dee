package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harun/toolhub/internal/daemon"
	"github.com/harun/toolhub/internal/logger"
)

var (
	serveHost     string
	servePort     int
	serveNoReload bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the tool server in the foreground",
	Long: `Run the tool server until SIGINT or SIGTERM.
The config file is watched and toolsets are re-registered when it changes.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "override server.host")
	serveCmd.Flags().IntVar(&servePort, "port", -1, "override server.port")
	serveCmd.Flags().BoolVar(&serveNoReload, "no-reload", false, "disable config hot reload")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, loader, err := loadConfig()
	if err != nil {
		return err
	}
	if serveHost != "" {
		cfg.Server.Host = serveHost
	}
	if servePort >= 0 {
		cfg.Server.Port = servePort
	}
	if serveNoReload {
		loader = nil
	}

	pidFile := daemon.PIDFile(cfg.DataDir)
	if pid, err := daemon.ReadPID(pidFile); err == nil && daemon.ProcessRunning(pid) {
		return fmt.Errorf("daemon is already running with PID %d (PID file: %s)", pid, pidFile)
	}

	log, err := logger.New(logger.Config{
		Level:     cfg.Logging.Level,
		File:      cfg.Logging.File,
		Console:   cfg.Logging.Console,
		Pretty:    cfg.Logging.Pretty,
		Redaction: cfg.Logging.Redaction,
		MaxSize:   cfg.Logging.MaxSize,
		MaxAge:    cfg.Logging.MaxAge,
		Compress:  cfg.Logging.Compress,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Close()

	d, err := daemon.New(cfg, loader, log)
	if err != nil {
		return err
	}
	if err := d.Start(); err != nil {
		return err
	}

	d.Wait()
	return nil
}
