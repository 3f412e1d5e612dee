package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/harun/toolhub/internal/daemon"
	"github.com/harun/toolhub/pkg/gateway"
	"github.com/harun/toolhub/pkg/toolregistry"
)

var statusAddr string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server status",
	Long:  `Show whether the tool server runs and, when it does, the registry summary it reports.`,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusAddr, "addr", "", "server address to query (default from server.host and server.port)")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	pidFile := daemon.PIDFile(cfg.DataDir)
	pid, err := daemon.ReadPID(pidFile)
	if err != nil || !daemon.ProcessRunning(pid) {
		fmt.Fprintln(out, "Status: stopped")
		return nil
	}

	fmt.Fprintln(out, "Status: running")
	fmt.Fprintf(out, "PID: %d\n", pid)
	if info, err := os.Stat(pidFile); err == nil {
		fmt.Fprintf(out, "Uptime: %s\n", formatDuration(time.Since(info.ModTime())))
	}

	addr := statusAddr
	if addr == "" {
		addr = dialAddress(cfg.Server.Host, cfg.Server.Port)
	}
	info, err := fetchServerInfo(addr)
	if err != nil {
		fmt.Fprintf(out, "Server info unavailable: %v\n", err)
		return nil
	}

	fmt.Fprintf(out, "Server: %s %s\n", info.ServerName, info.Version)
	fmt.Fprintf(out, "Auth enabled: %t\n", info.AuthEnabled)
	fmt.Fprintf(out, "Providers: %d\n", info.TotalProviders)
	fmt.Fprintf(out, "Tools: %d\n", info.TotalTools)
	for _, domain := range toolregistry.AllDomains() {
		ds, ok := info.Domains[domain.String()]
		if !ok {
			continue
		}
		fmt.Fprintf(out, "  %s: %s (%d tools)\n", domain, ds.ProviderKind, ds.ToolCount)
	}
	return nil
}

// dialAddress maps a wildcard listen host to loopback.
func dialAddress(host string, port int) string {
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

func fetchServerInfo(addr string) (*gateway.ServerInfo, error) {
	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Get("http://" + addr + "/api/mcp/info")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}

	var info gateway.ServerInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode server info: %w", err)
	}
	return &info, nil
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
