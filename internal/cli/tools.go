package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/harun/toolhub/pkg/toolregistry"
	"github.com/harun/toolhub/pkg/toolsets"
)

var (
	toolsDomain string
	toolsOutput string
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tools the configured toolsets expose",
	Long: `Build the configured toolsets in-process and print their tool catalog.
No running server is needed.`,
	RunE: runTools,
}

func init() {
	toolsCmd.Flags().StringVar(&toolsDomain, "domain", "", "only list tools of this domain")
	toolsCmd.Flags().StringVarP(&toolsOutput, "output", "o", "table", "output format (table, json, yaml)")
	rootCmd.AddCommand(toolsCmd)
}

func runTools(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	reg := toolregistry.NewRegistry(zerolog.Nop())
	if err := toolsets.RegisterDefaults(reg, toolsets.Options{
		Enabled:  cfg.Tools.Enabled,
		TimeZone: cfg.Tools.TimeZone,
		Logger:   zerolog.Nop(),
	}); err != nil {
		return err
	}

	specs := reg.ListAllTools()
	if toolsDomain != "" {
		specs, err = reg.ListToolsForDomain(toolsDomain)
		if err != nil {
			return err
		}
	}

	return writeSpecs(cmd.OutOrStdout(), specs, toolsOutput)
}

func writeSpecs(out io.Writer, specs []toolregistry.ToolSpec, format string) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(specs)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(specs); err != nil {
			return err
		}
		return enc.Close()
	case "table", "":
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "DOMAIN\tTOOL\tPARAMETERS\tDESCRIPTION")
		for _, spec := range specs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", spec.Domain, spec.Name, paramList(spec.Parameters), spec.Description)
		}
		return w.Flush()
	default:
		return fmt.Errorf("unsupported output format %q (want table, json or yaml)", format)
	}
}

func paramList(params []toolregistry.ToolParameter) string {
	if len(params) == 0 {
		return "-"
	}
	names := make([]string, 0, len(params))
	for _, p := range params {
		name := p.Name
		if !p.Required {
			name += "?"
		}
		names = append(names, name)
	}
	return strings.Join(names, ",")
}
