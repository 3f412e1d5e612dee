// Package toolsets holds the built-in tool providers and registers them with a registry.
package toolsets

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/harun/toolhub/pkg/dateutil"
	"github.com/harun/toolhub/pkg/toolregistry"
)

// Options configures the built-in toolsets.
type Options struct {
	// Enabled lists the domains to register. Empty means every built-in toolset.
	Enabled []string
	// TimeZone is used by get_current_date. Empty means dateutil.DefaultZone.
	TimeZone string
	// Clock overrides time.Now for get_current_date.
	Clock dateutil.Clock
	Logger zerolog.Logger
}

type constructor func(opts Options) (toolregistry.Provider, error)

var builtins = map[toolregistry.Domain]constructor{
	toolregistry.DomainTechSupport: func(opts Options) (toolregistry.Provider, error) {
		return NewTechSupportService(opts.Logger)
	},
	toolregistry.DomainGeneral: func(opts Options) (toolregistry.Provider, error) {
		return NewGeneralService(opts.TimeZone, opts.Clock, opts.Logger)
	},
	toolregistry.DomainDemo: func(opts Options) (toolregistry.Provider, error) {
		return NewDemoService(opts.Logger)
	},
}

// BuiltinDomains returns the domains that have a built-in toolset, in domain order
func BuiltinDomains() []toolregistry.Domain {
	var out []toolregistry.Domain
	for _, d := range toolregistry.AllDomains() {
		if _, ok := builtins[d]; ok {
			out = append(out, d)
		}
	}
	return out
}

// RegisterDefaults builds the enabled toolsets and registers them with reg.
// Calling it again replaces the previously registered providers.
func RegisterDefaults(reg *toolregistry.Registry, opts Options) error {
	if reg == nil {
		return errors.New("tool registry is required")
	}

	domains, err := enabledDomains(opts.Enabled)
	if err != nil {
		return err
	}

	for _, domain := range domains {
		build, ok := builtins[domain]
		if !ok {
			opts.Logger.Warn().Str("domain", domain.String()).Msg("No built-in toolset for domain, skipping")
			continue
		}
		provider, err := build(opts)
		if err != nil {
			return fmt.Errorf("failed to build %s toolset: %w", domain, err)
		}
		if err := reg.RegisterProvider(provider); err != nil {
			return fmt.Errorf("failed to register %s toolset: %w", domain, err)
		}
	}
	return nil
}

func enabledDomains(names []string) ([]toolregistry.Domain, error) {
	if len(names) == 0 {
		return BuiltinDomains(), nil
	}

	seen := make(map[toolregistry.Domain]bool, len(names))
	out := make([]toolregistry.Domain, 0, len(names))
	for _, name := range names {
		d, err := toolregistry.ParseDomain(name)
		if err != nil {
			return nil, err
		}
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	return out, nil
}

func registerAll(ts *toolregistry.Toolset, defs []toolregistry.ToolDefinition) error {
	for _, def := range defs {
		if err := ts.Register(def); err != nil {
			return fmt.Errorf("failed to register tool %s: %w", def.Name, err)
		}
	}
	return nil
}
