package toolregistry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/harun/toolhub/internal/observability"
	"github.com/harun/toolhub/internal/tracing"
)

const tracerName = "toolhub/toolregistry"

// DomainSummary describes one registered provider
type DomainSummary struct {
	ToolCount    int    `json:"tool_count" yaml:"tool_count"`
	ProviderKind string `json:"provider_kind" yaml:"provider_kind"`
}

// Summary holds registry-wide counts, recomputed on every call
type Summary struct {
	TotalProviders int                      `json:"total_providers" yaml:"total_providers"`
	TotalTools     int                      `json:"total_tools" yaml:"total_tools"`
	Domains        map[string]DomainSummary `json:"domains" yaml:"domains"`
}

// Registry maps each Domain to exactly one Provider and dispatches tool calls by name
type Registry struct {
	mu        sync.RWMutex
	providers map[Domain]Provider
	logger    zerolog.Logger
}

// NewRegistry creates an empty registry
func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		providers: make(map[Domain]Provider),
		logger:    logger.With().Str("component", "tool_registry").Logger(),
	}
}

// RegisterProvider installs p under its domain, replacing any previous provider for that domain
func (r *Registry) RegisterProvider(p Provider) error {
	if p == nil {
		return ErrNilProvider
	}

	domain := p.Domain()
	if !domain.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidDomain, domain)
	}

	specs := p.ToolSpecs()

	r.mu.Lock()
	previous, replaced := r.providers[domain]
	r.providers[domain] = p
	r.mu.Unlock()

	event := r.logger.Info().
		Str("domain", domain.String()).
		Str("provider", providerKind(p)).
		Int("tools", len(specs))
	if replaced {
		event = event.Str("replaced", providerKind(previous))
	}
	event.Msg("Provider registered")

	r.warnCollisions(domain, specs)
	r.publishGauges()
	return nil
}

// warnCollisions logs tool names that domain shares with other registered providers
func (r *Registry) warnCollisions(domain Domain, specs []ToolSpec) {
	names := make(map[string]bool, len(specs))
	for _, spec := range specs {
		names[spec.Name] = true
	}

	for _, other := range r.snapshot() {
		if other.Domain() == domain {
			continue
		}
		for _, spec := range other.ToolSpecs() {
			if !names[spec.Name] {
				continue
			}
			winner := domain
			if domainRank(other.Domain()) < domainRank(domain) {
				winner = other.Domain()
			}
			r.logger.Warn().
				Str("tool", spec.Name).
				Str("domain", domain.String()).
				Str("other_domain", other.Domain().String()).
				Str("winner", winner.String()).
				Msg("Tool name exposed by more than one provider")
		}
	}
}

// snapshot returns the registered providers ordered by AllDomains
func (r *Registry) snapshot() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Provider, 0, len(r.providers))
	for _, d := range AllDomains() {
		if p, ok := r.providers[d]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Provider returns the provider registered for domain
func (r *Registry) Provider(domain Domain) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[domain]
	return p, ok
}

// Providers returns a copy of the domain to provider mapping
func (r *Registry) Providers() map[Domain]Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[Domain]Provider, len(r.providers))
	for d, p := range r.providers {
		out[d] = p
	}
	return out
}

// Summary reports provider and tool counts from the live provider state
func (r *Registry) Summary() Summary {
	providers := r.snapshot()

	summary := Summary{
		TotalProviders: len(providers),
		Domains:        make(map[string]DomainSummary, len(providers)),
	}
	for _, p := range providers {
		count := p.ToolCount()
		summary.TotalTools += count
		summary.Domains[p.Domain().String()] = DomainSummary{
			ToolCount:    count,
			ProviderKind: providerKind(p),
		}
	}
	return summary
}

// ListAllTools returns every tool spec across providers, in domain order
func (r *Registry) ListAllTools() []ToolSpec {
	var specs []ToolSpec
	for _, p := range r.snapshot() {
		specs = append(specs, p.ToolSpecs()...)
	}
	if specs == nil {
		specs = []ToolSpec{}
	}
	return specs
}

// ListToolsForDomain returns the specs of the provider registered under name.
// Unknown domain names yield ErrInvalidDomain; known domains without a provider yield ErrProviderAbsent.
func (r *Registry) ListToolsForDomain(name string) ([]ToolSpec, error) {
	domain, err := ParseDomain(name)
	if err != nil {
		return nil, err
	}

	p, ok := r.Provider(domain)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderAbsent, domain)
	}

	specs := p.ToolSpecs()
	if specs == nil {
		specs = []ToolSpec{}
	}
	return specs, nil
}

// Resolve finds the provider exposing toolName. Providers are scanned in AllDomains order,
// so the first domain in that order wins when names collide.
func (r *Registry) Resolve(toolName string) (Provider, bool) {
	for _, p := range r.snapshot() {
		for _, spec := range p.ToolSpecs() {
			if spec.Name == toolName {
				return p, true
			}
		}
	}
	return nil, false
}

// Execute resolves toolName and runs it on the owning provider
func (r *Registry) Execute(ctx context.Context, toolName string, params map[string]interface{}) (result Result) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "toolregistry.execute",
		attribute.String("tool.name", toolName),
	)
	defer span.End()

	ctx = tracing.WithTool(ctx, toolName)
	logger := tracing.LoggerFromContext(ctx, r.logger)

	provider, ok := r.Resolve(toolName)
	if !ok {
		logger.Warn().Msg("Tool not found")
		result = unknownTool(toolName)
		span.SetStatus(codes.Error, result.Error)
		observability.RecordToolExecution(toolName, "", 0, string(result.Code))
		return result
	}

	domain := provider.Domain()
	span.SetAttributes(attribute.String("tool.domain", domain.String()))
	logger.Debug().Str("domain", domain.String()).Msg("Executing tool")

	start := time.Now()
	result = r.executeOn(ctx, provider, toolName, params)
	duration := time.Since(start)

	observability.RecordToolExecution(toolName, domain.String(), duration, string(result.Code))

	if !result.Success {
		span.SetStatus(codes.Error, result.Error)
		logger.Warn().
			Str("domain", domain.String()).
			Str("code", string(result.Code)).
			Str("error", result.Error).
			Dur("duration", duration).
			Msg("Tool execution failed")
		return result
	}

	logger.Info().
		Str("domain", domain.String()).
		Dur("duration", duration).
		Msg("Tool executed")
	return result
}

// executeOn calls a provider, converting a panic from a custom Provider into a handler fault
func (r *Registry) executeOn(ctx context.Context, p Provider, toolName string, params map[string]interface{}) (result Result) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error().
				Str("tool", toolName).
				Str("domain", p.Domain().String()).
				Interface("panic", rec).
				Msg("Provider panicked")
			result = Failed(toolName, fmt.Errorf("%w: panic: %v", ErrHandlerFault, rec))
		}
	}()
	return p.ExecuteTool(ctx, toolName, params)
}

// LogServerInfo writes a startup banner describing the registered providers
func (r *Registry) LogServerInfo(serverName string, authEnabled bool) {
	summary := r.Summary()

	r.logger.Info().
		Str("server", serverName).
		Int("providers", summary.TotalProviders).
		Int("tools", summary.TotalTools).
		Bool("auth_enabled", authEnabled).
		Msg("Tool server ready")

	for _, d := range AllDomains() {
		info, ok := summary.Domains[d.String()]
		if !ok {
			continue
		}
		r.logger.Info().
			Str("domain", d.String()).
			Str("provider", info.ProviderKind).
			Int("tools", info.ToolCount).
			Msg("Provider available")
	}
}

func (r *Registry) publishGauges() {
	summary := r.Summary()
	observability.SetRegistrySize(summary.TotalProviders, summary.TotalTools)
}
