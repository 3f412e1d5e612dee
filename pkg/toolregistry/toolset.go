package toolregistry

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/xeipuuv/gojsonschema"
)

type toolEntry struct {
	def    ToolDefinition
	schema *gojsonschema.Schema
}

// Toolset is the standard Provider implementation: a named set of tools under one domain
type Toolset struct {
	domain Domain
	logger zerolog.Logger

	mu    sync.RWMutex
	order []string
	tools map[string]*toolEntry
}

// NewToolset creates an empty toolset for domain
func NewToolset(domain Domain, logger zerolog.Logger) *Toolset {
	return &Toolset{
		domain: domain,
		logger: logger.With().Str("domain", domain.String()).Logger(),
		tools:  make(map[string]*toolEntry),
	}
}

// Register adds a tool to the toolset
func (t *Toolset) Register(def ToolDefinition) error {
	if err := validateToolDefinition(def); err != nil {
		return fmt.Errorf("invalid tool definition: %w", err)
	}

	schema, err := generateJSONSchema(def)
	if err != nil {
		return fmt.Errorf("failed to generate schema for %s: %w", def.Name, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.tools[def.Name]; exists {
		return fmt.Errorf("tool %s already registered in domain %s", def.Name, t.domain)
	}

	t.tools[def.Name] = &toolEntry{def: def, schema: schema}
	t.order = append(t.order, def.Name)

	t.logger.Debug().Str("tool", def.Name).Msg("Tool registered")
	return nil
}

// Domain returns the toolset's domain
func (t *Toolset) Domain() Domain {
	return t.domain
}

// ToolSpecs builds the current spec list in registration order
func (t *Toolset) ToolSpecs() []ToolSpec {
	t.mu.RLock()
	defer t.mu.RUnlock()

	specs := make([]ToolSpec, 0, len(t.order))
	for _, name := range t.order {
		specs = append(specs, t.tools[name].def.spec(t.domain))
	}
	return specs
}

// ToolCount returns the number of registered tools
func (t *Toolset) ToolCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.order)
}

// ExecuteTool runs the named tool. It never panics; every outcome is a Result.
func (t *Toolset) ExecuteTool(ctx context.Context, name string, params map[string]interface{}) Result {
	t.mu.RLock()
	entry, ok := t.tools[name]
	t.mu.RUnlock()

	if !ok {
		return unknownTool(name)
	}

	start := time.Now()
	result := t.invoke(ctx, entry, params)
	return result.
		withMetadata("domain", t.domain.String()).
		withMetadata("duration_ms", time.Since(start).Milliseconds())
}

func (t *Toolset) invoke(ctx context.Context, entry *toolEntry, params map[string]interface{}) (result Result) {
	name := entry.def.Name

	if err := validateParameters(entry.schema, params); err != nil {
		t.logger.Debug().Err(err).Str("tool", name).Msg("Parameter validation failed")
		return Failed(name, err)
	}

	defer func() {
		if r := recover(); r != nil {
			t.logger.Error().
				Str("tool", name).
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("Tool handler panicked")
			result = Failed(name, fmt.Errorf("%w: panic: %v", ErrHandlerFault, r))
		}
	}()

	if params == nil {
		params = map[string]interface{}{}
	}

	output, err := entry.def.Handler(ctx, params)
	if err != nil {
		return Failed(name, err)
	}
	return Succeeded(name, output)
}
