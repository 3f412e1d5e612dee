package toolregistry

import (
	"context"
	"fmt"
	"strings"
)

// Provider is a bundle of tools registered under one Domain.
// ToolCount must always equal len(ToolSpecs()), and every spec returned by ToolSpecs
// must be executable through ExecuteTool.
type Provider interface {
	Domain() Domain
	ToolSpecs() []ToolSpec
	ToolCount() int
	ExecuteTool(ctx context.Context, name string, params map[string]interface{}) Result
}

// Kinded is implemented by providers that report a human-readable kind for summaries
type Kinded interface {
	Kind() string
}

func providerKind(p Provider) string {
	if k, ok := p.(Kinded); ok {
		return k.Kind()
	}
	kind := fmt.Sprintf("%T", p)
	if i := strings.LastIndex(kind, "."); i >= 0 {
		kind = kind[i+1:]
	}
	return kind
}
