// Package toolregistry aggregates tool providers and dispatches tool calls by name.
//
// Invariants:
// - Exactly one provider is registered per Domain; re-registering a domain replaces it.
// - Tool specs are regenerated from the owning provider on every query, so discovery
//   and dispatch never diverge.
// - Every dispatch returns a Result; unknown tools, bad parameters and handler faults
//   (including panics) are reported as failures, never raised to the caller.
// - Name collisions across providers are resolved in AllDomains() order.
//
// Usage:
//
//	reg := toolregistry.NewRegistry(logger)
//	ts := toolregistry.NewToolset(toolregistry.DomainDemo, logger)
//	_ = ts.Register(toolregistry.ToolDefinition{
//		Name:        "echo",
//		Description: "Echo input",
//		Parameters:  []toolregistry.ToolParameter{{Name: "text", Type: "string", Description: "text", Required: true}},
//		Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
//			return toolregistry.StringParam(params, "text")
//		},
//	})
//	_ = reg.RegisterProvider(ts)
//	res := reg.Execute(ctx, "echo", map[string]interface{}{"text": "hi"})
package toolregistry
