package chat

import (
	"context"

	"orgdesk/pkg/llm"
)

// ToolFunc executes one tool call. Parameters come straight from the model;
// implementations must default missing optional parameters and tolerate
// unexpected extra keys.
type ToolFunc func(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error)

// GatedToolFactory builds a tool callable bound to an authenticated user.
type GatedToolFactory func(userID string) ToolFunc

type binding struct {
	tool llm.Tool
	fn   ToolFunc
}

type gatedBinding struct {
	tool    llm.Tool
	factory GatedToolFactory
}

// RegistryBuilder collects a base tool set plus a capability-gated extension.
// Gated tools are absent from both the descriptor list and the callable
// mapping when no caller identity exists, so an anonymous conversation can
// never reference them.
type RegistryBuilder struct {
	base  []binding
	gated []gatedBinding
}

func NewRegistryBuilder() *RegistryBuilder {
	return &RegistryBuilder{}
}

func (b *RegistryBuilder) RegisterBase(tool llm.Tool, fn ToolFunc) {
	b.base = append(b.base, binding{tool: tool, fn: fn})
}

func (b *RegistryBuilder) RegisterGated(tool llm.Tool, factory GatedToolFactory) {
	b.gated = append(b.gated, gatedBinding{tool: tool, factory: factory})
}

// Resolve materializes the registry for one run. The result is immutable for
// the run's duration.
func (b *RegistryBuilder) Resolve(userID string) *Registry {
	size := len(b.base)
	if userID != "" {
		size += len(b.gated)
	}
	registry := &Registry{
		descriptors: make([]llm.Tool, 0, size),
		callables:   make(map[string]ToolFunc, size),
	}
	for _, bind := range b.base {
		registry.descriptors = append(registry.descriptors, bind.tool)
		registry.callables[bind.tool.Name] = bind.fn
	}
	if userID != "" {
		for _, bind := range b.gated {
			registry.descriptors = append(registry.descriptors, bind.tool)
			registry.callables[bind.tool.Name] = bind.factory(userID)
		}
	}
	return registry
}

// Registry is the resolved tool set advertised to the model for one run.
type Registry struct {
	descriptors []llm.Tool
	callables   map[string]ToolFunc
}

func (r *Registry) Descriptors() []llm.Tool {
	return r.descriptors
}

func (r *Registry) Lookup(name string) (ToolFunc, bool) {
	fn, ok := r.callables[name]
	return fn, ok
}

func paramString(params map[string]interface{}, key, fallback string) string {
	if v, ok := params[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func paramInt(params map[string]interface{}, key string, fallback int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return fallback
}
