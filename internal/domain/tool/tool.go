// Package tool defines the capability interface for plan execution tools and
// the registry that dispatches on serviceGroup-qualified keys.
//
// New tools are added by registering an implementation, never by modifying
// the dispatcher.
package tool

import (
	"context"
	"fmt"
	"sync"

	"github.com/planforge/planforge/internal/domain"
)

// TerminateName is the designated tool that ends a step with a structured
// result. It is intrinsic to the execution loop; registries expose its
// descriptor so reasoners can select it, but its invocation is handled by
// the engine itself.
const TerminateName = "terminate"

// Call carries the plan-scoped context of a single tool invocation.
type Call struct {
	PlanID     string
	RootPlanID string
	Arguments  string // JSON-encoded tool arguments
}

// Tool is a single capability the reasoning loop can invoke.
type Tool interface {
	Name() string
	ServiceGroup() string
	Description() string
	Invoke(ctx context.Context, call Call) (string, error)
}

// Key builds the serviceGroup-qualified registry key for a tool.
// Tools without a service group are keyed by bare name.
func Key(serviceGroup, name string) string {
	if serviceGroup == "" {
		return name
	}
	return serviceGroup + "_" + name
}

// Registry holds the closed set of registered tools keyed on
// serviceGroup_toolName.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool. Registering the same key twice returns ErrConflict.
func (r *Registry) Register(t Tool) error {
	key := Key(t.ServiceGroup(), t.Name())

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[key]; exists {
		return fmt.Errorf("%w: tool %q already registered", domain.ErrConflict, key)
	}
	r.tools[key] = t
	return nil
}

// Get resolves a tool by its qualified key.
func (r *Registry) Get(key string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tools[key]
	if !ok {
		return nil, fmt.Errorf("%w: tool %q", domain.ErrNotFound, key)
	}
	return t, nil
}

// Keys returns all registered tool keys.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.tools))
	for k := range r.tools {
		keys = append(keys, k)
	}
	return keys
}

// Descriptor describes a tool to a reasoning backend.
type Descriptor struct {
	Key          string
	Name         string
	ServiceGroup string
	Description  string
}

// Describe returns descriptors for every registered tool plus the intrinsic
// terminate tool.
func (r *Registry) Describe() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.tools)+1)
	for key, t := range r.tools {
		out = append(out, Descriptor{
			Key:          key,
			Name:         t.Name(),
			ServiceGroup: t.ServiceGroup(),
			Description:  t.Description(),
		})
	}
	out = append(out, Descriptor{
		Key:         TerminateName,
		Name:        TerminateName,
		Description: "End the current step and record a structured result message.",
	})
	return out
}

// Func adapts a plain function into a Tool.
type Func struct {
	ToolName  string
	Group     string
	Docstring string
	Fn        func(ctx context.Context, call Call) (string, error)
}

func (f Func) Name() string         { return f.ToolName }
func (f Func) ServiceGroup() string { return f.Group }
func (f Func) Description() string  { return f.Docstring }

func (f Func) Invoke(ctx context.Context, call Call) (string, error) {
	return f.Fn(ctx, call)
}
