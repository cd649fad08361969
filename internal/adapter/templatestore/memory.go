// Package templatestore provides an in-memory implementation of the plan
// template store port.
package templatestore

import (
	"context"
	"fmt"
	"sync"

	"github.com/planforge/planforge/internal/domain"
	"github.com/planforge/planforge/internal/port/templates"
)

// Memory keeps every published template version in process memory.
// Versions are copy-on-read so callers can never mutate stored state.
type Memory struct {
	mu       sync.RWMutex
	versions map[string][]*templates.PlanTemplate // tool name -> versions, index i = version i+1
}

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{versions: make(map[string][]*templates.PlanTemplate)}
}

// Put publishes tpl as the next version under its tool name.
func (m *Memory) Put(_ context.Context, tpl *templates.PlanTemplate) (int, error) {
	if tpl.ToolName == "" {
		return 0, fmt.Errorf("%w: template tool name is required", domain.ErrValidation)
	}
	if len(tpl.Steps) == 0 {
		return 0, fmt.Errorf("%w: template %q has no steps", domain.ErrValidation, tpl.ToolName)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stored := copyTemplate(tpl)
	stored.Version = len(m.versions[tpl.ToolName]) + 1
	m.versions[tpl.ToolName] = append(m.versions[tpl.ToolName], stored)
	return stored.Version, nil
}

// Get returns the latest version of toolName.
func (m *Memory) Get(_ context.Context, toolName string) (*templates.PlanTemplate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	vs := m.versions[toolName]
	if len(vs) == 0 {
		return nil, fmt.Errorf("%w: template %q", domain.ErrNotFound, toolName)
	}
	return copyTemplate(vs[len(vs)-1]), nil
}

// GetVersion returns one specific version of toolName.
func (m *Memory) GetVersion(_ context.Context, toolName string, version int) (*templates.PlanTemplate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	vs := m.versions[toolName]
	if version < 1 || version > len(vs) {
		return nil, fmt.Errorf("%w: template %q version %d", domain.ErrNotFound, toolName, version)
	}
	return copyTemplate(vs[version-1]), nil
}

// List returns the latest version of every template.
func (m *Memory) List(_ context.Context) ([]*templates.PlanTemplate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*templates.PlanTemplate, 0, len(m.versions))
	for _, vs := range m.versions {
		out = append(out, copyTemplate(vs[len(vs)-1]))
	}
	return out, nil
}

func copyTemplate(tpl *templates.PlanTemplate) *templates.PlanTemplate {
	cp := *tpl
	cp.Steps = make([]templates.StepDef, len(tpl.Steps))
	copy(cp.Steps, tpl.Steps)
	return &cp
}
