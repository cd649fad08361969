// Package templates defines the port for plan template storage.
package templates

import "context"

// StepDef is one step of a plan template.
type StepDef struct {
	AgentName       string `json:"agentName"`
	StepRequirement string `json:"stepRequirement"`
}

// PlanTemplate is a reusable plan published under a tool name. Versions are
// immutable; updating a template appends a new version.
type PlanTemplate struct {
	ToolName     string    `json:"toolName"`
	ServiceGroup string    `json:"serviceGroup"`
	Description  string    `json:"description"`
	Version      int       `json:"version"`
	Steps        []StepDef `json:"steps"`
}

// Store resolves tool names to plan templates.
type Store interface {
	// Get returns the latest version of the template published under
	// toolName. domain.ErrNotFound when no such template exists.
	Get(ctx context.Context, toolName string) (*PlanTemplate, error)

	// GetVersion returns a specific template version.
	// domain.ErrNotFound when the name or version is unknown.
	GetVersion(ctx context.Context, toolName string, version int) (*PlanTemplate, error)

	// Put publishes a new version of a template and returns the version
	// number assigned. domain.ErrValidation when the template has no steps.
	Put(ctx context.Context, tpl *PlanTemplate) (int, error)

	// List returns the latest version of every template.
	List(ctx context.Context) ([]*PlanTemplate, error)
}
