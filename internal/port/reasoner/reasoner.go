// Package reasoner defines the port for the model that drives plan steps.
package reasoner

import "context"

// ToolDescriptor tells the model about one callable tool.
type ToolDescriptor struct {
	Key         string // registry key, "<group>_<name>"
	Description string
}

// ToolCallRequest is one tool invocation the model asked for.
type ToolCallRequest struct {
	ToolKey   string
	Arguments []byte // raw JSON arguments as produced by the model
}

// ThinkRequest carries everything the model needs for one think-act cycle.
type ThinkRequest struct {
	PlanID          string
	AgentName       string
	StepRequirement string
	// History is the accumulated conversation for this step: prior think
	// content and summarized tool results, oldest first.
	History []string
	Tools   []ToolDescriptor
}

// ThinkResult is the model's decision for one cycle.
type ThinkResult struct {
	// Content is the model's reasoning text for this cycle.
	Content string
	// ToolCalls are the invocations to perform. Empty means the model chose
	// to answer in text only; the loop records the content and moves on.
	ToolCalls []ToolCallRequest
	// Parallel requests fan-out execution of ToolCalls instead of the
	// default sequential order.
	Parallel bool
}

// Reasoner produces the next action for a plan step.
type Reasoner interface {
	Think(ctx context.Context, req ThinkRequest) (ThinkResult, error)
}
