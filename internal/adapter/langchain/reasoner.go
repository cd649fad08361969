// Package langchain adapts a langchaingo chat model to the reasoner port.
package langchain

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"github.com/planforge/planforge/internal/port/reasoner"
)

const systemPrompt = `You are an execution agent working on one step of a plan.
Use the provided tools to satisfy the step requirement. Call the "terminate"
tool with a summary once the requirement is met or cannot be met.`

// Reasoner drives plan steps with a langchaingo-compatible chat model.
type Reasoner struct {
	model llms.Model
}

// New wraps model as a Reasoner.
func New(model llms.Model) *Reasoner {
	return &Reasoner{model: model}
}

// Think runs one model turn: the step requirement plus accumulated history
// go in, text content and requested tool calls come out.
func (r *Reasoner) Think(ctx context.Context, req reasoner.ThinkRequest) (reasoner.ThinkResult, error) {
	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(systemPrompt)},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(fmt.Sprintf(
				"Agent: %s\nStep requirement: %s", req.AgentName, req.StepRequirement,
			))},
		},
	}
	for _, entry := range req.History {
		messages = append(messages, llms.MessageContent{
			Role:  llms.ChatMessageTypeAI,
			Parts: []llms.ContentPart{llms.TextPart(entry)},
		})
	}

	resp, err := r.model.GenerateContent(ctx, messages, llms.WithTools(describeTools(req.Tools)))
	if err != nil {
		return reasoner.ThinkResult{}, fmt.Errorf("model generate: %w", err)
	}
	if len(resp.Choices) == 0 {
		return reasoner.ThinkResult{}, fmt.Errorf("model returned no choices")
	}

	choice := resp.Choices[0]
	result := reasoner.ThinkResult{Content: choice.Content}
	for _, tc := range choice.ToolCalls {
		result.ToolCalls = append(result.ToolCalls, reasoner.ToolCallRequest{
			ToolKey:   tc.FunctionCall.Name,
			Arguments: []byte(tc.FunctionCall.Arguments),
		})
	}
	// More than one call in a single turn means the model wants them
	// together; run them fanned out.
	result.Parallel = len(result.ToolCalls) > 1
	return result, nil
}

func describeTools(tools []reasoner.ToolDescriptor) []llms.Tool {
	out := make([]llms.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        t.Key,
				Description: t.Description,
				Parameters: map[string]any{
					"type":                 "object",
					"additionalProperties": true,
				},
			},
		})
	}
	return out
}
