package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "planforge"

// StartPlanSpan starts a span covering one plan execution.
func StartPlanSpan(ctx context.Context, planID, rootPlanID, toolName string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "plan",
		trace.WithAttributes(
			attribute.String("plan.id", planID),
			attribute.String("plan.root_id", rootPlanID),
			attribute.String("plan.tool_name", toolName),
		),
	)
}

// StartStepSpan starts a span for one step of a plan.
func StartStepSpan(ctx context.Context, planID string, stepIndex int, agentName string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "step",
		trace.WithAttributes(
			attribute.String("plan.id", planID),
			attribute.Int("step.index", stepIndex),
			attribute.String("step.agent", agentName),
		),
	)
}

// StartToolCallSpan starts a span for a tool call within a step.
func StartToolCallSpan(ctx context.Context, planID, toolKey string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "toolcall",
		trace.WithAttributes(
			attribute.String("plan.id", planID),
			attribute.String("toolcall.key", toolKey),
		),
	)
}
